package battmon_modbus

// MonitorInfo describes the battery monitor device (common block strings).
type MonitorInfo struct {
	Manufacturer string
	Model        string
	Version      string
	Serial       string
}

// BatterySample is one instantaneous measurement taken from the monitor.
// Current is signed: positive while charging, negative while discharging.
type BatterySample struct {
	// TimestampSeconds is set by the reader at read time.
	TimestampSeconds float64
	VoltageVolts     float64
	CurrentAmps      float64
	TemperatureC     float64
	// validity flags from the monitor status word. A sensor fault clears
	// the corresponding flag; the value must then be ignored.
	VoltageValid bool
	CurrentValid bool
}

type BatteryMonitorModbusReader interface {
	Open() error
	Close() error
	Validate() error
	GetInfo() (*MonitorInfo, error)
	GetSample() (*BatterySample, error)

	// SetLoadDisconnect drives the transfer-relay inhibit coil.
	// true = load disconnected.
	SetLoadDisconnect(disconnect bool) error
	GetLoadDisconnect() (bool, error)
}
