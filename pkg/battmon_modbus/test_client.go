package battmon_modbus

import (
	"errors"
	"sync"
	"time"
)

func CreateTestBattMonModbusClient() *TestBattMonModbusClient {
	return &TestBattMonModbusClient{
		VoltageVolts: 52.8,
		CurrentAmps:  -3.5,
		TemperatureC: 21.5,
	}
}

// TestBattMonModbusClient is a scriptable in-memory monitor for tests.
// Fields can be mutated between samples to play out a scenario.
type TestBattMonModbusClient struct {
	mu sync.Mutex

	VoltageVolts   float64
	CurrentAmps    float64
	TemperatureC   float64
	SensorFault    bool
	FailCoilWrites bool

	disconnect bool
	coilWrites int
}

func (mon *TestBattMonModbusClient) Open() error {
	return nil
}

func (mon *TestBattMonModbusClient) Close() error {
	return nil
}

func (mon *TestBattMonModbusClient) Validate() error {
	return nil
}

func (mon *TestBattMonModbusClient) GetInfo() (*MonitorInfo, error) {
	return &MonitorInfo{
		Manufacturer: "BattGuard",
		Model:        "Shunt Monitor DC 500A",
		Version:      "2.1",
		Serial:       "BG-TEST-0001",
	}, nil
}

func (mon *TestBattMonModbusClient) GetSample() (*BatterySample, error) {
	mon.mu.Lock()
	defer mon.mu.Unlock()
	return &BatterySample{
		TimestampSeconds: float64(time.Now().UnixMilli()) / 1000,
		VoltageVolts:     mon.VoltageVolts,
		CurrentAmps:      mon.CurrentAmps,
		TemperatureC:     mon.TemperatureC,
		VoltageValid:     !mon.SensorFault,
		CurrentValid:     !mon.SensorFault,
	}, nil
}

func (mon *TestBattMonModbusClient) SetLoadDisconnect(disconnect bool) error {
	mon.mu.Lock()
	defer mon.mu.Unlock()
	if mon.FailCoilWrites {
		return errors.New("coil write failed")
	}
	mon.disconnect = disconnect
	mon.coilWrites++
	return nil
}

func (mon *TestBattMonModbusClient) GetLoadDisconnect() (bool, error) {
	mon.mu.Lock()
	defer mon.mu.Unlock()
	return mon.disconnect, nil
}

func (mon *TestBattMonModbusClient) Set(voltage, current float64) {
	mon.mu.Lock()
	defer mon.mu.Unlock()
	mon.VoltageVolts = voltage
	mon.CurrentAmps = current
}

func (mon *TestBattMonModbusClient) SetFailCoilWrites(fail bool) {
	mon.mu.Lock()
	defer mon.mu.Unlock()
	mon.FailCoilWrites = fail
}

func (mon *TestBattMonModbusClient) CoilWrites() int {
	mon.mu.Lock()
	defer mon.mu.Unlock()
	return mon.coilWrites
}
