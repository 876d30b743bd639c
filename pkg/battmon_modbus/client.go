package battmon_modbus

import (
	"errors"
	"fmt"
	"time"

	"github.com/simonvetter/modbus"
	log "github.com/sirupsen/logrus"
)

// Register map of the DC battery monitor.
//
// Holding registers hold the common block (device identity strings).
// Input registers hold the measurement block. Coil 0 drives the
// transfer-relay inhibit output.
const (
	REG_COMMON_MANUFACTURER = 0  // 16 registers, NUL padded
	REG_COMMON_MODEL        = 16 // 16 registers
	REG_COMMON_VERSION      = 32 // 8 registers
	REG_COMMON_SERIAL       = 40 // 16 registers

	REG_MEAS_VOLTAGE = 100 // uint16, 0.01 V
	REG_MEAS_CURRENT = 101 // int16, 0.1 A, positive = charging
	REG_MEAS_TEMP    = 102 // int16, 0.1 degC
	REG_MEAS_STATUS  = 103 // status word, see STATUS_* bits

	COIL_LOAD_DISCONNECT = 0

	STATUS_VOLTAGE_VALID = 1 << 0
	STATUS_CURRENT_VALID = 1 << 1
)

type BattMonModbusClient struct {
	ModbusClient

	logger       *log.Logger
	ignoreVendor bool
}

func (mon *BattMonModbusClient) Open() error {
	if err := mon.client.Open(); err != nil {
		return err
	}
	return nil
}

func (mon BattMonModbusClient) Close() error {
	return mon.client.Close()
}

func (mon BattMonModbusClient) Validate() error {
	// check a measurement block is present
	if _, err := mon.readRegister(REG_MEAS_STATUS, modbus.INPUT_REGISTER); err != nil {
		return err
	}
	if !mon.ignoreVendor {
		model, err := mon.readString(REG_COMMON_MODEL, 32)
		if err != nil {
			return err
		}
		if model == "" {
			return errors.New("could not identify a battery monitor on this unit")
		}
	}
	return nil
}

func (mon BattMonModbusClient) GetInfo() (*MonitorInfo, error) {
	manufacturer, err := mon.readString(REG_COMMON_MANUFACTURER, 32)
	if err != nil {
		return nil, err
	}
	model, err := mon.readString(REG_COMMON_MODEL, 32)
	if err != nil {
		return nil, err
	}
	version, err := mon.readString(REG_COMMON_VERSION, 16)
	if err != nil {
		return nil, err
	}
	serial, err := mon.readString(REG_COMMON_SERIAL, 32)
	if err != nil {
		return nil, err
	}

	return &MonitorInfo{
		Manufacturer: manufacturer,
		Model:        model,
		Version:      version,
		Serial:       serial,
	}, nil
}

func (mon BattMonModbusClient) GetSample() (*BatterySample, error) {
	regs, err := mon.readRegisters(REG_MEAS_VOLTAGE, 4, modbus.INPUT_REGISTER)
	if err != nil {
		return nil, err
	}
	status := regs[3]

	return &BatterySample{
		TimestampSeconds: float64(time.Now().UnixMilli()) / 1000,
		VoltageVolts:     mon.applySF(regs[0], -2),
		CurrentAmps:      mon.applySFint16(int16(regs[1]), -1),
		TemperatureC:     mon.applySFint16(int16(regs[2]), -1),
		VoltageValid:     status&STATUS_VOLTAGE_VALID != 0,
		CurrentValid:     status&STATUS_CURRENT_VALID != 0,
	}, nil
}

func (mon BattMonModbusClient) SetLoadDisconnect(disconnect bool) error {
	return mon.writeCoil(COIL_LOAD_DISCONNECT, disconnect)
}

func (mon BattMonModbusClient) GetLoadDisconnect() (bool, error) {
	return mon.readCoil(COIL_LOAD_DISCONNECT)
}

func traceLoggerInstrumentation(logger *log.Entry) *ModbusInstrument {
	return &ModbusInstrument{
		RecordTime: func(fnName string, readTime time.Duration) {
			logger.Tracef("modbus [%s]: %d millis", fnName, readTime.Milliseconds())
		},
	}
}

func CreateBattMonModbusClient(ip string, port uint, unitAddress uint8, timeout time.Duration,
	ignoreVendor bool, logger *log.Logger, instrumentation *ModbusInstrument) (BatteryMonitorModbusReader, error) {
	client, err := modbus.NewClient(&modbus.ClientConfiguration{
		URL:     fmt.Sprintf("tcp://%s:%d", ip, port),
		Timeout: timeout,
	})
	if err != nil {
		return nil, err
	}

	// instrumentation
	var inst []ModbusInstrument
	logInst := traceLoggerInstrumentation(logger.WithField("target", "battmon").WithField("unit", unitAddress))
	if logInst != nil {
		inst = append(inst, *logInst)
	}
	if instrumentation != nil {
		inst = append(inst, *instrumentation)
	}

	// set monitor unit address
	if unitAddress > 0 {
		err = client.SetUnitId(unitAddress)
		if err != nil {
			return nil, err
		}
	}

	mon := BattMonModbusClient{
		ModbusClient: ModbusClient{
			client:     client,
			instrument: inst,
		},
		logger:       logger,
		ignoreVendor: ignoreVendor,
	}
	return &mon, nil
}
