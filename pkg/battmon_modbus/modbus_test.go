package battmon_modbus

import (
	"fmt"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	USE_MOCKED_READER = true
)

func TestMonitorInfo(t *testing.T) {

	reader := MonitorReader()

	err := reader.Open()
	if err != nil {
		t.Error(err)
		return
	}
	err = reader.Validate()
	if err != nil {
		t.Error(err)
		return
	}

	nfo, err := reader.GetInfo()
	if err != nil {
		t.Error(err)
		return
	}
	fmt.Printf("Monitor Info: %+v\n", nfo)
}

func TestSample(t *testing.T) {

	reader := MonitorReader()

	err := reader.Open()
	if err != nil {
		t.Error(err)
		return
	}

	sample, err := reader.GetSample()
	if err != nil {
		t.Error(err)
		return
	}
	fmt.Printf("Battery sample: %+v\n", sample)

	if sample.TimestampSeconds <= 0 {
		t.Error("sample has no timestamp")
	}
}

func TestLoadDisconnect(t *testing.T) {

	reader := MonitorReader()

	err := reader.Open()
	if err != nil {
		t.Error(err)
		return
	}

	err = reader.SetLoadDisconnect(true)
	if err != nil {
		t.Error(err)
		return
	}
	on, err := reader.GetLoadDisconnect()
	if err != nil {
		t.Error(err)
		return
	}
	if !on {
		t.Error("coil should be asserted")
	}

	err = reader.SetLoadDisconnect(false)
	if err != nil {
		t.Error(err)
		return
	}
	on, err = reader.GetLoadDisconnect()
	if err != nil {
		t.Error(err)
		return
	}
	if on {
		t.Error("coil should be released")
	}
}

func RealMonitorReader() BatteryMonitorModbusReader {
	reader, err := CreateBattMonModbusClient("-.-.-.-", 502, 1, 1*time.Second, false, log.New(), nil)
	if err != nil {
		panic(err)
	}
	return reader
}

func MockedMonitorReader() BatteryMonitorModbusReader {
	return CreateTestBattMonModbusClient()
}

func MonitorReader() BatteryMonitorModbusReader {
	if USE_MOCKED_READER {
		return MockedMonitorReader()
	} else {
		return RealMonitorReader()
	}
}
