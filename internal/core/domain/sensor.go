package domain

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"battguard/pkg/battmon_modbus"

	"github.com/carlmjohnson/versioninfo"
)

const (
	SENSOR_ID_BRIDGE_STATE           = "bridge"
	SENSOR_ID_BATTERY_SOC            = "battery_soc"
	SENSOR_ID_BATTERY_VOLTAGE        = "battery_voltage"
	SENSOR_ID_BATTERY_CURRENT        = "battery_current"
	SENSOR_ID_BATTERY_COMP_VOLTAGE   = "battery_compensated_voltage"
	SENSOR_ID_BATTERY_TEMPERATURE    = "battery_temperature"
	BINARY_SENSOR_ID_LOAD_DISCONNECT = "load_disconnect"
	INPUT_NUMBER_ID_SOC_SYNC         = "soc_sync"

	STATE_CLASS_MEASUREMENT  = "measurement"
	DEVICE_CLASS_BATTERY     = "battery"
	DEVICE_CLASS_CURRENT     = "current"
	DEVICE_CLASS_VOLTAGE     = "voltage"
	DEVICE_CLASS_TEMPERATURE = "temperature"
	DEVICE_CLASS_POWER       = "power"
	ENTITY_CLASS_DIAGNOSTIC  = "diagnostic"
	SENSOR_TYPE_SENSOR       = "sensor"
	SENSOR_TYPE_BINARY       = "binary_sensor"
	INPUT_NUMBER_MODE_BOX    = "box"
)

func BridgeDevice(baseTopic string) Device {
	return Device{
		Id:           fmt.Sprintf("battguard_bridge_%s", md5HashShort(baseTopic)),
		Manufacturer: "BattGuard",
		Model:        "BattGuard",
		Version:      versioninfo.Short(),
		Name:         fmt.Sprintf("BattGuard %s", md5HashShort(baseTopic)),
	}
}

func MonitorDevice(info *battmon_modbus.MonitorInfo) Device {
	return Device{
		Id:           fmt.Sprintf("bg_battmon_%s", md5HashShort(info.Serial)),
		Version:      info.Version,
		Manufacturer: info.Manufacturer,
		Model:        info.Model,
		Name:         fmt.Sprintf("%s %s %s", info.Manufacturer, info.Model, md5HashShort(info.Serial)),
	}
}

func IdDevice(device Device) Device {
	return Device{
		Id:   device.Id,
		Name: device.Name,
	}
}

func BridgeSensors(bridgeDevice Device) []GenericSensor {
	return []GenericSensor{
		{
			Device:     bridgeDevice,
			Id:         SENSOR_ID_BRIDGE_STATE,
			SensorType: SENSOR_TYPE_BINARY,
			Name:       "Bridge state",
			UniqueId:   uniqueId(bridgeDevice.Id, SENSOR_ID_BRIDGE_STATE),
		},
	}
}

func MonitorBaseSensors(monitorDevice Device) []GenericSensor {

	var sensors []GenericSensor

	// Battery voltage
	sensors = append(sensors, GenericSensor{
		Device:            monitorDevice,
		Id:                SENSOR_ID_BATTERY_VOLTAGE,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Battery voltage",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_VOLTAGE,
		UnitOfMeasurement: "V",
		UniqueId:          uniqueId(monitorDevice.Id, SENSOR_ID_BATTERY_VOLTAGE),
	})

	// Battery current
	sensors = append(sensors, GenericSensor{
		Device:            monitorDevice,
		Id:                SENSOR_ID_BATTERY_CURRENT,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Battery current",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_CURRENT,
		UnitOfMeasurement: "A",
		UniqueId:          uniqueId(monitorDevice.Id, SENSOR_ID_BATTERY_CURRENT),
	})

	// Battery temperature
	sensors = append(sensors, GenericSensor{
		Device:            monitorDevice,
		Id:                SENSOR_ID_BATTERY_TEMPERATURE,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Battery temperature",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_TEMPERATURE,
		UnitOfMeasurement: "°C",
		EntityCategory:    ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:          uniqueId(monitorDevice.Id, SENSOR_ID_BATTERY_TEMPERATURE),
	})

	// Load disconnect output state
	sensors = append(sensors, GenericSensor{
		Device:     monitorDevice,
		Id:         BINARY_SENSOR_ID_LOAD_DISCONNECT,
		SensorType: SENSOR_TYPE_BINARY,
		Name:       "Load disconnect",
		Icon:       "mdi:transmission-tower-off",
		UniqueId:   uniqueId(monitorDevice.Id, BINARY_SENSOR_ID_LOAD_DISCONNECT),
	})

	return sensors
}

func GuardSocSensors(monitorDevice Device) []GenericSensor {

	var sensors []GenericSensor

	// Battery SoC (coulomb counted)
	sensors = append(sensors, GenericSensor{
		Device:            monitorDevice,
		Id:                SENSOR_ID_BATTERY_SOC,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Battery SoC",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_BATTERY,
		UnitOfMeasurement: "%",
		UniqueId:          uniqueId(monitorDevice.Id, SENSOR_ID_BATTERY_SOC),
	})

	return sensors
}

func GuardVoltageSensors(monitorDevice Device) []GenericSensor {

	var sensors []GenericSensor

	// IR-drop compensated voltage
	sensors = append(sensors, GenericSensor{
		Device:            monitorDevice,
		Id:                SENSOR_ID_BATTERY_COMP_VOLTAGE,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Battery compensated voltage",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_VOLTAGE,
		UnitOfMeasurement: "V",
		UniqueId:          uniqueId(monitorDevice.Id, SENSOR_ID_BATTERY_COMP_VOLTAGE),
	})

	return sensors
}

func GuardSocInputNumbers(monitorDevice Device) []GenericInputNumber {
	return []GenericInputNumber{
		{
			Device:       monitorDevice,
			Id:           INPUT_NUMBER_ID_SOC_SYNC,
			Name:         "Battery SoC sync",
			Icon:         "mdi:battery-sync",
			Min:          0,
			Max:          100,
			Step:         0.1,
			Mode:         INPUT_NUMBER_MODE_BOX,
			InitialValue: 100,
			UniqueId:     uniqueId(monitorDevice.Id, INPUT_NUMBER_ID_SOC_SYNC),
		},
	}
}

func uniqueId(deviceId, sensorId string) string {
	return fmt.Sprintf("%s_%s", deviceId, sensorId)
}

func md5Hash(text string) string {
	hash := md5.Sum([]byte(text))
	return hex.EncodeToString(hash[:])
}

func md5HashShort(text string) string {
	hash := md5Hash(text)
	return hash[0:8]
}
