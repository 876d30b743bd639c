package events

import (
	. "battguard/internal/core/domain"
	"battguard/pkg/battmon_modbus"
)

func BatterySampleToUpdateEvents(sample *battmon_modbus.BatterySample) []any {
	var events []any

	if sample.VoltageValid {
		events = append(events, FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: SENSOR_ID_BATTERY_VOLTAGE,
			},
			Value:    sample.VoltageVolts,
			Decimals: 2,
		})
	}
	if sample.CurrentValid {
		events = append(events, FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: SENSOR_ID_BATTERY_CURRENT,
			},
			Value:    sample.CurrentAmps,
			Decimals: 1,
		})
	}
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_BATTERY_TEMPERATURE,
		},
		Value:    sample.TemperatureC,
		Decimals: 1,
	})

	return events
}

func SocUpdateEvents(socPercent float64) []any {
	var events []any
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_BATTERY_SOC,
		},
		Value:    socPercent,
		Decimals: 2,
	})
	return events
}

func CompensatedVoltageUpdateEvents(volts float64) []any {
	var events []any
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_BATTERY_COMP_VOLTAGE,
		},
		Value:    volts,
		Decimals: 2,
	})
	return events
}

func LoadDisconnectUpdateEvent(disconnected bool) any {
	return BinarySensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: BINARY_SENSOR_ID_LOAD_DISCONNECT,
		},
		Value: disconnected,
	}
}

// SocSyncNumberUpdateEvent mirrors the current estimate onto the sync
// number's state topic. It is published retained, which doubles as the
// persistence slot picked up on the next start.
func SocSyncNumberUpdateEvent(socPercent float64) any {
	return InputNumberSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: INPUT_NUMBER_ID_SOC_SYNC,
		},
		Value:    socPercent,
		Decimals: 1,
	}
}
