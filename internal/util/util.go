package util

import (
	"battguard/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		MonitorModbusTcp: config.MonitorModbusTCPConfig{
			Host:        "-.-.-.-",
			Port:        502,
			UnitAddress: 1,
		},
		MQTT: config.MQTTConfig{
			Host: "localhost",
			Port: 1883,
		},
		GuardConfig: config.GuardConfig{
			Mode:               "soc",
			PollIntervalMillis: 5000,
		},
		BatteryConfig: config.BatteryConfig{
			CapacityAh:         300,
			InternalResistOhms: 0.008,
		},
		SocConfig: config.SocConfig{
			LowPercent:          60,
			HighPercent:         80,
			CurrentDeadbandAmps: 1.6,
			MinIntervalSeconds:  5,
			MaxStepPercent:      1.0,
			SyncFloorPercent:    40,
			SyncCeilPercent:     101,
		},
		VoltageConfig: config.VoltageConfig{
			LowVolts:          49.5,
			HighVolts:         53.0,
			SanityFloorVolts:  40,
			DebounceCountLow:  6,
			DebounceCountHigh: 6,
		},
		Port: 8080,
	}
}
