package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap/zapcore"
)

type Config struct {
	LogLevel         zapcore.Level
	MonitorModbusTcp MonitorModbusTCPConfig `mapstructure:"monitor_modbus_tcp"`
	MQTT             MQTTConfig             `mapstructure:"mqtt"`

	GuardConfig   GuardConfig   `mapstructure:"guard"`
	SocConfig     SocConfig     `mapstructure:"soc"`
	VoltageConfig VoltageConfig `mapstructure:"voltage"`
	BatteryConfig BatteryConfig `mapstructure:"battery"`
	Port          uint          `mapstructure:"port"`
	HttpLog       bool          `mapstructure:"http_log"`
}

type MonitorModbusTCPConfig struct {
	Host          string
	Port          uint
	UnitAddress   uint `mapstructure:"unit_address"`
	IgnoreVendor  bool `mapstructure:"ignore_vendor"`
	TimeoutMillis uint `mapstructure:"timeout_millis"`
}

type GuardConfig struct {
	// "soc" or "voltage"
	Mode               string
	PollIntervalMillis uint32 `mapstructure:"poll_interval_millis"`
}

type BatteryConfig struct {
	CapacityAh         float64 `mapstructure:"capacity_ah"`
	InternalResistOhms float64 `mapstructure:"internal_resist_ohms"`
}

type SocConfig struct {
	LowPercent          float64 `mapstructure:"low_percent"`
	HighPercent         float64 `mapstructure:"high_percent"`
	CurrentDeadbandAmps float64 `mapstructure:"current_deadband_amps"`
	MinIntervalSeconds  float64 `mapstructure:"min_interval_seconds"`
	MaxStepPercent      float64 `mapstructure:"max_step_percent"`
	SyncFloorPercent    float64 `mapstructure:"sync_floor_percent"`
	SyncCeilPercent     float64 `mapstructure:"sync_ceil_percent"`
	RestoreFromMQTT     bool    `mapstructure:"restore_from_mqtt"`
}

type VoltageConfig struct {
	LowVolts          float64 `mapstructure:"low_volts"`
	HighVolts         float64 `mapstructure:"high_volts"`
	SanityFloorVolts  float64 `mapstructure:"sanity_floor_volts"`
	DebounceCountLow  int     `mapstructure:"debounce_count_low"`
	DebounceCountHigh int     `mapstructure:"debounce_count_high"`
}

type MQTTConfig struct {
	Host              string
	Port              int
	Username          string
	Password          string
	BaseTopic         string `mapstructure:"base_topic"`
	HADiscoveryEnable bool   `mapstructure:"ha_discovery_enable"`
	HADiscoveryTopic  string `mapstructure:"ha_discovery_topic"`
}

func CheckMQTTTopic(baseTopic string) (string, error) {
	// check and fix base topic
	lowerBaseTopic := strings.ToLower(baseTopic)
	baseTopicRegexp := regexp.MustCompile("^[a-z0-9_]+$")
	matches := baseTopicRegexp.FindAllStringSubmatch(lowerBaseTopic, 1)
	if len(matches) <= 0 {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}

func (c Config) Validate() error {
	switch c.GuardConfig.Mode {
	case "soc":
		if c.BatteryConfig.CapacityAh <= 0 {
			return errors.New("battery.capacity_ah must be > 0 in soc mode")
		}
		if c.SocConfig.LowPercent >= c.SocConfig.HighPercent {
			return fmt.Errorf("soc.low_percent (%.1f) must be below soc.high_percent (%.1f)",
				c.SocConfig.LowPercent, c.SocConfig.HighPercent)
		}
		if c.SocConfig.LowPercent < 0 || c.SocConfig.HighPercent > 100 {
			return errors.New("soc thresholds must be within [0, 100]")
		}
	case "voltage":
		if c.VoltageConfig.LowVolts >= c.VoltageConfig.HighVolts {
			return fmt.Errorf("voltage.low_volts (%.2f) must be below voltage.high_volts (%.2f)",
				c.VoltageConfig.LowVolts, c.VoltageConfig.HighVolts)
		}
		if c.VoltageConfig.DebounceCountLow < 1 || c.VoltageConfig.DebounceCountHigh < 1 {
			return errors.New("voltage debounce counts must be >= 1")
		}
	default:
		return fmt.Errorf("guard.mode must be \"soc\" or \"voltage\", got %q", c.GuardConfig.Mode)
	}
	if c.GuardConfig.PollIntervalMillis < 500 {
		return errors.New("guard.poll_interval_millis must be >= 500")
	}
	return nil
}
