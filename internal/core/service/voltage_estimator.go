package service

import (
	"battguard/internal/core/domain"
	"battguard/internal/core/port"
	"battguard/pkg/battmon_modbus"

	"go.uber.org/zap"
)

type VoltageEstimatorConfig struct {
	LowVolts           float64
	HighVolts          float64
	InternalResistOhms float64
	SanityFloorVolts   float64
	DebounceCountLow   int
	DebounceCountHigh  int
}

// VoltageEstimator is the hysteresis mode: it compares a load-compensated
// terminal voltage against a low/high threshold pair and only emits a
// decision after the threshold has held for a contiguous run of samples.
type VoltageEstimator struct {
	cfg    VoltageEstimatorConfig
	logger *zap.Logger

	disconnectCount int
	reconnectCount  int
	lastCompensated float64
	haveSample      bool
}

func NewVoltageEstimator(cfg VoltageEstimatorConfig, logger *zap.Logger) *VoltageEstimator {
	return &VoltageEstimator{
		cfg:    cfg,
		logger: logger,
	}
}

func (e *VoltageEstimator) Mode() string {
	return "voltage"
}

func (e *VoltageEstimator) Update(sample *battmon_modbus.BatterySample, latchReleased bool) domain.Decision {
	if sample == nil || !sample.VoltageValid || !sample.CurrentValid {
		// broken samples must not count toward either debounce run
		e.disconnectCount = 0
		e.reconnectCount = 0
		e.logger.Debug("voltage: sample without valid readings, skipping")
		return domain.DecisionNone
	}

	voltage := sample.VoltageVolts
	discharging := sample.CurrentAmps < 0

	compensated := voltage
	if discharging {
		// back out the IR drop across the battery's internal
		// resistance so a heavy load does not look like depletion
		compensated = voltage - sample.CurrentAmps*e.cfg.InternalResistOhms
	}
	e.lastCompensated = compensated
	e.haveSample = true

	switch {
	case compensated < e.cfg.LowVolts && voltage > e.cfg.SanityFloorVolts && discharging:
		e.reconnectCount = 0
		e.disconnectCount++
		e.logger.Sugar().Debugf("voltage: low %.2fV (%d/%d)",
			compensated, e.disconnectCount, e.cfg.DebounceCountLow)
		if e.disconnectCount >= e.cfg.DebounceCountLow {
			e.disconnectCount = 0
			return domain.DecisionTrigger
		}
	case compensated > e.cfg.HighVolts && !latchReleased && !discharging:
		e.disconnectCount = 0
		e.reconnectCount++
		e.logger.Sugar().Debugf("voltage: recovered %.2fV (%d/%d)",
			compensated, e.reconnectCount, e.cfg.DebounceCountHigh)
		if e.reconnectCount >= e.cfg.DebounceCountHigh {
			e.disconnectCount = 0
			e.reconnectCount = 0
			return domain.DecisionRelease
		}
	default:
		e.disconnectCount = 0
		e.reconnectCount = 0
	}

	return domain.DecisionNone
}

func (e *VoltageEstimator) Sync(_ float64) bool {
	return false
}

func (e *VoltageEstimator) SocPercent() (float64, bool) {
	return 0, false
}

func (e *VoltageEstimator) CompensatedVoltage() (float64, bool) {
	return e.lastCompensated, e.haveSample
}

// ensure interface compliance
var _ port.EstimatorLogic = (*VoltageEstimator)(nil)
