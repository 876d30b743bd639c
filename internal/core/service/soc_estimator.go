package service

import (
	"math"

	"battguard/internal/core/domain"
	"battguard/internal/core/port"
	"battguard/pkg/battmon_modbus"

	"go.uber.org/zap"
)

type SocEstimatorConfig struct {
	CapacityAh          float64
	CurrentDeadbandAmps float64
	MinIntervalSeconds  float64
	MaxStepPercent      float64
	SocLowPercent       float64
	SocHighPercent      float64
	SyncFloorPercent    float64
	SyncCeilPercent     float64
}

// SocEstimator is the coulomb-counting mode: trapezoidal integration of
// current samples into a percent-of-capacity estimate. The integration
// itself is the debounce filter; decisions follow directly from the
// accumulated value.
type SocEstimator struct {
	cfg    SocEstimatorConfig
	logger *zap.Logger

	socPercent    float64
	prevCurrent   float64
	prevTimestamp float64
	seeded        bool
}

func NewSocEstimator(cfg SocEstimatorConfig, logger *zap.Logger) *SocEstimator {
	return &SocEstimator{
		cfg:    cfg,
		logger: logger,
		// fully charged assumption until a sync lands
		socPercent: 100,
	}
}

func (e *SocEstimator) Mode() string {
	return "soc"
}

func (e *SocEstimator) Update(sample *battmon_modbus.BatterySample, _ bool) domain.Decision {
	if sample == nil || !sample.CurrentValid {
		e.logger.Debug("soc: sample without valid current, skipping")
		return domain.DecisionNone
	}

	current := sample.CurrentAmps
	if math.Abs(current) < e.cfg.CurrentDeadbandAmps {
		// suppress sensor noise/offset near zero
		current = 0
	}

	if !e.seeded {
		e.prevCurrent = current
		e.prevTimestamp = sample.TimestampSeconds
		e.seeded = true
		return e.decide()
	}

	dt := sample.TimestampSeconds - e.prevTimestamp
	if dt < e.cfg.MinIntervalSeconds {
		// duplicate or re-entrant callback, the monitor cannot have
		// produced new data yet
		e.logger.Sugar().Debugf("soc: update %.1fs after previous, skipping", dt)
		return domain.DecisionNone
	}

	avgCurrent := (e.prevCurrent + current) / 2
	deltaAh := avgCurrent * dt / 3600
	deltaPercent := deltaAh / e.cfg.CapacityAh * 100

	if math.Abs(deltaPercent) > e.cfg.MaxStepPercent {
		// a single step this large means a bad current reading.
		// drop it without advancing the previous-sample anchor.
		e.logger.Warn("soc: discarding outlier step",
			zap.Float64("delta_percent", deltaPercent),
			zap.Float64("current_amps", sample.CurrentAmps))
		return domain.DecisionNone
	}

	e.socPercent = clampPercent(e.socPercent + deltaPercent)
	e.prevCurrent = current
	e.prevTimestamp = sample.TimestampSeconds

	e.logger.Sugar().Debugf("soc: %.1f%% (%+.4f%%)", e.socPercent, deltaPercent)

	return e.decide()
}

func (e *SocEstimator) decide() domain.Decision {
	switch {
	case e.socPercent < e.cfg.SocLowPercent:
		return domain.DecisionTrigger
	case e.socPercent > e.cfg.SocHighPercent:
		return domain.DecisionRelease
	default:
		return domain.DecisionNone
	}
}

func (e *SocEstimator) Sync(socPercent float64) bool {
	if socPercent <= e.cfg.SyncFloorPercent || socPercent >= e.cfg.SyncCeilPercent {
		e.logger.Sugar().Infof("soc: sync value %.1f outside band (%.0f,%.0f), ignored",
			socPercent, e.cfg.SyncFloorPercent, e.cfg.SyncCeilPercent)
		return false
	}
	e.logger.Sugar().Infof("soc: sync %.1f%% -> %.1f%%", e.socPercent, socPercent)
	e.socPercent = socPercent
	return true
}

func (e *SocEstimator) SocPercent() (float64, bool) {
	return e.socPercent, true
}

func (e *SocEstimator) CompensatedVoltage() (float64, bool) {
	return 0, false
}

func clampPercent(value float64) float64 {
	return math.Max(0, math.Min(value, 100))
}

// ensure interface compliance
var _ port.EstimatorLogic = (*SocEstimator)(nil)
