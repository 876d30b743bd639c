package port

import (
	"battguard/internal/core/domain"
	"battguard/pkg/battmon_modbus"
)

// EstimatorLogic turns periodic battery samples into disconnect/reconnect
// decisions. Implementations keep their own state; updates are not
// re-entrant (the guard actor serializes them).
type EstimatorLogic interface {
	Mode() string
	Update(sample *battmon_modbus.BatterySample, latchReleased bool) domain.Decision

	// Sync overwrites the running SOC estimate with an externally
	// computed value. Returns false if the value was out of band or the
	// mode carries no SOC state.
	Sync(socPercent float64) bool

	SocPercent() (float64, bool)
	CompensatedVoltage() (float64, bool)
}
