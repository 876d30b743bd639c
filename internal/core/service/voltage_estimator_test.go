package service

import (
	"testing"

	"battguard/internal/core/domain"
	"battguard/pkg/battmon_modbus"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func testVoltageConfig() VoltageEstimatorConfig {
	return VoltageEstimatorConfig{
		LowVolts:           49.5,
		HighVolts:          53.0,
		InternalResistOhms: 0.008,
		SanityFloorVolts:   40,
		DebounceCountLow:   6,
		DebounceCountHigh:  6,
	}
}

func voltSample(voltage, current float64) *battmon_modbus.BatterySample {
	return &battmon_modbus.BatterySample{
		TimestampSeconds: 0,
		VoltageVolts:     voltage,
		CurrentAmps:      current,
		TemperatureC:     21,
		VoltageValid:     true,
		CurrentValid:     true,
	}
}

func TestVoltageEstimatorDebouncedTrigger(t *testing.T) {
	e := NewVoltageEstimator(testVoltageConfig(), zap.NewNop())

	// 49.0V under a 10A load compensates to 49.08V, still low
	for i := 0; i < 5; i++ {
		d := e.Update(voltSample(49.0, -10), false)
		assert.Equal(t, domain.DecisionNone, d)
	}
	d := e.Update(voltSample(49.0, -10), false)
	assert.Equal(t, domain.DecisionTrigger, d)
}

func TestVoltageEstimatorInterleavedGoodSampleResets(t *testing.T) {
	e := NewVoltageEstimator(testVoltageConfig(), zap.NewNop())

	for i := 0; i < 5; i++ {
		e.Update(voltSample(49.0, -10), false)
	}
	// one healthy reading restarts the run
	d := e.Update(voltSample(50.5, -10), false)
	assert.Equal(t, domain.DecisionNone, d)

	for i := 0; i < 5; i++ {
		d = e.Update(voltSample(49.0, -10), false)
		assert.Equal(t, domain.DecisionNone, d)
	}
	d = e.Update(voltSample(49.0, -10), false)
	assert.Equal(t, domain.DecisionTrigger, d)
}

func TestVoltageEstimatorCompensation(t *testing.T) {
	e := NewVoltageEstimator(testVoltageConfig(), zap.NewNop())

	// 49.1V at 100A discharge compensates to 49.9V, above the low mark
	d := e.Update(voltSample(49.1, -100), false)
	assert.Equal(t, domain.DecisionNone, d)
	comp, ok := e.CompensatedVoltage()
	assert.True(t, ok)
	assert.InDelta(t, 49.9, comp, 1e-9)

	// no compensation while charging
	e.Update(voltSample(49.1, 100), false)
	comp, _ = e.CompensatedVoltage()
	assert.InDelta(t, 49.1, comp, 1e-9)
}

func TestVoltageEstimatorSanityFloorBlocksTrigger(t *testing.T) {
	e := NewVoltageEstimator(testVoltageConfig(), zap.NewNop())

	// a reading this low means a broken sense lead, not a flat bank
	for i := 0; i < 12; i++ {
		d := e.Update(voltSample(38.0, -10), false)
		assert.Equal(t, domain.DecisionNone, d)
	}
}

func TestVoltageEstimatorChargingOnlyRelease(t *testing.T) {
	e := NewVoltageEstimator(testVoltageConfig(), zap.NewNop())

	// recovery counts only while charging
	for i := 0; i < 12; i++ {
		d := e.Update(voltSample(53.5, -2), false)
		assert.Equal(t, domain.DecisionNone, d)
	}

	for i := 0; i < 5; i++ {
		d := e.Update(voltSample(53.5, 2), false)
		assert.Equal(t, domain.DecisionNone, d)
	}
	d := e.Update(voltSample(53.5, 2), false)
	assert.Equal(t, domain.DecisionRelease, d)
}

func TestVoltageEstimatorNoReleaseAfterRelease(t *testing.T) {
	e := NewVoltageEstimator(testVoltageConfig(), zap.NewNop())

	// latch already released: recovery run never starts
	for i := 0; i < 12; i++ {
		d := e.Update(voltSample(53.5, 2), true)
		assert.Equal(t, domain.DecisionNone, d)
	}
}

func TestVoltageEstimatorInvalidSampleResetsRuns(t *testing.T) {
	e := NewVoltageEstimator(testVoltageConfig(), zap.NewNop())

	for i := 0; i < 5; i++ {
		e.Update(voltSample(49.0, -10), false)
	}
	bad := voltSample(49.0, -10)
	bad.VoltageValid = false
	d := e.Update(bad, false)
	assert.Equal(t, domain.DecisionNone, d)

	d = e.Update(voltSample(49.0, -10), false)
	assert.Equal(t, domain.DecisionNone, d)
}

func TestVoltageEstimatorModeAndSoc(t *testing.T) {
	e := NewVoltageEstimator(testVoltageConfig(), zap.NewNop())
	assert.Equal(t, "voltage", e.Mode())
	_, ok := e.SocPercent()
	assert.False(t, ok)
	assert.False(t, e.Sync(50))
	_, ok = e.CompensatedVoltage()
	assert.False(t, ok)
}
