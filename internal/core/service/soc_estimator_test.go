package service

import (
	"testing"

	"battguard/internal/core/domain"
	"battguard/pkg/battmon_modbus"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func testSocConfig() SocEstimatorConfig {
	return SocEstimatorConfig{
		CapacityAh:          300,
		CurrentDeadbandAmps: 1.6,
		MinIntervalSeconds:  5,
		MaxStepPercent:      1.0,
		SocLowPercent:       60,
		SocHighPercent:      80,
		SyncFloorPercent:    40,
		SyncCeilPercent:     101,
	}
}

func socSample(ts, current float64) *battmon_modbus.BatterySample {
	return &battmon_modbus.BatterySample{
		TimestampSeconds: ts,
		VoltageVolts:     52.8,
		CurrentAmps:      current,
		TemperatureC:     21,
		VoltageValid:     true,
		CurrentValid:     true,
	}
}

func TestSocEstimatorSteadyDischarge(t *testing.T) {
	e := NewSocEstimator(testSocConfig(), zap.NewNop())

	// first sample only seeds the anchor; above the high threshold the
	// per-sample intent is a release, which the latch absorbs once committed
	d := e.Update(socSample(0, -18), false)
	assert.Equal(t, domain.DecisionRelease, d)
	soc, ok := e.SocPercent()
	assert.True(t, ok)
	assert.InDelta(t, 100.0, soc, 1e-9)

	// 18A over 20s out of 300Ah is 0.1Ah, 1/30 of a percent
	d = e.Update(socSample(20, -18), false)
	assert.Equal(t, domain.DecisionRelease, d)
	soc, _ = e.SocPercent()
	assert.InDelta(t, 100.0-1.0/30, soc, 1e-9)

	d = e.Update(socSample(40, -18), false)
	assert.Equal(t, domain.DecisionRelease, d)
	soc, _ = e.SocPercent()
	assert.InDelta(t, 100.0-2.0/30, soc, 1e-9)

	// the repeated release intent never produces a second actuation
	l := NewDisconnectLatch()
	l.Commit(l.Plan(d))
	assert.Nil(t, l.Plan(e.Update(socSample(60, -18), false)))
}

func TestSocEstimatorTriggersBelowLowThreshold(t *testing.T) {
	e := NewSocEstimator(testSocConfig(), zap.NewNop())

	assert.True(t, e.Sync(60.05))

	e.Update(socSample(0, -18), false)

	ts := 0.0
	var d domain.Decision
	steps := 0
	for d != domain.DecisionTrigger && steps < 10 {
		ts += 20
		d = e.Update(socSample(ts, -18), false)
		steps++
	}
	assert.Equal(t, domain.DecisionTrigger, d)
	// 0.05% of headroom at 1/30 percent per step
	assert.Equal(t, 2, steps)
	soc, _ := e.SocPercent()
	assert.Less(t, soc, 60.0)
}

func TestSocEstimatorReleasesAboveHighThreshold(t *testing.T) {
	e := NewSocEstimator(testSocConfig(), zap.NewNop())

	assert.True(t, e.Sync(79.99))

	e.Update(socSample(0, 18), false)
	d := e.Update(socSample(20, 18), false)
	assert.Equal(t, domain.DecisionRelease, d)
}

func TestSocEstimatorDeadbandZeroesNoise(t *testing.T) {
	e := NewSocEstimator(testSocConfig(), zap.NewNop())

	e.Update(socSample(0, 1.5), false)
	e.Update(socSample(20, -1.2), false)
	e.Update(socSample(40, 0.9), false)

	soc, _ := e.SocPercent()
	assert.InDelta(t, 100.0, soc, 1e-9)
}

func TestSocEstimatorDeadbandAveragesTrailingCurrent(t *testing.T) {
	e := NewSocEstimator(testSocConfig(), zap.NewNop())

	// a deadbanded sample right after a discharge still trapezoids in the
	// previous current, so it moves SOC by half a step once
	e.Update(socSample(0, -18), false)
	e.Update(socSample(20, 1.0), false)
	soc, _ := e.SocPercent()
	assert.InDelta(t, 100.0-1.0/60, soc, 1e-9)

	// from then on both edges are zero and SOC holds
	e.Update(socSample(40, 1.2), false)
	soc, _ = e.SocPercent()
	assert.InDelta(t, 100.0-1.0/60, soc, 1e-9)
}

func TestSocEstimatorSkipsTooCloseSamples(t *testing.T) {
	e := NewSocEstimator(testSocConfig(), zap.NewNop())

	e.Update(socSample(0, -18), false)
	// 2s < 5s min interval: ignored entirely
	e.Update(socSample(2, -180), false)
	soc, _ := e.SocPercent()
	assert.InDelta(t, 100.0, soc, 1e-9)

	// anchor still at t=0
	e.Update(socSample(20, -18), false)
	soc, _ = e.SocPercent()
	assert.InDelta(t, 100.0-1.0/30, soc, 1e-9)
}

func TestSocEstimatorDiscardsOutlierWithoutAdvancing(t *testing.T) {
	e := NewSocEstimator(testSocConfig(), zap.NewNop())

	e.Update(socSample(0, -18), false)
	// avg(-18,-4000)*20s is far past the 1% step cap
	d := e.Update(socSample(20, -4000), false)
	assert.Equal(t, domain.DecisionNone, d)
	soc, _ := e.SocPercent()
	assert.InDelta(t, 100.0, soc, 1e-9)

	// next good sample integrates from the untouched t=0 anchor
	e.Update(socSample(40, -18), false)
	soc, _ = e.SocPercent()
	assert.InDelta(t, 100.0-2.0/30, soc, 1e-9)
}

func TestSocEstimatorIgnoresInvalidCurrent(t *testing.T) {
	e := NewSocEstimator(testSocConfig(), zap.NewNop())

	s := socSample(0, -18)
	s.CurrentValid = false
	d := e.Update(s, false)
	assert.Equal(t, domain.DecisionNone, d)

	// estimator is still unseeded, so this only seeds
	e.Update(socSample(20, -18), false)
	soc, _ := e.SocPercent()
	assert.InDelta(t, 100.0, soc, 1e-9)
}

func TestSocEstimatorClampsAtBounds(t *testing.T) {
	e := NewSocEstimator(testSocConfig(), zap.NewNop())

	assert.True(t, e.Sync(99.99))
	e.Update(socSample(0, 18), false)
	e.Update(socSample(0+100, 18), false)
	e.Update(socSample(0+200, 18), false)
	soc, _ := e.SocPercent()
	assert.Equal(t, 100.0, soc)

	assert.True(t, e.Sync(40.01))
	ts := 300.0
	for i := 0; i < 50; i++ {
		ts += 100
		e.Update(socSample(ts, -100), false)
	}
	soc, _ = e.SocPercent()
	assert.Equal(t, 0.0, soc)
}

func TestSocEstimatorSyncBand(t *testing.T) {
	e := NewSocEstimator(testSocConfig(), zap.NewNop())

	assert.True(t, e.Sync(45))
	soc, _ := e.SocPercent()
	assert.InDelta(t, 45.0, soc, 1e-9)

	// implausibly low value is an input mistake, keep the estimate
	assert.False(t, e.Sync(30))
	soc, _ = e.SocPercent()
	assert.InDelta(t, 45.0, soc, 1e-9)

	assert.False(t, e.Sync(40))
	assert.False(t, e.Sync(101))
	assert.True(t, e.Sync(100))
}

func TestSocEstimatorModeAndCompensatedVoltage(t *testing.T) {
	e := NewSocEstimator(testSocConfig(), zap.NewNop())
	assert.Equal(t, "soc", e.Mode())
	_, ok := e.CompensatedVoltage()
	assert.False(t, ok)
}
