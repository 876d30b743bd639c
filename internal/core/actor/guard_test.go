package actor

import (
	"errors"
	"testing"
	"time"

	adactor "battguard/internal/adapter/actor"
	"battguard/internal/core/domain"
	"battguard/internal/util"
	"battguard/internal/util/actorutil"
	"battguard/pkg/battmon_modbus"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGuardVoltageTriggerAndRelease(t *testing.T) {

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)

	context := as.Root

	cfg := util.LoadTestConfig()
	cfg.GuardConfig.Mode = "voltage"
	cfg.GuardConfig.PollIntervalMillis = 200
	cfg.VoltageConfig.DebounceCountLow = 3
	cfg.VoltageConfig.DebounceCountHigh = 3

	mon := battmon_modbus.CreateTestBattMonModbusClient()
	// below the low threshold under load
	mon.Set(49.0, -10)

	modbusProps := actor.PropsFromProducer(func() actor.Actor {
		return adactor.NewModbusActor(mon, logger)
	})
	modbusActorPID := context.Spawn(modbusProps)

	guardProps := actor.PropsFromProducer(func() actor.Actor {
		return NewGuardActor(&cfg, modbusActorPID, &eventstream.EventStream{}, logger)
	})
	guardActorPID := context.Spawn(guardProps)

	time.Sleep(3 * time.Second)

	hcr, err := guardHealthCheck(context, guardActorPID)
	if err != nil {
		t.Error(err)
		return
	}
	assert.True(t, hcr.Healthy, "actor should be healthy")
	assert.Equal(t, "monitoring", hcr.State, "actor state should be monitoring")

	coil, err := mon.GetLoadDisconnect()
	assert.NoError(t, err)
	assert.True(t, coil, "load disconnected after debounced low voltage")
	assert.Equal(t, 1, mon.CoilWrites(), "single coil write")

	// recovery while charging
	mon.Set(53.5, 2)

	time.Sleep(3 * time.Second)

	coil, err = mon.GetLoadDisconnect()
	assert.NoError(t, err)
	assert.False(t, coil, "load reconnected after debounced recovery")
	assert.Equal(t, 2, mon.CoilWrites(), "release writes the coil once")

	context.Stop(guardActorPID)
	context.Stop(modbusActorPID)

	as.Shutdown()
}

func TestGuardSocSyncAndTrigger(t *testing.T) {

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)

	context := as.Root

	cfg := util.LoadTestConfig()
	cfg.GuardConfig.Mode = "soc"
	cfg.GuardConfig.PollIntervalMillis = 200
	cfg.BatteryConfig.CapacityAh = 0.1
	cfg.SocConfig.MinIntervalSeconds = 0.05
	cfg.SocConfig.MaxStepPercent = 5

	mon := battmon_modbus.CreateTestBattMonModbusClient()
	// no movement while inside the current deadband
	mon.Set(52.8, 0.5)

	modbusProps := actor.PropsFromProducer(func() actor.Actor {
		return adactor.NewModbusActor(mon, logger)
	})
	modbusActorPID := context.Spawn(modbusProps)

	guardProps := actor.PropsFromProducer(func() actor.Actor {
		return NewGuardActor(&cfg, modbusActorPID, &eventstream.EventStream{}, logger)
	})
	guardActorPID := context.Spawn(guardProps)

	time.Sleep(2 * time.Second)

	// out-of-band sync is rejected
	res, err := context.RequestFuture(guardActorPID, domain.GuardSocSyncRequest{SocPercent: 30}, 2*time.Second).Result()
	require.NoError(t, err)
	syncResp, ok := res.(domain.GuardSocSyncResponse)
	require.True(t, ok)
	assert.False(t, syncResp.Applied, "implausible sync ignored")

	// plausible sync is applied
	res, err = context.RequestFuture(guardActorPID, domain.GuardSocSyncRequest{SocPercent: 60.5}, 2*time.Second).Result()
	require.NoError(t, err)
	syncResp, ok = res.(domain.GuardSocSyncResponse)
	require.True(t, ok)
	assert.True(t, syncResp.Applied, "sync applied")

	res, err = context.RequestFuture(guardActorPID, domain.GuardGetStateRequest{}, 2*time.Second).Result()
	require.NoError(t, err)
	stateResp, ok := res.(domain.GuardGetStateResponse)
	require.True(t, ok)
	assert.Equal(t, "soc", stateResp.Mode)
	assert.InDelta(t, 60.5, stateResp.SocPercent, 0.5)
	assert.False(t, stateResp.Asserted)

	// heavy discharge on a tiny pack drains about 1% per poll
	mon.Set(51.0, -18)

	time.Sleep(2 * time.Second)

	coil, err := mon.GetLoadDisconnect()
	assert.NoError(t, err)
	assert.True(t, coil, "load disconnected after SOC crossed threshold")

	res, err = context.RequestFuture(guardActorPID, domain.GuardGetStateRequest{}, 2*time.Second).Result()
	require.NoError(t, err)
	stateResp, ok = res.(domain.GuardGetStateResponse)
	require.True(t, ok)
	assert.True(t, stateResp.Asserted, "latch asserted")
	assert.Less(t, stateResp.SocPercent, 60.0)

	context.Stop(guardActorPID)
	context.Stop(modbusActorPID)

	as.Shutdown()
}

func TestGuardFailedCoilWriteRetries(t *testing.T) {

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)

	context := as.Root

	cfg := util.LoadTestConfig()
	cfg.GuardConfig.Mode = "voltage"
	cfg.GuardConfig.PollIntervalMillis = 200
	cfg.VoltageConfig.DebounceCountLow = 3
	cfg.VoltageConfig.DebounceCountHigh = 3

	mon := battmon_modbus.CreateTestBattMonModbusClient()
	mon.Set(49.0, -10)
	mon.SetFailCoilWrites(true)

	modbusProps := actor.PropsFromProducer(func() actor.Actor {
		return adactor.NewModbusActor(mon, logger)
	})
	modbusActorPID := context.Spawn(modbusProps)

	guardProps := actor.PropsFromProducer(func() actor.Actor {
		return NewGuardActor(&cfg, modbusActorPID, &eventstream.EventStream{}, logger)
	})
	guardActorPID := context.Spawn(guardProps)

	time.Sleep(3 * time.Second)

	// writes keep failing, latch never commits
	res, err := context.RequestFuture(guardActorPID, domain.GuardGetStateRequest{}, 2*time.Second).Result()
	require.NoError(t, err)
	stateResp, ok := res.(domain.GuardGetStateResponse)
	require.True(t, ok)
	assert.False(t, stateResp.Asserted, "failed write leaves latch untouched")

	// once writes succeed, the next trigger decision lands
	mon.SetFailCoilWrites(false)

	time.Sleep(3 * time.Second)

	coil, err := mon.GetLoadDisconnect()
	assert.NoError(t, err)
	assert.True(t, coil, "write retried after failures")

	context.Stop(guardActorPID)
	context.Stop(modbusActorPID)

	as.Shutdown()
}

func guardHealthCheck(ctx *actor.RootContext, pid *actor.PID) (*domain.ActorHealthResponse, error) {
	resp, err := ctx.RequestFuture(pid, domain.ActorHealthRequest{}, 2*time.Second).Result()
	if err != nil {
		return nil, err
	}
	hcr, ok := resp.(domain.ActorHealthResponse)
	if !ok {
		return nil, errors.New("unexpected response type")
	}
	return &hcr, nil
}
