package actor

import (
	"testing"
	"time"

	"battguard/internal/core/domain"
	"battguard/internal/util/actorutil"
	"battguard/pkg/battmon_modbus"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestGetMonitorInfoModbusActor(t *testing.T) {

	assert := assert.New(t)

	mon := battmon_modbus.CreateTestBattMonModbusClient()

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)

	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor { return NewModbusActor(mon, logger) })
	pid := context.Spawn(props)

	time.Sleep(1 * time.Second)

	msg := domain.GetMonitorInfoRequest{}
	result, err := context.RequestFuture(pid, msg, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.GetMonitorInfoResponse)

	assert.Equal(resp.Monitor.Manufacturer, "BattGuard", "Monitor manufacturer")
	assert.Equal(resp.Monitor.Model, "Shunt Monitor DC 500A", "Monitor model")
	assert.Equal(resp.Monitor.Version, "2.1", "Monitor version")

	context.Stop(pid)

	as.Shutdown()
}

func TestGetBatterySampleModbusActor(t *testing.T) {

	assert := assert.New(t)

	mon := battmon_modbus.CreateTestBattMonModbusClient()
	mon.Set(51.2, -12.5)

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor { return NewModbusActor(mon, logger) })
	pid := context.Spawn(props)

	time.Sleep(1 * time.Second)

	msg := domain.GetBatterySampleRequest{}

	result, err := context.RequestFuture(pid, msg, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.GetBatterySampleResponse)

	assert.Equal(resp.Sample.VoltageVolts, 51.2, "sample voltage")
	assert.Equal(resp.Sample.CurrentAmps, -12.5, "sample current")
	assert.True(resp.Sample.VoltageValid, "voltage valid")
	assert.True(resp.Sample.TimestampSeconds > 0, "timestamp set")

	context.Stop(pid)

	as.Shutdown()
}

func TestSetLoadDisconnectModbusActor(t *testing.T) {

	assert := assert.New(t)

	mon := battmon_modbus.CreateTestBattMonModbusClient()

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor { return NewModbusActor(mon, logger) })
	pid := context.Spawn(props)

	time.Sleep(1 * time.Second)

	result, err := context.RequestFuture(pid, domain.SetLoadDisconnectRequest{Disconnect: true}, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.SetLoadDisconnectResponse)

	assert.False(resp.HasResponseError(), "no error")
	assert.True(resp.Disconnect, "ack mirrors request")

	coil, err := mon.GetLoadDisconnect()
	assert.NoError(err)
	assert.True(coil, "coil written")
	assert.Equal(1, mon.CoilWrites(), "single write")

	context.Stop(pid)

	as.Shutdown()
}

func TestSetLoadDisconnectModbusActorWriteFailure(t *testing.T) {

	assert := assert.New(t)

	mon := battmon_modbus.CreateTestBattMonModbusClient()
	mon.SetFailCoilWrites(true)

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor { return NewModbusActor(mon, logger) })
	pid := context.Spawn(props)

	time.Sleep(1 * time.Second)

	result, err := context.RequestFuture(pid, domain.SetLoadDisconnectRequest{Disconnect: true}, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.SetLoadDisconnectResponse)

	assert.True(resp.HasResponseError(), "write error surfaces")

	coil, err := mon.GetLoadDisconnect()
	assert.NoError(err)
	assert.False(coil, "coil untouched")

	context.Stop(pid)

	as.Shutdown()
}
