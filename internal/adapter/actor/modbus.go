package actor

import (
	"fmt"
	"time"

	"battguard/internal/core/domain"
	"battguard/internal/util/actorutil"
	"battguard/pkg/battmon_modbus"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/reugn/go-quartz/logger"
	"go.uber.org/zap"
)

const (
	MODBUS_ACTOR_ID = "modbus"
)

type ModbusActor struct {
	behavior actor.Behavior
	stash    *actorutil.Stash
	monitor  battmon_modbus.BatteryMonitorModbusReader
	logger   *zap.Logger
}

type backgroundTaskResult struct {
	message any
	replyTo *actor.PID
}

func NewModbusActor(monitor battmon_modbus.BatteryMonitorModbusReader, logger *zap.Logger) *ModbusActor {
	act := &ModbusActor{
		monitor:  monitor,
		behavior: actor.NewBehavior(),
		stash:    &actorutil.Stash{},
		logger:   actorutil.ActorLogger("modbus", logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *ModbusActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *ModbusActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("modbus@starting started")
		if err := state.monitor.Open(); err != nil {
			panic(err)
		}
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
		state.monitor.Close()
	default:
		state.logger.Debug("modbus@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *ModbusActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("modbus@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      MODBUS_ACTOR_ID,
			Healthy: true,
			State:   "idle",
		})
	case domain.GetMonitorInfoRequest:
		state.logger.Debug("modbus@default: GetMonitorInfoRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)

		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.getMonitorInfo),
			mapTaskResult[domain.GetMonitorInfoResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.GetMonitorInfoResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(2 * time.Second).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingModbus)
	case domain.GetBatterySampleRequest:
		state.logger.Debug("modbus@default: GetBatterySampleRequest")
		sender := ctx.Sender()
		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.getBatterySample),
			mapTaskResult[domain.GetBatterySampleResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.GetBatterySampleResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(2 * time.Second).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingModbus)
	case domain.SetLoadDisconnectRequest:
		state.logger.Debug("modbus@default: SetLoadDisconnectRequest",
			zap.Bool("disconnect", msg.Disconnect))
		sender := ctx.Sender()
		actorutil.MapBackgroundTask(actorutil.NewBackgroundTaskNoError(ctx, func() *domain.SetLoadDisconnectResponse {
			a := state.setLoadDisconnect(msg.Disconnect)
			return &a
		}),
			mapTaskResult[domain.SetLoadDisconnectResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.SetLoadDisconnectResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(2 * time.Second).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingModbus)
	case *actor.Stopping:
		state.monitor.Close()
	default:
		state.logger.Debug("modbus@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *ModbusActor) WaitingModbus(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case backgroundTaskResult:
		state.logger.Debug("modbus@WaitingModbus backgroundTaskResult", zap.String("type", fmt.Sprintf("%T", msg.message)))
		ctx.Send(msg.replyTo, msg.message)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case *actor.Stopping:
		state.monitor.Close()
	default:
		state.logger.Debug("modbus@WaitingModbus stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (a *ModbusActor) getMonitorInfo() (*domain.GetMonitorInfoResponse, error) {
	info, err := a.monitor.GetInfo()
	if err != nil {
		logger.Error(err)
		return nil, err
	}
	return &domain.GetMonitorInfoResponse{
		Monitor: info,
	}, nil
}

func (a *ModbusActor) getBatterySample() (*domain.GetBatterySampleResponse, error) {
	sample, err := a.monitor.GetSample()
	if err != nil {
		logger.Error(err)
		return nil, err
	}
	return &domain.GetBatterySampleResponse{
		Sample: sample,
	}, nil
}

func (a *ModbusActor) setLoadDisconnect(disconnect bool) domain.SetLoadDisconnectResponse {
	err := a.monitor.SetLoadDisconnect(disconnect)
	if err != nil {
		logger.Error(err)
		return domain.SetLoadDisconnectResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: err,
			},
		}
	}
	return domain.SetLoadDisconnectResponse{
		Disconnect: disconnect,
	}
}

func mapTaskResult[T any](sender *actor.PID) func(t *T) *backgroundTaskResult {
	return func(t *T) *backgroundTaskResult {
		return &backgroundTaskResult{
			message: *t,
			replyTo: sender,
		}
	}
}
