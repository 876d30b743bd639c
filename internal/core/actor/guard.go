package actor

import (
	"errors"
	"fmt"
	"time"

	"battguard/internal/config"
	"battguard/internal/core/domain"
	"battguard/internal/core/events"
	"battguard/internal/core/port"
	"battguard/internal/core/service"
	. "battguard/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

// GuardActor runs the protection loop: poll a battery sample, feed it to
// the estimator, and drive the load switch through the latch. The coil is
// only considered switched once the modbus write comes back acknowledged.
type GuardActor struct {
	ActorWithStates
	scheduler *scheduler.TimerScheduler
	stash     *Stash

	modbusActor *actor.PID
	config      *config.Config
	eventStream *eventstream.EventStream
	estimator   port.EstimatorLogic
	latch       *service.DisconnectLatch

	logger *zap.Logger
}

type guardTick struct {
}

func NewGuardActor(config *config.Config, modbusActor *actor.PID, eventStream *eventstream.EventStream, logger *zap.Logger) *GuardActor {
	guardLogger := ActorLogger(domain.ACTOR_ID_GUARD, logger)
	act := &GuardActor{
		config:      config,
		modbusActor: modbusActor,
		stash:       &Stash{},
		logger:      guardLogger,
		eventStream: eventStream,
		estimator:   buildEstimator(config, guardLogger),
		latch:       service.NewDisconnectLatch(),
		ActorWithStates: ActorWithStates{
			Behavior: actor.NewBehavior(),
		},
	}
	act.Become(GuardStartingState{
		actor: act,
	})
	return act
}

func buildEstimator(cfg *config.Config, logger *zap.Logger) port.EstimatorLogic {
	switch cfg.GuardConfig.Mode {
	case "voltage":
		return service.NewVoltageEstimator(service.VoltageEstimatorConfig{
			LowVolts:           cfg.VoltageConfig.LowVolts,
			HighVolts:          cfg.VoltageConfig.HighVolts,
			InternalResistOhms: cfg.BatteryConfig.InternalResistOhms,
			SanityFloorVolts:   cfg.VoltageConfig.SanityFloorVolts,
			DebounceCountLow:   cfg.VoltageConfig.DebounceCountLow,
			DebounceCountHigh:  cfg.VoltageConfig.DebounceCountHigh,
		}, logger)
	default:
		return service.NewSocEstimator(service.SocEstimatorConfig{
			CapacityAh:          cfg.BatteryConfig.CapacityAh,
			CurrentDeadbandAmps: cfg.SocConfig.CurrentDeadbandAmps,
			MinIntervalSeconds:  cfg.SocConfig.MinIntervalSeconds,
			MaxStepPercent:      cfg.SocConfig.MaxStepPercent,
			SocLowPercent:       cfg.SocConfig.LowPercent,
			SocHighPercent:      cfg.SocConfig.HighPercent,
			SyncFloorPercent:    cfg.SocConfig.SyncFloorPercent,
			SyncCeilPercent:     cfg.SocConfig.SyncCeilPercent,
		}, logger)
	}
}

func (state *GuardActor) Receive(context actor.Context) {
	state.Behavior.Receive(context)
}

// Starting state

type GuardStartingState struct {
	ActorState
	actor *GuardActor
}

func (state GuardStartingState) Name() string {
	return "starting"
}

func (state GuardStartingState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.actor.logger.Debug("guard@starting started")

		state.actor.scheduler = scheduler.NewTimerScheduler(ctx)

		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.actor.modbusActor, domain.GetMonitorInfoRequest{}, 1*time.Second), func(err error) any {
			return domain.GetMonitorInfoResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			}
		})
		state.actor.Become(GuardWaitingInfoState{
			actor: state.actor,
		})
	case *actor.Restarting:
	default:
		state.actor.logger.Debug("guard@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}

// Waiting info state

type GuardWaitingInfoState struct {
	ActorState
	actor *GuardActor
}

func (state GuardWaitingInfoState) Name() string {
	return "waitingInfo"
}

func (state GuardWaitingInfoState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetMonitorInfoResponse:
		if msg.HasResponseError() {
			state.actor.logger.Error("guard@waitingInfo GetMonitorInfoResponse error", zap.Error(msg.GetResponseError()))
			panic(msg.GetResponseError())
		}
		state.actor.logger.Sugar().Infof("guard@waitingInfo monitor: %s %s (fw %s)",
			msg.Monitor.Manufacturer, msg.Monitor.Model, msg.Monitor.Version)

		state.actor.scheduler.RequestOnce(time.Duration(state.actor.config.GuardConfig.PollIntervalMillis)*time.Millisecond,
			ctx.Self(), guardTick{})

		state.actor.Become(GuardMonitoringState{
			actor: state.actor,
		})
		state.actor.stash.UnstashAll(ctx)
	default:
		state.actor.logger.Debug("guard@waitingInfo: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}

// Monitoring state

type GuardMonitoringState struct {
	ActorState
	actor *GuardActor
}

func (state GuardMonitoringState) Name() string {
	return "monitoring"
}

func (state GuardMonitoringState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.actor.logger.Debug("guard@monitoring: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_GUARD,
			Healthy: true,
			State:   state.Name(),
		})
	case guardTick:
		state.actor.logger.Debug("guard@monitoring tick")

		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.actor.modbusActor, domain.GetBatterySampleRequest{}, 1*time.Second), func(err error) any {
			return domain.GetBatterySampleResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			}
		})

		// schedule next tick
		state.actor.scheduler.RequestOnce(time.Duration(state.actor.config.GuardConfig.PollIntervalMillis)*time.Millisecond,
			ctx.Self(), guardTick{})
		state.actor.BecomeStacked(GuardAwaitSampleState{
			actor: state.actor,
		}.OnEnterAction(ctx))
	case domain.GuardRequest:
		switch cmd := msg.(type) {
		case domain.GuardSocSyncRequest:
			state.actor.logger.Sugar().Debugf("guard@monitoring: cmd socSync %.1f", cmd.SocPercent)
			applied := state.actor.estimator.Sync(cmd.SocPercent)
			if applied {
				state.actor.publishEstimatorState()
			}
			if ctx.Sender() != nil || cmd.ReplyTo() != nil {
				ForRequest(cmd).Respond(ctx, domain.GuardSocSyncResponse{
					Applied: applied,
				})
			}
		case domain.GuardGetStateRequest:
			soc, _ := state.actor.estimator.SocPercent()
			ForRequest(cmd).Respond(ctx, domain.GuardGetStateResponse{
				Mode:       state.actor.estimator.Mode(),
				SocPercent: soc,
				Asserted:   state.actor.latch.Asserted(),
				Released:   state.actor.latch.Released(),
			})
		}
	default:
		state.actor.logger.Debug("guard@monitoring: recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// Await sample state

type GuardAwaitSampleState struct {
	ActorState
	actor *GuardActor
}

func (state GuardAwaitSampleState) Name() string {
	return "awaitSample"
}

func (state GuardAwaitSampleState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetBatterySampleResponse:
		ctx.SetReceiveTimeout(0)
		if msg.HasResponseError() {
			state.actor.logger.Error("guard@awaitSample: GetBatterySampleResponse error", zap.Error(msg.GetResponseError()))
			state.actor.UnbecomeStacked()
			state.actor.stash.UnstashAll(ctx)
			return
		}
		state.actor.logger.Debug("guard@awaitSample: GetBatterySampleResponse")

		for _, ev := range events.BatterySampleToUpdateEvents(msg.Sample) {
			state.actor.eventStream.Publish(ev)
		}

		decision := state.actor.estimator.Update(msg.Sample, state.actor.latch.Released())
		state.actor.publishEstimatorState()

		intent := state.actor.latch.Plan(decision)

		state.actor.UnbecomeStacked()
		state.actor.stash.UnstashAll(ctx)

		if intent != nil {
			state.actor.logger.Sugar().Infof("guard@awaitSample: decision %s, switching load disconnect to %t",
				decision, intent.Disconnect)
			state.actor.BecomeStacked(GuardAwaitSwitchState{
				actor:  state.actor,
				intent: intent,
			}.OnEnterAction(ctx))
		}
	case *actor.ReceiveTimeout:
		ctx.SetReceiveTimeout(0)
		state.actor.logger.Debug("guard@awaitSample: ReceiveTimeout")
		state.actor.UnbecomeStacked()
		state.actor.stash.UnstashAll(ctx)
	default:
		state.actor.logger.Debug("guard@awaitSample: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}

func (state GuardAwaitSampleState) OnEnterAction(ctx actor.Context) GuardAwaitSampleState {
	ctx.SetReceiveTimeout(2 * time.Second)
	return state
}

// Await switch state

type GuardAwaitSwitchState struct {
	ActorState
	actor  *GuardActor
	intent *service.LoadSwitchIntent
}

func (state GuardAwaitSwitchState) Name() string {
	return "awaitSwitch"
}

func (state GuardAwaitSwitchState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.SetLoadDisconnectResponse:
		ctx.SetReceiveTimeout(0)
		if msg.HasResponseError() {
			// not committed: the latch stays put and the next decision
			// plans the write again
			state.actor.logger.Error("guard@awaitSwitch: SetLoadDisconnectResponse error", zap.Error(msg.GetResponseError()))
		} else {
			state.actor.latch.Commit(state.intent)
			state.actor.logger.Sugar().Infof("guard@awaitSwitch: load disconnect %t committed", state.intent.Disconnect)
			state.actor.eventStream.Publish(events.LoadDisconnectUpdateEvent(state.actor.latch.Asserted()))
		}
		state.actor.UnbecomeStacked()
		state.actor.stash.UnstashAll(ctx)
	case *actor.ReceiveTimeout:
		ctx.SetReceiveTimeout(0)
		state.actor.logger.Error("guard@awaitSwitch: ReceiveTimeout", zap.Error(errors.New("receive timeout")))
		state.actor.UnbecomeStacked()
		state.actor.stash.UnstashAll(ctx)
	default:
		state.actor.logger.Debug("guard@awaitSwitch: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}

func (state GuardAwaitSwitchState) OnEnterAction(ctx actor.Context) GuardAwaitSwitchState {
	PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.actor.modbusActor,
		domain.SetLoadDisconnectRequest{Disconnect: state.intent.Disconnect}, 2*time.Second),
		func(err error) any {
			return domain.SetLoadDisconnectResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			}
		})
	ctx.SetReceiveTimeout(2 * time.Second)
	return state
}

// Other actor function helpers

func (state *GuardActor) publishEstimatorState() {
	if soc, ok := state.estimator.SocPercent(); ok {
		for _, ev := range events.SocUpdateEvents(soc) {
			state.eventStream.Publish(ev)
		}
		state.eventStream.Publish(events.SocSyncNumberUpdateEvent(soc))
	}
	if comp, ok := state.estimator.CompensatedVoltage(); ok {
		for _, ev := range events.CompensatedVoltageUpdateEvents(comp) {
			state.eventStream.Publish(ev)
		}
	}
}
