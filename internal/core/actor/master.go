package actor

import (
	"errors"
	"fmt"
	"log"
	"time"

	adactor "gridtrim/internal/adapter/actor"
	"gridtrim/internal/config"
	"gridtrim/internal/core/domain"
	. "gridtrim/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

type MQTTActorProvider func(*eventstream.EventStream) *adactor.MQTTActor

type MeterActorProvider func() *adactor.MeterModbusActor

// MasterActor spawns and supervises the adapter actors and the control
// actor, routes parsed telemetry to the control actor and aggregates health
// checks.
type MasterActor struct {
	config   config.Config
	behavior actor.Behavior
	stash    *Stash

	currentHealthCheck healthCheckResult
	eventStream        *eventstream.EventStream
	mqttActor          *actor.PID
	meterActor         *actor.PID
	controlActor       *actor.PID
	mqttActorProvider  MQTTActorProvider
	meterActorProvider MeterActorProvider
	logger             *zap.Logger
}

type healthCheckResult struct {
	healthyById    map[string]bool
	checksExpected int
	checksReceived int
	respondTo      *actor.PID
}

func NewMasterActor(config config.Config, mqttActorProvider MQTTActorProvider, meterActorProvider MeterActorProvider, logger *zap.Logger) *MasterActor {
	act := &MasterActor{
		config:             config,
		behavior:           actor.NewBehavior(),
		stash:              &Stash{},
		logger:             ActorLogger(domain.ACTOR_ID_MASTER, logger),
		eventStream:        &eventstream.EventStream{},
		mqttActorProvider:  mqttActorProvider,
		meterActorProvider: meterActorProvider,
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MasterActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MasterActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("master@starting started")

		state.currentHealthCheck = healthCheckResult{}
		state.currentHealthCheck.reset(state.childIds())

		// start MQTT child
		mqttActorPID, err := state.startMQTTActor(ctx)
		if err != nil {
			panic(err)
		}
		state.mqttActor = mqttActorPID

		// start control child
		controlActorPID, err := state.startControlActor(ctx)
		if err != nil {
			panic(err)
		}
		state.controlActor = controlActorPID

		// start modbus meter child
		if state.config.MeterModbus.Enable {
			meterActorPID, err := state.startMeterActor(ctx)
			if err != nil {
				panic(err)
			}
			state.meterActor = meterActorPID
		}

		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("master@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("master@default ActorHealthRequest")
		state.currentHealthCheck.reset(state.childIds())
		state.currentHealthCheck.respondTo = ctx.Sender()

		for id, pid := range state.childPIDs() {
			childId := id
			PipeToSelfWithRecover(ctx, ctx.RequestFuture(pid, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
				return domain.ActorHealthResponse{
					Id:      childId,
					Healthy: false,
				}
			})
		}

		ctx.SetReceiveTimeout(1 * time.Second)

		state.behavior.BecomeStacked(state.HealthCheckReceive)
	case adactor.ParsedTelemetry:
		// route telemetry to the control actor
		state.logger.Debug("master@default parsedTelemetry", zap.String("type", fmt.Sprintf("%T", msg.Message)))
		ctx.Send(state.controlActor, msg.Message)
	case domain.GetTelemetryRequest:
		// forward so the control actor responds to the original requester
		state.logger.Debug("master@default GetTelemetryRequest")
		ctx.RequestWithCustomSender(state.controlActor, msg, ctx.Sender())
	case *actor.Terminated:
		// if some actor fails on boot, terminate
		if msg.Who.Id == fmt.Sprintf("%s/%s", domain.ACTOR_ID_MASTER, domain.ACTOR_ID_METER) {
			state.logger.Error("master@default meter error")
			panic(errors.New("meter terminated"))
		}
	default:
		state.logger.Debug("master@default stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterActor) HealthCheckReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.ReceiveTimeout:
		// if some actor does not respond to healthCheck, assume not healthy
		state.currentHealthCheck.respond(ctx)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthResponse:
		state.logger.Debug("master@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.currentHealthCheck.checksReceived++
		if msg.Healthy {
			state.currentHealthCheck.healthyById[msg.Id] = true
		}
		if state.currentHealthCheck.allReceived() {

			state.currentHealthCheck.respond(ctx)

			state.behavior.UnbecomeStacked()
			state.stash.UnstashAll(ctx)
		} else {
			ctx.SetReceiveTimeout(1 * time.Second)
		}
	default:
		state.logger.Debug("master@healthcheck stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterActor) childIds() []string {
	ids := []string{domain.ACTOR_ID_MQTT, domain.ACTOR_ID_CONTROL}
	if state.config.MeterModbus.Enable {
		ids = append(ids, domain.ACTOR_ID_METER)
	}
	return ids
}

func (state *MasterActor) childPIDs() map[string]*actor.PID {
	pids := map[string]*actor.PID{
		domain.ACTOR_ID_MQTT:    state.mqttActor,
		domain.ACTOR_ID_CONTROL: state.controlActor,
	}
	if state.meterActor != nil {
		pids[domain.ACTOR_ID_METER] = state.meterActor
	}
	return pids
}

func (state *MasterActor) startMQTTActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	mqttProps := actor.PropsFromProducer(func() actor.Actor {
		return state.mqttActorProvider(state.eventStream)
	}, actor.WithSupervisor(supervisor))
	mqttActorPID, err := ctx.SpawnNamed(mqttProps, domain.ACTOR_ID_MQTT)
	if err != nil {
		return nil, err
	}

	return mqttActorPID, nil
}

func (state *MasterActor) startMeterActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	meterProps := actor.PropsFromProducer(func() actor.Actor {
		return state.meterActorProvider()
	}, actor.WithSupervisor(supervisor))
	meterActorPID, err := ctx.SpawnNamed(meterProps, domain.ACTOR_ID_METER)
	if err != nil {
		return nil, err
	}

	return meterActorPID, nil
}

func (state *MasterActor) startControlActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(1, 10*time.Second, decider)

	controlProps := actor.PropsFromProducer(func() actor.Actor {
		return NewControlActor(&state.config, state.mqttActor, state.eventStream, state.logger)
	}, actor.WithSupervisor(supervisor))
	controlActorPID, err := ctx.SpawnNamed(controlProps, domain.ACTOR_ID_CONTROL)
	if err != nil {
		return nil, err
	}

	return controlActorPID, nil
}

func (state *healthCheckResult) reset(ids []string) {
	state.healthyById = make(map[string]bool, len(ids))
	for _, id := range ids {
		state.healthyById[id] = false
	}
	state.checksExpected = len(ids)
	state.checksReceived = 0
}

func (state *healthCheckResult) allReceived() bool {
	return state.checksReceived == state.checksExpected
}

func (state *healthCheckResult) allHealthy() bool {
	for _, healthy := range state.healthyById {
		if !healthy {
			return false
		}
	}
	return true
}

func (state *healthCheckResult) respond(ctx actor.Context) {
	resp := domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_MASTER,
		Healthy: state.allHealthy(),
	}
	if state.respondTo != nil {
		ctx.Send(state.respondTo, resp)
	}
}
