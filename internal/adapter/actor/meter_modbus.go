package actor

import (
	"fmt"
	"time"

	"gridtrim/internal/config"
	"gridtrim/internal/core/domain"
	"gridtrim/internal/core/port"
	"gridtrim/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/scheduler"
	"github.com/reugn/go-quartz/logger"
	"go.uber.org/zap"
)

// MeterModbusActor polls a modbus smart meter and feeds grid power samples
// to its parent. Reads run off the actor goroutine; results are piped back
// as messages so message processing stays serialized.
type MeterModbusActor struct {
	behavior  actor.Behavior
	stash     *actorutil.Stash
	scheduler *scheduler.TimerScheduler

	config *config.Config
	meter  port.GridMeterReader
	logger *zap.Logger
}

type meterPollTick struct {
}

type meterReadResult struct {
	sample domain.Sample
	err    error
}

func NewMeterModbusActor(config *config.Config, meter port.GridMeterReader, logger *zap.Logger) *MeterModbusActor {
	act := &MeterModbusActor{
		config:   config,
		meter:    meter,
		behavior: actor.NewBehavior(),
		stash:    &actorutil.Stash{},
		logger:   actorutil.ActorLogger(domain.ACTOR_ID_METER, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MeterModbusActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MeterModbusActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("meter@starting started")
		if err := state.meter.Open(); err != nil {
			panic(err)
		}

		state.scheduler = scheduler.NewTimerScheduler(ctx)
		state.scheduler.RequestOnce(state.pollInterval(), ctx.Self(), meterPollTick{})

		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
		state.meter.Close()
	default:
		state.logger.Debug("meter@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MeterModbusActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("meter@default ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_METER,
			Healthy: true,
			State:   "idle",
		})
	case meterPollTick:
		state.logger.Debug("meter@default tick")
		actorutil.NewBackgroundTask(ctx, state.readSample).Recover(func(err error) meterReadResult {
			return meterReadResult{err: err}
		}).WithTimeout(2 * time.Second).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingMeterReceive)
	case *actor.Stopping:
		state.meter.Close()
	case *actor.Restarting:
		state.meter.Close()
	default:
		state.logger.Debug("meter@default ignore", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *MeterModbusActor) WaitingMeterReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case meterReadResult:
		if msg.err != nil {
			logger.Error(msg.err)
			state.logger.Warn("meter@waiting read error", zap.Error(msg.err))
		} else {
			ctx.Send(ctx.Parent(), ParsedTelemetry{Message: domain.GridPowerSample{Sample: msg.sample}})
		}
		// schedule next poll
		state.scheduler.RequestOnce(state.pollInterval(), ctx.Self(), meterPollTick{})
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case *actor.Stopping:
		state.meter.Close()
	default:
		state.logger.Debug("meter@waiting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MeterModbusActor) readSample() (*meterReadResult, error) {
	watt, err := state.meter.GetPowerWatt()
	if err != nil {
		return nil, err
	}
	return &meterReadResult{
		sample: domain.Sample{Watt: watt, At: time.Now()},
	}, nil
}

func (state *MeterModbusActor) pollInterval() time.Duration {
	return time.Duration(state.config.MeterModbus.PollIntervalMillis) * time.Millisecond
}
