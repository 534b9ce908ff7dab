package actor

import (
	"fmt"
	"math"
	"time"

	"gridtrim/internal/config"
	"gridtrim/internal/core/domain"
	"gridtrim/internal/core/events"
	"gridtrim/internal/core/port"
	"gridtrim/internal/core/service"
	. "gridtrim/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

// ControlActor is the control core. It owns every piece of mutable control
// state (filter, gate, controller, output writer, mode) and processes
// telemetry strictly in arrival order. The keepalive tick is delivered
// through the same mailbox, so no locking is needed anywhere in the loop.
type ControlActor struct {
	behavior  actor.Behavior
	scheduler *scheduler.TimerScheduler

	config      *config.Config
	mqttActor   *actor.PID
	eventStream *eventstream.EventStream

	filter  *service.ImportFilter
	gate    *service.ReserveGate
	control port.ImportControlLogic
	writer  *service.OutputWriter

	lastSample    *domain.Sample
	lastCandidate float64
	mode          domain.Mode

	soc            float64
	reserve        float64
	actuatorOutput float64
	batteryState   string
	strategy       *domain.EnergyStrategy

	lastStrategyWarnAt time.Time

	logger *zap.Logger
}

type keepaliveTick struct {
}

func NewControlActor(config *config.Config, mqttActor *actor.PID, eventStream *eventstream.EventStream, logger *zap.Logger) *ControlActor {
	cc := config.ControlConfig
	act := &ControlActor{
		config:      config,
		mqttActor:   mqttActor,
		eventStream: eventStream,
		behavior:    actor.NewBehavior(),
		logger:      ActorLogger(domain.ACTOR_ID_CONTROL, logger),
		filter: &service.ImportFilter{
			Alpha:    cc.FilterAlpha,
			ZeroBand: cc.FilterZeroBandWatts,
		},
		gate: service.NewReserveGate(cc.SoCReserveMarginPct),
		control: &service.DefaultImportControlLogic{
			TargetImportWatt:  cc.TargetImportWatts,
			MinOutputWatt:     cc.MinOutputWatts,
			MaxOutputWatt:     cc.MaxOutputWatts,
			Gain:              cc.Gain,
			MaxStepWatt:       cc.MaxStepWatts,
			DeadbandWatt:      cc.DeadbandWatts,
			MinElapsedSeconds: cc.MinElapsedSeconds,
			Authority: service.AuthorityDetector{
				OutputOnThresholdWatt:  cc.OutputOnThresholdWatt,
				StartKickThresholdWatt: cc.StartKickThresholdW,
				StartKickErrorWatt:     cc.StartKickErrorWatts,
			},
			Logger: ActorLogger(domain.ACTOR_ID_CONTROL, logger),
		},
		writer: &service.OutputWriter{
			MinWriteInterval:  time.Duration(config.OutputConfig.MinWriteIntervalMillis) * time.Millisecond,
			MinSendDelta:      config.OutputConfig.MinSendDeltaWatts,
			KeepaliveInterval: time.Duration(config.OutputConfig.KeepaliveIntervalMillis) * time.Millisecond,
		},
		reserve: cc.DefaultSoCReservePct,
		mode:    domain.ModeInit,
	}
	act.behavior.Become(act.DefaultReceive)
	return act
}

func (state *ControlActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *ControlActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("control@default started")
		// until live telemetry arrives, the gate is judged from the safe
		// startup defaults (zero SoC, configured default reserve)
		state.gate.Evaluate(state.soc, state.reserve)
		state.scheduler = scheduler.NewTimerScheduler(ctx)
		state.scheduler.RequestOnce(state.keepaliveTickInterval(), ctx.Self(), keepaliveTick{})
	case domain.ActorHealthRequest:
		state.logger.Debug("control@default ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_CONTROL,
			Healthy: true,
			State:   state.mode.String(),
		})
	case domain.GetTelemetryRequest:
		state.logger.Debug("control@default GetTelemetryRequest")
		ForRequest(msg).Respond(ctx, domain.GetTelemetryResponse{
			Snapshot: state.snapshot(time.Now()),
		})
	case domain.GridPowerSample:
		state.handleSample(ctx, msg.Sample)
	case domain.BatterySoCUpdate:
		state.logger.Debug("control@default BatterySoCUpdate", zap.Float64("percent", msg.Percent))
		state.soc = msg.Percent
		state.gate.Evaluate(state.soc, state.reserve)
		state.publishEvents(events.BatterySoCToUpdateEvents(state.soc, state.reserve))
	case domain.BatteryReserveUpdate:
		state.logger.Debug("control@default BatteryReserveUpdate", zap.Float64("percent", msg.Percent))
		state.reserve = msg.Percent
		state.gate.Evaluate(state.soc, state.reserve)
		state.publishEvents(events.BatterySoCToUpdateEvents(state.soc, state.reserve))
	case domain.ActuatorOutputUpdate:
		state.actuatorOutput = msg.Watt
	case domain.ActuatorBatteryStateUpdate:
		state.batteryState = msg.State
		state.publishEvents(events.BatteryStateToUpdateEvents(msg.State))
	case domain.EnergyStrategyUpdate:
		state.strategy = &msg.Strategy
		state.checkStrategy(msg.Strategy)
	case keepaliveTick:
		if watt, ok := state.writer.Keepalive(time.Now()); ok {
			state.logger.Debug("control@default keepalive resend", zap.Int("watt", watt))
			ctx.Send(state.mqttActor, domain.WriteActuatorPowerRequest{Watt: watt})
		}
		state.scheduler.RequestOnce(state.keepaliveTickInterval(), ctx.Self(), keepaliveTick{})
	default:
		state.logger.Debug("control@default ignore", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// handleSample runs one control cycle: re-evaluate the gate with the latest
// battery state, then either run the controller (gate open) or fall back to
// covering the raw measured load (gate closed, control memory cleared).
func (state *ControlActor) handleSample(ctx actor.Context, sample domain.Sample) {

	var elapsed time.Duration
	if state.lastSample != nil {
		elapsed = sample.At.Sub(state.lastSample.At)
	}

	filtered := state.filter.Update(sample.Watt)
	min, max := state.control.Bounds()

	var candidate float64
	if state.gate.Evaluate(state.soc, state.reserve) {
		result := state.control.Loop(filtered, elapsed, state.actuatorOutput)
		candidate = result.Setpoint
		state.mode = result.Mode
	} else {
		state.control.Reset()
		candidate = math.Min(max, math.Max(min, math.Max(0, sample.Watt)))
		state.mode = domain.ModeFallbackReserve
	}

	state.lastSample = &sample
	state.lastCandidate = candidate

	if watt, ok := state.writer.Offer(candidate, sample.At); ok {
		state.logger.Debug("control@cycle write", zap.Int("watt", watt), zap.String("mode", state.mode.String()))
		ctx.Send(state.mqttActor, domain.WriteActuatorPowerRequest{Watt: watt})
	}

	state.publishEvents(events.TelemetryToUpdateEvents(state.snapshot(sample.At)))
}

// checkStrategy warns when the actuator is not in its self-powered strategy.
// The strategy feed is advisory only: it never alters control decisions, and
// the warning is rate-limited to one per cooldown window.
func (state *ControlActor) checkStrategy(strategy domain.EnergyStrategy) {
	if strategy.SelfPowered() {
		return
	}
	cooldown := time.Duration(state.config.AnomalyLogCooldownSeconds) * time.Second
	now := time.Now()
	if !state.lastStrategyWarnAt.IsZero() && now.Sub(state.lastStrategyWarnAt) < cooldown {
		return
	}
	state.lastStrategyWarnAt = now
	state.logger.Warn("control: actuator energy strategy is not self-powered",
		zap.String("mode", strategy.Mode), zap.String("raw", strategy.Raw))
}

func (state *ControlActor) snapshot(now time.Time) domain.TelemetrySnapshot {
	var raw float64
	var sampleAge float64
	if state.lastSample != nil {
		raw = state.lastSample.Watt
		sampleAge = now.Sub(state.lastSample.At).Seconds()
	}
	importW := math.Max(0, raw)
	exportW := math.Max(0, -raw)
	discharge := math.Max(0, state.actuatorOutput)
	charge := math.Max(0, -state.actuatorOutput)

	return domain.TelemetrySnapshot{
		RawPowerWatt:      raw,
		FilteredPowerWatt: state.filter.Value(),
		ImportPowerWatt:   importW,
		ExportPowerWatt:   exportW,

		DischargePowerWatt: discharge,
		ChargePowerWatt:    charge,
		HouseLoadWatt:      importW + discharge,

		SetpointWatt:     state.lastCandidate,
		GateOpen:         state.gate.Open(),
		Mode:             state.mode.String(),
		SampleAgeSeconds: sampleAge,

		BatterySoC:        state.soc,
		BatterySoCReserve: state.reserve,
		BatteryState:      state.batteryState,
	}
}

func (state *ControlActor) publishEvents(evs []any) {
	for _, ev := range evs {
		state.eventStream.Publish(ev)
	}
}

// keepaliveTickInterval is half the keepalive interval. The writer only
// resends once a full interval has passed since the last write, so ticking
// at the interval itself could lag the resend by almost a second interval;
// checking twice per interval keeps the worst case at 1.5x.
func (state *ControlActor) keepaliveTickInterval() time.Duration {
	return time.Duration(state.config.OutputConfig.KeepaliveIntervalMillis) * time.Millisecond / 2
}
