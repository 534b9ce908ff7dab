package actor

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"gridtrim/internal/config"
	"gridtrim/internal/core/domain"
	"gridtrim/internal/core/events"
	"gridtrim/internal/mqtt"
	"gridtrim/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

type MQTTActor struct {
	config         *config.Config
	behavior       actor.Behavior
	stash          *actorutil.Stash
	client         *mqtt.MQTTClient
	eventStream    *eventstream.EventStream
	eventStreamSub *eventstream.Subscription
	pendingSubs    int
	logger         *zap.Logger
}

type MQTTConnected struct {
}

type MQTTSubscribed struct {
}

type MQTTConnectionLost struct {
	Error error
}

type OnEventStreamMessage struct {
	message any
}

type publishResult struct {
	ReplyTo *actor.PID
	Error   error
}

// ParsedTelemetry wraps a feed message already parsed at the MQTT boundary.
// The actor routes it to its parent, which forwards it to the control actor.
type ParsedTelemetry struct {
	Message domain.TelemetryMessage
}

type rawMessage struct {
	topic   string
	message string
	retain  bool
}

func NewMQTTActor(config *config.Config, eventStream *eventstream.EventStream, logger *zap.Logger) *MQTTActor {
	act := &MQTTActor{
		config:      config,
		behavior:    actor.NewBehavior(),
		stash:       &actorutil.Stash{},
		eventStream: eventStream,
		logger:      actorutil.ActorLogger(domain.ACTOR_ID_MQTT, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MQTTActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MQTTActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("mqtt@starting started")

		// create MQTT client
		state.client = mqtt.CreateMQTTClient(state.config, mqtt.OptsFromConfig(state.config), func(_ pahomqtt.Client) {
		}, func(_ pahomqtt.Client, err error) {
			ctx.Send(ctx.Self(), MQTTConnectionLost{Error: err})
		})

		// connect to MQTT server
		state.client.Connect(func(err error) {
			if err != nil {
				ctx.Send(ctx.Self(), MQTTConnectionLost{Error: err})
			} else {
				ctx.Send(ctx.Self(), MQTTConnected{})
			}
		}, 10*time.Second)

	case MQTTConnected:
		state.logger.Debug("mqtt@starting connected")

		state.client.Publish(state.client.BridgeStateTopic(), mqtt.MQTT_PAYLOAD_ONLINE, 0, true, func(error) {}, 500*time.Millisecond)

		// subscribe to eventStream
		state.eventStreamSub = state.eventStream.Subscribe(func(value any) {
			ctx.Send(ctx.Self(), OnEventStreamMessage{
				message: value,
			})
		})

		// subscribe to telemetry feed topics
		state.pendingSubs = 0
		for _, sub := range state.feedSubscriptions(ctx) {
			if sub.topic == "" {
				continue
			}
			state.pendingSubs++
			state.client.Subscribe(sub.topic, 1, sub.handler, func(err error) {
				if err != nil {
					ctx.Send(ctx.Self(), MQTTConnectionLost{Error: err})
				} else {
					ctx.Send(ctx.Self(), MQTTSubscribed{})
				}
			}, 1*time.Second)
		}
		if state.pendingSubs == 0 {
			ctx.Send(ctx.Self(), MQTTSubscribed{})
			state.pendingSubs = 1
		}
	case MQTTSubscribed:
		state.pendingSubs--
		if state.pendingSubs > 0 {
			return
		}
		// init completed, transition to default state
		state.logger.Debug("mqtt@starting subscribed")
		if state.config.MQTT.HADiscoveryEnable {
			err := state.PublishHomeAssistantDiscovery(ctx, discoverySensors(state.config))
			if err != nil {
				state.logger.Error("mqtt@starting HA discovery error", zap.Error(err))
			}
		}
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case MQTTConnectionLost:
		// if connection lost, stop actor and let supervisor decide
		state.logger.Error("mqtt@starting connection lost", zap.Error(msg.Error))
		panic(msg.Error)
	case *actor.Restarting:
		state.stop()
	default:
		state.logger.Debug("mqtt@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MQTTActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Restarting:
		state.stop()
	case *actor.Stopping:
		state.stop()
	case domain.ActorHealthRequest:
		state.logger.Debug("mqtt@default ActorHealthRequest")
		// respond health check request
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_MQTT,
			Healthy: true,
			State:   "idle",
		})
	case ParsedTelemetry:
		// route telemetry to parent
		state.logger.Debug("mqtt@default parsedTelemetry", zap.String("type", fmt.Sprintf("%T", msg.Message)))
		ctx.Send(ctx.Parent(), msg)
	case domain.WriteActuatorPowerRequest:
		state.logger.Debug("mqtt@default WriteActuatorPowerRequest", zap.Int("watt", msg.Watt))
		state.publishMessage(ctx, state.client.ActuatorCommandTopic(), strconv.Itoa(msg.Watt), false, actorutil.ForRequest(msg).ReplyTo(ctx))
	case domain.PublishMessageRequest:
		state.logger.Debug("mqtt@default PublishMessageRequest", zap.Any("message", msg))
		state.publishMessage(ctx, msg.Topic, msg.Payload, msg.Retain, actorutil.ForRequest(msg).ReplyTo(ctx))
	case domain.PublishSensorUpdateRequest:
		state.logger.Debug("mqtt@default PublishSensorUpdateRequest", zap.String("type", fmt.Sprintf("%T", msg.Event)))
		state.publishSensorValue(ctx, msg.Event, msg.Retain)
	case OnEventStreamMessage:
		// receive message from event bus and publish to MQTT if needed
		if event, ok := msg.message.(domain.SensorUpdateEvent); ok {
			state.publishSensorValue(ctx, event, false)
		}
	case domain.PublishDiscoveryRequest:
		state.logger.Debug("mqtt@default PublishDiscoveryRequest")
		err := state.PublishHomeAssistantDiscovery(ctx, msg.Sensors)
		if err != nil {
			state.logger.Error("mqtt@default PublishDiscoveryRequest error", zap.Error(err))
		}
	case MQTTConnectionLost:
		// if connection lost, stop actor and let supervisor decide
		state.logger.Error("mqtt@default connection lost", zap.Error(msg.Error))
		panic(msg.Error)
	default:
		state.logger.Debug("mqtt@default ignore", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

type feedSubscription struct {
	topic   string
	handler pahomqtt.MessageHandler
}

// feedSubscriptions binds each configured feed topic to its boundary parser.
// Malformed payloads are dropped here with a warning so the control actor
// only ever sees well-formed telemetry.
func (state *MQTTActor) feedSubscriptions(ctx actor.Context) []feedSubscription {

	telemetryHandler := func(feed string, parse func(string) (domain.TelemetryMessage, error)) pahomqtt.MessageHandler {
		return func(c pahomqtt.Client, m pahomqtt.Message) {
			parsed, err := parse(string(m.Payload()))
			if err != nil {
				state.logger.Warn("mqtt: invalid feed payload", zap.String("feed", feed), zap.Error(err))
				return
			}
			ctx.Send(ctx.Self(), ParsedTelemetry{Message: parsed})
		}
	}

	cfg := state.config.MQTT
	subs := []feedSubscription{
		{
			topic: cfg.BatterySoCTopic,
			handler: telemetryHandler("battery_soc", func(payload string) (domain.TelemetryMessage, error) {
				pct, err := ParsePercentPayload(payload)
				if err != nil {
					return nil, err
				}
				return domain.BatterySoCUpdate{Percent: pct}, nil
			}),
		},
		{
			topic: cfg.BatteryReserveTopic,
			handler: telemetryHandler("battery_soc_reserve", func(payload string) (domain.TelemetryMessage, error) {
				pct, err := ParsePercentPayload(payload)
				if err != nil {
					return nil, err
				}
				return domain.BatteryReserveUpdate{Percent: pct}, nil
			}),
		},
		{
			topic: cfg.ActuatorOutputTopic,
			handler: telemetryHandler("actuator_output", func(payload string) (domain.TelemetryMessage, error) {
				watt, err := ParseWattsPayload(payload)
				if err != nil {
					return nil, err
				}
				return domain.ActuatorOutputUpdate{Watt: watt}, nil
			}),
		},
		{
			topic: cfg.ActuatorStateTopic,
			handler: telemetryHandler("actuator_battery_state", func(payload string) (domain.TelemetryMessage, error) {
				return domain.ActuatorBatteryStateUpdate{State: strings.TrimSpace(payload)}, nil
			}),
		},
		{
			topic: cfg.ActuatorStrategyTopic,
			handler: telemetryHandler("energy_strategy", func(payload string) (domain.TelemetryMessage, error) {
				return domain.EnergyStrategyUpdate{Strategy: domain.ParseEnergyStrategy(payload)}, nil
			}),
		},
	}

	// the MQTT meter feed is replaced by the modbus meter when enabled
	if !state.config.MeterModbus.Enable {
		subs = append(subs, feedSubscription{
			topic: cfg.MeterPowerTopic,
			handler: telemetryHandler("meter_power", func(payload string) (domain.TelemetryMessage, error) {
				watt, err := ParseWattsPayload(payload)
				if err != nil {
					return nil, err
				}
				return domain.GridPowerSample{Sample: domain.Sample{Watt: watt, At: time.Now()}}, nil
			}),
		})
	}
	return subs
}

// ParseFloat accepts "NaN" and "Inf" spellings; a NaN absorbed into the
// filter would poison it permanently and slip every bounds clamp downstream,
// so non-finite values are rejected here like any other malformed payload.
func ParseWattsPayload(payload string) (float64, error) {
	watt, err := strconv.ParseFloat(strings.TrimSpace(payload), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(watt) || math.IsInf(watt, 0) {
		return 0, errors.New("non-finite watts value")
	}
	return watt, nil
}

func ParsePercentPayload(payload string) (float64, error) {
	pct, err := strconv.ParseFloat(strings.TrimSpace(payload), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(pct) || pct < 0 || pct > 100 {
		return 0, errors.New("percent out of range")
	}
	return pct, nil
}

func (state *MQTTActor) event2MQTTMessage(event any) *rawMessage {
	switch msg := event.(type) {
	case domain.FloatSensorUpdateEvent:
		return &rawMessage{
			topic:   state.client.SensorStateTopic(msg.Id),
			message: fmt.Sprintf(fmt.Sprintf("%%.%df", msg.Decimals), msg.Value),
		}
	case domain.BinarySensorUpdateEvent:
		return &rawMessage{
			topic:   state.client.BinarySensorStateTopic(msg.Id),
			message: bool2MQTTPayload(msg.Value),
		}
	case domain.TextSensorUpdateEvent:
		return &rawMessage{
			topic:   state.client.SensorStateTopic(msg.Id),
			message: msg.Value,
		}
	case domain.BridgeStateUpdateEvent:
		var stringMessage string
		if msg.Value {
			stringMessage = mqtt.MQTT_PAYLOAD_ONLINE
		} else {
			stringMessage = mqtt.MQTT_PAYLOAD_OFFLINE
		}
		return &rawMessage{
			topic:   state.client.BridgeStateTopic(),
			message: stringMessage,
		}
	default:
		return nil
	}
}

func (state *MQTTActor) publishSensorValue(ctx actor.Context, event domain.SensorUpdateEvent, retain bool) {
	msg := state.event2MQTTMessage(event)
	if msg != nil {
		state.logger.Sugar().Debugf("mqtt@publish: sensor publish %s => %s", msg.topic, msg.message)
		state.client.Publish(msg.topic, msg.message, 1, msg.retain || retain, func(err error) {
			ctx.Send(ctx.Self(), publishResult{Error: err})
		}, 5*time.Second)
		state.behavior.BecomeStacked(state.EventPublishResultReceive)
	}
}

func (state *MQTTActor) publishMessage(ctx actor.Context, topic, payload string, retain bool, replyTo *actor.PID) {
	state.logger.Sugar().Debugf("mqtt@publish: message publish %s => %s", topic, payload)
	state.client.Publish(topic, payload, 1, retain, func(err error) {
		ctx.Send(ctx.Self(), publishResult{ReplyTo: replyTo, Error: err})
	}, 5*time.Second)
	state.behavior.BecomeStacked(state.MessagePublishResultReceive)
}

func (state *MQTTActor) MessagePublishResultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case publishResult:
		// log error and return to default state
		if msg.Error != nil {
			state.logger.Error("mqtt@publishing could not publish a message", zap.Error(msg.Error))
		}
		if msg.ReplyTo != nil {
			ctx.Send(msg.ReplyTo, domain.PublishMessageResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: msg.Error,
				},
			})
		}
		state.behavior.UnbecomeStacked()
		state.stash.UnstashOldest(ctx)
	default:
		state.logger.Debug("mqtt@publishing stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MQTTActor) EventPublishResultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case publishResult:
		// log error and return to default state
		if msg.Error != nil {
			state.logger.Error("mqtt@publishing could not publish a message", zap.Error(msg.Error))
		}
		if msg.ReplyTo != nil {
			ctx.Send(msg.ReplyTo, domain.PublishSensorUpdateResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: msg.Error,
				},
			})
		}
		state.behavior.UnbecomeStacked()
		state.stash.UnstashOldest(ctx)
	default:
		state.logger.Debug("mqtt@publishing stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MQTTActor) PublishHomeAssistantDiscovery(ctx actor.Context, sensors []domain.GenericSensor) error {
	for i := range sensors {
		msg := mqtt.GenericSensorToHADiscoveryMessage(state.client, sensors[i])
		payload, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		topic := mqtt.HADiscoverySensorTopic(state.config.MQTT.HADiscoveryTopic, sensors[i])
		state.client.Publish(topic, payload, 0, true, func(error) {}, 1*time.Second)
	}
	return nil
}

func discoverySensors(cfg *config.Config) []domain.GenericSensor {
	device := events.BridgeDevice(cfg.MQTT.BaseTopic)
	sensors := events.BridgeSensors(device)
	return append(sensors, events.ControllerSensors(device)...)
}

func (state *MQTTActor) stop() {
	state.logger.Debug("mqtt: disconnect")
	if state.eventStreamSub != nil {
		state.eventStream.Unsubscribe(state.eventStreamSub)
		state.eventStreamSub = nil
	}
	if state.client != nil {
		state.client.Publish(state.client.BridgeStateTopic(), mqtt.MQTT_PAYLOAD_OFFLINE, 0, true, func(error) {}, 500*time.Millisecond)
		state.client.Disconnect(500 * time.Millisecond)
	}
}

func bool2MQTTPayload(value bool) string {
	if value {
		return mqtt.MQTT_PAYLOAD_ON
	} else {
		return mqtt.MQTT_PAYLOAD_OFF
	}
}

// Dummy actor
func NewTestMQTTActor(config *config.Config, eventStream *eventstream.EventStream, logger *zap.Logger) *MQTTActor {
	act := &MQTTActor{
		config:      config,
		behavior:    actor.NewBehavior(),
		stash:       &actorutil.Stash{},
		eventStream: eventStream,
		logger:      actorutil.ActorLogger(domain.ACTOR_ID_MQTT, logger),
	}
	act.behavior.Become(act.DummyReceive)
	return act
}

func (state *MQTTActor) DummyReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.client = mqtt.CreateMQTTClient(state.config, mqtt.OptsFromConfig(state.config), nil, nil)
	case domain.ActorHealthRequest:
		state.logger.Debug("mqtt@dummy ActorHealthRequest")
		// respond health check request
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_MQTT,
			Healthy: true,
			State:   "idle",
		})
	case domain.WriteActuatorPowerRequest:
		if msg.ReplyToRef != nil {
			ctx.Respond(domain.WriteActuatorPowerResponse{})
		}
	case domain.PublishSensorUpdateRequest:
		if msg.ReplyToRef != nil {
			ctx.Respond(domain.PublishSensorUpdateResponse{})
		}
	case domain.PublishMessageRequest:
		if msg.ReplyToRef != nil {
			ctx.Respond(domain.PublishMessageResponse{})
		}
	}
}
