package domain

const (
	ACTOR_ID_MASTER  = "master"
	ACTOR_ID_MQTT    = "mqtt"
	ACTOR_ID_METER   = "meter"
	ACTOR_ID_CONTROL = "control"
)

// Telemetry messages. Each external feed maps to a distinct message variant,
// consumed by the control actor strictly in arrival order.

type TelemetryMessage interface {
	TelemetryMessage() string
}

type GridPowerSample struct {
	Sample Sample
}

func (GridPowerSample) TelemetryMessage() string { return "grid_power_sample" }

type BatterySoCUpdate struct {
	Percent float64
}

func (BatterySoCUpdate) TelemetryMessage() string { return "battery_soc" }

type BatteryReserveUpdate struct {
	Percent float64
}

func (BatteryReserveUpdate) TelemetryMessage() string { return "battery_soc_reserve" }

type ActuatorOutputUpdate struct {
	Watt float64
}

func (ActuatorOutputUpdate) TelemetryMessage() string { return "actuator_output" }

type ActuatorBatteryStateUpdate struct {
	State string
}

func (ActuatorBatteryStateUpdate) TelemetryMessage() string { return "actuator_battery_state" }

type EnergyStrategyUpdate struct {
	Strategy EnergyStrategy
}

func (EnergyStrategyUpdate) TelemetryMessage() string { return "energy_strategy" }

// Actuator command path. Fire-and-forget from the control actor; the reply
// is only used when an explicit ReplyTo is set.

type WriteActuatorPowerRequest struct {
	ActorRequestMixIn
	Watt int
}

type WriteActuatorPowerResponse struct {
	ActorResponseMixIn
}

// Telemetry snapshot request, served by the control actor.

type GetTelemetryRequest struct {
	ActorRequestMixIn
}

type GetTelemetryResponse struct {
	ActorResponseMixIn
	Snapshot TelemetrySnapshot
}

// MQTT publish surface.

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload string
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

type PublishSensorUpdateRequest struct {
	ActorRequestMixIn
	Retain bool
	Event  SensorUpdateEvent
}

type PublishSensorUpdateResponse struct {
	ActorResponseMixIn
}

type PublishDiscoveryRequest struct {
	ActorRequestMixIn
	Sensors []GenericSensor
}

type PublishDiscoveryResponse struct {
	ActorResponseMixIn
}

// Health checks.

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}
