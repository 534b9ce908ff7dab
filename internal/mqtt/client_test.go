package mqtt

import (
	"testing"

	"gridtrim/internal/config"
	"gridtrim/internal/core/domain"
	"gridtrim/internal/core/events"

	"github.com/stretchr/testify/assert"
)

func testClient() *MQTTClient {
	cfg := &config.Config{
		MQTT: config.MQTTConfig{
			Host:                 "localhost",
			Port:                 1883,
			BaseTopic:            "gridtrim",
			ActuatorCommandTopic: "victron/settings/feedin",
		},
	}
	return CreateMQTTClient(cfg, OptsFromConfig(cfg), nil, nil)
}

func TestStateTopics(t *testing.T) {
	client := testClient()

	assert.Equal(t, "gridtrim/bridge/state", client.BridgeStateTopic())
	assert.Equal(t, "gridtrim/sensor/control_setpoint/state", client.SensorStateTopic("control_setpoint"))
	assert.Equal(t, "gridtrim/binary_sensor/reserve_gate_open/state", client.BinarySensorStateTopic("reserve_gate_open"))
}

func TestActuatorCommandTopicIsNotPrefixed(t *testing.T) {
	client := testClient()

	assert.Equal(t, "victron/settings/feedin", client.ActuatorCommandTopic())
}

func TestHADiscoveryTopic(t *testing.T) {
	device := domain.Device{Id: "gridtrim_bridge_abcd1234"}
	sensor := domain.GenericSensor{
		Device:     device,
		Id:         events.SENSOR_ID_CONTROL_SETPOINT,
		SensorType: events.SENSOR_TYPE_SENSOR,
	}

	topic := HADiscoverySensorTopic("homeassistant", sensor)
	assert.Equal(t, "homeassistant/sensor/gridtrim_bridge_abcd1234/control_setpoint/config", topic)
}

func TestHADiscoveryBinarySensorPayloads(t *testing.T) {
	client := testClient()
	device := domain.Device{Id: "gridtrim_bridge_abcd1234"}

	gate := domain.GenericSensor{
		Device:     device,
		Id:         events.SENSOR_ID_RESERVE_GATE_OPEN,
		SensorType: events.SENSOR_TYPE_BINARY,
	}
	msg := GenericSensorToHADiscoveryMessage(client, gate)
	assert.Equal(t, MQTT_PAYLOAD_ON, msg.PayloadOn)
	assert.Equal(t, MQTT_PAYLOAD_OFF, msg.PayloadOff)
	assert.Equal(t, client.BinarySensorStateTopic(gate.Id), msg.StateTopic)

	bridge := domain.GenericSensor{
		Device:     device,
		Id:         events.SENSOR_ID_BRIDGE_STATE,
		SensorType: events.SENSOR_TYPE_BINARY,
	}
	msg = GenericSensorToHADiscoveryMessage(client, bridge)
	assert.Equal(t, MQTT_PAYLOAD_ONLINE, msg.PayloadOn)
	assert.Equal(t, MQTT_PAYLOAD_OFFLINE, msg.PayloadOff)
	assert.Equal(t, client.BridgeStateTopic(), msg.StateTopic)
}
