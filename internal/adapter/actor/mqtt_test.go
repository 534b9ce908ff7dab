package actor

import (
	"testing"

	"gridtrim/internal/core/events"
	"gridtrim/internal/util"

	"github.com/stretchr/testify/assert"
)

func TestParseWattsPayload(t *testing.T) {
	watt, err := ParseWattsPayload(" 123.5\n")
	assert.NoError(t, err)
	assert.Equal(t, 123.5, watt)

	watt, err = ParseWattsPayload("-250")
	assert.NoError(t, err)
	assert.Equal(t, -250.0, watt)

	_, err = ParseWattsPayload("not_a_number")
	assert.Error(t, err)

	_, err = ParseWattsPayload("")
	assert.Error(t, err)
}

// strconv.ParseFloat parses these spellings successfully, so they must be
// rejected explicitly: a single NaN sample would poison the filter state and
// pass through every min/max clamp down to the actuator command.
func TestParseWattsPayloadRejectsNonFinite(t *testing.T) {
	for _, payload := range []string{"NaN", "nan", "Inf", "+Inf", "-Inf", "Infinity"} {
		_, err := ParseWattsPayload(payload)
		assert.Error(t, err, "payload %q must be rejected", payload)
	}
}

func TestParsePercentPayloadRejectsNonFinite(t *testing.T) {
	for _, payload := range []string{"NaN", "nan", "Inf", "-Inf"} {
		_, err := ParsePercentPayload(payload)
		assert.Error(t, err, "payload %q must be rejected", payload)
	}
}

func TestParsePercentPayload(t *testing.T) {
	pct, err := ParsePercentPayload("42")
	assert.NoError(t, err)
	assert.Equal(t, 42.0, pct)

	pct, err = ParsePercentPayload("0")
	assert.NoError(t, err)
	assert.Equal(t, 0.0, pct)

	pct, err = ParsePercentPayload("100")
	assert.NoError(t, err)
	assert.Equal(t, 100.0, pct)

	_, err = ParsePercentPayload("101")
	assert.Error(t, err)

	_, err = ParsePercentPayload("-1")
	assert.Error(t, err)
}

func TestDiscoverySensors(t *testing.T) {
	cfg := util.LoadTestConfig()

	sensors := discoverySensors(&cfg)
	assert.NotEmpty(t, sensors)

	ids := make(map[string]bool)
	for _, s := range sensors {
		assert.NotEmpty(t, s.Id)
		assert.NotEmpty(t, s.UniqueId)
		assert.False(t, ids[s.Id], "duplicate sensor id %s", s.Id)
		ids[s.Id] = true
	}
	assert.True(t, ids[events.SENSOR_ID_BRIDGE_STATE])
	assert.True(t, ids[events.SENSOR_ID_CONTROL_SETPOINT])
	assert.True(t, ids[events.SENSOR_ID_CONTROL_MODE])
}
