package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEnergyStrategyObjectPayload(t *testing.T) {

	assert := assert.New(t)

	s := ParseEnergyStrategy(`{"mode": "self_powered", "extra": 1}`)
	assert.True(s.Structured)
	assert.True(s.SelfPowered())
	assert.Equal("self_powered", s.Mode)
}

func TestParseEnergyStrategyStringPayload(t *testing.T) {

	assert := assert.New(t)

	s := ParseEnergyStrategy(" Self-Powered \n")
	assert.False(s.Structured)
	assert.True(s.SelfPowered(), "dashes and case are normalized")

	s = ParseEnergyStrategy("time_of_use")
	assert.False(s.SelfPowered())
	assert.Equal("time_of_use", s.Mode)
}

func TestParseEnergyStrategyKeepsRawPayload(t *testing.T) {

	assert := assert.New(t)

	s := ParseEnergyStrategy(`{"mode":"backup"}`)
	assert.Equal(`{"mode":"backup"}`, s.Raw)

	// an object without a mode field degrades to the plain-string reading
	s = ParseEnergyStrategy(`{"other":"x"}`)
	assert.False(s.Structured)
}

func TestModeString(t *testing.T) {

	assert := assert.New(t)

	assert.Equal("init", ModeInit.String())
	assert.Equal("control", ModeControl.String())
	assert.Equal("control_start_kick", ModeControlStartKick.String())
	assert.Equal("hold_no_authority", ModeHoldNoAuthority.String())
	assert.Equal("fallback_reserve", ModeFallbackReserve.String())
}
