package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var det = AuthorityDetector{
	OutputOnThresholdWatt:  30,
	StartKickThresholdWatt: 25,
	StartKickErrorWatt:     100,
}

func TestHasAuthority(t *testing.T) {

	assert := assert.New(t)

	assert.True(det.HasAuthority(150))
	assert.False(det.HasAuthority(30), "threshold itself is not authority")
	assert.False(det.HasAuthority(0))
	assert.False(det.HasAuthority(-200), "charging actuator has no discharge authority")
}

func TestStartKickAllowed(t *testing.T) {

	assert := assert.New(t)

	// small setpoint + clearly large error unsticks the loop
	assert.True(det.StartKickAllowed(0, 180))
	assert.False(det.StartKickAllowed(0, 100), "error must exceed the kick threshold")
	assert.False(det.StartKickAllowed(25, 180), "setpoint no longer small")
	assert.False(det.StartKickAllowed(400, 500))
}
