package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateClosesAtReserve(t *testing.T) {

	assert := assert.New(t)

	g := NewReserveGate(1)
	assert.True(g.Evaluate(25, 20))
	assert.True(g.Evaluate(21, 20))
	assert.False(g.Evaluate(20, 20), "gate must close at soc <= reserve")
	assert.False(g.Evaluate(19, 20))
}

func TestGateReopensOnlyPastMargin(t *testing.T) {

	assert := assert.New(t)

	g := NewReserveGate(1)
	g.Evaluate(19, 20)
	assert.False(g.Open())

	// inside the hysteresis margin nothing changes
	assert.False(g.Evaluate(20.5, 20))
	assert.True(g.Evaluate(21, 20), "gate reopens at reserve + margin")
}

func TestGateIdempotentEvaluation(t *testing.T) {

	assert := assert.New(t)

	g := NewReserveGate(1)
	g.Evaluate(19, 20)
	for i := 0; i < 10; i++ {
		assert.False(g.Evaluate(19, 20))
	}
	g.Evaluate(25, 20)
	for i := 0; i < 10; i++ {
		assert.True(g.Evaluate(25, 20))
	}
}

// Once closed, the gate must stay closed for every soc sequence until
// soc >= reserve + margin; single-unit fluctuations inside the margin
// never toggle it.
func TestGateHysteresisSequence(t *testing.T) {

	require := require.New(t)

	g := NewReserveGate(2)
	socs := []float64{25, 22, 20, 19, 20, 21, 20.9, 21.5, 19, 22, 23}
	reserve := 20.0

	closedAt := -1
	for i, soc := range socs {
		open := g.Evaluate(soc, reserve)
		if closedAt < 0 && !open {
			closedAt = i
		}
		if closedAt >= 0 && soc < reserve+g.Margin {
			require.False(open, "gate must stay closed below reserve+margin (soc=%f)", soc)
		}
		if soc >= reserve+g.Margin {
			require.True(open, "gate must reopen at soc >= reserve+margin (soc=%f)", soc)
			closedAt = -1
		}
	}
}
