package service

import (
	"testing"
	"time"

	"gridtrim/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.uber.org/zap"
)

const MAX_LOOP_ITER = 200

func newTestController() *DefaultImportControlLogic {
	return &DefaultImportControlLogic{
		TargetImportWatt:  20,
		MinOutputWatt:     0,
		MaxOutputWatt:     800,
		Gain:              0.5,
		MaxStepWatt:       100,
		DeadbandWatt:      10,
		MinElapsedSeconds: 1,
		Authority: AuthorityDetector{
			OutputOnThresholdWatt:  30,
			StartKickThresholdWatt: 25,
			StartKickErrorWatt:     100,
		},
		Logger: zap.Must(zap.NewDevelopment()),
	}
}

func TestDeadbandSuppressesAction(t *testing.T) {

	assert := assert.New(t)

	ctrl := newTestController()
	r := ctrl.Loop(25, 2*time.Second, 150)
	assert.Equal(0.0, r.Setpoint, "error within deadband must not move the setpoint")
	assert.Equal(domain.ModeControl, r.Mode)
}

func TestStepIsBounded(t *testing.T) {

	assert := assert.New(t)

	ctrl := newTestController()
	// huge error, huge dt: delta must still be capped at MaxStepWatt
	r := ctrl.Loop(5000, time.Hour, 500)
	assert.Equal(ctrl.MaxStepWatt, r.Setpoint)
}

func TestElapsedClampedToMinimum(t *testing.T) {

	assert := assert.New(t)

	ctrl := newTestController()
	// sub-millisecond dt is lifted to MinElapsedSeconds
	r := ctrl.Loop(120, time.Microsecond, 500)
	assert.InDelta(0.5*1*100, r.Setpoint, 1e-9)
}

func TestHoldWithoutAuthority(t *testing.T) {

	assert := assert.New(t)

	ctrl := newTestController()
	// actuator not supplying, setpoint already past the kick threshold
	ctrl.setpoint = 50
	r := ctrl.Loop(300, 2*time.Second, 0)
	assert.Equal(50.0, r.Setpoint, "no increase without authority")
	assert.Equal(domain.ModeHoldNoAuthority, r.Mode)

	// decreases are always allowed
	r = ctrl.Loop(-300, 2*time.Second, 0)
	assert.Less(r.Setpoint, 50.0)
	assert.Equal(domain.ModeControl, r.Mode)
}

func TestStartKickRampsFromZero(t *testing.T) {

	assert := assert.New(t)

	ctrl := newTestController()
	// actuator idle but error clearly large: initial ramp is permitted
	r := ctrl.Loop(220, 2*time.Second, 0)
	assert.Greater(r.Setpoint, 0.0)
	assert.Equal(domain.ModeControlStartKick, r.Mode)
}

func TestAntiWindupAtCeiling(t *testing.T) {

	require := require.New(t)

	ctrl := newTestController()
	ctrl.setpoint = ctrl.MaxOutputWatt

	// repeated positive error never pushes past the bound
	for i := 0; i < 5; i++ {
		r := ctrl.Loop(500, 2*time.Second, 600)
		require.Equal(ctrl.MaxOutputWatt, r.Setpoint)
	}

	// an opposite-sign error starts moving away immediately, no added lag
	r := ctrl.Loop(-100, 2*time.Second, 600)
	require.Less(r.Setpoint, ctrl.MaxOutputWatt)
}

func TestAntiWindupAtFloor(t *testing.T) {

	require := require.New(t)

	ctrl := newTestController()

	for i := 0; i < 5; i++ {
		r := ctrl.Loop(-500, 2*time.Second, 600)
		require.Equal(ctrl.MinOutputWatt, r.Setpoint)
	}

	r := ctrl.Loop(200, 2*time.Second, 600)
	require.Greater(r.Setpoint, ctrl.MinOutputWatt)
}

func TestSetpointAlwaysWithinBounds(t *testing.T) {

	require := require.New(t)

	ctrl := newTestController()
	inputs := []float64{5000, -5000, 800, -800, 20, 0, 10000}
	for _, in := range inputs {
		r := ctrl.Loop(in, 10*time.Second, 500)
		require.GreaterOrEqual(r.Setpoint, ctrl.MinOutputWatt)
		require.LessOrEqual(r.Setpoint, ctrl.MaxOutputWatt)
	}
}

// Import jumps from 0 W to 200 W with target 20 W and the actuator already
// supplying: the setpoint must rise over several cycles, bounded by the max
// step per cycle, and converge until the residual import is within the
// deadband of the target.
func TestConvergenceScenario(t *testing.T) {

	require := require.New(t)

	ctrl := newTestController()
	baseLoad := 200.0

	prev := 0.0
	count := 0
	for {
		// the plant: every watt of setpoint removes a watt of import
		imported := baseLoad - ctrl.Setpoint()
		r := ctrl.Loop(imported, 2*time.Second, 150)

		require.LessOrEqual(r.Setpoint-prev, ctrl.MaxStepWatt, "per-cycle step bound")
		if r.Setpoint == prev {
			break
		}
		prev = r.Setpoint
		count++
		// avoid infinite loop
		require.LessOrEqual(count, MAX_LOOP_ITER, "possible infinite loop avoided")
	}

	residual := baseLoad - ctrl.Setpoint()
	require.InDelta(ctrl.TargetImportWatt, residual, ctrl.DeadbandWatt+1e-9)
	require.GreaterOrEqual(count, 2, "convergence must take several cycles")
}

func TestResetClearsControlMemory(t *testing.T) {

	assert := assert.New(t)

	ctrl := newTestController()
	ctrl.Loop(500, 2*time.Second, 500)
	assert.Greater(ctrl.Setpoint(), 0.0)
	ctrl.Reset()
	assert.Equal(0.0, ctrl.Setpoint())
}
