package service

import (
	"math"
	"time"

	"gridtrim/internal/core/domain"
	"gridtrim/internal/core/port"

	"go.uber.org/zap"
)

// DefaultImportControlLogic is a pure incremental (integral-only) controller.
// The plant (the actuator's own internal regulation) already smooths
// transients; the only goal here is slow convergence to the target import
// without inducing feedback oscillation, so there is no proportional or
// derivative term.
type DefaultImportControlLogic struct {
	TargetImportWatt  float64
	MinOutputWatt     float64
	MaxOutputWatt     float64
	Gain              float64
	MaxStepWatt       float64
	DeadbandWatt      float64
	MinElapsedSeconds float64
	Authority         AuthorityDetector
	Logger            *zap.Logger

	setpoint float64
}

func (c *DefaultImportControlLogic) Loop(filteredImportWatt float64, elapsed time.Duration, actuatorOutputWatt float64) domain.ControlTickResult {

	controlError := filteredImportWatt - c.TargetImportWatt
	if math.Abs(controlError) <= c.DeadbandWatt {
		// inside the deadband there is nothing worth correcting
		controlError = 0
	}

	dt := math.Max(elapsed.Seconds(), c.MinElapsedSeconds)
	delta := clamp(c.Gain*dt*controlError, -c.MaxStepWatt, c.MaxStepWatt)

	mode := domain.ModeControl
	if delta > 0 && !c.Authority.HasAuthority(actuatorOutputWatt) {
		if c.Authority.StartKickAllowed(c.setpoint, controlError) {
			mode = domain.ModeControlStartKick
		} else {
			// the controller must not ask for more power it cannot get
			delta = 0
			mode = domain.ModeHoldNoAuthority
		}
	}

	// anti-windup: no accumulation beyond the actuation range
	if (c.setpoint <= c.MinOutputWatt && delta < 0) ||
		(c.setpoint >= c.MaxOutputWatt && delta > 0) {
		delta = 0
	}

	c.setpoint = clamp(c.setpoint+delta, c.MinOutputWatt, c.MaxOutputWatt)

	if delta != 0 {
		c.Logger.Sugar().Debugf("control@loop: error=%.1fW delta=%.1fW setpoint=%.1fW", controlError, delta, c.setpoint)
	}

	return domain.ControlTickResult{
		Setpoint: c.setpoint,
		Mode:     mode,
	}
}

func (c *DefaultImportControlLogic) Setpoint() float64 {
	return c.setpoint
}

// Reset clears the carried setpoint. Called when the reserve gate closes so
// that resuming control starts clean rather than from a stale pre-reserve
// value.
func (c *DefaultImportControlLogic) Reset() {
	c.setpoint = 0
}

func (c *DefaultImportControlLogic) Bounds() (float64, float64) {
	return c.MinOutputWatt, c.MaxOutputWatt
}

func clamp(value, min, max float64) float64 {
	return math.Min(max, math.Max(min, value))
}

// ensure interface compliance
var _ port.ImportControlLogic = (*DefaultImportControlLogic)(nil)
