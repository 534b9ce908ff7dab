package port

import (
	"time"

	"gridtrim/internal/core/domain"
)

// ImportControlLogic is the integral control loop. Invoked once per accepted
// sample while the reserve gate is open. The setpoint it carries is the only
// control memory persisted across cycles.
type ImportControlLogic interface {
	Loop(filteredImportWatt float64, elapsed time.Duration, actuatorOutputWatt float64) domain.ControlTickResult
	Setpoint() float64
	Reset()
	Bounds() (min float64, max float64)
}

// GridMeterReader reads the signed grid power flow from a smart meter.
// Positive is import, negative is export.
type GridMeterReader interface {
	Open() error
	Close() error
	Validate() error
	GetPowerWatt() (float64, error)
}
