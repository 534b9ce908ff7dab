package service

// AuthorityDetector infers from the actuator's reported output whether it
// currently has authority to increase output, or is saturated/empty. Pure
// decision logic, no side effects.
type AuthorityDetector struct {
	OutputOnThresholdWatt  float64
	StartKickThresholdWatt float64
	StartKickErrorWatt     float64
}

// HasAuthority reports whether the actuator has demonstrated it can supply
// power right now.
func (d AuthorityDetector) HasAuthority(reportedOutputWatt float64) bool {
	return reportedOutputWatt > d.OutputOnThresholdWatt
}

// StartKickAllowed permits an initial ramp while the setpoint is still small
// and the control error is clearly large. This unsticks the loop when the
// actuator has not started supplying yet but clearly should.
func (d AuthorityDetector) StartKickAllowed(setpointWatt, errorWatt float64) bool {
	return setpointWatt < d.StartKickThresholdWatt && errorWatt > d.StartKickErrorWatt
}
