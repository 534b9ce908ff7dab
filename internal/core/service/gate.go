package service

// NextGateState is the pure hysteresis rule of the reserve gate. An open
// gate closes when soc <= reserve; a closed gate reopens only once
// soc >= reserve + margin. No transition happens without crossing the
// respective threshold, so a single-unit fluctuation inside the margin
// cannot toggle the gate.
func NextGateState(soc, reserve, margin float64, open bool) bool {
	if open {
		return soc > reserve
	}
	return soc >= reserve+margin
}

// ReserveGate decides whether the actuator may discharge at all, based on
// battery state of charge vs the reserve threshold. It is consulted, not
// commanded; evaluation is idempotent for unchanged inputs.
type ReserveGate struct {
	Margin float64

	open bool
}

func NewReserveGate(margin float64) *ReserveGate {
	return &ReserveGate{Margin: margin, open: true}
}

func (g *ReserveGate) Evaluate(soc, reserve float64) bool {
	g.open = NextGateState(soc, reserve, g.Margin, g.open)
	return g.open
}

func (g *ReserveGate) Open() bool {
	return g.open
}
