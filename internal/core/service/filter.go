package service

import "math"

// ImportFilter smooths the raw grid power measurement for control decisions.
// The raw sample stays available to callers for fallback/display use; only
// the filtered value is consumed by the controller.
type ImportFilter struct {
	Alpha    float64
	ZeroBand float64

	value  float64
	primed bool
}

// Update folds a new raw sample into the exponential moving average and
// returns the filtered value. The first sample initializes the filter
// directly so there is no warm-up transient. Values inside the zero band
// snap to 0 to prevent sub-threshold chatter.
func (f *ImportFilter) Update(raw float64) float64 {
	if !f.primed {
		f.value = raw
		f.primed = true
	} else {
		f.value = f.Alpha*raw + (1-f.Alpha)*f.value
	}
	if math.Abs(f.value) < f.ZeroBand {
		f.value = 0
	}
	return f.value
}

func (f *ImportFilter) Value() float64 {
	return f.value
}

func (f *ImportFilter) Primed() bool {
	return f.primed
}
