package service

import (
	"math"
	"time"
)

// OutputWriter decides when a candidate setpoint is actually sent to the
// actuator. Small, frequent changes are suppressed to respect a rate-limited
// downstream sink; the keepalive path guarantees the sink's own display
// never goes stale even when the computed value is unchanged.
type OutputWriter struct {
	MinWriteInterval  time.Duration
	MinSendDelta      float64
	KeepaliveInterval time.Duration

	lastWritten     *float64
	lastWriteAt     time.Time
	lastKeepaliveAt time.Time
}

// Offer presents a fresh candidate. It returns the integer watt value to
// emit and whether to emit at all. Rounding happens here, at write time, so
// internal accumulation keeps fractional precision.
func (w *OutputWriter) Offer(candidate float64, now time.Time) (int, bool) {
	if w.lastWritten == nil {
		return w.write(candidate, now)
	}
	intervalOk := now.Sub(w.lastWriteAt) >= w.MinWriteInterval
	deltaOk := math.Abs(candidate-*w.lastWritten) >= w.MinSendDelta
	if intervalOk && deltaOk {
		return w.write(candidate, now)
	}
	if now.Sub(w.lastKeepaliveAt) >= w.KeepaliveInterval {
		return w.write(candidate, now)
	}
	return 0, false
}

// Keepalive re-emits the last written value verbatim once the keepalive
// interval has elapsed without any write. Used by the periodic tick so the
// actuator keeps receiving commands even when no sample arrives.
func (w *OutputWriter) Keepalive(now time.Time) (int, bool) {
	if w.lastWritten == nil {
		return 0, false
	}
	if now.Sub(w.lastKeepaliveAt) < w.KeepaliveInterval {
		return 0, false
	}
	return w.write(*w.lastWritten, now)
}

func (w *OutputWriter) LastWritten() (float64, bool) {
	if w.lastWritten == nil {
		return 0, false
	}
	return *w.lastWritten, true
}

func (w *OutputWriter) write(candidate float64, now time.Time) (int, bool) {
	rounded := math.Round(candidate)
	w.lastWritten = &rounded
	w.lastWriteAt = now
	w.lastKeepaliveAt = now
	return int(rounded), true
}
