package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWriter() *OutputWriter {
	return &OutputWriter{
		MinWriteInterval:  3 * time.Second,
		MinSendDelta:      10,
		KeepaliveInterval: 30 * time.Second,
	}
}

func TestFirstOfferAlwaysWrites(t *testing.T) {

	assert := assert.New(t)

	w := newTestWriter()
	v, ok := w.Offer(123.4, time.Unix(1000, 0))
	assert.True(ok)
	assert.Equal(123, v, "rounded at write time")
}

func TestWriteSuppression(t *testing.T) {

	assert := assert.New(t)

	w := newTestWriter()
	t0 := time.Unix(1000, 0)
	_, ok := w.Offer(100, t0)
	assert.True(ok)

	// two candidates differing by less than the minimum send delta, within
	// the minimum write interval: exactly one write total
	_, ok = w.Offer(104, t0.Add(1*time.Second))
	assert.False(ok)
	_, ok = w.Offer(106, t0.Add(2*time.Second))
	assert.False(ok)
}

func TestSmallDeltaSuppressedEvenAfterInterval(t *testing.T) {

	assert := assert.New(t)

	w := newTestWriter()
	t0 := time.Unix(1000, 0)
	w.Offer(100, t0)

	_, ok := w.Offer(105, t0.Add(10*time.Second))
	assert.False(ok, "change below min send delta is noise")

	v, ok := w.Offer(115, t0.Add(20*time.Second))
	assert.True(ok)
	assert.Equal(115, v)
}

func TestLargeDeltaWithinIntervalSuppressed(t *testing.T) {

	assert := assert.New(t)

	w := newTestWriter()
	t0 := time.Unix(1000, 0)
	w.Offer(100, t0)

	_, ok := w.Offer(300, t0.Add(time.Second))
	assert.False(ok, "write rate is bounded by the min write interval")
}

func TestKeepaliveResendsLastWritten(t *testing.T) {

	require := require.New(t)

	w := newTestWriter()
	t0 := time.Unix(1000, 0)
	w.Offer(100, t0)

	// before the keepalive interval nothing happens
	_, ok := w.Keepalive(t0.Add(10 * time.Second))
	require.False(ok)

	v, ok := w.Keepalive(t0.Add(31 * time.Second))
	require.True(ok)
	require.Equal(100, v, "last written value resent verbatim")

	// and again one interval later
	v, ok = w.Keepalive(t0.Add(62 * time.Second))
	require.True(ok)
	require.Equal(100, v)
}

func TestKeepaliveBeforeFirstWrite(t *testing.T) {

	assert := assert.New(t)

	w := newTestWriter()
	_, ok := w.Keepalive(time.Unix(1000, 0))
	assert.False(ok, "nothing to resend before the first write")
}

func TestStaleUnchangedCandidateWritesOnKeepalive(t *testing.T) {

	assert := assert.New(t)

	w := newTestWriter()
	t0 := time.Unix(1000, 0)
	w.Offer(100, t0)

	// unchanged candidate after the keepalive interval is emitted anyway
	v, ok := w.Offer(100, t0.Add(31*time.Second))
	assert.True(ok)
	assert.Equal(100, v)
}

func TestRoundingKeepsInternalPrecision(t *testing.T) {

	assert := assert.New(t)

	w := newTestWriter()
	t0 := time.Unix(1000, 0)
	v, _ := w.Offer(99.6, t0)
	assert.Equal(100, v)

	last, ok := w.LastWritten()
	assert.True(ok)
	assert.Equal(100.0, last)
}
