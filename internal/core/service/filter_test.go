package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterFirstSampleInitializes(t *testing.T) {

	assert := assert.New(t)

	f := &ImportFilter{Alpha: 0.35, ZeroBand: 5}

	// no warm-up transient: the first sample becomes the value directly
	assert.Equal(180.0, f.Update(180))
	assert.True(f.Primed())
}

func TestFilterEMA(t *testing.T) {

	assert := assert.New(t)

	f := &ImportFilter{Alpha: 0.5, ZeroBand: 0}
	f.Update(100)
	assert.InDelta(150.0, f.Update(200), 1e-9)
	assert.InDelta(125.0, f.Update(100), 1e-9)
}

func TestFilterZeroBandSnap(t *testing.T) {

	assert := assert.New(t)

	f := &ImportFilter{Alpha: 0.5, ZeroBand: 5}
	f.Update(6)
	// 0.5*2 + 0.5*6 = 4 => inside zero band
	assert.Equal(0.0, f.Update(2))
	assert.Equal(0.0, f.Value())

	// negative values snap too
	g := &ImportFilter{Alpha: 1.0, ZeroBand: 5}
	assert.Equal(0.0, g.Update(-4.5))
}
