package dsp

import (
	"math"
	"sync/atomic"
)

// Volume scales a frame by a linear coefficient in [0, 1], grounded on the
// original VolumeDSP (dsp.cpp): "val" is stored as a fraction of a [0,100]
// percentage and multiplied sample-wise. The coefficient is held in an
// atomic so Set can be called from a UI/control goroutine while Process
// runs on the pipeline goroutine without a mutex.
type Volume struct {
	bits    atomic.Uint32 // math.Float32bits(coefficient)
	enabled atomic.Bool
}

// NewVolume returns a Volume at unity gain, enabled.
func NewVolume() *Volume {
	v := &Volume{}
	v.bits.Store(math.Float32bits(1.0))
	v.enabled.Store(true)
	return v
}

// SetLevel sets the coefficient from a [0,100] percentage, clamped.
func (v *Volume) SetLevel(pct int) {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	v.bits.Store(math.Float32bits(float32(pct) / 100))
}

// Coefficient returns the current linear gain.
func (v *Volume) Coefficient() float32 {
	return math.Float32frombits(v.bits.Load())
}

// Process scales frame in place by the current coefficient.
func (v *Volume) Process(frame []float32) {
	if !v.Enabled() {
		return
	}
	coeff := v.Coefficient()
	if coeff == 1.0 {
		return
	}
	for i, s := range frame {
		frame[i] = s * coeff
	}
}

// SetEnabled enables or disables the stage; when disabled Process is a
// no-op regardless of the configured coefficient.
func (v *Volume) SetEnabled(on bool) { v.enabled.Store(on) }

// Enabled reports whether the stage currently runs.
func (v *Volume) Enabled() bool { return v.enabled.Load() }
