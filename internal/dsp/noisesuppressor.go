package dsp

/*
#cgo pkg-config: rnnoise
#include <rnnoise.h>
#include <stdlib.h>
*/
import "C"
import (
	"math"
	"sync"
	"sync/atomic"
	"unsafe"
)

// rnnoiseFrameSize is RNNoise's native frame size; it divides FrameSize
// (960) evenly, so NoiseSuppressor runs the library twice per pipeline tick.
const rnnoiseFrameSize = 480

// NoiseSuppressor applies RNNoise-based ML noise suppression to a 960-sample
// mono frame, blended against the dry signal by a configurable wet level.
// Adapted from the original client's NoiseCanceller (noise.go): persistent
// per-half state, pre-allocated C buffers, samples pre-scaled to int16
// range for the library call, reused here as a dsp.Processor instead of a
// bespoke pre-encode hook.
type NoiseSuppressor struct {
	mu      sync.Mutex
	st0     *C.DenoiseState
	st1     *C.DenoiseState
	cIn     *C.float
	cOut    *C.float
	level   atomic.Uint32 // math.Float32bits(wet level), 0=bypass..1=full
	enabled atomic.Bool
	closed  bool
}

// NewNoiseSuppressor allocates two RNNoise state instances, disabled by
// default at full wet level.
func NewNoiseSuppressor() *NoiseSuppressor {
	cIn := (*C.float)(C.malloc(C.size_t(rnnoiseFrameSize) * C.size_t(unsafe.Sizeof(C.float(0)))))
	cOut := (*C.float)(C.malloc(C.size_t(rnnoiseFrameSize) * C.size_t(unsafe.Sizeof(C.float(0)))))
	n := &NoiseSuppressor{
		st0:  C.rnnoise_create(nil),
		st1:  C.rnnoise_create(nil),
		cIn:  cIn,
		cOut: cOut,
	}
	n.level.Store(math.Float32bits(1.0))
	return n
}

// SetLevel sets the suppression blend in [0,1], clamped.
func (n *NoiseSuppressor) SetLevel(level float32) {
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	n.level.Store(math.Float32bits(level))
}

// SetEnabled enables or disables suppression; Process is a no-op while
// disabled.
func (n *NoiseSuppressor) SetEnabled(on bool) { n.enabled.Store(on) }

// Enabled reports whether suppression currently runs.
func (n *NoiseSuppressor) Enabled() bool { return n.enabled.Load() }

// Process denoises frame in place (must be exactly FrameSize samples,
// mono). No-op while disabled or if the blend level is zero.
func (n *NoiseSuppressor) Process(frame []float32) {
	if !n.Enabled() {
		return
	}
	level := math.Float32frombits(n.level.Load())
	if level == 0 {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}

	inSlice := unsafe.Slice(n.cIn, rnnoiseFrameSize)
	outSlice := unsafe.Slice(n.cOut, rnnoiseFrameSize)

	n.processHalf(n.st0, frame[:rnnoiseFrameSize], inSlice, outSlice, level)
	n.processHalf(n.st1, frame[rnnoiseFrameSize:], inSlice, outSlice, level)
}

func (n *NoiseSuppressor) processHalf(st *C.DenoiseState, half []float32, in, out []float32, level float32) {
	for i, s := range half {
		in[i] = s * 32767.0
	}
	C.rnnoise_process_frame(st, n.cOut, n.cIn)
	for i := range half {
		denoised := out[i] / 32767.0
		half[i] = half[i]*(1-level) + denoised*level
	}
}

// Close releases the underlying RNNoise state and C buffers. The
// suppressor must not be used afterward.
func (n *NoiseSuppressor) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	C.rnnoise_destroy(n.st0)
	C.rnnoise_destroy(n.st1)
	C.free(unsafe.Pointer(n.cIn))
	C.free(unsafe.Pointer(n.cOut))
}
