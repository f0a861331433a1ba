package audiopipe

import (
	"audiopipe/internal/aec"
	"audiopipe/internal/dsp"
	"audiopipe/internal/reconf"
)

// Recorder is a RawSource that captures from an input Stream and runs the
// frame through the AEC pre-stage and the configured DSP chain. Grounded on the original
// Recorder (recorder.cpp): a state box straddling stream.start/stop, plain
// FrameSize-resize-then-read, and dsps applied in order after the read.
type Recorder struct {
	state *stateBox
	strm  *Stream
	chain *dsp.Chain
	aec   *aec.AEC

	reconfHandle reconf.Handle
}

// NewRecorder returns a Stopped Recorder reading from strm through chain.
// aecProc may be nil to skip echo cancellation entirely. The Recorder
// registers itself with the process-wide reconfiguration registry; call
// Close to deregister.
func NewRecorder(strm *Stream, chain *dsp.Chain, aecProc *aec.AEC) *Recorder {
	r := &Recorder{
		state: newStateBox(StateStopped),
		strm:  strm,
		chain: chain,
		aec:   aecProc,
	}
	r.reconfHandle = reconf.Register(r)
	return r
}

// Start opens the device if needed and transitions to Active.
func (r *Recorder) Start() error {
	if err := r.strm.Open(); err != nil {
		return err
	}
	if err := r.strm.Start(); err != nil {
		return err
	}
	r.state.set(StateActive)
	return nil
}

// Stop transitions to Stopped and halts the underlying stream. A Finalized
// Recorder ignores Stop (sticky terminal state).
func (r *Recorder) Stop() {
	r.strm.Stop()
	r.state.set(StateStopped)
}

// State reports the current lifecycle state.
func (r *Recorder) State() State { return r.state.Get() }

// LockState/UnlockState bracket a State()+Read pair against a concurrent
// Stop.
func (r *Recorder) LockState()   { r.state.Lock() }
func (r *Recorder) UnlockState() { r.state.Unlock() }

// WaitActive blocks while Stopped.
func (r *Recorder) WaitActive() { r.state.waitActive() }

// Channels reports the fixed channel count (always 1: capture is mono).
func (r *Recorder) Channels() int { return 1 }

// finalize forces the Recorder into StateFinalized from outside the
// normal Start/Stop lifecycle, without releasing the device the way
// Close does.
func (r *Recorder) finalize() { r.state.set(StateFinalized) }

// Read blocks for one device frame period, feeds it to the AEC canceller
// (if configured) before the DSP chain runs, and returns the processed
// frame. dst must have length FrameSize.
func (r *Recorder) Read(dst []float32) error {
	if err := r.strm.Read(dst); err != nil {
		return err
	}
	if r.aec != nil {
		r.aec.Process(dst)
	}
	r.chain.Process(dst)
	return nil
}

// Reconf rebuilds the underlying device stream against the current default
// input device, preserving the active/stopped state. Invoked by
// internal/reconf.ReconfAll.
func (r *Recorder) Reconf() error {
	return r.strm.Reconf()
}

// Close releases the device and deregisters from the reconfiguration
// registry. The Recorder must not be used afterward.
func (r *Recorder) Close() error {
	reconf.Deregister(r.reconfHandle)
	r.state.set(StateFinalized)
	return r.strm.Close()
}
