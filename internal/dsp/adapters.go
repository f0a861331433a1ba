package dsp

import (
	"sync/atomic"

	"audiopipe/internal/agc"
	"audiopipe/internal/noisegate"
)

// AGCStage adapts internal/agc.AGC, whose Process returns its frame
// argument and has no enable flag of its own, to the Processor interface.
type AGCStage struct {
	agc     *agc.AGC
	enabled atomic.Bool
}

// NewAGCStage wraps a fresh AGC, enabled by default.
func NewAGCStage() *AGCStage {
	s := &AGCStage{agc: agc.New()}
	s.enabled.Store(true)
	return s
}

// SetTarget forwards to the underlying AGC.
func (s *AGCStage) SetTarget(level int) { s.agc.SetTarget(level) }

// Gain reports the underlying AGC's current linear gain.
func (s *AGCStage) Gain() float64 { return s.agc.Gain() }

func (s *AGCStage) Process(frame []float32) { s.agc.Process(frame) }
func (s *AGCStage) SetEnabled(on bool)      { s.enabled.Store(on) }
func (s *AGCStage) Enabled() bool           { return s.enabled.Load() }

// NoiseGateStage adapts internal/noisegate.Gate, which already carries its
// own enable flag, to the Processor interface.
type NoiseGateStage struct {
	gate *noisegate.Gate
}

// NewNoiseGateStage wraps a fresh Gate.
func NewNoiseGateStage() *NoiseGateStage {
	return &NoiseGateStage{gate: noisegate.New()}
}

// SetThreshold forwards to the underlying Gate.
func (s *NoiseGateStage) SetThreshold(level int) { s.gate.SetThreshold(level) }

// IsOpen forwards to the underlying Gate.
func (s *NoiseGateStage) IsOpen() bool { return s.gate.IsOpen() }

func (s *NoiseGateStage) Process(frame []float32) { s.gate.Process(frame) }
func (s *NoiseGateStage) SetEnabled(on bool)      { s.gate.SetEnabled(on) }
func (s *NoiseGateStage) Enabled() bool           { return s.gate.Enabled() }
