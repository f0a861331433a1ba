package audiopipe

import (
	"log"
	"math"
	"sync/atomic"

	"audiopipe/internal/aec"
)

// Pump drives a RawSource into an Output on its own goroutine: read one
// frame, apply volume, write it out, repeat — reacting to the source's
// own lifecycle instead of polling it. Grounded on the original Player
// (player.cpp)'s tfunc loop: per-state handling of Active/Stopped/
// Finalized, with Stopped driving the output stream's stop/start in step
// with wait_active so playback resumes exactly when the source does.
type Pump struct {
	src    RawSource
	out    Output
	volume atomic.Uint32 // math.Float32bits(coefficient)
	del    atomic.Bool

	// farEnd, if set, receives every frame written to the output so an
	// AEC stage on the capture side can subtract the echo path (spec
	// §4.6 note: the pump is the natural place to tap the far-end signal
	// because every playback frame passes through it exactly once).
	farEnd *aec.AEC

	// OnEndOfSource is invoked once, from the pump's own goroutine, when
	// the source transitions to Finalized and the pump is about to exit.
	OnEndOfSource func()

	frame []float32
}

// NewPump returns a Pump at unity volume. Call Run to start the loop on a
// new goroutine (or run it on the caller's own goroutine for explicit
// lifecycle management).
func NewPump(src RawSource, out Output, farEnd *aec.AEC) *Pump {
	p := &Pump{src: src, out: out, farEnd: farEnd}
	p.volume.Store(math.Float32bits(1.0))
	p.frame = make([]float32, FrameSize*out.Channels())
	return p
}

// SetVolume sets the linear volume coefficient applied to every frame
// before it reaches the output.
func (p *Pump) SetVolume(coeff float32) {
	p.volume.Store(math.Float32bits(coeff))
}

// Volume returns the current linear volume coefficient.
func (p *Pump) Volume() float32 {
	return math.Float32frombits(p.volume.Load())
}

// Delete sets the shared delete flag; the pump's goroutine exits after at
// most one more tick. Safe to call from any goroutine, any number of
// times.
func (p *Pump) Delete() {
	p.del.Store(true)
}

// Run executes the pump loop until Delete is called or the source
// finalizes. Intended to be launched with `go pump.Run()`.
func (p *Pump) Run() {
	if err := p.out.Start(); err != nil {
		log.Printf("[audiopipe] pump: output start: %v", err)
	}
	for {
		if p.del.Load() {
			p.src.Stop()
			return
		}

		p.src.LockState()
		switch p.src.State() {
		case StateActive:
			err := p.src.Read(p.frame)
			p.src.UnlockState()
			if err != nil {
				if cv, ok := err.(*ContractViolationError); ok {
					log.Printf("[audiopipe] pump: fatal: %v", cv)
					p.src.Stop()
					if f, ok := p.src.(finalizer); ok {
						f.finalize()
					}
					p.out.Stop()
					if p.OnEndOfSource != nil {
						p.OnEndOfSource()
					}
					return
				}
				log.Printf("[audiopipe] pump: read: %v", err)
				continue
			}
			if len(p.frame) == 0 {
				continue
			}
			p.applyVolume()
			if p.farEnd != nil {
				p.farEnd.FeedFarEnd(p.frame)
			}
			if err := p.out.Write(p.frame); err != nil {
				log.Printf("[audiopipe] pump: write: %v", err)
			}

		case StateStopped:
			p.src.UnlockState()
			p.out.Stop()
			p.src.WaitActive()
			if err := p.out.Start(); err != nil {
				log.Printf("[audiopipe] pump: output restart: %v", err)
			}

		case StateFinalized:
			p.src.UnlockState()
			p.out.Stop()
			if p.OnEndOfSource != nil {
				p.OnEndOfSource()
			}
			return
		}
	}
}

func (p *Pump) applyVolume() {
	coeff := p.Volume()
	if coeff == 1.0 {
		return
	}
	for i, s := range p.frame {
		p.frame[i] = s * coeff
	}
}
