package audiopipe

import (
	"audiopipe/internal/vad"

	"gopkg.in/hraban/opus.v2"
)

// opusEncoder abstracts the subset of *opus.Encoder this package calls, so
// tests can substitute a fake without linking libopus. Mirrors the
// teacher's own opusEncoder seam in audio.go.
type opusEncoder interface {
	Encode(pcm []int16, data []byte) (int, error)
	SetBitrate(bitrate int) error
	SetDTX(dtx bool) error
	SetInBandFEC(fec bool) error
	SetPacketLossPerc(lossPerc int) error
}

// Encoder is a PacketSource that reads PCM frames from an inner RawSource
// and emits Opus packets. Grounded on the original Encoder (codec.cpp):
// the whole Controllable+state surface delegates to the inner source, and
// encode() does nothing but read-then-encode. An optional VAD gate, absent
// from the original, implements spec §4.3's "VAD decides whether to
// transmit, not how to transform": ShouldSend(false) emits an empty
// packet instead of calling Opus at all.
type Encoder struct {
	src    RawSource
	enc    opusEncoder
	preset Preset
	mono   bool // downmix to mono before encoding (Voice preset forces this)
	pcmBuf []float32
	i16Buf []int16
	vadGate *vad.VAD // nil disables gating; every frame is encoded
}

// NewEncoder wraps src with an Opus encoder configured per preset. vadGate
// may be nil to send every frame unconditionally.
func NewEncoder(src RawSource, preset Preset, vadGate *vad.VAD) (*Encoder, error) {
	params := preset.params()
	channels := src.Channels()
	mono := false
	if params.forceMono && channels == 2 {
		mono = true
		channels = 1
	}

	enc, err := opus.NewEncoder(SampleRate, channels, params.application)
	if err != nil {
		return nil, &CodecError{Op: "new_encoder", Err: err}
	}
	if err := enc.SetBitrate(params.bitrate); err != nil {
		return nil, &CodecError{Op: "set_bitrate", Err: err}
	}
	if err := enc.SetInBandFEC(params.inbandFEC); err != nil {
		return nil, &CodecError{Op: "set_inband_fec", Err: err}
	}

	return &Encoder{
		src:     src,
		enc:     enc,
		preset:  preset,
		mono:    mono,
		pcmBuf:  make([]float32, FrameSize*src.Channels()),
		i16Buf:  make([]int16, FrameSize*channels),
		vadGate: vadGate,
	}, nil
}

func (e *Encoder) Start() error      { return e.src.Start() }
func (e *Encoder) Stop()             { e.src.Stop() }
func (e *Encoder) State() State      { return e.src.State() }
func (e *Encoder) LockState()        { e.src.LockState() }
func (e *Encoder) UnlockState()      { e.src.UnlockState() }
func (e *Encoder) WaitActive()       { e.src.WaitActive() }
func (e *Encoder) Channels() int {
	if e.mono {
		return 1
	}
	return e.src.Channels()
}

// Encode blocks for one frame from the inner source, optionally gates it
// through VAD, and writes the Opus packet into dst (sized to the preset's
// max block). A gated-out frame writes zero bytes, per spec §4.8's
// "possibly empty for loss/DTX" contract for PacketSource.
func (e *Encoder) Encode(dst []byte) (int, error) {
	if err := e.src.Read(e.pcmBuf); err != nil {
		return 0, err
	}

	frame := e.pcmBuf
	if e.mono {
		frame = downmix(e.pcmBuf)
	}

	if e.vadGate != nil {
		rms := vad.RMS(frame)
		if !e.vadGate.ShouldSend(rms) {
			return 0, nil
		}
	}

	for i, s := range frame {
		e.i16Buf[i] = floatToInt16(s)
	}
	n, err := e.enc.Encode(e.i16Buf, dst)
	if err != nil {
		return 0, &CodecError{Op: "encode", Err: err}
	}
	return n, nil
}

// SetPacketLoss tells the encoder the observed network loss rate so its
// FEC redundancy can track it, per the adaptive bitrate loop (spec §4.9).
func (e *Encoder) SetPacketLoss(percent int) error {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	if err := e.enc.SetPacketLossPerc(percent); err != nil {
		return &CodecError{Op: "set_packet_loss_perc", Err: err}
	}
	return nil
}

// SetBitrate reconfigures the encoder's target bitrate, driven by the
// adaptive ladder (spec §4.9 / internal/adapt).
func (e *Encoder) SetBitrate(bitsPerSecond int) error {
	if err := e.enc.SetBitrate(bitsPerSecond); err != nil {
		return &CodecError{Op: "set_bitrate", Err: err}
	}
	return nil
}

func downmix(stereo []float32) []float32 {
	mono := make([]float32, len(stereo)/2)
	for i := range mono {
		mono[i] = (stereo[2*i] + stereo[2*i+1]) / 2
	}
	return mono
}

func floatToInt16(s float32) int16 {
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	return int16(s * 32767)
}

func int16ToFloat(s int16) float32 {
	return float32(s) / 32767
}
