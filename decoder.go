package audiopipe

import "gopkg.in/hraban/opus.v2"

// opusDecoder abstracts the subset of *opus.Decoder this package calls.
type opusDecoder interface {
	Decode(data []byte, pcm []int16) (int, error)
	DecodeFEC(data []byte, pcm []int16) error
}

// Decoder is a RawSource that wraps a PacketSource and implements spec
// §4.4's one-packet-lookahead FEC/PLC algorithm: when the expected packet
// is lost, it pulls the *next* packet early and asks Opus to reconstruct
// the lost frame from that packet's in-band redundancy before falling
// back to pure concealment. A lookahead pull is resolved on the very next
// Read, one way or the other: a present lookahead still owes its own
// normal decode (cachedValid && cached != nil); an empty lookahead means
// that slot is already a known loss and must be concealed directly,
// without pulling again (cachedValid && cached == nil). Either way no
// packet is ever pulled twice, and a run of k consecutive losses yields
// k concealment frames.
type Decoder struct {
	src      PacketSource
	dec      opusDecoder
	channels int

	pktBuf      []byte
	i16Buf      []int16
	cached      []byte // a pulled-ahead packet; meaningful only if cachedValid
	cachedValid bool
}

// NewDecoder wraps src, decoding at the given channel count (1 or 2) and
// preset (which bounds the packet buffer size).
func NewDecoder(src PacketSource, channels int, preset Preset) (*Decoder, error) {
	dec, err := opus.NewDecoder(SampleRate, channels)
	if err != nil {
		return nil, &CodecError{Op: "new_decoder", Err: err}
	}
	return &Decoder{
		src:      src,
		dec:      dec,
		channels: channels,
		pktBuf:   make([]byte, preset.maxBlockSize()),
		i16Buf:   make([]int16, FrameSize*channels),
	}, nil
}

func (d *Decoder) Start() error  { return d.src.Start() }
func (d *Decoder) Stop()         { d.src.Stop() }
func (d *Decoder) State() State  { return d.src.State() }
func (d *Decoder) LockState()    { d.src.LockState() }
func (d *Decoder) UnlockState()  { d.src.UnlockState() }
func (d *Decoder) WaitActive()   { d.src.WaitActive() }
func (d *Decoder) Channels() int { return d.channels }

// finalize forces the wrapped PacketSource into StateFinalized, if it
// supports being forced. Decoder has no stateBox of its own; its whole
// Controllable surface delegates to src, so finalization does too.
func (d *Decoder) finalize() {
	if f, ok := d.src.(finalizer); ok {
		f.finalize()
	}
}

func (d *Decoder) pull() ([]byte, error) {
	n, err := d.src.Encode(d.pktBuf)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	pkt := make([]byte, n)
	copy(pkt, d.pktBuf[:n])
	return pkt, nil
}

// Read resolves one pending lookahead (if any) or pulls a fresh primary
// packet, decodes it by whichever of normal/FEC/PLC the outcome calls
// for, and fills dst. A lookahead that turned out empty is itself a
// known loss recorded via cachedValid, so the next Read conceals it
// directly instead of pulling (and potentially dropping) another packet.
func (d *Decoder) Read(dst []float32) error {
	var n int
	var err error

	switch {
	case d.cachedValid && d.cached != nil:
		pkt := d.cached
		d.cached, d.cachedValid = nil, false
		n, err = d.decodeNormal(pkt)

	case d.cachedValid:
		d.cachedValid = false
		n, err = d.decodePLC()

	default:
		primary, perr := d.pull()
		if perr != nil {
			return perr
		}
		if len(primary) > 0 {
			n, err = d.decodeNormal(primary)
		} else {
			lookahead, lerr := d.pull()
			if lerr != nil {
				return lerr
			}
			if len(lookahead) > 0 {
				n, err = d.decodeFEC(lookahead)
				d.cached, d.cachedValid = lookahead, true
			} else {
				n, err = d.decodePLC()
				d.cached, d.cachedValid = nil, true
			}
		}
	}
	if err != nil {
		return err
	}
	if n != FrameSize*d.channels {
		return &ContractViolationError{Stage: "decoder", Msg: "decoded frame length mismatch"}
	}
	for i := 0; i < n; i++ {
		dst[i] = int16ToFloat(d.i16Buf[i])
	}
	return nil
}

func (d *Decoder) decodeNormal(pkt []byte) (int, error) {
	n, err := d.dec.Decode(pkt, d.i16Buf)
	if err != nil {
		return 0, &CodecError{Op: "decode", Err: err}
	}
	return n * d.channels, nil
}

func (d *Decoder) decodeFEC(nextPkt []byte) (int, error) {
	if err := d.dec.DecodeFEC(nextPkt, d.i16Buf); err != nil {
		return 0, &CodecError{Op: "decode_fec", Err: err}
	}
	return FrameSize * d.channels, nil
}

func (d *Decoder) decodePLC() (int, error) {
	n, err := d.dec.Decode(nil, d.i16Buf)
	if err != nil {
		return 0, &CodecError{Op: "decode_plc", Err: err}
	}
	return n * d.channels, nil
}
