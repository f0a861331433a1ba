package audiopipe

import "audiopipe/internal/jitter"

// JitterPacketSource adapts a jitter.Buffer to the PacketSource contract
// so it can feed a Decoder (spec §4.8: "any PacketSource chains into a
// decoder"). Unlike JitterSource it performs no decoding or catch-up
// averaging itself — it is the composition to reach for when a Decoder's
// FEC lookahead matters more than a fused buffer+decoder's simplicity.
type JitterPacketSource struct {
	state *stateBox
	buf   *jitter.Buffer
}

// NewJitterPacketSource wraps buf as a PacketSource.
func NewJitterPacketSource(buf *jitter.Buffer) *JitterPacketSource {
	return &JitterPacketSource{state: newStateBox(StateStopped), buf: buf}
}

func (j *JitterPacketSource) Start() error {
	j.state.set(StateActive)
	return nil
}
func (j *JitterPacketSource) Stop() { j.state.set(StateStopped) }
func (j *JitterPacketSource) State() State { return j.state.Get() }
func (j *JitterPacketSource) LockState()   { j.state.Lock() }
func (j *JitterPacketSource) UnlockState() { j.state.Unlock() }
func (j *JitterPacketSource) WaitActive()  { j.state.waitActive() }
func (j *JitterPacketSource) Channels() int { return 0 } // decoder-level concern; unused here

// finalize forces the source into StateFinalized from outside the normal
// Stopped/Active lifecycle.
func (j *JitterPacketSource) finalize() { j.state.set(StateFinalized) }

// Encode pops the next packet and copies it into dst, returning the byte
// count (0 if the buffer has closed with nothing left to drain).
func (j *JitterPacketSource) Encode(dst []byte) (int, error) {
	pkt, ok := j.buf.Pop()
	if !ok {
		return 0, nil
	}
	n := copy(dst, pkt)
	return n, nil
}

// Push feeds one network packet into the underlying jitter buffer.
func (j *JitterPacketSource) Push(pkt []byte) error {
	return j.buf.Push(pkt)
}
