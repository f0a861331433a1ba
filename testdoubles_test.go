package audiopipe

import "sync"

// fakeRawSource is a minimal RawSource double driven entirely by test
// code: frames and state transitions are queued up front rather than
// produced by a real device, mirroring the teacher's mockPAStream
// approach of substituting the narrow interface seam instead of a real
// backend.
type fakeRawSource struct {
	state    *stateBox
	channels int

	mu      sync.Mutex
	frames  [][]float32
	readAt  int
	readErr error // if set, Read returns this immediately instead of a frame
}

func newFakeRawSource(channels int, frames ...[]float32) *fakeRawSource {
	return &fakeRawSource{
		state:    newStateBox(StateActive),
		channels: channels,
		frames:   frames,
	}
}

func (f *fakeRawSource) Start() error      { f.state.set(StateActive); return nil }
func (f *fakeRawSource) Stop()             { f.state.set(StateStopped) }
func (f *fakeRawSource) State() State      { return f.state.Get() }
func (f *fakeRawSource) LockState()        { f.state.Lock() }
func (f *fakeRawSource) UnlockState()      { f.state.Unlock() }
func (f *fakeRawSource) WaitActive()       { f.state.waitActive() }
func (f *fakeRawSource) Channels() int     { return f.channels }

// finalize forces the source into StateFinalized from outside the normal
// Stopped/Active lifecycle.
func (f *fakeRawSource) finalize() { f.state.set(StateFinalized) }

func (f *fakeRawSource) Read(dst []float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return f.readErr
	}
	if f.readAt >= len(f.frames) {
		for i := range dst {
			dst[i] = 0
		}
		return nil
	}
	copy(dst, f.frames[f.readAt])
	f.readAt++
	return nil
}

// fakePacketSource hands out a fixed queue of packets, with an empty
// slice representing a lost packet (spec §4.8's "possibly empty").
type fakePacketSource struct {
	state   *stateBox
	packets [][]byte
	at      int
}

func newFakePacketSource(packets ...[]byte) *fakePacketSource {
	return &fakePacketSource{state: newStateBox(StateActive), packets: packets}
}

func (f *fakePacketSource) Start() error  { f.state.set(StateActive); return nil }
func (f *fakePacketSource) Stop()         { f.state.set(StateStopped) }
func (f *fakePacketSource) State() State  { return f.state.Get() }
func (f *fakePacketSource) LockState()    { f.state.Lock() }
func (f *fakePacketSource) UnlockState()  { f.state.Unlock() }
func (f *fakePacketSource) WaitActive()   { f.state.waitActive() }
func (f *fakePacketSource) Channels() int { return 1 }

// finalize forces the source into StateFinalized from outside the normal
// Stopped/Active lifecycle.
func (f *fakePacketSource) finalize() { f.state.set(StateFinalized) }

func (f *fakePacketSource) Encode(dst []byte) (int, error) {
	if f.at >= len(f.packets) {
		return 0, nil
	}
	pkt := f.packets[f.at]
	f.at++
	return copy(dst, pkt), nil
}

// fakeOutput records every frame written to it.
type fakeOutput struct {
	mu       sync.Mutex
	channels int
	started  bool
	stopped  int
	written  [][]float32
}

func newFakeOutput(channels int) *fakeOutput {
	return &fakeOutput{channels: channels}
}

func (f *fakeOutput) Start() error  { f.started = true; return nil }
func (f *fakeOutput) Stop()         { f.stopped++ }
func (f *fakeOutput) Channels() int { return f.channels }

func (f *fakeOutput) Write(frame []float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := append([]float32(nil), frame...)
	f.written = append(f.written, cp)
	return nil
}

func (f *fakeOutput) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.written)
}

// fakeOpusDecoder lets decoder_test.go force a specific normal/FEC/PLC
// outcome without linking libopus, the same seam the teacher's own
// opusDecoder interface exists for.
type fakeOpusDecoder struct {
	decodeN    int
	decodeErr  error
	fecErr     error
	lastNormal []byte
	lastFEC    []byte
	plcCalls   int
}

func (f *fakeOpusDecoder) Decode(data []byte, pcm []int16) (int, error) {
	if data == nil {
		f.plcCalls++
	} else {
		f.lastNormal = data
	}
	if f.decodeErr != nil {
		return 0, f.decodeErr
	}
	return f.decodeN, nil
}

func (f *fakeOpusDecoder) DecodeFEC(data []byte, pcm []int16) error {
	f.lastFEC = data
	return f.fecErr
}
