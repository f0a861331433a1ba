package audiopipe

import (
	"testing"

	"audiopipe/internal/jitter"
)

func newTestJitterSource(depth int) (*JitterSource, *fakeOpusDecoder) {
	fd := &fakeOpusDecoder{decodeN: FrameSize}
	j := &JitterSource{
		state:     newStateBox(StateActive),
		buf:       jitter.New(depth, MaxVoicePacketBytes),
		dec:       fd,
		channels:  1,
		i16Buf:    make([]int16, FrameSize),
		secondary: make([]int16, FrameSize),
	}
	return j, fd
}

func TestJitterSourceReadDecodesOnePacket(t *testing.T) {
	j, _ := newTestJitterSource(3)
	j.Push([]byte{1, 2, 3})

	dst := make([]float32, FrameSize)
	if err := j.Read(dst); err != nil {
		t.Fatalf("Read: %v", err)
	}
}

// TestJitterSourceCatchUpAverages: depth=3, fill the hard capacity (2D = 6
// packets), Read once — occupancy after the primary pop is 5, still above
// depth, so a second packet is popped and decoded, and the two frames are
// averaged sample-wise.
func TestJitterSourceCatchUpAverages(t *testing.T) {
	j, fd := newTestJitterSource(3)
	for i := 0; i < 6; i++ {
		j.Push([]byte{byte(i)})
	}

	// fakeOpusDecoder.Decode always writes zeros into pcm (it never
	// touches the slice); override decode to populate distinct, known
	// values for the primary and secondary calls so averaging is
	// observable.
	calls := 0
	decodeFn := &sequencedDecoder{
		values: [][]int16{constFrame(FrameSize, 100), constFrame(FrameSize, 300)},
	}
	_ = fd
	j.dec = decodeFn

	dst := make([]float32, FrameSize)
	if err := j.Read(dst); err != nil {
		t.Fatalf("Read: %v", err)
	}
	calls = decodeFn.calls
	if calls != 2 {
		t.Fatalf("expected catch-up to decode 2 packets, decoded %d", calls)
	}
	want := int16ToFloat(200) // (100+300)/2
	if dst[0] != want {
		t.Fatalf("averaged sample = %v, want %v", dst[0], want)
	}
	if got := j.buf.Len(); got != 4 {
		t.Fatalf("buffer occupancy after catch-up = %d, want 4", got)
	}
}

func constFrame(n int, v int16) []int16 {
	f := make([]int16, n)
	for i := range f {
		f[i] = v
	}
	return f
}

// sequencedDecoder returns a different fixed PCM frame on each successive
// Decode call, used to make the jitter catch-up average observable.
type sequencedDecoder struct {
	values [][]int16
	calls  int
}

func (s *sequencedDecoder) Decode(data []byte, pcm []int16) (int, error) {
	v := s.values[s.calls]
	copy(pcm, v)
	s.calls++
	return len(v), nil
}

func (s *sequencedDecoder) DecodeFEC(data []byte, pcm []int16) error { return nil }
