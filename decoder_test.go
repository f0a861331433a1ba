package audiopipe

import "testing"

func newTestDecoderWithFake(channels int, src PacketSource) (*Decoder, *fakeOpusDecoder) {
	fd := &fakeOpusDecoder{decodeN: FrameSize}
	d := &Decoder{
		src:      src,
		dec:      fd,
		channels: channels,
		pktBuf:   make([]byte, MaxVoicePacketBytes),
		i16Buf:   make([]int16, FrameSize*channels),
	}
	return d, fd
}

func TestDecoderNormalPath(t *testing.T) {
	src := newFakePacketSource([]byte{1, 2, 3})
	d, fd := newTestDecoderWithFake(1, src)

	dst := make([]float32, FrameSize)
	if err := d.Read(dst); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(fd.lastNormal) != "\x01\x02\x03" {
		t.Fatalf("expected normal decode to receive the packet, got %v", fd.lastNormal)
	}
	if d.cached != nil {
		t.Fatalf("normal decode should not leave a cached packet")
	}
}

func TestDecoderFECThenNormalOnHeldPacket(t *testing.T) {
	// First packet lost, second present: Read 1 should FEC-recover using
	// packet 2, then Read 2 should normal-decode packet 2 itself from cache
	// without pulling a third packet.
	src := newFakePacketSource([]byte{}, []byte{9, 9})
	d, fd := newTestDecoderWithFake(1, src)

	dst := make([]float32, FrameSize)
	if err := d.Read(dst); err != nil {
		t.Fatalf("Read 1: %v", err)
	}
	if string(fd.lastFEC) != "\x09\x09" {
		t.Fatalf("expected FEC decode to use the lookahead packet, got %v", fd.lastFEC)
	}
	if d.cached == nil {
		t.Fatal("expected the lookahead packet to be cached for the next Read")
	}

	if err := d.Read(dst); err != nil {
		t.Fatalf("Read 2: %v", err)
	}
	if string(fd.lastNormal) != "\x09\x09" {
		t.Fatalf("expected Read 2 to normal-decode the cached packet, got %v", fd.lastNormal)
	}
	if d.cached != nil {
		t.Fatal("cached packet should be cleared after its normal decode")
	}
}

func TestDecoderDoubleLossFallsBackToPLC(t *testing.T) {
	src := newFakePacketSource([]byte{}, []byte{})
	d, fd := newTestDecoderWithFake(1, src)

	dst := make([]float32, FrameSize)
	if err := d.Read(dst); err != nil {
		t.Fatalf("Read 1: %v", err)
	}
	if fd.plcCalls != 1 {
		t.Fatalf("expected one PLC call after Read 1, got %d", fd.plcCalls)
	}
	if !d.cachedValid || d.cached != nil {
		t.Fatal("expected the second empty lookahead to be carried forward as a known loss")
	}

	if err := d.Read(dst); err != nil {
		t.Fatalf("Read 2: %v", err)
	}
	if fd.plcCalls != 2 {
		t.Fatalf("expected two consecutive losses to yield two PLC calls, got %d", fd.plcCalls)
	}
	if d.cachedValid {
		t.Fatal("carried-forward loss should be cleared after its own PLC")
	}
}

// TestDecoderFourPacketRunMatchesLossPattern drives [P0, empty, empty, P3]
// and checks every frame is produced in order: normal, PLC, PLC, normal.
// A run of k consecutive losses must yield k concealment frames, not fewer.
func TestDecoderFourPacketRunMatchesLossPattern(t *testing.T) {
	src := newFakePacketSource([]byte{0}, []byte{}, []byte{}, []byte{3})
	d, fd := newTestDecoderWithFake(1, src)
	dst := make([]float32, FrameSize)

	if err := d.Read(dst); err != nil {
		t.Fatalf("Read 1: %v", err)
	}
	if string(fd.lastNormal) != "\x00" {
		t.Fatalf("frame 1: expected normal decode of P0, got %v", fd.lastNormal)
	}

	if err := d.Read(dst); err != nil {
		t.Fatalf("Read 2: %v", err)
	}
	if fd.plcCalls != 1 {
		t.Fatalf("frame 2: expected PLC call, plcCalls=%d", fd.plcCalls)
	}

	if err := d.Read(dst); err != nil {
		t.Fatalf("Read 3: %v", err)
	}
	if fd.plcCalls != 2 {
		t.Fatalf("frame 3: expected a second PLC call, plcCalls=%d", fd.plcCalls)
	}

	if err := d.Read(dst); err != nil {
		t.Fatalf("Read 4: %v", err)
	}
	if string(fd.lastNormal) != "\x03" {
		t.Fatalf("frame 4: expected normal decode of P3, got %v", fd.lastNormal)
	}
}

func TestDecoderContractViolationOnWrongLength(t *testing.T) {
	src := newFakePacketSource([]byte{1})
	d, fd := newTestDecoderWithFake(1, src)
	fd.decodeN = FrameSize - 1 // wrong length

	dst := make([]float32, FrameSize)
	err := d.Read(dst)
	if _, ok := err.(*ContractViolationError); !ok {
		t.Fatalf("expected ContractViolationError, got %v (%T)", err, err)
	}
}
