// Package rtpframe wraps encoded Opus payloads in the minimal RTP header
// this pipeline actually needs: sequential packets at a fixed clock rate,
// no CSRC list, no header extension. Grounded on the original RtpOutput
// (rtp.hpp/rtp_sender.cpp): flags = 0x8000 (version 2, no marker, payload
// type 0), timestamp = sequence * FRAME_SIZE. The SSRC is supplied by the
// caller of New (the original always used 0). Framing uses
// github.com/pion/rtp instead of hand-rolled byte-order packing.
package rtpframe

import (
	"sync"

	"github.com/pion/rtp"
)

// Framer assigns sequence numbers and wraps payloads in an RTP packet.
// Grounded on RtpOutput::write's per-packet header construction; a single
// Framer instance is scoped to one outbound stream (one SSRC).
type Framer struct {
	mu       sync.Mutex
	sequence uint16
	frameSize uint32
	ssrc     uint32
}

// New returns a Framer that stamps timestamps as sequence*frameSize (the
// 48 kHz RTP clock advances by frameSize ticks per encoded frame).
func New(frameSize uint32, ssrc uint32) *Framer {
	return &Framer{frameSize: frameSize, ssrc: ssrc}
}

// Wrap returns the marshaled RTP packet for one Opus payload and advances
// the sequence counter. payload is not retained.
func (f *Framer) Wrap(payload []byte) ([]byte, error) {
	f.mu.Lock()
	seq := f.sequence
	f.sequence++
	f.mu.Unlock()

	pkt := &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			Marker:         false,
			PayloadType:    0,
			SequenceNumber: seq,
			Timestamp:      uint32(seq) * f.frameSize,
			SSRC:           f.ssrc,
		},
		Payload: payload,
	}
	return pkt.Marshal()
}

// Unwrap parses buf as one RTP packet and returns its payload. It does no
// sequencing of its own — out-of-order or dropped datagrams are the jitter
// buffer's concern (spec §4.5's strict-FIFO, no-reordering contract).
func Unwrap(buf []byte) ([]byte, error) {
	var pkt rtp.Packet
	if err := pkt.Unmarshal(buf); err != nil {
		return nil, err
	}
	return pkt.Payload, nil
}
