// Package jitter implements the bounded FIFO packet queue described in
// spec §4.5: a ring between the network receiver and a decoder, with a
// target fill depth D and a hard capacity of 2D, guarded by one mutex and
// two condition variables (not-empty, not-full).
//
// Unlike a reordering jitter buffer, this is strict FIFO — packets are
// popped in push order, with no sequence-number-based reordering at this
// layer. Catch-up (draining excess latency by averaging two decoded
// frames into one) is the caller's responsibility once Len() reports
// occupancy still above D after a Pop; see audiopipe.JitterSource, which
// owns the Opus decoder this package intentionally does not.
package jitter

import (
	"errors"
	"sync"
)

// ErrClosed is returned by Push once Close has been called. Pop reports
// closure by returning ok == false once the buffer has drained.
var ErrClosed = errors.New("jitter: buffer closed")

// ErrPacketTooLarge is returned by Push when pkt exceeds the configured
// maximum block size.
var ErrPacketTooLarge = errors.New("jitter: packet too large")

// Buffer is a bounded FIFO of packets. The zero value is not usable; use
// New.
type Buffer struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond

	queue     [][]byte
	depth     int // target fill depth D
	capacity  int // hard capacity, 2*depth
	maxPacket int
	closed    bool
}

// New returns a Buffer with target depth D (minimum 1) and hard capacity
// 2D. maxPacketBytes bounds an individual pushed packet (the codec
// preset's max block size).
func New(depth, maxPacketBytes int) *Buffer {
	if depth < 1 {
		depth = 1
	}
	b := &Buffer{
		depth:     depth,
		capacity:  depth * 2,
		maxPacket: maxPacketBytes,
	}
	b.notEmpty = sync.NewCond(&b.mu)
	b.notFull = sync.NewCond(&b.mu)
	return b
}

// Push appends a packet, blocking while the buffer is at hard capacity.
// Packets larger than maxPacketBytes are rejected outright (spec §4.5:
// "Packets larger than the codec's max block are rejected").
func (b *Buffer) Push(pkt []byte) error {
	if len(pkt) > b.maxPacket {
		return ErrPacketTooLarge
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for len(b.queue) >= b.capacity && !b.closed {
		b.notFull.Wait()
	}
	if b.closed {
		return ErrClosed
	}

	cp := make([]byte, len(pkt))
	copy(cp, pkt)
	b.queue = append(b.queue, cp)
	b.notEmpty.Signal()
	return nil
}

// Pop removes and returns the oldest packet, blocking while the buffer is
// empty. It returns (nil, false) once the buffer is closed and drained.
func (b *Buffer) Pop() ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for len(b.queue) == 0 && !b.closed {
		b.notEmpty.Wait()
	}
	if len(b.queue) == 0 {
		return nil, false
	}
	pkt := b.queue[0]
	b.queue = b.queue[1:]
	b.notFull.Signal()
	return pkt, true
}

// Len returns the current occupancy.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Depth returns the configured target fill depth D.
func (b *Buffer) Depth() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.depth
}

// SetDepth updates the target fill depth and hard capacity (2D). Raising
// the capacity wakes any Push blocked on the old, smaller capacity.
func (b *Buffer) SetDepth(depth int) {
	if depth < 1 {
		depth = 1
	}
	b.mu.Lock()
	b.depth = depth
	b.capacity = depth * 2
	b.notFull.Broadcast()
	b.mu.Unlock()
}

// Close releases every blocked Push/Pop caller. Pop continues to drain
// whatever remains queued before reporting closed; Push fails immediately.
func (b *Buffer) Close() {
	b.mu.Lock()
	b.closed = true
	b.notEmpty.Broadcast()
	b.notFull.Broadcast()
	b.mu.Unlock()
}
