package voice

import (
	"context"
	"sync/atomic"
)

// Frame is one opaque unit of encoded audio, consumed exactly once.
type Frame struct {
	Data []byte
}

// FrameBuffer decouples inbound client audio from the loop feeding the
// upstream track. Strict FIFO; Push never blocks the producer. When the
// buffer is full the oldest frame is dropped and counted, so a stalled
// consumer degrades to losing the most stale audio instead of growing
// without bound.
type FrameBuffer struct {
	queue   chan Frame
	dropped atomic.Int64
}

const DefaultFrameBufferSize = 1000

func NewFrameBuffer(capacity int) *FrameBuffer {
	if capacity <= 0 {
		capacity = DefaultFrameBufferSize
	}
	return &FrameBuffer{
		queue: make(chan Frame, capacity),
	}
}

// Push enqueues a frame without blocking. On overflow the oldest queued
// frame is evicted to make room.
func (b *FrameBuffer) Push(f Frame) {
	select {
	case b.queue <- f:
		return
	default:
	}

	select {
	case <-b.queue:
		b.dropped.Add(1)
	default:
	}

	select {
	case b.queue <- f:
	default:
		b.dropped.Add(1)
	}
}

// Recv blocks until a frame is available or ctx is done, returning frames
// in arrival order with no loss or duplication among delivered frames.
func (b *FrameBuffer) Recv(ctx context.Context) (Frame, error) {
	select {
	case f := <-b.queue:
		return f, nil
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	}
}

func (b *FrameBuffer) Len() int {
	return len(b.queue)
}

// Dropped reports how many frames were evicted due to overflow.
func (b *FrameBuffer) Dropped() int64 {
	return b.dropped.Load()
}
