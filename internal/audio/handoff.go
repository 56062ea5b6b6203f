package audio

import (
	"errors"
	"sync/atomic"
)

var (
	// ErrHandoffClosed means the receiving side is gone; the producer must stop.
	ErrHandoffClosed = errors.New("handoff closed")
	// ErrHandoffFull means the chunk was dropped because the receiver fell behind.
	ErrHandoffFull = errors.New("handoff full")
)

// Sink accepts canonical chunks without blocking.
type Sink interface {
	Send(chunk []int16) error
}

// Handoff moves chunks from the real-time callback to the coordinator.
// The channel itself is never closed so a late Send can never panic.
type Handoff struct {
	ch      chan []int16
	closed  atomic.Bool
	sent    atomic.Int64
	dropped atomic.Int64
}

// NewHandoff creates a handoff that buffers up to capacity chunks.
func NewHandoff(capacity int) *Handoff {
	if capacity < 1 {
		capacity = 1
	}
	return &Handoff{ch: make(chan []int16, capacity)}
}

// Send never blocks.
func (h *Handoff) Send(chunk []int16) error {
	if h.closed.Load() {
		return ErrHandoffClosed
	}
	select {
	case h.ch <- chunk:
		h.sent.Add(1)
		return nil
	default:
		h.dropped.Add(1)
		return ErrHandoffFull
	}
}

// Drain appends every chunk currently buffered to dst and returns the grown slice
// along with the number of chunks taken. It never waits.
func (h *Handoff) Drain(dst []int16) ([]int16, int) {
	taken := 0
	for {
		select {
		case chunk := <-h.ch:
			dst = append(dst, chunk...)
			taken++
		default:
			return dst, taken
		}
	}
}

// Close marks the receiver gone. Further Sends report ErrHandoffClosed.
func (h *Handoff) Close() {
	h.closed.Store(true)
}

func (h *Handoff) Sent() int64    { return h.sent.Load() }
func (h *Handoff) Dropped() int64 { return h.dropped.Load() }
