package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/anand-san/murmur/internal/pcm"
)

const (
	defaultChunkSamples = 1024
	defaultPollInterval = 50 * time.Millisecond
)

// Engine runs one hardware input stream per call to Run.
type Engine struct {
	Host         Host
	ChunkSamples int
	PollInterval time.Duration
	LockOSThread bool
	Logger       *slog.Logger
}

// Capture is the per-session input to Run.
type Capture struct {
	Device Device
	Config StreamConfig
	// Flag gates the callback and is the only stop signal Run watches.
	Flag *atomic.Bool
	Sink Sink
}

// Stats summarizes one Run for logging.
type Stats struct {
	Callbacks int64
	Chunks    int64
	Samples   int64
	Dropped   int64
	Closed    bool
}

// Run opens the stream, blocks until Flag is false, then tears the stream down.
// Run must be called from its own goroutine, never from a Callback. Every error
// return leaves Flag false.
func (e *Engine) Run(ctx context.Context, c Capture) (Stats, error) {
	if e.LockOSThread {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}

	cb := newCallback(c.Flag, c.Sink, e.chunkSamples())

	stream, err := e.Host.OpenStream(c.Device, c.Config, cb.handle)
	if err != nil {
		c.Flag.Store(false)
		return cb.stats(), fmt.Errorf("build input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		c.Flag.Store(false)
		_ = stream.Close()
		return cb.stats(), fmt.Errorf("start input stream: %w", err)
	}
	e.logger().Debug("capture stream started", "device", c.Device.ID, "config", c.Config.String())

	ticker := time.NewTicker(e.pollInterval())
	defer ticker.Stop()

	var runErr error
	for c.Flag.Load() {
		select {
		case <-ctx.Done():
			c.Flag.Store(false)
		case <-ticker.C:
			if err := stream.Err(); err != nil {
				c.Flag.Store(false)
				runErr = fmt.Errorf("input stream failed: %w", err)
			}
		}
	}

	if err := stream.Close(); err != nil {
		e.logger().Warn("close input stream", "device", c.Device.ID, "error", err.Error())
	}

	if cbErr := cb.failure(); cbErr != nil && runErr == nil {
		runErr = cbErr
	}
	return cb.stats(), runErr
}

func (e *Engine) chunkSamples() int {
	if e.ChunkSamples > 0 {
		return e.ChunkSamples
	}
	return defaultChunkSamples
}

func (e *Engine) pollInterval() time.Duration {
	if e.PollInterval > 0 {
		return e.PollInterval
	}
	return defaultPollInterval
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// callback is the real-time half of the engine. It touches only atomics and the sink.
type callback struct {
	flag      *atomic.Bool
	sink      Sink
	chunkSize int

	calls   atomic.Int64
	chunks  atomic.Int64
	samples atomic.Int64
	dropped atomic.Int64
	closed  atomic.Bool
	err     atomic.Pointer[error]
}

func newCallback(flag *atomic.Bool, sink Sink, chunkSize int) *callback {
	return &callback{flag: flag, sink: sink, chunkSize: chunkSize}
}

func (c *callback) handle(native any) {
	c.calls.Add(1)
	if !c.flag.Load() {
		return
	}

	samples, err := pcm.Canonicalize(native)
	if err != nil {
		c.fail(err)
		return
	}

	for len(samples) > 0 {
		n := min(c.chunkSize, len(samples))
		chunk := samples[:n:n]
		samples = samples[n:]

		switch err := c.sink.Send(chunk); {
		case err == nil:
			c.chunks.Add(1)
			c.samples.Add(int64(n))
		case errors.Is(err, ErrHandoffFull):
			c.dropped.Add(1)
		default:
			c.closed.Store(true)
			c.flag.Store(false)
			return
		}
	}
}

func (c *callback) fail(err error) {
	wrapped := fmt.Errorf("canonicalize input buffer: %w", err)
	c.err.CompareAndSwap(nil, &wrapped)
	c.flag.Store(false)
}

func (c *callback) failure() error {
	if p := c.err.Load(); p != nil {
		return *p
	}
	return nil
}

func (c *callback) stats() Stats {
	return Stats{
		Callbacks: c.calls.Load(),
		Chunks:    c.chunks.Load(),
		Samples:   c.samples.Load(),
		Dropped:   c.dropped.Load(),
		Closed:    c.closed.Load(),
	}
}
