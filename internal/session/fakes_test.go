package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/anand-san/murmur/internal/audio"
	"github.com/anand-san/murmur/internal/config"
	"github.com/anand-san/murmur/internal/dispatch"
	"github.com/anand-san/murmur/internal/events"
)

type fakeHost struct {
	devices   []audio.Device
	streamErr error
	opened    chan *fakeStream
	// closeGate, when set, holds every stream's Close until it is closed.
	closeGate chan struct{}
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		devices: []audio.Device{{ID: "mic", Description: "Test Mic", Available: true, Default: true}},
		opened:  make(chan *fakeStream, 4),
	}
}

func (h *fakeHost) Name() string { return "fake" }

func (h *fakeHost) ListDevices(context.Context) ([]audio.Device, error) {
	return h.devices, nil
}

func (h *fakeHost) Negotiate(_ context.Context, _ audio.Device, want audio.StreamConfig) (audio.StreamConfig, error) {
	return want, nil
}

func (h *fakeHost) OpenStream(_ audio.Device, _ audio.StreamConfig, cb audio.Callback) (audio.Stream, error) {
	s := &fakeStream{cb: cb, err: h.streamErr, gate: h.closeGate}
	h.opened <- s
	return s, nil
}

type fakeStream struct {
	cb     audio.Callback
	err    error
	gate   chan struct{}
	mu     sync.Mutex
	closed bool
}

func (s *fakeStream) Start() error { return nil }
func (s *fakeStream) Err() error   { return s.err }

func (s *fakeStream) Close() error {
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// deliver feeds total mono samples to the callback in buffers of size chunk.
func (s *fakeStream) deliver(total int, chunk int) {
	for total > 0 {
		n := min(chunk, total)
		buf := make([]int16, n)
		for i := range buf {
			buf[i] = int16(i % 128)
		}
		s.cb(buf)
		total -= n
	}
}

type fakeRouter struct {
	table   dispatch.Table
	mu      sync.Mutex
	err     error
	block   chan struct{}
	calls   int
	action  dispatch.Action
	session string
	audio   []byte
}

func (r *fakeRouter) Select(shortcut string) (dispatch.Action, error) {
	return r.table.Select(shortcut)
}

func (r *fakeRouter) Dispatch(_ context.Context, action dispatch.Action, sessionID string, audio []byte) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.action = action
	r.session = sessionID
	r.audio = audio
	return r.err
}

func (r *fakeRouter) snapshot() (int, dispatch.Action, []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls, r.action, r.audio
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(ev events.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
	return nil
}

func (b *recordingBus) states() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, ev := range b.events {
		if p, ok := ev.Payload.(events.StateChanged); ok {
			out = append(out, p.NewState)
		}
	}
	return out
}

func (b *recordingBus) ofKind(kind events.Kind) []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []events.Event
	for _, ev := range b.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

type fakeIndicator struct {
	mu     sync.Mutex
	calls  []string
	errors []string
}

func (f *fakeIndicator) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeIndicator) CueStart(context.Context)    { f.record("start") }
func (f *fakeIndicator) CueDiscard(context.Context)  { f.record("discard") }
func (f *fakeIndicator) CueComplete(context.Context) { f.record("complete") }

func (f *fakeIndicator) ShowError(_ context.Context, msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = append(f.errors, msg)
}

func (f *fakeIndicator) snapshot() ([]string, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...), append([]string(nil), f.errors...)
}

type harness struct {
	ctrl   *Controller
	host   *fakeHost
	router *fakeRouter
	bus    *recordingBus
	ind    *fakeIndicator
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cfg := config.Default()
	cfg.Recorder.PollIntervalMS = 5

	h := &harness{
		host:   newFakeHost(),
		router: &fakeRouter{table: dispatch.NewTable(cfg.Shortcuts)},
		bus:    &recordingBus{},
		ind:    &fakeIndicator{},
	}
	h.ctrl = NewController(Options{
		Audio:     cfg.Audio,
		Recorder:  cfg.Recorder,
		Host:      h.host,
		Router:    h.router,
		Emitter:   events.NewEmitter(h.bus, nil),
		Indicator: h.ind,
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = h.ctrl.Shutdown(ctx)
	})
	return h
}

func (h *harness) waitStream(t *testing.T) *fakeStream {
	t.Helper()
	select {
	case s := <-h.host.opened:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("capture stream was not opened")
		return nil
	}
}
