package audio

import (
	"context"
	"sync"
	"sync/atomic"
)

type fakeHost struct {
	devices      []Device
	listErr      error
	negotiateErr error
	openErr      error
	startErr     error

	mu     sync.Mutex
	stream *fakeStream
	opened chan struct{}
}

func (h *fakeHost) Name() string { return "fake" }

func (h *fakeHost) ListDevices(context.Context) ([]Device, error) {
	return h.devices, h.listErr
}

func (h *fakeHost) Negotiate(_ context.Context, _ Device, want StreamConfig) (StreamConfig, error) {
	if h.negotiateErr != nil {
		return StreamConfig{}, h.negotiateErr
	}
	return want, nil
}

func (h *fakeHost) OpenStream(_ Device, _ StreamConfig, cb Callback) (Stream, error) {
	if h.openErr != nil {
		return nil, h.openErr
	}
	s := &fakeStream{cb: cb, startErr: h.startErr}
	h.mu.Lock()
	h.stream = s
	h.mu.Unlock()
	if h.opened != nil {
		close(h.opened)
	}
	return s, nil
}

func (h *fakeHost) current() *fakeStream {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stream
}

type fakeStream struct {
	cb       Callback
	startErr error
	err      atomic.Pointer[error]
	closed   atomic.Int32
}

func (s *fakeStream) Start() error { return s.startErr }

func (s *fakeStream) Err() error {
	if p := s.err.Load(); p != nil {
		return *p
	}
	return nil
}

func (s *fakeStream) Close() error {
	s.closed.Add(1)
	return nil
}

func (s *fakeStream) fail(err error) { s.err.Store(&err) }
