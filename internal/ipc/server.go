package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"
)

const defaultRequestTimeout = 2 * time.Second

// Handler processes one control-plane request.
type Handler interface {
	Handle(context.Context, Request) Response
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, Request) Response

func (f HandlerFunc) Handle(ctx context.Context, req Request) Response {
	return f(ctx, req)
}

// Server answers one JSON request per connection.
type Server struct {
	Handler Handler
	Logger  *slog.Logger
	// RequestTimeout bounds reading the request and writing the reply. Handling is not bounded.
	RequestTimeout time.Duration
}

// Serve runs a Server with default settings.
func Serve(ctx context.Context, listener net.Listener, handler Handler) error {
	s := &Server{Handler: handler}
	return s.Serve(ctx, listener)
}

// Serve accepts clients until ctx is cancelled or the listener is closed, then waits for
// in-flight requests.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	stop := context.AfterFunc(ctx, func() { _ = listener.Close() })
	defer stop()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept ipc connection: %w", err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.serveConn(ctx, conn)
		}()
	}
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(s.timeout()))
	req, err := readRequest(conn)
	if err != nil {
		s.reply(conn, Response{OK: false, Error: err.Error()})
		return
	}

	s.logger().Debug("ipc request", "command", req.Command, "shortcut", req.Shortcut)
	s.reply(conn, s.Handler.Handle(ctx, req))
}

func readRequest(r io.Reader) (Request, error) {
	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Request{}, fmt.Errorf("read request: %w", err)
		}
		return Request{}, fmt.Errorf("decode request: %w", err)
	}
	req.Command = strings.ToLower(strings.TrimSpace(req.Command))
	req.Shortcut = strings.TrimSpace(req.Shortcut)
	if req.Command == "" {
		return Request{}, errors.New("request has no command")
	}
	return req, nil
}

func (s *Server) reply(conn net.Conn, resp Response) {
	_ = conn.SetWriteDeadline(time.Now().Add(s.timeout()))
	if err := json.NewEncoder(conn).Encode(resp); err != nil {
		s.logger().Warn("ipc reply failed", "error", err.Error())
	}
}

func (s *Server) timeout() time.Duration {
	if s.RequestTimeout > 0 {
		return s.RequestTimeout
	}
	return defaultRequestTimeout
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
