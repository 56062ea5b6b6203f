package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"
)

// ErrNoDaemon means nothing answers on the control socket.
var ErrNoDaemon = errors.New("murmur daemon is not running")

// RemoteError is a request the daemon received and refused.
type RemoteError struct {
	Command string
	State   string
	Message string
}

func (e *RemoteError) Error() string { return e.Message }

// Send performs one request/response roundtrip bounded by timeout and ctx.
func Send(ctx context.Context, path string, req Request, timeout time.Duration) (Response, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", path)
	if err != nil {
		return Response{}, err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return Response{}, fmt.Errorf("set deadline: %w", err)
		}
	}

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return Response{}, fmt.Errorf("encode request: %w", err)
	}

	// Transport failures and malformed replies are reported separately.
	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	return resp, nil
}

// Forward sends req to the running daemon. It returns ErrNoDaemon when no daemon owns
// path and a *RemoteError when the daemon refuses the request.
func Forward(ctx context.Context, path string, req Request, timeout time.Duration) (Response, error) {
	resp, err := Send(ctx, path, req, timeout)
	switch {
	case err == nil && resp.OK:
		return resp, nil
	case err == nil:
		return resp, &RemoteError{Command: req.Command, State: resp.State, Message: resp.Error}
	case daemonAbsent(err):
		return Response{}, ErrNoDaemon
	default:
		return Response{}, fmt.Errorf("forward command %q: %w", req.Command, err)
	}
}

// Probe checks whether a responsive daemon is listening on path.
func Probe(ctx context.Context, path string, timeout time.Duration) (bool, error) {
	_, err := Send(ctx, path, Request{Command: "status"}, timeout)
	if err == nil {
		return true, nil
	}
	if daemonAbsent(err) {
		return false, nil
	}
	return false, fmt.Errorf("probe socket: %w", err)
}

// daemonAbsent reports dial failures that mean no listener: a missing socket file or a
// stale one nobody accepts on.
func daemonAbsent(err error) bool {
	return errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ECONNREFUSED)
}
