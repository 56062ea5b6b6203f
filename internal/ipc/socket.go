package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

var (
	ErrAlreadyRunning = errors.New("murmur daemon already running")
	ErrSocketPathLong = errors.New("socket path exceeds the unix socket limit")
)

const (
	socketName = "murmur.sock"
	// sun_path is 104 bytes on darwin and 108 on linux; use the smaller.
	maxSocketPath = 103

	defaultProbeTimeout = 180 * time.Millisecond
)

// RuntimeSocketPath returns $XDG_RUNTIME_DIR/murmur.sock, or a per-user directory
// under the system temp dir when XDG_RUNTIME_DIR is unset (macOS).
func RuntimeSocketPath() (string, error) {
	if runtimeDir := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR")); runtimeDir != "" {
		return filepath.Join(runtimeDir, socketName), nil
	}
	tmp := os.TempDir()
	if tmp == "" {
		return "", errors.New("neither XDG_RUNTIME_DIR nor a temp dir is available")
	}
	return filepath.Join(tmp, fmt.Sprintf("murmur-%d", os.Getuid()), socketName), nil
}

// AcquireOptions tunes single-instance socket acquisition. Zero values use defaults.
type AcquireOptions struct {
	ProbeTimeout time.Duration
	// Retries bounds extra attempts after the first stale socket is cleared.
	Retries int
	// OnStale runs after an unresponsive socket file has been removed.
	OnStale func(path string)
}

// Acquire binds the control socket, replacing a stale file left by a crashed
// daemon. It returns ErrAlreadyRunning when another daemon answers a status probe.
func Acquire(ctx context.Context, path string, opts AcquireOptions) (net.Listener, error) {
	if len(path) > maxSocketPath {
		return nil, fmt.Errorf("%w: %s (%d bytes)", ErrSocketPathLong, path, len(path))
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = defaultProbeTimeout
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("ensure runtime socket dir: %w", err)
	}

	for attempt := 0; attempt <= opts.Retries+1; attempt++ {
		listener, err := net.Listen("unix", path)
		if err == nil {
			_ = os.Chmod(path, 0o600)
			return listener, nil
		}
		if !errors.Is(err, syscall.EADDRINUSE) {
			return nil, fmt.Errorf("listen unix %s: %w", path, err)
		}

		alive, probeErr := Probe(ctx, path, opts.ProbeTimeout)
		if alive {
			return nil, ErrAlreadyRunning
		}
		if probeErr != nil {
			// Something accepted but did not answer; leave the file alone.
			return nil, fmt.Errorf("probe existing socket %s: %w", path, probeErr)
		}

		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("remove stale socket %s: %w", path, err)
		}
		if opts.OnStale != nil {
			opts.OnStale(path)
		}

		if attempt == 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(25*attempt) * time.Millisecond):
		}
	}
	return nil, fmt.Errorf("failed to acquire socket %s after %d retries", path, opts.Retries)
}
