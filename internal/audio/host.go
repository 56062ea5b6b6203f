package audio

import (
	"context"
	"fmt"
	"strings"

	"github.com/anand-san/murmur/internal/pcm"
)

// StreamConfig is a negotiated hardware configuration.
type StreamConfig struct {
	SampleRate int
	Channels   int
	Format     pcm.Format
}

func (c StreamConfig) String() string {
	return fmt.Sprintf("%dHz/%dch/%s", c.SampleRate, c.Channels, c.Format)
}

// Callback receives one native hardware buffer ([]int16, []uint16 or []float32).
// It runs on the host's real-time thread and must not block.
type Callback func(native any)

// Stream is an opened hardware input stream.
type Stream interface {
	Start() error
	// Err reports an asynchronous device failure, nil while healthy.
	Err() error
	Close() error
}

// Host is one audio subsystem backend.
type Host interface {
	Name() string
	ListDevices(ctx context.Context) ([]Device, error)
	Negotiate(ctx context.Context, device Device, want StreamConfig) (StreamConfig, error)
	OpenStream(device Device, cfg StreamConfig, cb Callback) (Stream, error)
}

// NewHost returns the named backend.
func NewHost(name string, appName string) (Host, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "pulse", "pulseaudio", "pipewire":
		return &PulseHost{AppName: appName}, nil
	case "portaudio":
		return &PortAudioHost{}, nil
	default:
		return nil, fmt.Errorf("unknown audio backend %q", name)
	}
}

func validateShape(cfg StreamConfig) error {
	if cfg.SampleRate < 8000 || cfg.SampleRate > 192000 {
		return fmt.Errorf("sample rate %d out of range", cfg.SampleRate)
	}
	if cfg.Channels < 1 || cfg.Channels > 2 {
		return fmt.Errorf("channel count %d unsupported", cfg.Channels)
	}
	return nil
}
