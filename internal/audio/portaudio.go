package audio

import (
	"context"
	"errors"
	"fmt"

	"github.com/gordonklaus/portaudio"

	"github.com/anand-san/murmur/internal/pcm"
)

const portAudioFramesPerBuffer = 1024

// PortAudioHost captures through PortAudio's default host API.
// Every public call brackets its own Initialize/Terminate pair; PortAudio reference-counts them.
type PortAudioHost struct {
	FramesPerBuffer int
}

func (h *PortAudioHost) Name() string { return "portaudio" }

func (h *PortAudioHost) ListDevices(_ context.Context) ([]Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}
	defer portaudio.Terminate()

	infos, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list portaudio devices: %w", err)
	}

	defaultName := ""
	if def, err := portaudio.DefaultInputDevice(); err == nil && def != nil {
		defaultName = def.Name
	}

	devices := make([]Device, 0, len(infos))
	for _, info := range infos {
		if info == nil || info.MaxInputChannels < 1 {
			continue
		}
		description := info.Name
		if info.HostApi != nil {
			description = fmt.Sprintf("%s (%s)", info.Name, info.HostApi.Name)
		}
		devices = append(devices, Device{
			ID:          info.Name,
			Description: description,
			State:       "available",
			Available:   true,
			Default:     info.Name == defaultName,
		})
	}
	return devices, nil
}

// Negotiate tries the requested shape and falls back to the device default sample rate.
func (h *PortAudioHost) Negotiate(_ context.Context, device Device, want StreamConfig) (StreamConfig, error) {
	if err := validateShape(want); err != nil {
		return StreamConfig{}, err
	}
	if err := portaudio.Initialize(); err != nil {
		return StreamConfig{}, fmt.Errorf("initialize portaudio: %w", err)
	}
	defer portaudio.Terminate()

	info, err := findPortAudioDevice(device.ID)
	if err != nil {
		return StreamConfig{}, err
	}

	got := want
	if got.Format != pcm.FormatFloat32 {
		got.Format = pcm.FormatInt16
	}
	if got.Channels > info.MaxInputChannels {
		got.Channels = info.MaxInputChannels
	}

	candidates := []int{got.SampleRate}
	if fallback := int(info.DefaultSampleRate); fallback > 0 && fallback != got.SampleRate {
		candidates = append(candidates, fallback)
	}

	var lastErr error
	for _, rate := range candidates {
		got.SampleRate = rate
		params := h.params(info, got)
		if lastErr = portaudio.IsFormatSupported(params, nativeBuffer(got.Format, 0)); lastErr == nil {
			return got, nil
		}
	}
	return StreamConfig{}, fmt.Errorf("no supported configuration for %q: %w", device.ID, lastErr)
}

func (h *PortAudioHost) OpenStream(device Device, cfg StreamConfig, cb Callback) (Stream, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}

	info, err := findPortAudioDevice(device.ID)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}

	var processor any
	switch cfg.Format {
	case pcm.FormatInt16:
		processor = func(in []int16) { cb(in) }
	case pcm.FormatFloat32:
		processor = func(in []float32) { cb(in) }
	default:
		portaudio.Terminate()
		return nil, fmt.Errorf("%w: portaudio cannot record %q", pcm.ErrUnsupportedFormat, cfg.Format)
	}

	stream, err := portaudio.OpenStream(h.params(info, cfg), processor)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("open portaudio stream: %w", err)
	}
	return &portAudioStream{stream: stream}, nil
}

func (h *PortAudioHost) params(info *portaudio.DeviceInfo, cfg StreamConfig) portaudio.StreamParameters {
	frames := h.FramesPerBuffer
	if frames <= 0 {
		frames = portAudioFramesPerBuffer
	}
	return portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   info,
			Channels: cfg.Channels,
			Latency:  info.DefaultLowInputLatency,
		},
		SampleRate:      float64(cfg.SampleRate),
		FramesPerBuffer: frames,
	}
}

func findPortAudioDevice(id string) (*portaudio.DeviceInfo, error) {
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list portaudio devices: %w", err)
	}
	for _, info := range infos {
		if info != nil && info.Name == id && info.MaxInputChannels > 0 {
			return info, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNoInputDevice, id)
}

func nativeBuffer(format pcm.Format, n int) any {
	if format == pcm.FormatFloat32 {
		return make([]float32, n)
	}
	return make([]int16, n)
}

type portAudioStream struct {
	stream *portaudio.Stream
	closed bool
}

func (s *portAudioStream) Start() error {
	if err := s.stream.Start(); err != nil {
		return fmt.Errorf("start portaudio stream: %w", err)
	}
	return nil
}

// Err is always nil; PortAudio reports device loss through Stop/Close.
func (s *portAudioStream) Err() error { return nil }

func (s *portAudioStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	stopErr := s.stream.Stop()
	closeErr := s.stream.Close()
	termErr := portaudio.Terminate()
	return errors.Join(stopErr, closeErr, termErr)
}
