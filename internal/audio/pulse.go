package audio

import (
	"context"
	"fmt"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"

	"github.com/anand-san/murmur/internal/pcm"
)

// PulseHost captures through a PulseAudio (or pipewire-pulse) server.
// The server converts rate and format, so negotiation only rejects shapes it cannot express.
type PulseHost struct {
	AppName string
}

func (h *PulseHost) Name() string { return "pulse" }

func (h *PulseHost) connect() (*pulse.Client, error) {
	name := h.AppName
	if name == "" {
		name = "murmur"
	}
	client, err := pulse.NewClient(
		pulse.ClientApplicationName(name),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return nil, fmt.Errorf("connect pulse server: %w", err)
	}
	return client, nil
}

// ListDevices returns Pulse input sources with default/availability metadata.
func (h *PulseHost) ListDevices(_ context.Context) ([]Device, error) {
	client, err := h.connect()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	defaultSource, err := client.DefaultSource()
	if err != nil {
		return nil, fmt.Errorf("read default source: %w", err)
	}
	defaultID := defaultSource.ID()

	var sourceInfos pulseproto.GetSourceInfoListReply
	if err := client.RawRequest(&pulseproto.GetSourceInfoList{}, &sourceInfos); err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}

	devices := make([]Device, 0, len(sourceInfos))
	for _, source := range sourceInfos {
		if source == nil {
			continue
		}
		devices = append(devices, Device{
			ID:          source.SourceName,
			Description: source.Device,
			State:       sourceStateString(source.State),
			Available:   sourceAvailable(source),
			Muted:       source.Mute,
			Default:     source.SourceName == defaultID,
		})
	}
	return devices, nil
}

// Negotiate keeps the requested shape; u16 is not a Pulse sample format and falls back to s16.
func (h *PulseHost) Negotiate(_ context.Context, _ Device, want StreamConfig) (StreamConfig, error) {
	if err := validateShape(want); err != nil {
		return StreamConfig{}, err
	}
	switch want.Format {
	case pcm.FormatInt16, pcm.FormatFloat32:
	case pcm.FormatUint16, "":
		want.Format = pcm.FormatInt16
	default:
		return StreamConfig{}, fmt.Errorf("%w: %q", pcm.ErrUnsupportedFormat, want.Format)
	}
	return want, nil
}

// OpenStream creates a record stream whose writer forwards native buffers to cb.
func (h *PulseHost) OpenStream(device Device, cfg StreamConfig, cb Callback) (Stream, error) {
	writer, err := pulseWriter(cfg.Format, cb)
	if err != nil {
		return nil, err
	}

	client, err := h.connect()
	if err != nil {
		return nil, err
	}

	source, err := client.SourceByID(device.ID)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("resolve source %q: %w", device.ID, err)
	}

	var channels pulse.RecordOption = pulse.RecordMono
	if cfg.Channels == 2 {
		channels = pulse.RecordStereo
	}

	stream, err := client.NewRecord(
		writer,
		pulse.RecordSource(source),
		channels,
		pulse.RecordSampleRate(cfg.SampleRate),
		pulse.RecordMediaName("murmur capture"),
	)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("create pulse record stream: %w", err)
	}

	return &pulseStream{client: client, stream: stream}, nil
}

func pulseWriter(format pcm.Format, cb Callback) (pulse.Writer, error) {
	switch format {
	case pcm.FormatInt16:
		return pulse.Int16Writer(func(buf []int16) (int, error) {
			cb(buf)
			return len(buf), nil
		}), nil
	case pcm.FormatFloat32:
		return pulse.Float32Writer(func(buf []float32) (int, error) {
			cb(buf)
			return len(buf), nil
		}), nil
	default:
		return nil, fmt.Errorf("%w: pulse cannot record %q", pcm.ErrUnsupportedFormat, format)
	}
}

type pulseStream struct {
	client *pulse.Client
	stream *pulse.RecordStream
}

func (s *pulseStream) Start() error {
	s.stream.Start()
	return s.stream.Error()
}

func (s *pulseStream) Err() error {
	return s.stream.Error()
}

func (s *pulseStream) Close() error {
	s.stream.Stop()
	s.stream.Close()
	s.client.Close()
	return nil
}

func sourceStateString(state uint32) string {
	switch state {
	case 0:
		return "running"
	case 1:
		return "idle"
	case 2:
		return "suspended"
	default:
		return fmt.Sprintf("unknown(%d)", state)
	}
}

func sourceAvailable(source *pulseproto.GetSourceInfoReply) bool {
	if source == nil {
		return false
	}
	if len(source.Ports) == 0 {
		return true
	}
	for _, port := range source.Ports {
		if port.Name != source.ActivePortName {
			continue
		}
		// PulseAudio values: unknown=0, no=1, yes=2.
		return port.Available == 0 || port.Available == 2
	}
	return true
}
