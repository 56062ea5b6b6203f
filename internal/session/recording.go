package session

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/anand-san/murmur/internal/audio"
	"github.com/anand-san/murmur/internal/dispatch"
	"github.com/anand-san/murmur/internal/wav"
)

// Recording is one capture attempt. Samples are only touched by the coordinator goroutine.
type Recording struct {
	ID         string
	Shortcut   string
	Action     dispatch.Action
	Device     string
	SampleRate int
	Channels   int
	StartedAt  time.Time
	StoppedAt  time.Time

	samples  []int16
	released atomic.Bool
	// live is this session's recording flag. Each session owns its own so a
	// stream that outlives its session cannot gate a later one.
	live atomic.Bool
}

func newRecording(id string, shortcut string, action dispatch.Action, startedAt time.Time) *Recording {
	return &Recording{ID: id, Shortcut: shortcut, Action: action, StartedAt: startedAt}
}

func (r *Recording) configure(prepared audio.Prepared) {
	r.Device = prepared.Selection.Device.ID
	r.SampleRate = prepared.Config.SampleRate
	r.Channels = prepared.Config.Channels
}

// drain moves every buffered chunk from h into the recording.
func (r *Recording) drain(h *audio.Handoff) int {
	var taken int
	r.samples, taken = h.Drain(r.samples)
	return taken
}

// Samples returns the number of canonical samples accumulated so far.
func (r *Recording) Samples() int {
	return len(r.samples)
}

// Empty reports whether nothing was captured.
func (r *Recording) Empty() bool {
	return len(r.samples) == 0
}

// Finalized is the encoded container and its derived size and duration.
type Finalized struct {
	Container []byte
	DataBytes int
	Duration  time.Duration
}

// Finalize encodes the accumulated PCM as WAV.
func (r *Recording) Finalize() (Finalized, error) {
	if r.Channels <= 0 || r.SampleRate <= 0 {
		return Finalized{}, fmt.Errorf("recording %s has no stream configuration", r.ID)
	}
	container, err := wav.Encode(r.samples, uint16(r.Channels), uint32(r.SampleRate))
	if err != nil {
		return Finalized{}, err
	}
	dataBytes := len(container) - wav.HeaderSize
	return Finalized{
		Container: container,
		DataBytes: dataBytes,
		Duration:  wav.Duration(dataBytes, r.SampleRate, r.Channels),
	}, nil
}
