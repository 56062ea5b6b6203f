// Package events carries recorder notifications to UI clients.
package events

import (
	"errors"
	"log/slog"
	"time"
)

type Kind string

const (
	KindStateChanged       Kind = "state_changed"
	KindAudioDataAvailable Kind = "audio_data_available"
	KindProcessingError    Kind = "processing_error"
	KindTranscriptReady    Kind = "transcript_ready"
	KindResponseReady      Kind = "response_ready"
	KindShowWindow         Kind = "show_window"
)

// ErrNoSubscribers is returned by buses that had nobody to deliver to.
var ErrNoSubscribers = errors.New("no event subscribers connected")

// Event is the envelope written to every subscriber.
type Event struct {
	Kind    Kind      `json:"event"`
	At      time.Time `json:"at"`
	Payload any       `json:"payload"`
}

type StateChanged struct {
	NewState string `json:"newState"`
}

type AudioDataAvailable struct {
	SessionID  string `json:"sessionId"`
	Mode       string `json:"mode"`
	Bytes      int    `json:"bytes"`
	DurationMS int64  `json:"durationMs"`
	Audio      []byte `json:"audio,omitempty"`
}

type ProcessingError struct {
	SessionID string `json:"sessionId,omitempty"`
	Stage     string `json:"stage"`
	Message   string `json:"message"`
}

type TranscriptReady struct {
	SessionID  string `json:"sessionId"`
	Transcript string `json:"transcript"`
}

type ResponseReady struct {
	SessionID  string `json:"sessionId"`
	Transcript string `json:"transcript"`
	Response   string `json:"response"`
}

type ShowWindow struct {
	Shortcut string `json:"shortcut"`
}

// Bus delivers one event. Delivery is best effort.
type Bus interface {
	Publish(Event) error
}

// Emitter stamps events and swallows delivery failures after logging them.
type Emitter struct {
	bus    Bus
	logger *slog.Logger
	now    func() time.Time
}

func NewEmitter(bus Bus, logger *slog.Logger) *Emitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{bus: bus, logger: logger, now: time.Now}
}

func (e *Emitter) Emit(kind Kind, payload any) {
	if e == nil || e.bus == nil {
		return
	}
	err := e.bus.Publish(Event{Kind: kind, At: e.now().UTC(), Payload: payload})
	switch {
	case err == nil:
	case errors.Is(err, ErrNoSubscribers):
		e.logger.Debug("event not delivered", "event", string(kind), "reason", err.Error())
	default:
		e.logger.Warn("event delivery failed", "event", string(kind), "error", err.Error())
	}
}

// Log writes events to a logger; it stands in when no UI listener is configured.
type Log struct {
	Logger *slog.Logger
}

func (l Log) Publish(ev Event) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("event", "event", string(ev.Kind), "payload", ev.Payload)
	return nil
}

// Fanout publishes to every bus and joins their errors.
type Fanout []Bus

func (f Fanout) Publish(ev Event) error {
	var errs []error
	for _, bus := range f {
		if err := bus.Publish(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
