// Package dispatch routes a finished capture to the collaborator chosen by its shortcut.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anand-san/murmur/internal/config"
	"github.com/anand-san/murmur/internal/events"
)

type Action string

const (
	ActionChat  Action = "chat"
	ActionPaste Action = "paste"
	ActionShow  Action = "show"
)

// Captures reports whether the action records audio.
func (a Action) Captures() bool {
	return a == ActionChat || a == ActionPaste
}

var (
	ErrUnknownShortcut = errors.New("unknown shortcut")
	ErrEmptyTranscript = errors.New("empty transcript")
	ErrNoSurface       = errors.New("Main window not found")
)

const (
	StageAudioTransfer = "audio_transfer"
	StageTranscribe    = "transcribe"
	StageRespond       = "respond"
	StagePaste         = "paste"
)

// StageError tags a dispatch failure with the step that produced it.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return e.Stage + ": " + e.Err.Error() }
func (e *StageError) Unwrap() error { return e.Err }

// Stage returns the stage recorded in err, or fallback when err carries none.
func Stage(err error, fallback string) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return fallback
}

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

type Responder interface {
	Respond(ctx context.Context, text string) (string, error)
}

type Committer interface {
	Commit(ctx context.Context, transcript string) error
}

// Surface is the UI that receives chat responses.
type Surface interface {
	Connected() bool
}

// Table maps shortcut ids to actions.
type Table map[string]Action

// NewTable builds the action table from configured shortcuts.
func NewTable(shortcuts []config.ShortcutConfig) Table {
	t := make(Table, len(shortcuts))
	for _, s := range shortcuts {
		t[s.ID] = Action(strings.ToLower(s.Action))
	}
	return t
}

// Select returns the action bound to shortcut.
func (t Table) Select(shortcut string) (Action, error) {
	a, ok := t[shortcut]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownShortcut, shortcut)
	}
	return a, nil
}

// Router selects the action for a shortcut and performs its outbound side.
// Beyond the action table it holds no state.
type Router struct {
	Table       Table
	Transcriber Transcriber
	Responder   Responder
	Committer   Committer
	Surface     Surface
	Emitter     *events.Emitter
	Logger      *slog.Logger
}

// Select resolves the action bound to shortcut in the router's table.
func (r *Router) Select(shortcut string) (Action, error) {
	return r.Table.Select(shortcut)
}

// Dispatch delivers audio for a session started by action.
func (r *Router) Dispatch(ctx context.Context, action Action, sessionID string, audio []byte) error {
	switch action {
	case ActionChat:
		return r.chat(ctx, sessionID, audio)
	case ActionPaste:
		return r.paste(ctx, sessionID, audio)
	default:
		return fmt.Errorf("action %q does not accept audio", action)
	}
}

func (r *Router) chat(ctx context.Context, sessionID string, audio []byte) error {
	if r.Surface != nil && !r.Surface.Connected() {
		return &StageError{Stage: StageAudioTransfer, Err: ErrNoSurface}
	}

	transcript, err := r.transcribe(ctx, audio)
	if err != nil {
		return err
	}
	if r.Responder == nil {
		return &StageError{Stage: StageRespond, Err: errors.New("no responder configured")}
	}
	response, err := r.Responder.Respond(ctx, transcript)
	if err != nil {
		return &StageError{Stage: StageRespond, Err: err}
	}

	r.logger().Info("response ready", "session_id", sessionID, "transcript_chars", len(transcript), "response_chars", len(response))
	r.Emitter.Emit(events.KindResponseReady, events.ResponseReady{
		SessionID:  sessionID,
		Transcript: transcript,
		Response:   response,
	})
	return nil
}

func (r *Router) paste(ctx context.Context, sessionID string, audio []byte) error {
	transcript, err := r.transcribe(ctx, audio)
	if err != nil {
		return err
	}
	if r.Committer != nil {
		if err := r.Committer.Commit(ctx, transcript); err != nil {
			return &StageError{Stage: StagePaste, Err: err}
		}
	}

	r.logger().Info("transcript committed", "session_id", sessionID, "transcript_chars", len(transcript))
	r.Emitter.Emit(events.KindTranscriptReady, events.TranscriptReady{
		SessionID:  sessionID,
		Transcript: transcript,
	})
	return nil
}

func (r *Router) transcribe(ctx context.Context, audio []byte) (string, error) {
	if r.Transcriber == nil {
		return "", &StageError{Stage: StageTranscribe, Err: errors.New("no transcriber configured")}
	}
	text, err := r.Transcriber.Transcribe(ctx, audio)
	if err != nil {
		return "", &StageError{Stage: StageTranscribe, Err: err}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", &StageError{Stage: StageTranscribe, Err: ErrEmptyTranscript}
	}
	return text, nil
}

func (r *Router) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}
