// Package session owns the recorder state, starts captures and coordinates their post-processing.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/anand-san/murmur/internal/audio"
	"github.com/anand-san/murmur/internal/config"
	"github.com/anand-san/murmur/internal/dispatch"
	"github.com/anand-san/murmur/internal/events"
	"github.com/anand-san/murmur/internal/fsm"
	"github.com/anand-san/murmur/internal/pcm"
)

// ErrBusy is returned when a press arrives while a capture already owns the recorder.
var ErrBusy = errors.New("recorder busy")

type Phase string

const (
	PhasePressed  Phase = "pressed"
	PhaseReleased Phase = "released"
)

// HotkeyEvent is one discrete press or release of a configured shortcut.
type HotkeyEvent struct {
	Shortcut string
	Phase    Phase
}

// Dispatcher picks the action for a shortcut at press time and later sends the
// finished container to that action's collaborators.
type Dispatcher interface {
	Select(shortcut string) (dispatch.Action, error)
	Dispatch(ctx context.Context, action dispatch.Action, sessionID string, audio []byte) error
}

// Indicator is the session-facing subset of cue and notification behavior.
type Indicator interface {
	CueStart(context.Context)
	CueDiscard(context.Context)
	CueComplete(context.Context)
	ShowError(context.Context, string)
}

type noopIndicator struct{}

func (noopIndicator) CueStart(context.Context)          {}
func (noopIndicator) CueDiscard(context.Context)        {}
func (noopIndicator) CueComplete(context.Context)       {}
func (noopIndicator) ShowError(context.Context, string) {}

// Options wires a Controller.
type Options struct {
	Audio        config.AudioConfig
	Recorder     config.RecorderConfig
	Host         audio.Host
	Router       Dispatcher
	Emitter      *events.Emitter
	Indicator    Indicator
	Logger       *slog.Logger
	IncludeAudio bool
	DebugDump    bool
}

// Controller is the single owner of the recorder state and the recording flag.
type Controller struct {
	opts    Options
	engine  *audio.Engine
	logger  *slog.Logger
	emitter *events.Emitter
	ind     Indicator
	newID   func() string
	now     func() time.Time

	mu     sync.Mutex
	state  fsm.State
	active *Recording

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewController constructs an idle controller.
func NewController(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ind := opts.Indicator
	if ind == nil {
		ind = noopIndicator{}
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Controller{
		opts: opts,
		engine: &audio.Engine{
			Host:         opts.Host,
			ChunkSamples: opts.Audio.ChunkSamples,
			PollInterval: opts.Recorder.PollInterval(),
			LockOSThread: opts.Audio.LockOSThread,
			Logger:       logger,
		},
		logger:  logger,
		emitter: opts.Emitter,
		ind:     ind,
		newID:   uuid.NewString,
		now:     time.Now,
		state:   fsm.StateIdle,
		baseCtx: ctx,
		cancel:  cancel,
	}
}

// State returns the current state snapshot.
func (c *Controller) State() fsm.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Status is a point-in-time view of the recorder.
type Status struct {
	State     fsm.State
	SessionID string
	Shortcut  string
	Recording bool
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := Status{State: c.state}
	if c.active != nil {
		st.Recording = c.active.live.Load()
		st.SessionID = c.active.ID
		st.Shortcut = c.active.Shortcut
	}
	return st
}

// HandleEvent routes a hotkey event to Press or Release.
func (c *Controller) HandleEvent(ctx context.Context, ev HotkeyEvent) error {
	switch ev.Phase {
	case PhasePressed:
		return c.Press(ctx, ev.Shortcut)
	case PhaseReleased:
		c.Release(ev.Shortcut)
		return nil
	default:
		return fmt.Errorf("unknown hotkey phase %q", ev.Phase)
	}
}

// Press starts a capture for shortcut when the recorder is idle.
func (c *Controller) Press(ctx context.Context, shortcut string) error {
	if c.opts.Router == nil {
		return errors.New("no dispatcher configured")
	}
	action, err := c.opts.Router.Select(shortcut)
	if err != nil {
		return err
	}
	if !action.Captures() {
		c.logger.Info("show window requested", "shortcut", shortcut)
		c.emitter.Emit(events.KindShowWindow, events.ShowWindow{Shortcut: shortcut})
		return nil
	}

	c.mu.Lock()
	next, err := fsm.Transition(c.state, fsm.EventPress)
	if err != nil {
		state := c.state
		c.mu.Unlock()
		c.logger.Info("press ignored", "shortcut", shortcut, "state", string(state))
		return fmt.Errorf("%w: %s", ErrBusy, state)
	}
	rec := newRecording(c.newID(), shortcut, action, c.now())
	c.state = next
	c.active = rec
	c.mu.Unlock()

	c.logger.Info("recording started", "session_id", rec.ID, "shortcut", shortcut, "action", string(action))
	c.notifyState(next)
	c.ind.CueStart(ctx)

	prepared, err := audio.Prepare(ctx, c.opts.Host, c.preferences())
	if err != nil {
		c.reportError(rec, "capture", err)
		c.finish(rec, fsm.EventFail)
		return err
	}
	if prepared.Selection.Warning != "" {
		c.logger.Warn("audio device fallback", "session_id", rec.ID, "warning", prepared.Selection.Warning)
	}
	rec.configure(prepared)

	handoff := audio.NewHandoff(c.opts.Audio.HandoffCapacity)
	captured := make(chan captureResult, 1)

	rec.live.Store(true)
	if rec.released.Load() {
		rec.live.Store(false)
	}

	c.wg.Add(2)
	go func() {
		defer c.wg.Done()
		stats, err := c.engine.Run(c.baseCtx, audio.Capture{
			Device: prepared.Selection.Device,
			Config: prepared.Config,
			Flag:   &rec.live,
			Sink:   handoff,
		})
		captured <- captureResult{stats: stats, err: err}
	}()
	go func() {
		defer c.wg.Done()
		c.coordinate(c.baseCtx, rec, handoff, captured)
	}()
	return nil
}

// Release clears the recording flag when shortcut owns the active recording.
// Releasing in any other state is a no-op.
func (c *Controller) Release(shortcut string) {
	c.mu.Lock()
	state, rec := c.state, c.active
	c.mu.Unlock()

	if state != fsm.StateRecording || rec == nil {
		return
	}
	if rec.Shortcut != shortcut {
		c.logger.Debug("release ignored", "shortcut", shortcut, "owner", rec.Shortcut)
		return
	}
	if rec.released.Swap(true) {
		return
	}
	rec.live.Store(false)
	c.logger.Info("recording released", "session_id", rec.ID, "shortcut", shortcut)
}

// Wait blocks until every started capture has been coordinated back to idle.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Shutdown stops any capture in flight and waits for its coordinator, bounded by ctx.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	if c.active != nil {
		c.active.live.Store(false)
	}
	c.mu.Unlock()
	c.cancel()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) preferences() audio.Preferences {
	return audio.Preferences{
		Input:    c.opts.Audio.Input,
		Fallback: c.opts.Audio.Fallback,
		Want: audio.StreamConfig{
			SampleRate: c.opts.Audio.SampleRate,
			Channels:   c.opts.Audio.Channels,
			Format:     pcm.Format(c.opts.Audio.Format),
		},
	}
}

// advance applies event to the current state under the lock.
func (c *Controller) advance(event fsm.Event) (fsm.State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fsm.Transition(c.state, event)
	if err != nil {
		return c.state, err
	}
	c.state = next
	if next == fsm.StateIdle {
		c.active = nil
	}
	return next, nil
}

// finish drives the recorder back to idle and notifies once.
func (c *Controller) finish(rec *Recording, event fsm.Event) {
	rec.live.Store(false)
	next, err := c.advance(event)
	if err != nil {
		c.logger.Error("state transition failed", "session_id", rec.ID, "event", string(event), "error", err.Error())
		return
	}
	c.notifyState(next)
}

func (c *Controller) notifyState(state fsm.State) {
	c.emitter.Emit(events.KindStateChanged, events.StateChanged{NewState: string(state)})
}

func (c *Controller) reportError(rec *Recording, stage string, err error) {
	c.logger.Error("processing error", "session_id", rec.ID, "shortcut", rec.Shortcut, "stage", stage, "error", err.Error())
	message := err.Error()
	var se *dispatch.StageError
	if errors.As(err, &se) {
		message = se.Err.Error()
	}
	c.emitter.Emit(events.KindProcessingError, events.ProcessingError{
		SessionID: rec.ID,
		Stage:     stage,
		Message:   message,
	})
	c.ind.ShowError(context.Background(), message)
}
