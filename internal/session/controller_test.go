package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/anand-san/murmur/internal/audio"
	"github.com/anand-san/murmur/internal/dispatch"
	"github.com/anand-san/murmur/internal/events"
	"github.com/anand-san/murmur/internal/fsm"
	"github.com/anand-san/murmur/internal/ipc"
	"github.com/anand-san/murmur/internal/wav"
)

func TestLongRecordingIsDispatched(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.ctrl.Press(context.Background(), "chat"))
	require.Equal(t, fsm.StateRecording, h.ctrl.State())

	stream := h.waitStream(t)
	stream.deliver(110250, 1024)
	h.ctrl.Release("chat")
	h.ctrl.Wait()

	require.Equal(t, fsm.StateIdle, h.ctrl.State())
	require.True(t, stream.isClosed())

	calls, action, container := h.router.snapshot()
	require.Equal(t, 1, calls)
	require.Equal(t, dispatch.ActionChat, action)

	header, err := wav.ParseHeader(container)
	require.NoError(t, err)
	require.Equal(t, uint32(220500), header.DataSize)
	require.Equal(t, uint32(44100), header.SampleRate)
	require.Equal(t, uint16(1), header.Channels)
	require.Equal(t, 2500*time.Millisecond, wav.Duration(int(header.DataSize), 44100, 1))

	require.Equal(t, []string{"recording", "transcribing", "idle"}, h.bus.states())

	available := h.bus.ofKind(events.KindAudioDataAvailable)
	require.Len(t, available, 1)
	payload := available[0].Payload.(events.AudioDataAvailable)
	require.Equal(t, "chat", payload.Mode)
	require.Equal(t, int64(2500), payload.DurationMS)
	require.Equal(t, len(container), payload.Bytes)
	require.Nil(t, payload.Audio)

	cues, errs := h.ind.snapshot()
	require.Equal(t, []string{"start", "complete"}, cues)
	require.Empty(t, errs)
}

func TestShortRecordingsAreDiscarded(t *testing.T) {
	tests := []struct {
		name    string
		samples int
	}{
		{name: "half a second", samples: 22050},
		{name: "exactly the threshold", samples: 44100},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)

			require.NoError(t, h.ctrl.Press(context.Background(), "paste"))
			h.waitStream(t).deliver(tc.samples, 1024)
			h.ctrl.Release("paste")
			h.ctrl.Wait()

			calls, _, _ := h.router.snapshot()
			require.Zero(t, calls)
			require.Equal(t, fsm.StateIdle, h.ctrl.State())
			require.Equal(t, []string{"recording", "idle"}, h.bus.states())
			require.Empty(t, h.bus.ofKind(events.KindAudioDataAvailable))

			cues, _ := h.ind.snapshot()
			require.Equal(t, []string{"start", "discard"}, cues)
		})
	}
}

func TestJustOverThresholdDispatches(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.ctrl.Press(context.Background(), "paste"))
	h.waitStream(t).deliver(44101, 1024)
	h.ctrl.Release("paste")
	h.ctrl.Wait()

	calls, action, _ := h.router.snapshot()
	require.Equal(t, 1, calls)
	require.Equal(t, dispatch.ActionPaste, action)
}

func TestEmptyRecordingReturnsToIdle(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.ctrl.Press(context.Background(), "chat"))
	h.waitStream(t)
	h.ctrl.Release("chat")
	h.ctrl.Wait()

	calls, _, _ := h.router.snapshot()
	require.Zero(t, calls)
	require.Equal(t, []string{"recording", "idle"}, h.bus.states())

	cues, _ := h.ind.snapshot()
	require.Equal(t, []string{"start"}, cues)
}

func TestNoInputDeviceRevertsToIdle(t *testing.T) {
	h := newHarness(t)
	h.host.devices = nil

	err := h.ctrl.Press(context.Background(), "chat")
	require.ErrorIs(t, err, audio.ErrNoInputDevice)
	require.Equal(t, fsm.StateIdle, h.ctrl.State())
	require.False(t, h.ctrl.Status().Recording)
	require.Empty(t, h.host.opened)

	require.Equal(t, []string{"recording", "idle"}, h.bus.states())
	perr := h.bus.ofKind(events.KindProcessingError)
	require.Len(t, perr, 1)
	require.Equal(t, "capture", perr[0].Payload.(events.ProcessingError).Stage)

	// The recorder accepts the next press once a device shows up.
	h.host.devices = newFakeHost().devices
	require.NoError(t, h.ctrl.Press(context.Background(), "chat"))
	h.waitStream(t)
	h.ctrl.Release("chat")
	h.ctrl.Wait()
	require.Equal(t, fsm.StateIdle, h.ctrl.State())
}

func TestStreamFailureIsTerminal(t *testing.T) {
	h := newHarness(t)
	h.host.streamErr = errors.New("device unplugged")

	require.NoError(t, h.ctrl.Press(context.Background(), "chat"))
	h.waitStream(t)
	h.ctrl.Wait()

	require.Equal(t, fsm.StateIdle, h.ctrl.State())
	calls, _, _ := h.router.snapshot()
	require.Zero(t, calls)

	perr := h.bus.ofKind(events.KindProcessingError)
	require.Len(t, perr, 1)
	payload := perr[0].Payload.(events.ProcessingError)
	require.Equal(t, "capture", payload.Stage)
	require.Contains(t, payload.Message, "device unplugged")
}

func TestPressWhileBusyIsIgnored(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.ctrl.Press(context.Background(), "chat"))
	stream := h.waitStream(t)

	err := h.ctrl.Press(context.Background(), "paste")
	require.ErrorIs(t, err, ErrBusy)
	require.Equal(t, fsm.StateRecording, h.ctrl.State())

	// Only the owning shortcut stops the capture.
	h.ctrl.Release("paste")
	require.True(t, h.ctrl.Status().Recording)

	stream.deliver(88200, 1024)
	h.ctrl.Release("chat")
	h.ctrl.Wait()

	calls, action, _ := h.router.snapshot()
	require.Equal(t, 1, calls)
	require.Equal(t, dispatch.ActionChat, action)
	require.Equal(t, []string{"recording", "transcribing", "idle"}, h.bus.states())
}

func TestPressWhileTranscribingIsIgnored(t *testing.T) {
	h := newHarness(t)
	h.router.block = make(chan struct{})

	require.NoError(t, h.ctrl.Press(context.Background(), "chat"))
	h.waitStream(t).deliver(88200, 1024)
	h.ctrl.Release("chat")

	require.Eventually(t, func() bool {
		return h.ctrl.State() == fsm.StateTranscribing
	}, 2*time.Second, 5*time.Millisecond)

	err := h.ctrl.Press(context.Background(), "paste")
	require.ErrorIs(t, err, ErrBusy)

	close(h.router.block)
	h.ctrl.Wait()
	require.Equal(t, fsm.StateIdle, h.ctrl.State())
}

func TestReleaseWhileIdleIsNoop(t *testing.T) {
	h := newHarness(t)

	h.ctrl.Release("chat")
	h.ctrl.Release("paste")

	require.Equal(t, fsm.StateIdle, h.ctrl.State())
	require.Empty(t, h.bus.states())
}

func TestDispatchFailureReportsStageAndResets(t *testing.T) {
	h := newHarness(t)
	h.router.err = &dispatch.StageError{Stage: dispatch.StageTranscribe, Err: errors.New("backend down")}

	require.NoError(t, h.ctrl.Press(context.Background(), "paste"))
	h.waitStream(t).deliver(66150, 1024)
	h.ctrl.Release("paste")
	h.ctrl.Wait()

	require.Equal(t, fsm.StateIdle, h.ctrl.State())
	require.Equal(t, []string{"recording", "transcribing", "idle"}, h.bus.states())

	perr := h.bus.ofKind(events.KindProcessingError)
	require.Len(t, perr, 1)
	payload := perr[0].Payload.(events.ProcessingError)
	require.Equal(t, dispatch.StageTranscribe, payload.Stage)
	require.Equal(t, "backend down", payload.Message)

	cues, errs := h.ind.snapshot()
	require.Equal(t, []string{"start"}, cues)
	require.Equal(t, []string{"backend down"}, errs)
}

func TestShowShortcutDoesNotCapture(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.ctrl.Press(context.Background(), "window"))
	h.ctrl.Release("window")

	require.Equal(t, fsm.StateIdle, h.ctrl.State())
	require.Empty(t, h.host.opened)
	shows := h.bus.ofKind(events.KindShowWindow)
	require.Len(t, shows, 1)
	require.Equal(t, "window", shows[0].Payload.(events.ShowWindow).Shortcut)
}

func TestUnknownShortcut(t *testing.T) {
	h := newHarness(t)

	err := h.ctrl.HandleEvent(context.Background(), HotkeyEvent{Shortcut: "nope", Phase: PhasePressed})
	require.ErrorIs(t, err, dispatch.ErrUnknownShortcut)

	err = h.ctrl.HandleEvent(context.Background(), HotkeyEvent{Shortcut: "chat", Phase: "held"})
	require.Error(t, err)
}

func TestShutdownStopsActiveCapture(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.ctrl.Press(context.Background(), "chat"))
	stream := h.waitStream(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.ctrl.Shutdown(ctx))
	require.True(t, stream.isClosed())
	require.Equal(t, fsm.StateIdle, h.ctrl.State())
}

func TestHandleIPCCommands(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	status := h.ctrl.Handle(ctx, ipc.Request{Command: "status"})
	require.True(t, status.OK)
	require.Equal(t, "idle", status.State)

	pressed := h.ctrl.Handle(ctx, ipc.Request{Command: "press", Shortcut: "chat"})
	require.True(t, pressed.OK)
	require.Equal(t, "recording", pressed.State)
	require.Equal(t, "chat", pressed.Shortcut)
	require.NotEmpty(t, pressed.SessionID)
	h.waitStream(t)

	busy := h.ctrl.Handle(ctx, ipc.Request{Command: "press", Shortcut: "paste"})
	require.False(t, busy.OK)
	require.Contains(t, busy.Error, "recorder busy")

	released := h.ctrl.Handle(ctx, ipc.Request{Command: "release", Shortcut: "chat"})
	require.True(t, released.OK)
	h.ctrl.Wait()

	missing := h.ctrl.Handle(ctx, ipc.Request{Command: "press"})
	require.False(t, missing.OK)

	unknown := h.ctrl.Handle(ctx, ipc.Request{Command: "definitely-unknown"})
	require.False(t, unknown.OK)
	require.Contains(t, unknown.Error, "unknown command")
}

func TestDebugDumpAndInlineAudio(t *testing.T) {
	stateDir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", stateDir)

	h := newHarness(t)
	h.ctrl.opts.DebugDump = true
	h.ctrl.opts.IncludeAudio = true

	require.NoError(t, h.ctrl.Press(context.Background(), "chat"))
	h.waitStream(t).deliver(66150, 1024)
	h.ctrl.Release("chat")
	h.ctrl.Wait()

	_, _, container := h.router.snapshot()
	available := h.bus.ofKind(events.KindAudioDataAvailable)
	require.Len(t, available, 1)
	require.Equal(t, container, available[0].Payload.(events.AudioDataAvailable).Audio)

	dumps, err := filepath.Glob(filepath.Join(stateDir, "murmur", "debug", "murmur-*.wav"))
	require.NoError(t, err)
	require.Len(t, dumps, 1)
	data, err := os.ReadFile(dumps[0])
	require.NoError(t, err)
	require.Equal(t, container, data)
}

func TestSlowStreamCloseKeepsRecorderBusy(t *testing.T) {
	h := newHarness(t)
	h.ctrl.opts.Recorder.CaptureStopTimeoutMS = 20
	gate := make(chan struct{})
	h.host.closeGate = gate

	require.NoError(t, h.ctrl.Press(context.Background(), "chat"))
	first := h.waitStream(t)
	first.deliver(88200, 1024)
	h.ctrl.Release("chat")

	// Well past the stop timeout the device is still held.
	time.Sleep(150 * time.Millisecond)
	require.Equal(t, fsm.StateRecording, h.ctrl.State())
	require.False(t, first.isClosed())

	err := h.ctrl.Press(context.Background(), "chat")
	require.ErrorIs(t, err, ErrBusy)
	require.Empty(t, h.host.opened)

	close(gate)
	h.ctrl.Wait()
	require.True(t, first.isClosed())
	require.Equal(t, fsm.StateIdle, h.ctrl.State())
	calls, _, _ := h.router.snapshot()
	require.Equal(t, 1, calls)
}

func TestStaleStreamCannotStopNextSession(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.ctrl.Press(context.Background(), "paste"))
	first := h.waitStream(t)
	first.deliver(88200, 1024)
	h.ctrl.Release("paste")
	h.ctrl.Wait()

	require.NoError(t, h.ctrl.Press(context.Background(), "chat"))
	second := h.waitStream(t)

	// A late buffer from the previous stream hits a closed handoff.
	first.deliver(1024, 1024)
	require.True(t, h.ctrl.Status().Recording)
	require.Equal(t, fsm.StateRecording, h.ctrl.State())

	second.deliver(88200, 1024)
	h.ctrl.Release("chat")
	h.ctrl.Wait()

	calls, action, container := h.router.snapshot()
	require.Equal(t, 2, calls)
	require.Equal(t, dispatch.ActionChat, action)
	header, err := wav.ParseHeader(container)
	require.NoError(t, err)
	require.Equal(t, uint32(176400), header.DataSize)
}
