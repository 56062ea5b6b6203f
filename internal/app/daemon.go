package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/anand-san/murmur/internal/audio"
	"github.com/anand-san/murmur/internal/backend"
	"github.com/anand-san/murmur/internal/config"
	"github.com/anand-san/murmur/internal/dispatch"
	"github.com/anand-san/murmur/internal/events"
	"github.com/anand-san/murmur/internal/hotkey"
	"github.com/anand-san/murmur/internal/indicator"
	"github.com/anand-san/murmur/internal/ipc"
	"github.com/anand-san/murmur/internal/output"
	"github.com/anand-san/murmur/internal/session"
)

const shutdownGrace = 5 * time.Second

// HotkeySource delivers global shortcut presses and releases.
type HotkeySource interface {
	Register(shortcuts []config.ShortcutConfig) error
	Events() <-chan hotkey.Event
	Close() error
}

// detachedSurface stands in for the UI when no event listener is configured.
type detachedSurface struct{}

func (detachedSurface) Connected() bool { return false }

type daemon struct {
	ctrl    *session.Controller
	cues    *indicator.Cues
	hub     *events.Hub
	hotkeys HotkeySource
}

func (r Runner) commandRun(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, ipc.AcquireOptions{
		Retries: 8,
		OnStale: func(path string) {
			logger.Warn("removed stale control socket", "socket", path)
		},
	})
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("acquire socket failed", "socket", socketPath, "error", err.Error())
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	d, err := r.buildDaemon(cfg, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("daemon setup failed", "error", err.Error())
		return 1
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	serverErrCh := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		srv := &ipc.Server{Handler: d.ctrl, Logger: logger}
		if err := srv.Serve(runCtx, listener); err != nil {
			serverErrCh <- fmt.Errorf("ipc server: %w", err)
		}
	}()

	if d.hub != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := d.hub.ListenAndServe(runCtx, cfg.Events.Listen, cfg.Events.Path); err != nil {
				serverErrCh <- err
			}
		}()
	}

	if d.hotkeys != nil {
		if err := d.hotkeys.Register(cfg.Shortcuts); err != nil {
			fmt.Fprintf(r.Stderr, "warning: global hotkeys unavailable: %v\n", err)
			logger.Warn("hotkey registration failed", "error", err.Error())
			d.hotkeys = nil
		} else {
			wg.Add(1)
			go func() {
				defer wg.Done()
				pumpHotkeys(runCtx, d.hotkeys.Events(), d.ctrl, logger)
			}()
		}
	}

	logger.Info("daemon ready", "socket", socketPath, "events", cfg.Events.Listen, "hotkeys", d.hotkeys != nil)

	exitCode := 0
	select {
	case <-ctx.Done():
		logger.Info("daemon stopping", "reason", context.Cause(ctx).Error())
	case err := <-serverErrCh:
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("daemon server failed", "error", err.Error())
		exitCode = 1
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer shutdownCancel()
	if err := d.ctrl.Shutdown(shutdownCtx); err != nil {
		logger.Warn("recorder shutdown incomplete", "error", err.Error())
	}
	if d.hotkeys != nil {
		if err := d.hotkeys.Close(); err != nil {
			logger.Warn("hotkey unregister failed", "error", err.Error())
		}
	}
	wg.Wait()
	d.cues.Wait()

	logger.Info("daemon stopped", "exit_code", exitCode)
	return exitCode
}

func (r Runner) buildDaemon(cfg config.Config, logger *slog.Logger) (*daemon, error) {
	host, err := r.host(cfg.Audio)
	if err != nil {
		return nil, err
	}

	transcriber, responder, err := newBackend(cfg.Backend)
	if err != nil {
		return nil, err
	}

	committer, err := output.NewCommitter(cfg.Paste, logger)
	if err != nil {
		return nil, fmt.Errorf("paste: %w", err)
	}

	d := &daemon{cues: indicator.New(cfg.Indicator, logger)}

	buses := events.Fanout{events.Log{Logger: logger}}
	var surface dispatch.Surface = detachedSurface{}
	if strings.TrimSpace(cfg.Events.Listen) != "" {
		d.hub = events.NewHub(logger)
		buses = append(buses, d.hub)
		surface = d.hub
	}
	emitter := events.NewEmitter(buses, logger)

	router := &dispatch.Router{
		Table:       dispatch.NewTable(cfg.Shortcuts),
		Transcriber: transcriber,
		Responder:   responder,
		Committer:   committer,
		Surface:     surface,
		Emitter:     emitter,
		Logger:      logger,
	}

	d.ctrl = session.NewController(session.Options{
		Audio:        cfg.Audio,
		Recorder:     cfg.Recorder,
		Host:         host,
		Router:       router,
		Emitter:      emitter,
		Indicator:    d.cues,
		Logger:       logger,
		IncludeAudio: cfg.Events.IncludeAudio,
		DebugDump:    cfg.Debug.EnableAudioDump,
	})

	if cfg.Hotkeys.Enable {
		d.hotkeys = r.Hotkeys
		if d.hotkeys == nil {
			d.hotkeys = hotkey.NewListener(logger)
		}
	}
	return d, nil
}

func newBackend(cfg config.BackendConfig) (dispatch.Transcriber, dispatch.Responder, error) {
	if strings.EqualFold(cfg.Kind, "openai") {
		client, err := backend.NewOpenAI(backend.OpenAIOptions{
			APIKey:             cfg.OpenAI.APIKey,
			BaseURL:            cfg.OpenAI.BaseURL,
			TranscriptionModel: cfg.OpenAI.TranscriptionModel,
			ChatModel:          cfg.OpenAI.ChatModel,
			SystemPrompt:       cfg.OpenAI.SystemPrompt,
			Language:           cfg.OpenAI.Language,
		})
		if err != nil {
			return nil, nil, err
		}
		return client, client, nil
	}

	client, err := backend.NewLocal(backend.LocalOptions{
		BaseURL:       cfg.URL,
		Authorization: cfg.Authorization,
		Timeout:       cfg.Timeout(),
		HTTP2:         cfg.HTTP2,
	})
	if err != nil {
		return nil, nil, err
	}
	return client, client, nil
}

// pumpHotkeys forwards listener events to the controller until ctx ends or the channel closes.
func pumpHotkeys(ctx context.Context, in <-chan hotkey.Event, ctrl *session.Controller, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-in:
			if !ok {
				return
			}
			phase := session.PhaseReleased
			if ev.Pressed {
				phase = session.PhasePressed
			}
			err := ctrl.HandleEvent(ctx, session.HotkeyEvent{Shortcut: ev.Shortcut, Phase: phase})
			switch {
			case err == nil:
			case errors.Is(err, session.ErrBusy):
				logger.Debug("hotkey ignored", "shortcut", ev.Shortcut, "reason", err.Error())
			case errors.Is(err, audio.ErrNoInputDevice):
				logger.Warn("hotkey press failed", "shortcut", ev.Shortcut, "error", err.Error())
			default:
				logger.Error("hotkey press failed", "shortcut", ev.Shortcut, "error", err.Error())
			}
		}
	}
}
