// Package app maps CLI commands onto the daemon and its control-plane clients.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/anand-san/murmur/internal/audio"
	"github.com/anand-san/murmur/internal/cli"
	"github.com/anand-san/murmur/internal/config"
	"github.com/anand-san/murmur/internal/doctor"
	"github.com/anand-san/murmur/internal/ipc"
	"github.com/anand-san/murmur/internal/logging"
	"github.com/anand-san/murmur/internal/version"
)

const (
	binaryName = "murmur"
	// press runs device selection before replying.
	forwardTimeout = 2 * time.Second
)

// HostFactory builds the audio backend named in config.
type HostFactory func(name string, appName string) (audio.Host, error)

// Runner executes one CLI invocation.
type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	// NewHost defaults to audio.NewHost.
	NewHost HostFactory
	// Hotkeys replaces the global hotkey listener when set.
	Hotkeys HotkeySource
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText(binaryName))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText(binaryName))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	loaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range loaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", loaded.Path,
		"env_files", loaded.EnvFiles,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		host, _ := r.host(loaded.Config.Audio)
		report := doctor.Run(ctx, loaded, host)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx, loaded.Config.Audio)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandPress:
		return r.forwardOrFail(ctx, ipc.Request{Command: "press", Shortcut: parsed.Shortcut})
	case cli.CommandRelease:
		return r.forwardOrFail(ctx, ipc.Request{Command: "release", Shortcut: parsed.Shortcut})
	case cli.CommandRun:
		return r.commandRun(ctx, loaded.Config, logger)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) host(cfg config.AudioConfig) (audio.Host, error) {
	factory := r.NewHost
	if factory == nil {
		factory = audio.NewHost
	}
	return factory(cfg.Backend, binaryName)
}

func (r Runner) commandDevices(ctx context.Context, cfg config.AudioConfig) int {
	host, err := r.host(cfg)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	devices, err := host.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			device.State,
			yesNo(device.Available),
			yesNo(device.Muted),
		)
	}

	return 0
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "stopped")
		return 0
	}

	resp, err := ipc.Forward(ctx, socketPath, ipc.Request{Command: "status"}, forwardTimeout)
	if errors.Is(err, ipc.ErrNoDaemon) {
		fmt.Fprintln(r.Stdout, "stopped")
		return 0
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.State == "" {
		resp.State = "idle"
	}
	line := resp.State
	if resp.Shortcut != "" {
		line = fmt.Sprintf("%s shortcut=%s session=%s", resp.State, resp.Shortcut, resp.SessionID)
	}
	fmt.Fprintln(r.Stdout, line)
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, req ipc.Request) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, err := ipc.Forward(ctx, socketPath, req, forwardTimeout)
	if errors.Is(err, ipc.ErrNoDaemon) {
		fmt.Fprintf(r.Stderr, "error: %v (start it with `murmur run`)\n", err)
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}
