// Package doctor runs runtime readiness diagnostics for config, tools, audio and backends.
package doctor

import (
	"context"
	"fmt"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"github.com/atotto/clipboard"

	"github.com/anand-san/murmur/internal/audio"
	"github.com/anand-san/murmur/internal/config"
	"github.com/anand-san/murmur/internal/hotkey"
	"github.com/anand-san/murmur/internal/output"
	"github.com/anand-san/murmur/internal/pcm"
)

const probeTimeout = 2 * time.Second

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
// host may be nil when the audio backend could not be constructed.
func Run(ctx context.Context, loaded config.Loaded, host audio.Host) Report {
	cfg := loaded.Config
	checks := []Check{checkConfig(loaded)}

	checks = append(checks, checkHotkeys(cfg)...)
	checks = append(checks, checkClipboard(cfg.Paste))
	if cfg.Paste.Enable {
		checks = append(checks, checkPaste(cfg.Paste))
	}
	checks = append(checks, checkAudio(ctx, host, cfg.Audio))
	checks = append(checks, checkBackend(ctx, cfg.Backend))
	if addr := strings.TrimSpace(cfg.Backend.GRPCHealthAddr); addr != "" {
		checks = append(checks, checkGRPCHealth(ctx, addr))
	}

	return Report{Checks: checks}
}

func checkConfig(loaded config.Loaded) Check {
	source := fmt.Sprintf("loaded %q", loaded.Path)
	if !loaded.Exists {
		source = fmt.Sprintf("using defaults (%q not found)", loaded.Path)
	}
	if n := len(loaded.Warnings); n > 0 {
		source += fmt.Sprintf(", %d warning(s)", n)
	}
	if len(loaded.EnvFiles) > 0 {
		source += ", env from " + strings.Join(loaded.EnvFiles, ", ")
	}
	return Check{Name: "config", Pass: true, Message: source}
}

func checkHotkeys(cfg config.Config) []Check {
	if !cfg.Hotkeys.Enable {
		return []Check{{Name: "hotkeys", Pass: true, Message: "global hotkeys disabled; use `murmur press|release`"}}
	}
	var checks []Check
	for _, sc := range cfg.Shortcuts {
		name := "hotkey." + sc.ID
		if strings.TrimSpace(sc.Keys) == "" {
			checks = append(checks, Check{Name: name, Pass: true, Message: "no keys bound (IPC only)"})
			continue
		}
		spec, err := hotkey.ParseSpec(sc.Keys)
		if err != nil {
			checks = append(checks, Check{Name: name, Pass: false, Message: err.Error()})
			continue
		}
		checks = append(checks, Check{Name: name, Pass: true, Message: fmt.Sprintf("%s -> %s", spec, sc.Action)})
	}
	return checks
}

func checkClipboard(cfg config.PasteConfig) Check {
	if strings.EqualFold(cfg.Clipboard, "command") {
		return checkCommand(cfg.ClipboardCmd.Argv, "clipboard_cmd")
	}
	if clipboard.Unsupported {
		return Check{Name: "clipboard", Pass: false, Message: "no system clipboard utility found (install wl-clipboard, xclip or xsel)"}
	}
	return Check{Name: "clipboard", Pass: true, Message: "system clipboard available"}
}

func checkPaste(cfg config.PasteConfig) Check {
	if len(cfg.PasteCmd.Argv) > 0 {
		return checkCommand(cfg.PasteCmd.Argv, "paste_cmd")
	}
	chord, err := output.ParseChord(cfg.Chord)
	if err != nil {
		return Check{Name: "paste_chord", Pass: false, Message: err.Error()}
	}
	return Check{Name: "paste_chord", Pass: true, Message: fmt.Sprintf("synthesizing %s", chord)}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkAudio runs live device selection and negotiation to surface fallback issues.
func checkAudio(ctx context.Context, host audio.Host, cfg config.AudioConfig) Check {
	if host == nil {
		return Check{Name: "audio.device", Pass: false, Message: fmt.Sprintf("audio backend %q unavailable", cfg.Backend)}
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	prepared, err := audio.Prepare(ctx, host, audio.Preferences{
		Input:    cfg.Input,
		Fallback: cfg.Fallback,
		Want: audio.StreamConfig{
			SampleRate: cfg.SampleRate,
			Channels:   cfg.Channels,
			Format:     pcm.Format(cfg.Format),
		},
	})
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q via %s at %s", prepared.Selection.Device.ID, host.Name(), prepared.Config)
	if prepared.Selection.Warning != "" {
		message = message + " (" + prepared.Selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkBackend verifies the transcription backend is reachable or configured.
func checkBackend(ctx context.Context, cfg config.BackendConfig) Check {
	if strings.EqualFold(cfg.Kind, "openai") {
		if strings.TrimSpace(cfg.OpenAI.APIKey) == "" {
			return Check{Name: "backend.openai", Pass: false, Message: fmt.Sprintf("%s is not set", cfg.OpenAI.APIKeyEnv)}
		}
		return Check{Name: "backend.openai", Pass: true, Message: fmt.Sprintf("api key present, models %s / %s", cfg.OpenAI.TranscriptionModel, cfg.OpenAI.ChatModel)}
	}

	base := strings.TrimSpace(cfg.URL)
	if base == "" {
		return Check{Name: "backend.local", Pass: false, Message: "backend.url is empty"}
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base, nil)
	if err != nil {
		return Check{Name: "backend.local", Pass: false, Message: err.Error()}
	}
	if cfg.Authorization != "" {
		req.Header.Set("Authorization", cfg.Authorization)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Check{Name: "backend.local", Pass: false, Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return Check{Name: "backend.local", Pass: false, Message: fmt.Sprintf("HTTP %d from %s", resp.StatusCode, base)}
	}
	return Check{Name: "backend.local", Pass: true, Message: fmt.Sprintf("reachable at %s (HTTP %d)", base, resp.StatusCode)}
}
