package config

import (
	"fmt"
	"strings"

	"github.com/anand-san/murmur/internal/pcm"
)

var (
	validActions      = map[string]struct{}{"chat": {}, "paste": {}, "show": {}}
	validBackends     = map[string]struct{}{"local": {}, "openai": {}}
	validAudioHosts   = map[string]struct{}{"pulse": {}, "portaudio": {}}
	validClipboards   = map[string]struct{}{"system": {}, "command": {}}
	minSampleRate     = 8000
	maxSampleRate     = 192000
	maxHandoffBacklog = 1 << 16
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	var warnings []Warning

	if _, ok := validAudioHosts[strings.ToLower(cfg.Audio.Backend)]; !ok {
		return nil, fmt.Errorf("audio.backend must be one of: pulse, portaudio")
	}
	if cfg.Audio.SampleRate < minSampleRate || cfg.Audio.SampleRate > maxSampleRate {
		return nil, fmt.Errorf("audio.sample_rate must be between %d and %d", minSampleRate, maxSampleRate)
	}
	if cfg.Audio.Channels != 1 && cfg.Audio.Channels != 2 {
		return nil, fmt.Errorf("audio.channels must be 1 or 2")
	}
	if _, err := pcm.ParseFormat(cfg.Audio.Format); err != nil {
		return nil, fmt.Errorf("audio.format: %w", err)
	}
	if cfg.Audio.ChunkSamples <= 0 {
		return nil, fmt.Errorf("audio.chunk_samples must be > 0")
	}
	if cfg.Audio.HandoffCapacity <= 0 || cfg.Audio.HandoffCapacity > maxHandoffBacklog {
		return nil, fmt.Errorf("audio.handoff_capacity must be between 1 and %d", maxHandoffBacklog)
	}

	if cfg.Recorder.MinDurationMS < 0 {
		return nil, fmt.Errorf("recorder.min_duration_ms must be >= 0")
	}
	if cfg.Recorder.PollIntervalMS <= 0 {
		return nil, fmt.Errorf("recorder.poll_interval_ms must be > 0")
	}
	if cfg.Recorder.CaptureStopTimeoutMS <= 0 {
		return nil, fmt.Errorf("recorder.capture_stop_timeout_ms must be > 0")
	}
	if cfg.Recorder.PollIntervalMS > 1000 {
		warnings = append(warnings, Warning{Message: "recorder.poll_interval_ms above 1000 makes release feel sluggish"})
	}

	seen := make(map[string]struct{}, len(cfg.Shortcuts))
	for i, s := range cfg.Shortcuts {
		if s.ID == "" {
			return nil, fmt.Errorf("shortcuts[%d].id must not be empty", i)
		}
		if _, dup := seen[s.ID]; dup {
			return nil, fmt.Errorf("shortcuts[%d].id %q is duplicated", i, s.ID)
		}
		seen[s.ID] = struct{}{}
		if _, ok := validActions[s.Action]; !ok {
			return nil, fmt.Errorf("shortcuts[%d].action must be one of: chat, paste, show", i)
		}
		if cfg.Hotkeys.Enable && s.Keys == "" {
			warnings = append(warnings, Warning{Message: fmt.Sprintf("shortcut %q has no keys; reachable over IPC only", s.ID)})
		}
	}

	kind := strings.ToLower(cfg.Backend.Kind)
	if _, ok := validBackends[kind]; !ok {
		return nil, fmt.Errorf("backend.kind must be one of: local, openai")
	}
	if cfg.Backend.TimeoutMS <= 0 {
		return nil, fmt.Errorf("backend.timeout_ms must be > 0")
	}
	if kind == "local" && strings.TrimSpace(cfg.Backend.URL) == "" {
		return nil, fmt.Errorf("backend.url must not be empty when backend.kind=local")
	}
	if kind == "openai" && cfg.Backend.OpenAI.APIKey == "" {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("backend.kind=openai but %s is unset", cfg.Backend.OpenAI.APIKeyEnv)})
	}

	if _, ok := validClipboards[strings.ToLower(cfg.Paste.Clipboard)]; !ok {
		return nil, fmt.Errorf("paste.clipboard must be one of: system, command")
	}
	if strings.EqualFold(cfg.Paste.Clipboard, "command") && len(cfg.Paste.ClipboardCmd.Argv) == 0 {
		return nil, fmt.Errorf("paste.clipboard_cmd must be set when paste.clipboard=command")
	}
	if cfg.Paste.Enable && len(cfg.Paste.PasteCmd.Argv) == 0 && strings.TrimSpace(cfg.Paste.Chord) == "" {
		return nil, fmt.Errorf("paste.paste_chord must not be empty when paste.enable=true and paste_cmd is unset")
	}
	if cfg.Paste.SettleMS < 0 || cfg.Paste.RestoreDelayMS < 0 {
		return nil, fmt.Errorf("paste delays must be >= 0")
	}

	if cfg.Indicator.SoundVolume < 0 || cfg.Indicator.SoundVolume > 1 {
		return nil, fmt.Errorf("indicator.sound_volume must be between 0 and 1")
	}

	if cfg.Events.Listen != "" && !strings.HasPrefix(cfg.Events.Path, "/") {
		return nil, fmt.Errorf("events.path must start with '/'")
	}

	return warnings, nil
}
