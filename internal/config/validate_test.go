package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateDefaults(t *testing.T) {
	warnings, err := Validate(Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
}

func TestValidateRejectsInvalidFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "audio backend", mutate: func(c *Config) { c.Audio.Backend = "jack" }, wantErr: "audio.backend"},
		{name: "sample rate", mutate: func(c *Config) { c.Audio.SampleRate = 4000 }, wantErr: "audio.sample_rate"},
		{name: "channels", mutate: func(c *Config) { c.Audio.Channels = 6 }, wantErr: "audio.channels"},
		{name: "format", mutate: func(c *Config) { c.Audio.Format = "s24" }, wantErr: "audio.format"},
		{name: "chunk", mutate: func(c *Config) { c.Audio.ChunkSamples = 0 }, wantErr: "audio.chunk_samples"},
		{name: "handoff", mutate: func(c *Config) { c.Audio.HandoffCapacity = 0 }, wantErr: "audio.handoff_capacity"},
		{name: "min duration", mutate: func(c *Config) { c.Recorder.MinDurationMS = -1 }, wantErr: "recorder.min_duration_ms"},
		{name: "poll", mutate: func(c *Config) { c.Recorder.PollIntervalMS = 0 }, wantErr: "recorder.poll_interval_ms"},
		{name: "stop timeout", mutate: func(c *Config) { c.Recorder.CaptureStopTimeoutMS = 0 }, wantErr: "capture_stop_timeout_ms"},
		{name: "shortcut id", mutate: func(c *Config) { c.Shortcuts[0].ID = "" }, wantErr: "shortcuts[0].id"},
		{name: "shortcut dup", mutate: func(c *Config) { c.Shortcuts[1].ID = c.Shortcuts[0].ID }, wantErr: "duplicated"},
		{name: "shortcut action", mutate: func(c *Config) { c.Shortcuts[0].Action = "email" }, wantErr: "shortcuts[0].action"},
		{name: "backend kind", mutate: func(c *Config) { c.Backend.Kind = "grpc" }, wantErr: "backend.kind"},
		{name: "backend url", mutate: func(c *Config) { c.Backend.URL = " " }, wantErr: "backend.url"},
		{name: "backend timeout", mutate: func(c *Config) { c.Backend.TimeoutMS = 0 }, wantErr: "backend.timeout_ms"},
		{name: "clipboard kind", mutate: func(c *Config) { c.Paste.Clipboard = "xclip" }, wantErr: "paste.clipboard"},
		{name: "clipboard cmd", mutate: func(c *Config) { c.Paste.Clipboard = "command" }, wantErr: "paste.clipboard_cmd"},
		{name: "chord", mutate: func(c *Config) { c.Paste.Chord = "" }, wantErr: "paste.paste_chord"},
		{name: "delays", mutate: func(c *Config) { c.Paste.SettleMS = -5 }, wantErr: "paste delays"},
		{name: "volume", mutate: func(c *Config) { c.Indicator.SoundVolume = 1.5 }, wantErr: "sound_volume"},
		{name: "events path", mutate: func(c *Config) { c.Events.Path = "events" }, wantErr: "events.path"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			_, err := Validate(cfg)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidateWarnsForUnboundShortcut(t *testing.T) {
	cfg := Default()
	cfg.Shortcuts[0].Keys = ""

	warnings, err := Validate(cfg)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, "IPC only")
}

func TestValidatePasteCmdAllowsEmptyChord(t *testing.T) {
	cfg := Default()
	cfg.Paste.Chord = ""
	cfg.Paste.PasteCmd = CommandConfig{Raw: "wtype -M ctrl v", Argv: []string{"wtype", "-M", "ctrl", "v"}}

	_, err := Validate(cfg)
	require.NoError(t, err)
}
