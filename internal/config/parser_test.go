package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseEmptyContentUsesBase(t *testing.T) {
	cfg, warnings, err := Parse("   \n", Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, Default(), cfg)
}

func TestParseJSONCOverridesSections(t *testing.T) {
	content := `
{
  // capture
  "audio": {
    "backend": "portaudio",
    "sample_rate": 48000,
    "channels": 2,
    "format": "f32",
    "chunk_samples": 512,
  },
  "recorder": { "min_duration_ms": 750, "poll_interval_ms": 25 },
  "shortcuts": [
    { "id": "dictate", "keys": "ctrl+shift+space", "action": "PASTE" },
  ],
  "backend": {
    "kind": "openai",
    "openai": { "chat_model": "gpt-test", "system_prompt": "be brief" },
  },
  "paste": {
    "clipboard": "command",
    "clipboard_cmd": "wl-copy --trim-newline",
    "clipboard_read_cmd": "wl-paste --no-newline",
    "paste_cmd": "wtype -M ctrl v",
    "trailing_space": true,
  },
  "indicator": { "sound_volume": 0.25, "sound_start_file": "~/cues/start.mp3" },
  "events": { "listen": "", "include_audio": true },
  "debug": { "audio_dump": true },
}
`
	cfg, _, err := Parse(content, Default())
	require.NoError(t, err)

	require.Equal(t, "portaudio", cfg.Audio.Backend)
	require.Equal(t, 48000, cfg.Audio.SampleRate)
	require.Equal(t, 2, cfg.Audio.Channels)
	require.Equal(t, "f32", cfg.Audio.Format)
	require.Equal(t, 512, cfg.Audio.ChunkSamples)
	require.Equal(t, "default", cfg.Audio.Input)

	require.Equal(t, 750, cfg.Recorder.MinDurationMS)
	require.Equal(t, 25, cfg.Recorder.PollIntervalMS)
	require.Equal(t, 2000, cfg.Recorder.CaptureStopTimeoutMS)

	require.Equal(t, []ShortcutConfig{{ID: "dictate", Keys: "ctrl+shift+space", Action: "paste"}}, cfg.Shortcuts)

	require.Equal(t, "openai", cfg.Backend.Kind)
	require.Equal(t, "gpt-test", cfg.Backend.OpenAI.ChatModel)
	require.Equal(t, "whisper-1", cfg.Backend.OpenAI.TranscriptionModel)

	require.Equal(t, []string{"wl-copy", "--trim-newline"}, cfg.Paste.ClipboardCmd.Argv)
	require.Equal(t, []string{"wl-paste", "--no-newline"}, cfg.Paste.ClipboardReadCmd.Argv)
	require.Equal(t, []string{"wtype", "-M", "ctrl", "v"}, cfg.Paste.PasteCmd.Argv)
	require.True(t, cfg.Paste.TrailingSpace)

	require.Equal(t, 0.25, cfg.Indicator.SoundVolume)
	require.Equal(t, "~/cues/start.mp3", cfg.Indicator.SoundStartFile)
	require.Empty(t, cfg.Events.Listen)
	require.True(t, cfg.Events.IncludeAudio)
	require.True(t, cfg.Debug.EnableAudioDump)
}

func TestParseOpenAIWithoutKeyWarns(t *testing.T) {
	_, warnings, err := Parse(`{"backend": {"kind": "openai"}}`, Default())
	require.NoError(t, err)
	require.NotEmpty(t, warnings)
	require.Contains(t, warnings[0].Message, "OPENAI_API_KEY")
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, _, err := Parse(`{"audio": {"sample_rte": 44100}}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "sample_rte")
}

func TestParseReportsLineAndColumn(t *testing.T) {
	_, _, err := Parse("{\n  \"audio\": {\n    \"channels\": \"two\"\n  }\n}", Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 3")
}

func TestParseRejectsMultipleValues(t *testing.T) {
	_, _, err := Parse(`{} {}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "multiple JSON values")
}

func TestParseRejectsBadCommand(t *testing.T) {
	_, _, err := Parse(`{"paste": {"paste_cmd": "wtype 'unterminated"}}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "paste.paste_cmd")
}

func TestParseEmptyShortcutListWarns(t *testing.T) {
	cfg, warnings, err := Parse(`{"shortcuts": []}`, Default())
	require.NoError(t, err)
	require.Empty(t, cfg.Shortcuts)
	require.NotEmpty(t, warnings)
}
