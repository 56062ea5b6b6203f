// Package config resolves, parses, validates, and defaults murmur configuration.
package config

import "time"

// Config is the fully materialized runtime configuration.
type Config struct {
	Audio     AudioConfig
	Recorder  RecorderConfig
	Shortcuts []ShortcutConfig
	Hotkeys   HotkeysConfig
	Backend   BackendConfig
	Paste     PasteConfig
	Indicator IndicatorConfig
	Events    EventsConfig
	Debug     DebugConfig
}

// AudioConfig selects the capture backend, device and requested stream shape.
type AudioConfig struct {
	Backend         string
	Input           string
	Fallback        string
	SampleRate      int
	Channels        int
	Format          string
	ChunkSamples    int
	HandoffCapacity int
	LockOSThread    bool
}

// RecorderConfig holds the post-processing policy constants.
type RecorderConfig struct {
	MinDurationMS        int
	PollIntervalMS       int
	CaptureStopTimeoutMS int
}

func (r RecorderConfig) MinDuration() time.Duration {
	return time.Duration(r.MinDurationMS) * time.Millisecond
}

func (r RecorderConfig) PollInterval() time.Duration {
	return time.Duration(r.PollIntervalMS) * time.Millisecond
}

func (r RecorderConfig) CaptureStopTimeout() time.Duration {
	return time.Duration(r.CaptureStopTimeoutMS) * time.Millisecond
}

// ShortcutConfig binds one key chord to a dispatch action.
type ShortcutConfig struct {
	ID     string
	Keys   string
	Action string
}

type HotkeysConfig struct {
	Enable bool
}

// BackendConfig selects and configures the transcription/response service.
type BackendConfig struct {
	Kind           string
	URL            string
	Authorization  string
	TimeoutMS      int
	HTTP2          bool
	GRPCHealthAddr string
	OpenAI         OpenAIConfig
}

func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutMS) * time.Millisecond
}

// OpenAIConfig configures the hosted backend. APIKey is resolved from APIKeyEnv, never read from the file.
type OpenAIConfig struct {
	APIKeyEnv          string
	APIKey             string
	BaseURL            string
	TranscriptionModel string
	ChatModel          string
	SystemPrompt       string
	Language           string
}

// PasteConfig controls the clipboard paste flow.
type PasteConfig struct {
	Enable           bool
	Clipboard        string
	ClipboardCmd     CommandConfig
	ClipboardReadCmd CommandConfig
	PasteCmd         CommandConfig
	Chord            string
	RestoreClipboard bool
	SettleMS         int
	RestoreDelayMS   int
	TrailingSpace    bool
}

// IndicatorConfig controls audio cues and desktop notifications.
type IndicatorConfig struct {
	Enable            bool
	AppName           string
	SoundEnable       bool
	SoundVolume       float64
	SoundStartFile    string
	SoundDiscardFile  string
	SoundCompleteFile string
	NotifyErrors      bool
}

// EventsConfig controls the websocket UI bus. An empty Listen disables it.
type EventsConfig struct {
	Listen       string
	Path         string
	IncludeAudio bool
}

// DebugConfig controls optional debug artifact output.
type DebugConfig struct {
	EnableAudioDump bool
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
