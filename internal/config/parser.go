package config

import (
	"encoding/json"
	"fmt"
	"strings"
)

type fileConfig struct {
	Audio     *fileAudio     `json:"audio"`
	Recorder  *fileRecorder  `json:"recorder"`
	Shortcuts []fileShortcut `json:"shortcuts"`
	Hotkeys   *fileHotkeys   `json:"hotkeys"`
	Backend   *fileBackend   `json:"backend"`
	Paste     *filePaste     `json:"paste"`
	Indicator *fileIndicator `json:"indicator"`
	Events    *fileEvents    `json:"events"`
	Debug     *fileDebug     `json:"debug"`
}

type fileAudio struct {
	Backend         *string `json:"backend"`
	Input           *string `json:"input"`
	Fallback        *string `json:"fallback"`
	SampleRate      *int    `json:"sample_rate"`
	Channels        *int    `json:"channels"`
	Format          *string `json:"format"`
	ChunkSamples    *int    `json:"chunk_samples"`
	HandoffCapacity *int    `json:"handoff_capacity"`
	LockOSThread    *bool   `json:"lock_os_thread"`
}

type fileRecorder struct {
	MinDurationMS        *int `json:"min_duration_ms"`
	PollIntervalMS       *int `json:"poll_interval_ms"`
	CaptureStopTimeoutMS *int `json:"capture_stop_timeout_ms"`
}

type fileShortcut struct {
	ID     string `json:"id"`
	Keys   string `json:"keys"`
	Action string `json:"action"`
}

type fileHotkeys struct {
	Enable *bool `json:"enable"`
}

type fileBackend struct {
	Kind           *string     `json:"kind"`
	URL            *string     `json:"url"`
	Authorization  *string     `json:"authorization"`
	TimeoutMS      *int        `json:"timeout_ms"`
	HTTP2          *bool       `json:"http2"`
	GRPCHealthAddr *string     `json:"grpc_health_addr"`
	OpenAI         *fileOpenAI `json:"openai"`
}

type fileOpenAI struct {
	APIKeyEnv          *string `json:"api_key_env"`
	BaseURL            *string `json:"base_url"`
	TranscriptionModel *string `json:"transcription_model"`
	ChatModel          *string `json:"chat_model"`
	SystemPrompt       *string `json:"system_prompt"`
	Language           *string `json:"language"`
}

type filePaste struct {
	Enable           *bool   `json:"enable"`
	Clipboard        *string `json:"clipboard"`
	ClipboardCmd     *string `json:"clipboard_cmd"`
	ClipboardReadCmd *string `json:"clipboard_read_cmd"`
	PasteCmd         *string `json:"paste_cmd"`
	Chord            *string `json:"paste_chord"`
	RestoreClipboard *bool   `json:"restore_clipboard"`
	SettleMS         *int    `json:"settle_ms"`
	RestoreDelayMS   *int    `json:"restore_delay_ms"`
	TrailingSpace    *bool   `json:"trailing_space"`
}

type fileIndicator struct {
	Enable            *bool    `json:"enable"`
	AppName           *string  `json:"app_name"`
	SoundEnable       *bool    `json:"sound_enable"`
	SoundVolume       *float64 `json:"sound_volume"`
	SoundStartFile    *string  `json:"sound_start_file"`
	SoundDiscardFile  *string  `json:"sound_discard_file"`
	SoundCompleteFile *string  `json:"sound_complete_file"`
	NotifyErrors      *bool    `json:"notify_errors"`
}

type fileEvents struct {
	Listen       *string `json:"listen"`
	Path         *string `json:"path"`
	IncludeAudio *bool   `json:"include_audio"`
}

type fileDebug struct {
	AudioDump *bool `json:"audio_dump"`
}

// Parse reads JSONC content over base and validates the result. Empty content yields base.
func Parse(content string, base Config) (Config, []Warning, error) {
	cfg, warnings, err := decode(content, base)
	if err != nil {
		return Config{}, nil, err
	}
	validated, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, append(warnings, validated...), nil
}

func decode(content string, base Config) (Config, []Warning, error) {
	cfg := base
	if strings.TrimSpace(content) == "" {
		return cfg, nil, nil
	}

	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload fileConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	warnings, err := payload.applyTo(&cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

func (p fileConfig) applyTo(cfg *Config) ([]Warning, error) {
	var warnings []Warning

	if a := p.Audio; a != nil {
		setString(&cfg.Audio.Backend, a.Backend)
		setString(&cfg.Audio.Input, a.Input)
		setString(&cfg.Audio.Fallback, a.Fallback)
		setInt(&cfg.Audio.SampleRate, a.SampleRate)
		setInt(&cfg.Audio.Channels, a.Channels)
		setString(&cfg.Audio.Format, a.Format)
		setInt(&cfg.Audio.ChunkSamples, a.ChunkSamples)
		setInt(&cfg.Audio.HandoffCapacity, a.HandoffCapacity)
		setBool(&cfg.Audio.LockOSThread, a.LockOSThread)
	}

	if r := p.Recorder; r != nil {
		setInt(&cfg.Recorder.MinDurationMS, r.MinDurationMS)
		setInt(&cfg.Recorder.PollIntervalMS, r.PollIntervalMS)
		setInt(&cfg.Recorder.CaptureStopTimeoutMS, r.CaptureStopTimeoutMS)
	}

	if p.Shortcuts != nil {
		cfg.Shortcuts = make([]ShortcutConfig, 0, len(p.Shortcuts))
		for _, s := range p.Shortcuts {
			cfg.Shortcuts = append(cfg.Shortcuts, ShortcutConfig{
				ID:     strings.TrimSpace(s.ID),
				Keys:   strings.TrimSpace(s.Keys),
				Action: strings.ToLower(strings.TrimSpace(s.Action)),
			})
		}
		if len(cfg.Shortcuts) == 0 {
			warnings = append(warnings, Warning{Message: "shortcuts is empty; only IPC press/release of unknown ids will fail"})
		}
	}

	if p.Hotkeys != nil {
		setBool(&cfg.Hotkeys.Enable, p.Hotkeys.Enable)
	}

	if b := p.Backend; b != nil {
		setString(&cfg.Backend.Kind, b.Kind)
		setString(&cfg.Backend.URL, b.URL)
		setString(&cfg.Backend.Authorization, b.Authorization)
		setInt(&cfg.Backend.TimeoutMS, b.TimeoutMS)
		setBool(&cfg.Backend.HTTP2, b.HTTP2)
		setString(&cfg.Backend.GRPCHealthAddr, b.GRPCHealthAddr)
		if o := b.OpenAI; o != nil {
			setString(&cfg.Backend.OpenAI.APIKeyEnv, o.APIKeyEnv)
			setString(&cfg.Backend.OpenAI.BaseURL, o.BaseURL)
			setString(&cfg.Backend.OpenAI.TranscriptionModel, o.TranscriptionModel)
			setString(&cfg.Backend.OpenAI.ChatModel, o.ChatModel)
			setString(&cfg.Backend.OpenAI.SystemPrompt, o.SystemPrompt)
			setString(&cfg.Backend.OpenAI.Language, o.Language)
		}
	}

	if v := p.Paste; v != nil {
		setBool(&cfg.Paste.Enable, v.Enable)
		setString(&cfg.Paste.Clipboard, v.Clipboard)
		setString(&cfg.Paste.Chord, v.Chord)
		setBool(&cfg.Paste.RestoreClipboard, v.RestoreClipboard)
		setInt(&cfg.Paste.SettleMS, v.SettleMS)
		setInt(&cfg.Paste.RestoreDelayMS, v.RestoreDelayMS)
		setBool(&cfg.Paste.TrailingSpace, v.TrailingSpace)

		commands := []struct {
			key string
			raw *string
			dst *CommandConfig
		}{
			{key: "paste.clipboard_cmd", raw: v.ClipboardCmd, dst: &cfg.Paste.ClipboardCmd},
			{key: "paste.clipboard_read_cmd", raw: v.ClipboardReadCmd, dst: &cfg.Paste.ClipboardReadCmd},
			{key: "paste.paste_cmd", raw: v.PasteCmd, dst: &cfg.Paste.PasteCmd},
		}
		for _, c := range commands {
			if c.raw == nil {
				continue
			}
			parsed, err := ParseCommand(*c.raw)
			if err != nil {
				return nil, fmt.Errorf("invalid %s: %w", c.key, err)
			}
			*c.dst = parsed
		}
	}

	if i := p.Indicator; i != nil {
		setBool(&cfg.Indicator.Enable, i.Enable)
		setString(&cfg.Indicator.AppName, i.AppName)
		setBool(&cfg.Indicator.SoundEnable, i.SoundEnable)
		if i.SoundVolume != nil {
			cfg.Indicator.SoundVolume = *i.SoundVolume
		}
		setString(&cfg.Indicator.SoundStartFile, i.SoundStartFile)
		setString(&cfg.Indicator.SoundDiscardFile, i.SoundDiscardFile)
		setString(&cfg.Indicator.SoundCompleteFile, i.SoundCompleteFile)
		setBool(&cfg.Indicator.NotifyErrors, i.NotifyErrors)
	}

	if e := p.Events; e != nil {
		setString(&cfg.Events.Listen, e.Listen)
		setString(&cfg.Events.Path, e.Path)
		setBool(&cfg.Events.IncludeAudio, e.IncludeAudio)
	}

	if p.Debug != nil {
		setBool(&cfg.Debug.EnableAudioDump, p.Debug.AudioDump)
	}

	return warnings, nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
