package config

import "runtime"

// Default returns the runtime configuration used when no file is present.
func Default() Config {
	chord := "ctrl+v"
	if runtime.GOOS == "darwin" {
		chord = "cmd+v"
	}

	return Config{
		Audio: AudioConfig{
			Backend:         "pulse",
			Input:           "default",
			Fallback:        "default",
			SampleRate:      44100,
			Channels:        1,
			Format:          "s16",
			ChunkSamples:    1024,
			HandoffCapacity: 512,
			LockOSThread:    true,
		},
		Recorder: RecorderConfig{
			MinDurationMS:        1000,
			PollIntervalMS:       50,
			CaptureStopTimeoutMS: 2000,
		},
		Shortcuts: []ShortcutConfig{
			{ID: "chat", Keys: "super+grave", Action: "chat"},
			{ID: "window", Keys: "alt+grave", Action: "show"},
			{ID: "paste", Keys: "ctrl+grave", Action: "paste"},
		},
		Hotkeys: HotkeysConfig{Enable: true},
		Backend: BackendConfig{
			Kind:          "local",
			URL:           "http://localhost:3000",
			Authorization: "INTERNAL",
			TimeoutMS:     120000,
			OpenAI: OpenAIConfig{
				APIKeyEnv:          "OPENAI_API_KEY",
				TranscriptionModel: "whisper-1",
				ChatModel:          "gpt-4o-mini",
			},
		},
		Paste: PasteConfig{
			Enable:           true,
			Clipboard:        "system",
			Chord:            chord,
			RestoreClipboard: true,
			SettleMS:         20,
			RestoreDelayMS:   100,
		},
		Indicator: IndicatorConfig{
			Enable:       true,
			AppName:      "murmur",
			SoundEnable:  true,
			SoundVolume:  0.5,
			NotifyErrors: true,
		},
		Events: EventsConfig{
			Listen: "127.0.0.1:7345",
			Path:   "/events",
		},
	}
}
