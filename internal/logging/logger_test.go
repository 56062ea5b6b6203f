package logging

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveLogPath(t *testing.T) {
	home := t.TempDir()
	state := t.TempDir()
	explicit := filepath.Join(t.TempDir(), "logs", "murmur.jsonl")

	tests := []struct {
		name     string
		logFile  string
		xdgState string
		want     string
	}{
		{name: "explicit file wins", logFile: explicit, xdgState: state, want: explicit},
		{name: "xdg state home", xdgState: state, want: filepath.Join(state, "murmur", "log.jsonl")},
		{name: "home fallback", want: filepath.Join(home, ".local", "state", "murmur", "log.jsonl")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("HOME", home)
			t.Setenv("MURMUR_LOG_FILE", tc.logFile)
			t.Setenv("XDG_STATE_HOME", tc.xdgState)

			path, err := resolveLogPath()
			require.NoError(t, err)
			require.Equal(t, tc.want, path)
		})
	}
}

func TestNewWritesJSONLinesAtConfiguredLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "murmur.jsonl")
	t.Setenv("MURMUR_LOG_FILE", path)
	t.Setenv("MURMUR_LOG_LEVEL", "warn")

	runtime, err := New()
	require.NoError(t, err)
	require.Equal(t, path, runtime.Path)

	runtime.Logger.Info("hidden-at-warn")
	runtime.Logger.Warn("capture too short", "shortcut", "dictate", "samples", 4410)
	require.NoError(t, runtime.Close())

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(contents), "hidden-at-warn")

	lines := strings.Split(strings.TrimSpace(string(contents)), "\n")
	require.Len(t, lines, 1)

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &record))
	require.Equal(t, "WARN", record["level"])
	require.Equal(t, "capture too short", record["msg"])
	require.Equal(t, "dictate", record["shortcut"])
	require.EqualValues(t, os.Getpid(), record["pid"])

	stat, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), stat.Mode().Perm())
}

func TestCloseWithoutSink(t *testing.T) {
	require.NoError(t, Runtime{}.Close())
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		require.Equal(t, want, parseLevel(in), in)
	}
}
