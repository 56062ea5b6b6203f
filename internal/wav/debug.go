package wav

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// WriteDebugFile stores a container under $XDG_STATE_HOME/murmur/debug and returns its path.
func WriteDebugFile(prefix string, container []byte, now time.Time) (string, error) {
	stateDir, err := resolveStateDir()
	if err != nil {
		return "", err
	}
	debugDir := filepath.Join(stateDir, "murmur", "debug")
	if err := os.MkdirAll(debugDir, 0o700); err != nil {
		return "", fmt.Errorf("create debug dir: %w", err)
	}

	path := filepath.Join(debugDir, fmt.Sprintf("%s-%s.wav", prefix, now.Format("20060102-150405.000")))
	if err := os.WriteFile(path, container, 0o600); err != nil {
		return "", fmt.Errorf("write debug file %q: %w", path, err)
	}
	return path, nil
}

func resolveStateDir() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); xdg != "" {
		return xdg, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory for state: %w", err)
	}
	return filepath.Join(home, ".local", "state"), nil
}
