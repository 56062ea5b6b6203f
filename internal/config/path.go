package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const (
	configDirName  = "murmur"
	configFileName = "config.jsonc"
	dotEnvName     = ".env"
)

// ResolvePath picks the config file: explicit flag, then MURMUR_CONFIG,
// then $XDG_CONFIG_HOME/murmur, then ~/.config/murmur.
func ResolvePath(explicit string) (string, error) {
	for _, candidate := range []string{explicit, os.Getenv("MURMUR_CONFIG")} {
		if candidate = strings.TrimSpace(candidate); candidate != "" {
			return expandHome(candidate)
		}
	}

	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, configDirName, configFileName), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("unable to resolve user home for config fallback")
	}
	return filepath.Join(home, ".config", configDirName, configFileName), nil
}

// dotEnvPaths lists .env candidates in precedence order: the config
// directory, then the working directory.
func dotEnvPaths(configPath string) []string {
	paths := []string{filepath.Join(filepath.Dir(configPath), dotEnvName)}
	if wd, err := os.Getwd(); err == nil {
		local := filepath.Join(wd, dotEnvName)
		if local != paths[0] {
			paths = append(paths, local)
		}
	}
	return paths
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("unable to resolve user home for ~ in config path")
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
