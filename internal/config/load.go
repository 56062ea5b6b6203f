package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Loaded captures resolved config path, parsed values, and non-fatal warnings.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	Exists   bool
	EnvFiles []string
}

// Load resolves, reads and parses the runtime configuration, applies .env files
// and environment overrides, then validates the result.
func Load(explicitPath string) (Loaded, error) {
	resolvedPath, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}

	loaded := Loaded{Path: resolvedPath, Config: Default()}

	content, err := os.ReadFile(resolvedPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		loaded.Warnings = append(loaded.Warnings, Warning{
			Message: fmt.Sprintf("config file %q not found; using defaults", resolvedPath),
		})
	case err != nil:
		return Loaded{}, fmt.Errorf("read config %q: %w", resolvedPath, err)
	default:
		cfg, warnings, perr := decode(string(content), loaded.Config)
		if perr != nil {
			return Loaded{}, fmt.Errorf("parse config %q: %w", resolvedPath, perr)
		}
		loaded.Config = cfg
		loaded.Warnings = warnings
		loaded.Exists = true
	}

	dotenv, files, err := readDotEnv(dotEnvPaths(resolvedPath)...)
	if err != nil {
		return Loaded{}, err
	}
	loaded.EnvFiles = files

	ApplyEnv(&loaded.Config, func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	})

	validated, err := Validate(loaded.Config)
	if err != nil {
		return Loaded{}, fmt.Errorf("validate config %q: %w", resolvedPath, err)
	}
	loaded.Warnings = append(loaded.Warnings, validated...)
	return loaded, nil
}

// ApplyEnv overlays environment overrides onto cfg.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup("LOCAL_BACKEND_URL"); ok && strings.TrimSpace(v) != "" {
		cfg.Backend.URL = strings.TrimSpace(v)
	}
	if v, ok := lookup("MURMUR_AUDIO_BACKEND"); ok && strings.TrimSpace(v) != "" {
		cfg.Audio.Backend = strings.TrimSpace(v)
	}
	if name := strings.TrimSpace(cfg.Backend.OpenAI.APIKeyEnv); name != "" {
		if v, ok := lookup(name); ok {
			cfg.Backend.OpenAI.APIKey = strings.TrimSpace(v)
		}
	}
}

// readDotEnv merges the given .env files, earlier files winning. Missing files are skipped.
func readDotEnv(paths ...string) (map[string]string, []string, error) {
	merged := make(map[string]string)
	var used []string
	seen := make(map[string]struct{})

	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}

		values, err := godotenv.Read(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, nil, fmt.Errorf("read env file %q: %w", path, err)
		}
		used = append(used, abs)
		for k, v := range values {
			if _, exists := merged[k]; !exists {
				merged[k] = v
			}
		}
	}
	return merged, used, nil
}
