package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/neurodesk/condtag/pkg/validator"
	"gopkg.in/yaml.v3"
)

const (
	ModeSync  = "sync"
	ModeAsync = "async"
)

var (
	logLevels = []string{"debug", "info", "warn", "error"}
	modes     = []string{ModeSync, ModeAsync}
)

// Config is the contents of condtag.yaml.
type Config struct {
	LogLevel string         `yaml:"log_level"`
	Mode     string         `yaml:"mode"`
	CacheDir string         `yaml:"cache_dir"`
	Vars     map[string]any `yaml:"vars,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	dir := "~/.cache/condtag"
	if base, err := os.UserCacheDir(); err == nil {
		dir = filepath.Join(base, "condtag")
	}
	return Config{
		LogLevel: "info",
		Mode:     ModeSync,
		CacheDir: dir,
	}
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return cfg, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return cfg, fmt.Errorf("decoding config file %s: %w", path, err)
		}
	}
	cfg.ApplyEnv()

	dir, err := expandHome(cfg.CacheDir)
	if err != nil {
		return cfg, err
	}
	cfg.CacheDir = dir
	return cfg, nil
}

// ApplyEnv overrides fields from CONDTAG_LOG_LEVEL, CONDTAG_MODE and
// CONDTAG_CACHE_DIR.
func (c *Config) ApplyEnv() {
	if val := os.Getenv("CONDTAG_LOG_LEVEL"); val != "" {
		c.LogLevel = strings.ToLower(val)
	}
	if val := os.Getenv("CONDTAG_MODE"); val != "" {
		c.Mode = strings.ToLower(val)
	}
	if val := os.Getenv("CONDTAG_CACHE_DIR"); val != "" {
		c.CacheDir = val
	}
}

func (c Config) Validate() error {
	return validator.All(
		validator.MatchesAllowed(c.LogLevel, logLevels, "log_level"),
		validator.MatchesAllowed(c.Mode, modes, "mode"),
		validator.NotEmpty(c.CacheDir, "cache_dir"),
		validator.HasNoPlaceholder(c.CacheDir, "cache_dir"),
		validator.MapDict(c.Vars, func(name string, _ any) error {
			return validator.Identifier(name, "variable name")
		}, "vars"),
	)
}

// SlogLevel maps LogLevel to a slog level. Unknown names map to info.
func (c Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expanding %s: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
