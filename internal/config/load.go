package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/nguyentantai21042004/awayrec/internal/apperr"
)

// Environment variables that take precedence over the YAML file.
const (
	EnvAPIKey     = "AWAYREC_API_KEY"
	EnvBaseURL    = "AWAYREC_BASE_URL"
	EnvWorkspace  = "AWAYREC_WORKSPACE"
	EnvFFmpegPath = "AWAYREC_FFMPEG_PATH"
	EnvLogLevel   = "AWAYREC_LOG_LEVEL"
)

// Load reads the YAML file at path, applies a sibling .env file and
// environment overrides, then validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrConfigInvalid, "read config", path, err)
	}

	envFile := filepath.Join(filepath.Dir(path), ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, apperr.Wrap(apperr.ErrConfigInvalid, "load env file", envFile, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, apperr.Wrap(apperr.ErrConfigInvalid, "parse config", path, err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate %s: %w", path, err)
	}
	return &cfg, nil
}

// Default returns the built-in configuration with environment overrides
// applied, for commands run without a config file.
func Default() (*Config, error) {
	var cfg Config
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.Summary.APIKey = v
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.Summary.BaseURL = v
	}
	if v := os.Getenv(EnvWorkspace); v != "" {
		c.Summary.WorkspaceSlug = v
	}
	if v := os.Getenv(EnvFFmpegPath); v != "" {
		c.FFmpeg.Path = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
}

// EnsureDirectories creates the output directories used by the recorder,
// worker and watcher.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.Recordings,
		c.Paths.Transcripts,
		c.Paths.Summaries,
		c.Paths.Data,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}
