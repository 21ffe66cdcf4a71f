package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nguyentantai21042004/awayrec/internal/apperr"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:    "empty config gets defaults",
			config:  Config{},
			wantErr: false,
		},
		{
			name: "gemini provider",
			config: Config{
				Summary: SummaryConfig{Provider: ProviderGemini},
			},
			wantErr: false,
		},
		{
			name: "unknown provider",
			config: Config{
				Summary: SummaryConfig{Provider: "openai"},
			},
			wantErr: true,
		},
		{
			name: "unknown model size",
			config: Config{
				Whisper: WhisperConfig{ModelSize: "large-v3"},
			},
			wantErr: true,
		},
		{
			name: "unknown compute type",
			config: Config{
				Whisper: WhisperConfig{ComputeType: "int4"},
			},
			wantErr: true,
		},
		{
			name: "unknown capture backend",
			config: Config{
				Recorder: RecorderConfig{Capture: CaptureConfig{Backend: "vfwcap"}},
			},
			wantErr: true,
		},
		{
			name: "negative gate duration",
			config: Config{
				Recorder: RecorderConfig{Gate: GateConfig{MinAwayMs: -1}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, apperr.ErrConfigInvalid) {
				t.Errorf("Validate() error should be a config error, got %v", err)
			}
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	var cfg Config
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if cfg.Recorder.Gate.MinAwayMs != 800 || cfg.Recorder.Gate.MinBackMs != 1000 {
		t.Errorf("gate defaults = %d/%d, want 800/1000", cfg.Recorder.Gate.MinAwayMs, cfg.Recorder.Gate.MinBackMs)
	}
	if cfg.Recorder.Capture.GraceMs != 800 || cfg.Recorder.Capture.StopTimeoutMs != 5000 {
		t.Errorf("capture timing defaults = %d/%d", cfg.Recorder.Capture.GraceMs, cfg.Recorder.Capture.StopTimeoutMs)
	}
	if cfg.Summary.ChunkChars != 4000 || cfg.Summary.ChunkThreshold != 4000 {
		t.Errorf("chunk defaults = %d/%d", cfg.Summary.ChunkChars, cfg.Summary.ChunkThreshold)
	}
	if cfg.Summary.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", cfg.Summary.MaxAttempts)
	}
	if cfg.Summary.StreamTimeout != 600 || cfg.Summary.ConnectTimeout != 10 || cfg.Summary.WriteTimeout != 180 {
		t.Errorf("timeout defaults = %d/%d/%d", cfg.Summary.StreamTimeout, cfg.Summary.ConnectTimeout, cfg.Summary.WriteTimeout)
	}
	if cfg.Summary.SessionID != "video-summary-cli" {
		t.Errorf("SessionID = %q", cfg.Summary.SessionID)
	}
	if cfg.Whisper.ModelSize != "base" || cfg.Whisper.ComputeType != "int8" {
		t.Errorf("whisper defaults = %s/%s", cfg.Whisper.ModelSize, cfg.Whisper.ComputeType)
	}
	if len(cfg.Watcher.Extensions) != len(DefaultExtensions) {
		t.Errorf("Extensions = %v", cfg.Watcher.Extensions)
	}
	if cfg.Recap.Capacity != 60 {
		t.Errorf("Recap.Capacity = %d, want 60", cfg.Recap.Capacity)
	}
}

func TestValidateWorker(t *testing.T) {
	tests := []struct {
		name    string
		summary SummaryConfig
		vad     string
		wantKey string
	}{
		{
			name:    "complete workspace config",
			summary: SummaryConfig{APIKey: "k", BaseURL: "http://localhost:3001/api/v1", WorkspaceSlug: "notes"},
			vad:     "models/ggml-silero.bin",
		},
		{
			name:    "missing api key",
			summary: SummaryConfig{BaseURL: "http://x", WorkspaceSlug: "notes"},
			vad:     "vad.bin",
			wantKey: "summary.api_key",
		},
		{
			name:    "missing slug",
			summary: SummaryConfig{APIKey: "k", BaseURL: "http://x"},
			vad:     "vad.bin",
			wantKey: "summary.workspace_slug",
		},
		{
			name:    "gemini without keys",
			summary: SummaryConfig{Provider: ProviderGemini},
			vad:     "vad.bin",
			wantKey: "summary.api_keys",
		},
		{
			name:    "missing vad model",
			summary: SummaryConfig{APIKey: "k", BaseURL: "http://x", WorkspaceSlug: "notes"},
			wantKey: "whisper.vad_model_path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Summary: tt.summary, Whisper: WhisperConfig{VADModelPath: tt.vad}}
			if err := cfg.Validate(); err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			err := cfg.ValidateWorker()
			if tt.wantKey == "" {
				if err != nil {
					t.Fatalf("ValidateWorker() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("ValidateWorker() expected error naming %s", tt.wantKey)
			}
			if !errors.Is(err, apperr.ErrConfigInvalid) {
				t.Errorf("expected config error, got %v", err)
			}
			if got := err.Error(); !strings.Contains(got, tt.wantKey) {
				t.Errorf("error %q does not name %s", got, tt.wantKey)
			}
		})
	}
}

func TestGeminiKeysDeduplicates(t *testing.T) {
	cfg := Config{Summary: SummaryConfig{APIKey: "a", APIKeys: []string{"a", " b ", ""}}}
	keys := cfg.GeminiKeys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("GeminiKeys() = %v, want [a b]", keys)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
summary:
  api_key: "file-key"
  base_url: "http://localhost:3001/api/v1/"
  workspace_slug: "meetings"
  stream: true
  stream_timeout: 300

whisper:
  binary_path: "./whisper-cli"
  model_size: "small"
  vad_model_path: "models/ggml-silero-v5.1.2.bin"

paths:
  recordings: "data/recordings"

recorder:
  gate:
    min_away_ms: 1500

logging:
  level: "debug"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Summary.BaseURL != "http://localhost:3001/api/v1" {
		t.Errorf("BaseURL = %v, trailing slash should be trimmed", cfg.Summary.BaseURL)
	}
	if !cfg.Summary.Stream || cfg.Summary.StreamTimeout != 300 {
		t.Errorf("stream settings = %v/%d", cfg.Summary.Stream, cfg.Summary.StreamTimeout)
	}
	if cfg.Whisper.ModelSize != "small" {
		t.Errorf("ModelSize = %v, want small", cfg.Whisper.ModelSize)
	}
	if cfg.Paths.Recordings != "data/recordings" {
		t.Errorf("Recordings = %v, want data/recordings", cfg.Paths.Recordings)
	}
	if cfg.Recorder.Gate.MinAwayMs != 1500 || cfg.Recorder.Gate.MinBackMs != 1000 {
		t.Errorf("gate = %d/%d, want 1500/1000", cfg.Recorder.Gate.MinAwayMs, cfg.Recorder.Gate.MinBackMs)
	}
	if err := cfg.ValidateWorker(); err != nil {
		t.Errorf("ValidateWorker() error = %v", err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("summary:\n  api_key: file-key\n"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvAPIKey, "env-key")
	t.Setenv(EnvFFmpegPath, "/opt/ffmpeg/bin/ffmpeg")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Summary.APIKey != "env-key" {
		t.Errorf("APIKey = %q, want env-key", cfg.Summary.APIKey)
	}
	if cfg.FFmpeg.Path != "/opt/ffmpeg/bin/ffmpeg" {
		t.Errorf("FFmpeg.Path = %q", cfg.FFmpeg.Path)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("logging:\n  level: info\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(EnvWorkspace+"=from-dotenv\n"), 0600); err != nil {
		t.Fatal(err)
	}
	// godotenv never overrides variables that are already set.
	t.Setenv(EnvWorkspace, "")
	os.Unsetenv(EnvWorkspace)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Summary.WorkspaceSlug != "from-dotenv" {
		t.Errorf("WorkspaceSlug = %q, want from-dotenv", cfg.Summary.WorkspaceSlug)
	}
}

func TestLoadInvalidFile(t *testing.T) {
	_, err := Load("nonexistent.yaml")
	if err == nil {
		t.Fatal("Load() should return error for nonexistent file")
	}
	if !errors.Is(err, apperr.ErrConfigInvalid) {
		t.Errorf("expected config error, got %v", err)
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("summary: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() should fail on malformed YAML")
	}
}

func TestEnsureDirectories(t *testing.T) {
	root := t.TempDir()
	cfg := Config{Paths: PathsConfig{
		Recordings:  filepath.Join(root, "rec"),
		Transcripts: filepath.Join(root, "tx"),
		Summaries:   filepath.Join(root, "sum"),
		Data:        filepath.Join(root, "data"),
	}}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories() error = %v", err)
	}
	for _, dir := range []string{cfg.Paths.Recordings, cfg.Paths.Transcripts, cfg.Paths.Summaries, cfg.Paths.Data} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("expected directory %s", dir)
		}
	}
}

func TestDefault(t *testing.T) {
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Paths.Recordings != "recordings" || cfg.Watcher.MaxRetries != 3 {
		t.Errorf("defaults not applied: %+v", cfg.Paths)
	}
}
