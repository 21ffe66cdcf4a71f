package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/nguyentantai21042004/awayrec/internal/apperr"
)

type Config struct {
	Summary  SummaryConfig  `yaml:"summary"`
	Whisper  WhisperConfig  `yaml:"whisper"`
	FFmpeg   FFmpegConfig   `yaml:"ffmpeg"`
	Paths    PathsConfig    `yaml:"paths"`
	Recorder RecorderConfig `yaml:"recorder"`
	Watcher  WatcherConfig  `yaml:"watcher"`
	Recap    RecapConfig    `yaml:"recap"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type SummaryConfig struct {
	Provider       string   `yaml:"provider"`
	APIKey         string   `yaml:"api_key"`
	APIKeys        []string `yaml:"api_keys"`
	BaseURL        string   `yaml:"base_url"`
	WorkspaceSlug  string   `yaml:"workspace_slug"`
	Stream         bool     `yaml:"stream"`
	StreamTimeout  int      `yaml:"stream_timeout"`
	ConnectTimeout int      `yaml:"connect_timeout"`
	WriteTimeout   int      `yaml:"write_timeout"`
	PoolTimeout    int      `yaml:"pool_timeout"`
	SessionID      string   `yaml:"session_id"`
	ChunkChars     int      `yaml:"chunk_chars"`
	ChunkThreshold int      `yaml:"chunk_threshold"`
	MaxAttempts    int      `yaml:"max_attempts"`
	GeminiModel    string   `yaml:"gemini_model"`
	Docx           bool     `yaml:"docx"`
}

type WhisperConfig struct {
	BinaryPath   string `yaml:"binary_path"`
	ModelsDir    string `yaml:"models_dir"`
	ModelSize    string `yaml:"model_size"`
	ComputeType  string `yaml:"compute_type"`
	Language     string `yaml:"language"`
	VADModelPath string `yaml:"vad_model_path"`
	Threads      int    `yaml:"threads"`
}

type FFmpegConfig struct {
	Path string `yaml:"path"`
}

type PathsConfig struct {
	Recordings  string `yaml:"recordings"`
	Transcripts string `yaml:"transcripts"`
	Summaries   string `yaml:"summaries"`
	Data        string `yaml:"data"`
}

type RecorderConfig struct {
	Camera   CameraConfig   `yaml:"camera"`
	Presence PresenceConfig `yaml:"presence"`
	Gate     GateConfig     `yaml:"gate"`
	Capture  CaptureConfig  `yaml:"capture"`
}

type CameraConfig struct {
	Format string `yaml:"format"`
	Device string `yaml:"device"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	FPS    int    `yaml:"fps"`
}

type PresenceConfig struct {
	FaceCascade   string  `yaml:"face_cascade"`
	PuplocCascade string  `yaml:"puploc_cascade"`
	MinFaceSize   int     `yaml:"min_face_size"`
	MinQuality    float64 `yaml:"min_quality"`
	HashDistance  int     `yaml:"hash_distance"`
	MaxReuse      int     `yaml:"max_reuse"`
}

type GateConfig struct {
	MinAwayMs int `yaml:"min_away_ms"`
	MinBackMs int `yaml:"min_back_ms"`
}

type CaptureConfig struct {
	Backend       string `yaml:"backend"`
	Alternate     string `yaml:"alternate"`
	Display       string `yaml:"display"`
	Region        string `yaml:"region"`
	FPS           int    `yaml:"fps"`
	CRF           int    `yaml:"crf"`
	Preset        string `yaml:"preset"`
	AudioBackend  string `yaml:"audio_backend"`
	AudioDevice   string `yaml:"audio_device"`
	NoAudio       bool   `yaml:"no_audio"`
	GraceMs       int    `yaml:"grace_ms"`
	StopTimeoutMs int    `yaml:"stop_timeout_ms"`
	DebugLogs     bool   `yaml:"debug_logs"`
}

type WatcherConfig struct {
	PollIntervalSec int      `yaml:"poll_interval_sec"`
	StabilityWaitMs int      `yaml:"stability_wait_ms"`
	MaxConcurrent   int      `yaml:"max_concurrent"`
	MaxRetries      int      `yaml:"max_retries"`
	Extensions      []string `yaml:"extensions"`
}

type RecapConfig struct {
	Addr          string `yaml:"addr"`
	Capacity      int    `yaml:"capacity"`
	WindowMinutes int    `yaml:"window_minutes"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

const (
	ProviderWorkspace = "workspace"
	ProviderGemini    = "gemini"
)

var (
	modelSizes   = []string{"tiny", "base", "small"}
	computeTypes = []string{"int8", "int8_float16", "float16", "float32"}
	backends     = []string{"gdigrab", "ddagrab", "x11grab", "avfoundation"}
)

// DefaultExtensions lists the media types the watcher hands to the worker.
var DefaultExtensions = []string{".mp4", ".mov", ".mkv", ".webm", ".avi", ".mp3", ".wav", ".m4a", ".aac", ".flac", ".ogg"}

// Validate fills defaults and rejects values no component can use.
func (c *Config) Validate() error {
	c.applyDefaults()

	if c.Summary.Provider != ProviderWorkspace && c.Summary.Provider != ProviderGemini {
		return apperr.Config("summary.provider", fmt.Sprintf("unsupported provider %q", c.Summary.Provider))
	}
	if !contains(modelSizes, c.Whisper.ModelSize) {
		return apperr.Config("whisper.model_size", fmt.Sprintf("must be one of %s", strings.Join(modelSizes, ", ")))
	}
	if !contains(computeTypes, c.Whisper.ComputeType) {
		return apperr.Config("whisper.compute_type", fmt.Sprintf("must be one of %s", strings.Join(computeTypes, ", ")))
	}
	if !contains(backends, c.Recorder.Capture.Backend) {
		return apperr.Config("recorder.capture.backend", fmt.Sprintf("unsupported backend %q", c.Recorder.Capture.Backend))
	}
	if c.Recorder.Capture.Alternate != "" && !contains(backends, c.Recorder.Capture.Alternate) {
		return apperr.Config("recorder.capture.alternate", fmt.Sprintf("unsupported backend %q", c.Recorder.Capture.Alternate))
	}
	if c.Summary.ChunkChars < 1 {
		return apperr.Config("summary.chunk_chars", "must be positive")
	}
	if c.Recorder.Gate.MinAwayMs < 0 || c.Recorder.Gate.MinBackMs < 0 {
		return apperr.Config("recorder.gate", "durations must not be negative")
	}

	return nil
}

// ValidateWorker checks the keys the transcription worker cannot run without.
func (c *Config) ValidateWorker() error {
	switch c.Summary.Provider {
	case ProviderWorkspace:
		if c.Summary.APIKey == "" {
			return apperr.Config("summary.api_key", "is required")
		}
		if c.Summary.BaseURL == "" {
			return apperr.Config("summary.base_url", "is required")
		}
		if c.Summary.WorkspaceSlug == "" {
			return apperr.Config("summary.workspace_slug", "is required")
		}
	case ProviderGemini:
		if len(c.GeminiKeys()) == 0 {
			return apperr.Config("summary.api_keys", "at least one key is required")
		}
	}
	if c.Whisper.VADModelPath == "" {
		return apperr.Config("whisper.vad_model_path", "is required")
	}
	return nil
}

// GeminiKeys returns the rotation list, including the single api_key if set.
func (c *Config) GeminiKeys() []string {
	return c.Summary.GeminiKeys()
}

func (s SummaryConfig) GeminiKeys() []string {
	var keys []string
	if s.APIKey != "" {
		keys = append(keys, s.APIKey)
	}
	for _, k := range s.APIKeys {
		if k = strings.TrimSpace(k); k != "" && !contains(keys, k) {
			keys = append(keys, k)
		}
	}
	return keys
}

func (c *Config) applyDefaults() {
	if c.Summary.Provider == "" {
		c.Summary.Provider = ProviderWorkspace
	}
	c.Summary.BaseURL = strings.TrimRight(c.Summary.BaseURL, "/")
	if c.Summary.StreamTimeout == 0 {
		c.Summary.StreamTimeout = 600
	}
	if c.Summary.ConnectTimeout == 0 {
		c.Summary.ConnectTimeout = 10
	}
	if c.Summary.WriteTimeout == 0 {
		c.Summary.WriteTimeout = 180
	}
	if c.Summary.PoolTimeout == 0 {
		c.Summary.PoolTimeout = 60
	}
	if c.Summary.SessionID == "" {
		c.Summary.SessionID = "video-summary-cli"
	}
	if c.Summary.ChunkChars == 0 {
		c.Summary.ChunkChars = 4000
	}
	if c.Summary.ChunkThreshold == 0 {
		c.Summary.ChunkThreshold = c.Summary.ChunkChars
	}
	if c.Summary.MaxAttempts == 0 {
		c.Summary.MaxAttempts = 3
	}
	if c.Summary.GeminiModel == "" {
		c.Summary.GeminiModel = "gemini-2.5-flash"
	}

	if c.Whisper.BinaryPath == "" {
		c.Whisper.BinaryPath = "whisper-cli"
	}
	if c.Whisper.ModelsDir == "" {
		c.Whisper.ModelsDir = "models"
	}
	if c.Whisper.ModelSize == "" {
		c.Whisper.ModelSize = "base"
	}
	if c.Whisper.ComputeType == "" {
		c.Whisper.ComputeType = "int8"
	}
	if c.Whisper.Threads == 0 {
		c.Whisper.Threads = 4
	}

	if c.Paths.Recordings == "" {
		c.Paths.Recordings = "recordings"
	}
	if c.Paths.Transcripts == "" {
		c.Paths.Transcripts = "transcripts"
	}
	if c.Paths.Summaries == "" {
		c.Paths.Summaries = "summaries"
	}
	if c.Paths.Data == "" {
		c.Paths.Data = "data"
	}

	c.applyRecorderDefaults()

	if c.Watcher.PollIntervalSec == 0 {
		c.Watcher.PollIntervalSec = 5
	}
	if c.Watcher.StabilityWaitMs == 0 {
		c.Watcher.StabilityWaitMs = 1000
	}
	if c.Watcher.MaxConcurrent == 0 {
		c.Watcher.MaxConcurrent = 1
	}
	if c.Watcher.MaxRetries == 0 {
		c.Watcher.MaxRetries = 3
	}
	if len(c.Watcher.Extensions) == 0 {
		c.Watcher.Extensions = append([]string(nil), DefaultExtensions...)
	}

	if c.Recap.Addr == "" {
		c.Recap.Addr = "127.0.0.1:8000"
	}
	if c.Recap.Capacity == 0 {
		c.Recap.Capacity = 60
	}
	if c.Recap.WindowMinutes == 0 {
		c.Recap.WindowMinutes = 5
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
}

func (c *Config) applyRecorderDefaults() {
	cam := &c.Recorder.Camera
	if cam.Format == "" {
		switch runtime.GOOS {
		case "windows":
			cam.Format = "dshow"
		case "darwin":
			cam.Format = "avfoundation"
		default:
			cam.Format = "v4l2"
		}
	}
	if cam.Device == "" {
		switch cam.Format {
		case "v4l2":
			cam.Device = "/dev/video0"
		case "avfoundation":
			cam.Device = "0"
		}
	}
	if cam.Width == 0 {
		cam.Width = 320
	}
	if cam.Height == 0 {
		cam.Height = 240
	}
	if cam.FPS == 0 {
		cam.FPS = 20
	}

	p := &c.Recorder.Presence
	if p.FaceCascade == "" {
		p.FaceCascade = "cascade/facefinder"
	}
	if p.MinFaceSize == 0 {
		p.MinFaceSize = 40
	}
	if p.MinQuality == 0 {
		p.MinQuality = 5.0
	}
	if p.HashDistance == 0 {
		p.HashDistance = 2
	}
	if p.MaxReuse == 0 {
		p.MaxReuse = 10
	}

	if c.Recorder.Gate.MinAwayMs == 0 {
		c.Recorder.Gate.MinAwayMs = 800
	}
	if c.Recorder.Gate.MinBackMs == 0 {
		c.Recorder.Gate.MinBackMs = 1000
	}

	cp := &c.Recorder.Capture
	if cp.Backend == "" {
		switch runtime.GOOS {
		case "windows":
			cp.Backend = "gdigrab"
			if cp.Alternate == "" {
				cp.Alternate = "ddagrab"
			}
		case "darwin":
			cp.Backend = "avfoundation"
		default:
			cp.Backend = "x11grab"
		}
	}
	if cp.Alternate == "" {
		switch cp.Backend {
		case "gdigrab":
			cp.Alternate = "ddagrab"
		case "ddagrab":
			cp.Alternate = "gdigrab"
		}
	}
	if cp.Display == "" {
		switch cp.Backend {
		case "x11grab":
			cp.Display = ":0.0"
		case "avfoundation":
			cp.Display = "1"
		}
	}
	if cp.FPS == 0 {
		cp.FPS = 30
	}
	if cp.CRF == 0 {
		cp.CRF = 23
	}
	if cp.Preset == "" {
		cp.Preset = "veryfast"
	}
	if cp.GraceMs == 0 {
		cp.GraceMs = 800
	}
	if cp.StopTimeoutMs == 0 {
		cp.StopTimeoutMs = 5000
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
