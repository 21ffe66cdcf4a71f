package transcriber

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-audio/wav"
	"github.com/nguyentantai21042004/awayrec/internal/apperr"
	"github.com/nguyentantai21042004/awayrec/internal/config"
	"github.com/nguyentantai21042004/awayrec/internal/logger"
	"github.com/nguyentantai21042004/awayrec/pkg/executor"
)

type implTranscriber struct {
	cfg      config.WhisperConfig
	models   *ModelCache
	executor executor.Executor
	logger   logger.Logger
}

// New creates a whisper.cpp backed Transcriber.
func New(cfg config.WhisperConfig, models *ModelCache, exec executor.Executor, log logger.Logger) Transcriber {
	return &implTranscriber{
		cfg:      cfg,
		models:   models,
		executor: exec,
		logger:   log,
	}
}

// whisperOutput is the subset of whisper.cpp's -oj output we read.
type whisperOutput struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []struct {
		Timestamps struct {
			From string `json:"from"`
			To   string `json:"to"`
		} `json:"timestamps"`
		Text string `json:"text"`
	} `json:"transcription"`
}

func (t *implTranscriber) Transcribe(ctx context.Context, audioPath, lang string) (Result, error) {
	lang, err := NormalizeLanguage(lang)
	if err != nil {
		return Result{}, err
	}
	if t.cfg.VADModelPath == "" {
		return Result{}, apperr.Config("whisper.vad_model_path", "required")
	}
	model, err := t.models.Get(t.cfg.ModelSize, t.cfg.ComputeType)
	if err != nil {
		return Result{}, err
	}

	duration, err := wavDuration(audioPath)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.ErrTranscriptionFailed, "read wav", audioPath, err)
	}

	prefix := strings.TrimSuffix(audioPath, filepath.Ext(audioPath))
	args := Args(model, audioPath, prefix, t.cfg.Threads, lang, t.cfg.VADModelPath)

	t.logger.Info(ctx, "Transcribing %s (%s, model %s/%s, %d threads)",
		filepath.Base(audioPath), formatSeconds(duration), t.cfg.ModelSize, t.cfg.ComputeType, t.cfg.Threads)
	start := time.Now()

	if _, err := t.executor.Execute(ctx, t.cfg.BinaryPath, args...); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return Result{}, apperr.Wrap(apperr.ErrToolNotFound, "whisper", t.cfg.BinaryPath, err)
		}
		return Result{}, apperr.Wrap(apperr.ErrTranscriptionFailed, "whisper", "", err)
	}

	res, err := readOutput(prefix + ".json")
	if err != nil {
		return Result{}, apperr.Wrap(apperr.ErrTranscriptionFailed, "whisper output", "", err)
	}
	res.DurationSeconds = duration
	if res.Language == "" && lang != "auto" {
		res.Language = lang
	}

	t.logger.Info(ctx, "Transcription completed in %s: %d segments, %d chars",
		time.Since(start).Round(time.Millisecond), len(res.Segments), len(res.Text))
	return res, nil
}

// Args builds the whisper.cpp command line: JSON output, beam size 1, no
// prior-text conditioning and VAD enabled.
func Args(model, audioPath, prefix string, threads int, lang, vadModel string) []string {
	return []string{
		"-m", model,
		"-f", audioPath,
		"-oj",
		"-of", prefix,
		"-t", strconv.Itoa(threads),
		"-bs", "1",
		"-bo", "1",
		"-mc", "0",
		"-l", lang,
		"--vad",
		"--vad-model", vadModel,
	}
}

func readOutput(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, err
	}
	return ParseOutput(data)
}

// ParseOutput decodes whisper.cpp JSON. Segment texts are trimmed, empty
// ones dropped and the rest joined with single spaces.
func ParseOutput(data []byte) (Result, error) {
	var out whisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return Result{}, fmt.Errorf("decode whisper json: %w", err)
	}

	res := Result{Language: out.Result.Language}
	parts := make([]string, 0, len(out.Transcription))
	for _, seg := range out.Transcription {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		parts = append(parts, text)
		res.Segments = append(res.Segments, Segment{Text: text, From: seg.Timestamps.From, To: seg.Timestamps.To})
	}
	res.Text = strings.Join(parts, " ")
	return res, nil
}

func wavDuration(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return 0, fmt.Errorf("%s is not a valid wav file", path)
	}
	dur, err := d.Duration()
	if err != nil {
		return 0, err
	}
	return dur.Seconds(), nil
}

func formatSeconds(s float64) string {
	return (time.Duration(s * float64(time.Second))).Round(time.Second).String()
}
