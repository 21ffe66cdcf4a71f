package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/nguyentantai21042004/awayrec/internal/apperr"
	"github.com/nguyentantai21042004/awayrec/internal/logger"
	"github.com/nguyentantai21042004/awayrec/pkg/executor"
)

const extractedName = "audio_16k.wav"

type implExtractor struct {
	ffmpegPath string
	executor   executor.Executor
	logger     logger.Logger
	tempDir    string
}

// NewAudioExtractor creates an ffmpeg based AudioExtractor. tempDir may be
// empty to use the system default.
func NewAudioExtractor(ffmpegPath, tempDir string, exec executor.Executor, log logger.Logger) AudioExtractor {
	return &implExtractor{
		ffmpegPath: ffmpegPath,
		executor:   exec,
		logger:     log,
		tempDir:    tempDir,
	}
}

// Extract writes <tmp>/audio_16k.wav: 16 kHz, mono, PCM s16le.
func (e *implExtractor) Extract(ctx context.Context, inputPath string) (string, error) {
	dir, err := os.MkdirTemp(e.tempDir, "vs_")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	wavPath := filepath.Join(dir, extractedName)

	e.logger.Info(ctx, "Extracting audio: %s", inputPath)

	args := []string{
		"-y",
		"-i", inputPath,
		"-ar", "16000",
		"-ac", "1",
		"-c:a", "pcm_s16le",
		wavPath,
	}

	if _, err := e.executor.Execute(ctx, e.ffmpegPath, args...); err != nil {
		removeDir(dir)
		if errors.Is(err, exec.ErrNotFound) {
			return "", apperr.Wrap(apperr.ErrToolNotFound, "ffmpeg", e.ffmpegPath, err)
		}
		return "", apperr.Wrap(apperr.ErrExtractionFailed, "ffmpeg", inputPath, err)
	}

	if info, err := os.Stat(wavPath); err != nil || info.Size() == 0 {
		removeDir(dir)
		return "", apperr.Wrap(apperr.ErrExtractionFailed, "ffmpeg", "did not produce the expected WAV file", nil)
	}

	e.logger.Info(ctx, "Audio extracted: %s", wavPath)
	return wavPath, nil
}

func removeDir(dir string) {
	_ = os.RemoveAll(dir)
}
