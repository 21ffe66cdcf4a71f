package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nguyentantai21042004/awayrec/internal/apperr"
	"github.com/nguyentantai21042004/awayrec/internal/summarizer"
)

// Process extracts audio, transcribes it and summarizes the transcript. The
// transcript is written before summarizing, the summary before the metadata,
// and the temporary audio is removed on every path.
func (p *implProcessor) Process(ctx context.Context, inputPath string) (*Result, error) {
	startTime := time.Now()

	info, err := os.Stat(inputPath)
	if err != nil || info.IsDir() {
		return nil, apperr.Wrap(apperr.ErrInputNotFound, "input", inputPath, err)
	}

	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	paths := pathsFor(stem, p.settings.OutDir, p.settings.SummaryDir)
	for _, dir := range []string{p.settings.OutDir, p.settings.SummaryDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}

	p.logger.Info(ctx, "========================================")
	p.logger.Info(ctx, "Processing: %s", inputPath)
	p.logger.Info(ctx, "========================================")

	// Step 1: Extract audio
	wavPath, err := p.extractor.Extract(ctx, inputPath)
	if err != nil {
		return nil, err
	}
	defer p.cleanupTempDir(ctx, wavPath)

	// Step 2: Transcribe
	tr, err := p.transcriber.Transcribe(ctx, wavPath, p.settings.Language)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(tr.Text)
	if text == "" {
		return nil, apperr.Wrap(apperr.ErrEmptyTranscript, "transcribe", "transcription produced empty text", nil)
	}

	if err := writeFileAtomic(paths.transcript, []byte(text)); err != nil {
		return nil, fmt.Errorf("write transcript: %w", err)
	}
	p.logger.Info(ctx, "Transcript written: %s (%d chars, %.0fs of audio)", paths.transcript, len(text), tr.DurationSeconds)

	// Step 3: Summarize
	summary, err := p.summarizer.Summarize(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		summary = emptySummary
	}
	if err := writeFileAtomic(paths.summary, []byte(summary)); err != nil {
		return nil, fmt.Errorf("write summary: %w", err)
	}

	result := &Result{
		Transcript: Transcript{
			Text:            text,
			DurationSeconds: tr.DurationSeconds,
			SourcePath:      inputPath,
		},
		TranscriptPath: paths.transcript,
		SummaryPath:    paths.summary,
		MetaPath:       paths.meta,
	}

	if p.settings.Docx {
		if err := summarizer.WriteDocx(stem, summary, paths.docx); err != nil {
			p.logger.Warn(ctx, "Failed to write %s: %v", paths.docx, err)
		} else {
			result.DocxPath = paths.docx
		}
	}

	// Step 4: Metadata, last so its presence marks a complete run
	meta := Metadata{
		InputVideo:      inputPath,
		DurationSeconds: int(tr.DurationSeconds),
		Whisper: WhisperMetadata{
			ModelSize:    p.settings.ModelSize,
			ComputeType:  p.settings.ComputeType,
			LanguageHint: p.settings.Language,
		},
		FFmpegPath: p.settings.FFmpegPath,
		Outputs: OutputsMetadata{
			Transcript: paths.transcript,
			Summary:    paths.summary,
		},
	}
	if err := writeMetadata(paths.meta, meta); err != nil {
		return nil, fmt.Errorf("write metadata: %w", err)
	}

	p.logger.Info(ctx, "========================================")
	p.logger.Info(ctx, "Processing completed in %s", time.Since(startTime).Round(time.Millisecond))
	p.logger.Info(ctx, "Transcript: %s", paths.transcript)
	p.logger.Info(ctx, "Summary: %s", paths.summary)
	p.logger.Info(ctx, "Metadata: %s", paths.meta)
	p.logger.Info(ctx, "========================================")

	return result, nil
}
