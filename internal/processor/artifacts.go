package processor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const emptySummary = "_(empty)_"

// Metadata is written last as <stem>.meta.json.
type Metadata struct {
	InputVideo      string          `json:"input_video"`
	DurationSeconds int             `json:"duration_seconds"`
	Whisper         WhisperMetadata `json:"whisper"`
	FFmpegPath      string          `json:"ffmpeg_path"`
	Outputs         OutputsMetadata `json:"outputs"`
}

type WhisperMetadata struct {
	ModelSize    string `json:"model_size"`
	ComputeType  string `json:"compute_type"`
	LanguageHint string `json:"language_hint"`
}

type OutputsMetadata struct {
	Transcript string `json:"transcript"`
	Summary    string `json:"summary"`
}

// artifactPaths names every output of one input stem.
type artifactPaths struct {
	transcript string
	summary    string
	docx       string
	meta       string
}

func pathsFor(stem, outDir, summaryDir string) artifactPaths {
	return artifactPaths{
		transcript: filepath.Join(outDir, stem+".transcript.txt"),
		summary:    filepath.Join(summaryDir, stem+".summary.md"),
		docx:       filepath.Join(summaryDir, stem+".summary.docx"),
		meta:       filepath.Join(outDir, stem+".meta.json"),
	}
}

// ReadMetadata loads a meta.json written by a previous run.
func ReadMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &m, nil
}

func writeMetadata(path string, m Metadata) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	return writeFileAtomic(path, data)
}

// writeFileAtomic writes through a temp file in the target directory and
// renames it into place, so readers never see a partial file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
