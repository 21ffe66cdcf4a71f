package processor

import "context"

// Processor runs the transcription and summarization pipeline for one input.
type Processor interface {
	Process(ctx context.Context, inputPath string) (*Result, error)
}

// AudioExtractor converts a media file into a 16 kHz mono WAV inside a fresh
// temporary directory. The caller removes filepath.Dir of the returned path.
type AudioExtractor interface {
	Extract(ctx context.Context, inputPath string) (string, error)
}

// Transcript is the recognised text of one input.
type Transcript struct {
	Text            string
	DurationSeconds float64
	SourcePath      string
}

// Result lists what a successful run produced. DocxPath is empty unless the
// Word export is enabled and succeeded.
type Result struct {
	Transcript     Transcript
	TranscriptPath string
	SummaryPath    string
	DocxPath       string
	MetaPath       string
}
