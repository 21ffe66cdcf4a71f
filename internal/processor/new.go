package processor

import (
	"github.com/nguyentantai21042004/awayrec/internal/logger"
	"github.com/nguyentantai21042004/awayrec/internal/summarizer"
	"github.com/nguyentantai21042004/awayrec/internal/transcriber"
)

// Settings are the per-run choices recorded in the metadata file.
type Settings struct {
	OutDir      string
	SummaryDir  string
	FFmpegPath  string
	ModelSize   string
	ComputeType string
	Language    string
	Docx        bool
}

type implProcessor struct {
	settings    Settings
	extractor   AudioExtractor
	transcriber transcriber.Transcriber
	summarizer  summarizer.Summarizer
	logger      logger.Logger
}

// New creates a Processor. An empty SummaryDir means OutDir.
func New(settings Settings, extractor AudioExtractor, tr transcriber.Transcriber, sum summarizer.Summarizer, log logger.Logger) Processor {
	if settings.SummaryDir == "" {
		settings.SummaryDir = settings.OutDir
	}
	return &implProcessor{
		settings:    settings,
		extractor:   extractor,
		transcriber: tr,
		summarizer:  sum,
		logger:      log,
	}
}
