package summarizer

import (
	"github.com/nguyentantai21042004/awayrec/internal/config"
	"github.com/nguyentantai21042004/awayrec/internal/logger"
)

const (
	defaultSessionID  = "video-summary-cli"
	defaultChunkChars = 4000
)

type implSummarizer struct {
	client     ChatClient
	sessionID  string
	chunkChars int
	threshold  int
	logger     logger.Logger
}

// New creates a Summarizer for the configured provider.
func New(cfg config.SummaryConfig, log logger.Logger, opts ...Option) Summarizer {
	var client ChatClient
	switch cfg.Provider {
	case config.ProviderGemini:
		client = NewGeminiClient(cfg.GeminiKeys(), cfg.GeminiModel, log)
	default:
		client = NewWorkspaceClient(cfg, log, opts...)
	}
	return NewWithClient(client, cfg, log)
}

// NewWithClient creates a Summarizer around an existing ChatClient.
func NewWithClient(client ChatClient, cfg config.SummaryConfig, log logger.Logger) Summarizer {
	s := &implSummarizer{
		client:     client,
		sessionID:  cfg.SessionID,
		chunkChars: cfg.ChunkChars,
		threshold:  cfg.ChunkThreshold,
		logger:     log,
	}
	if s.sessionID == "" {
		s.sessionID = defaultSessionID
	}
	if s.chunkChars <= 0 {
		s.chunkChars = defaultChunkChars
	}
	if s.threshold <= 0 {
		s.threshold = s.chunkChars
	}
	return s
}
