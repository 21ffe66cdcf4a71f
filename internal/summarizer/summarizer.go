package summarizer

import (
	"context"
	"fmt"
	"strings"
)

// Summarize sends short transcripts in one call. Longer ones are split into
// contiguous rune chunks, each summarized, and the non-empty results merged
// by a final combine call on the "-merge" session.
func (s *implSummarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	runes := []rune(transcript)
	if len(runes) <= s.threshold {
		s.logger.Info(ctx, "Summarizing transcript (%d chars)", len(runes))
		return s.client.Chat(ctx, SummaryPrompt(transcript), s.sessionID)
	}

	chunks := splitRunes(runes, s.chunkChars)
	summaries := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		s.logger.Info(ctx, "Summarizing chunk %d/%d", i+1, len(chunks))
		text, err := s.client.Chat(ctx, SummaryPrompt(chunk), s.sessionID)
		if err != nil {
			return "", fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
		if strings.TrimSpace(text) != "" {
			summaries = append(summaries, text)
		}
	}

	if len(summaries) == 0 {
		s.logger.Warn(ctx, "Every chunk summary was empty, skipping combine")
		return "", nil
	}

	s.logger.Info(ctx, "Combining %d chunk summaries", len(summaries))
	text, err := s.client.Chat(ctx, CombinePrompt(summaries), s.sessionID+"-merge")
	if err != nil {
		return "", fmt.Errorf("combine: %w", err)
	}
	return text, nil
}

// splitRunes cuts runes into consecutive chunks of at most size runes.
func splitRunes(runes []rune, size int) []string {
	chunks := make([]string, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := min(start+size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
