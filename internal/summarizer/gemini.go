package summarizer

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/nguyentantai21042004/awayrec/internal/apperr"
	"github.com/nguyentantai21042004/awayrec/internal/logger"
	"google.golang.org/genai"
)

// geminiClient sends prompts to Gemini, rotating through API keys when one
// hits its quota. Gemini has no chat sessions, so the session ID is unused.
type geminiClient struct {
	mu         sync.Mutex
	apiKeys    []string
	currentKey int
	model      string
	logger     logger.Logger
}

// NewGeminiClient returns a ChatClient that uses the supplied keys in turn.
func NewGeminiClient(apiKeys []string, model string, log logger.Logger) ChatClient {
	return &geminiClient{
		apiKeys: apiKeys,
		model:   model,
		logger:  log,
	}
}

func (g *geminiClient) Chat(ctx context.Context, message, _ string) (string, error) {
	if len(g.apiKeys) == 0 {
		return "", apperr.Config("summary.api_keys", "no Gemini API key configured")
	}

	var lastErr error
	for range g.apiKeys {
		key := g.key()

		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  key,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			lastErr = fmt.Errorf("create client: %w", err)
			g.rotate()
			continue
		}

		result, err := client.Models.GenerateContent(ctx, g.model, genai.Text(message), nil)
		if err != nil {
			if isQuotaError(err) {
				g.logger.Warn(ctx, "Gemini key %s rate limited, rotating", logger.Redact(key))
				g.rotate()
				lastErr = err
				continue
			}
			return "", apperr.Wrap(apperr.ErrSummaryHTTP, "gemini", "generate content", err)
		}

		return strings.TrimSpace(responseText(result)), nil
	}

	return "", apperr.Wrap(apperr.ErrSummaryTransport, "gemini", "all API keys exhausted", lastErr)
}

func (g *geminiClient) key() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.apiKeys[g.currentKey]
}

func (g *geminiClient) rotate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.currentKey = (g.currentKey + 1) % len(g.apiKeys)
}

func isQuotaError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "quota") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

func responseText(result *genai.GenerateContentResponse) string {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}
