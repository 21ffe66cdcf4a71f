package summarizer

import "context"

// Summarizer turns a transcript into a short executive summary. An empty
// result means the endpoint had nothing to say.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

// ChatClient sends one prompt to a text-generation endpoint.
type ChatClient interface {
	Chat(ctx context.Context, message, sessionID string) (string, error)
}
