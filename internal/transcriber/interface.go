package transcriber

import "context"

// Transcriber turns a 16 kHz mono WAV file into text.
type Transcriber interface {
	// Transcribe runs speech-to-text on audioPath. language is a hint; empty
	// or "auto" lets the model detect it. Empty text is a valid result.
	Transcribe(ctx context.Context, audioPath, language string) (Result, error)
}

// Segment is one timed piece of the transcript.
type Segment struct {
	Text string
	From string
	To   string
}

// Result is the outcome of one transcription.
type Result struct {
	Text            string
	DurationSeconds float64
	Language        string
	Segments        []Segment
}
