package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInputNotFound       = errors.New("input not found")
	ErrToolNotFound        = errors.New("tool not found")
	ErrExtractionFailed    = errors.New("audio extraction failed")
	ErrTranscriptionFailed = errors.New("transcription failed")
	ErrCaptureUnavailable  = errors.New("capture unavailable")
	ErrEmptyTranscript     = errors.New("empty transcript")
	ErrSummaryHTTP         = errors.New("summary http error")
	ErrSummaryTransport    = errors.New("summary transport error")
	ErrConfigInvalid       = errors.New("invalid configuration")
)

// Wrap tags err with one of the kinds above and prefixes it with the operation
// context. Both the kind and err remain reachable through errors.Is.
func Wrap(kind error, op, message string, err error) error {
	detail := buildDetail(op, message)
	if kind == nil {
		if err == nil {
			return errors.New(detail)
		}
		return fmt.Errorf("%s: %w", detail, err)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", kind, detail, err)
	}
	return fmt.Errorf("%w: %s", kind, detail)
}

// Config reports a missing or invalid configuration key.
func Config(key, message string) error {
	return Wrap(ErrConfigInvalid, key, message, nil)
}

func buildDetail(op, message string) string {
	parts := make([]string, 0, 2)
	if op = strings.TrimSpace(op); op != "" {
		parts = append(parts, op)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "failure"
	}
	return strings.Join(parts, ": ")
}
