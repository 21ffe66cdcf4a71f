package summarizer

import (
	"fmt"

	"github.com/nguyentantai21042004/awayrec/internal/apperr"
)

const maxErrorBody = 800

// HTTPError is a non-2xx reply from the chat endpoint. It is never retried.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("summary HTTP %d: %s", e.StatusCode, e.Body)
}

func (e *HTTPError) Unwrap() error {
	return apperr.ErrSummaryHTTP
}

func newHTTPError(status int, body []byte) *HTTPError {
	return &HTTPError{StatusCode: status, Body: truncate(string(body), maxErrorBody)}
}

// transportError marks a failure that may succeed on another attempt.
type transportError struct {
	err error
}

func (e *transportError) Error() string { return e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
