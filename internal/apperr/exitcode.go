package apperr

import "errors"

// Process exit codes of the worker command. The watcher relies on these to
// tell transient failures from permanent ones.
const (
	ExitOK              = 0
	ExitUnexpected      = 1
	ExitInputNotFound   = 2
	ExitToolFailure     = 3
	ExitNetwork         = 4
	ExitConfig          = 5
	ExitEmptyTranscript = 6
)

// ExitCode maps an error returned by the pipeline to its process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrInputNotFound):
		return ExitInputNotFound
	case errors.Is(err, ErrConfigInvalid), errors.Is(err, ErrToolNotFound):
		return ExitConfig
	case errors.Is(err, ErrExtractionFailed), errors.Is(err, ErrTranscriptionFailed):
		return ExitToolFailure
	case errors.Is(err, ErrSummaryHTTP), errors.Is(err, ErrSummaryTransport):
		return ExitNetwork
	case errors.Is(err, ErrEmptyTranscript):
		return ExitEmptyTranscript
	default:
		return ExitUnexpected
	}
}

// Retryable reports whether a worker exit code signals a failure worth trying
// again later.
func Retryable(code int) bool {
	return code == ExitNetwork
}
