package ledger

import "time"

// Status is the processing state of one recording.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusRetry      Status = "retry"
	StatusFailed     Status = "failed"
)

// Entry is one row of the ledger.
type Entry struct {
	Path      string
	Status    Status
	Attempts  int
	ExitCode  *int
	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
}
