// Package lockfile guards long-running commands against a second instance.
package lockfile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/nguyentantai21042004/awayrec/internal/apperr"
)

// Lock is an exclusive advisory lock held for the life of a command.
type Lock struct {
	path string
	fl   *flock.Flock
}

// Acquire takes the lock at path without blocking. A lock already held by
// another process is a configuration error naming key.
func Acquire(path, key string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, apperr.Config(key, fmt.Sprintf("another instance holds %s", path))
	}
	return &Lock{path: path, fl: fl}, nil
}

func (l *Lock) Path() string {
	return l.path
}

// Release unlocks. Safe on a nil Lock.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	return l.fl.Unlock()
}
