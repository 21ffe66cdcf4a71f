package watcher

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/nguyentantai21042004/awayrec/internal/ledger"
	"github.com/nguyentantai21042004/awayrec/internal/logger"
)

// Options configures a Watcher.
type Options struct {
	Dir           string
	Extensions    []string
	PollInterval  time.Duration
	StabilityWait time.Duration
	MaxConcurrent int
	MaxRetries    int
	Ledger        *ledger.Store
	Handler       EventHandler
	Logger        logger.Logger
}

// New creates a Watcher over opts.Dir, creating the directory if needed.
func New(opts Options) (Watcher, error) {
	if opts.Ledger == nil {
		return nil, errors.New("watcher: ledger is required")
	}
	if opts.Handler == nil {
		return nil, errors.New("watcher: handler is required")
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	if opts.StabilityWait <= 0 {
		opts.StabilityWait = time.Second
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 1
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create watch dir: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(opts.Dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	exts := make(map[string]struct{}, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[ext] = struct{}{}
	}

	return &implWatcher{
		opts:       opts,
		extensions: exts,
		watcher:    fsw,
		sem:        newSemaphore(opts.MaxConcurrent),
		inflight:   make(map[string]struct{}),
	}, nil
}
