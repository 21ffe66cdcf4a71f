package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/awayrec/internal/ledger"
	"github.com/nguyentantai21042004/awayrec/internal/lockfile"
	"github.com/nguyentantai21042004/awayrec/internal/watcher"
	"github.com/nguyentantai21042004/awayrec/pkg/executor"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Process new recordings as they appear",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscallSignals()...)
			defer stop()

			log := ctx.logger()
			defer log.Sync()

			lock, err := lockfile.Acquire(filepath.Join(cfg.Paths.Data, "watcher.lock"), "watcher")
			if err != nil {
				return err
			}
			defer lock.Release()

			store, err := ledger.Open(runCtx, filepath.Join(cfg.Paths.Data, "ledger.db"))
			if err != nil {
				return err
			}
			defer store.Close()

			self, err := os.Executable()
			if err != nil {
				return fmt.Errorf("locate executable: %w", err)
			}
			var configPath string
			if ctx.explicitConfig || fileExists(ctx.configPath()) {
				configPath = ctx.configPath()
			}

			handler := watcher.NewProcessHandler(watcher.ProcessCommand{
				Executable: self,
				ConfigPath: configPath,
				OutDir:     cfg.Paths.Transcripts,
				SummaryDir: cfg.Paths.Summaries,
			}, executor.New(), log)

			wc := cfg.Watcher
			w, err := watcher.New(watcher.Options{
				Dir:           cfg.Paths.Recordings,
				Extensions:    wc.Extensions,
				PollInterval:  time.Duration(wc.PollIntervalSec) * time.Second,
				StabilityWait: time.Duration(wc.StabilityWaitMs) * time.Millisecond,
				MaxConcurrent: wc.MaxConcurrent,
				MaxRetries:    wc.MaxRetries,
				Ledger:        store,
				Handler:       handler,
				Logger:        log,
			})
			if err != nil {
				return err
			}
			defer w.Stop()

			log.Info(runCtx, "========================================")
			log.Info(runCtx, "Recording watcher is ready")
			log.Info(runCtx, "Monitoring: %s", cfg.Paths.Recordings)
			log.Info(runCtx, "Transcripts: %s", cfg.Paths.Transcripts)
			log.Info(runCtx, "Summaries: %s", cfg.Paths.Summaries)
			log.Info(runCtx, "Press Ctrl+C to stop")
			log.Info(runCtx, "========================================")

			if err := w.Start(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			log.Info(runCtx, "Watcher stopped")
			return nil
		},
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
