package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/awayrec/internal/ledger"
	"github.com/nguyentantai21042004/awayrec/internal/status"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show recordings and which artifacts exist for each",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			var entries []ledger.Entry
			dbPath := filepath.Join(cfg.Paths.Data, "ledger.db")
			if fileExists(dbPath) {
				store, err := ledger.Open(cmd.Context(), dbPath)
				if err != nil {
					return err
				}
				defer store.Close()
				if entries, err = store.List(cmd.Context()); err != nil {
					return err
				}
			}

			rows, err := status.Scan(status.Dirs{
				Recordings:  cfg.Paths.Recordings,
				Transcripts: cfg.Paths.Transcripts,
				Summaries:   cfg.Paths.Summaries,
			}, cfg.Watcher.Extensions, entries)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), status.Render(rows, status.IsTerminal(os.Stdout)))
			return nil
		},
	}
}
