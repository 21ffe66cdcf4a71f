package main

import (
	"context"
	"errors"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/awayrec/internal/recap"
)

func newRecapCommand(ctx *commandContext) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "recap",
		Short: "Serve a rolling recap of recent transcript pieces over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Recap.Addr = addr
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscallSignals()...)
			defer stop()

			log := ctx.logger()
			defer log.Sync()

			srv := recap.New(recap.Options{
				Capacity:      cfg.Recap.Capacity,
				WindowMinutes: cfg.Recap.WindowMinutes,
				Logger:        log,
			})
			if err := srv.ListenAndServe(runCtx, cfg.Recap.Addr); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default recap.addr)")
	return cmd
}
