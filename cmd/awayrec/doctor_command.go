package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/awayrec/internal/apperr"
	"github.com/nguyentantai21042004/awayrec/internal/preflight"
	"github.com/nguyentantai21042004/awayrec/internal/status"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools, model files and directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			results := preflight.RunAll(cfg)
			fmt.Fprintln(cmd.OutOrStdout(), preflight.Render(results, status.IsTerminal(os.Stdout)))
			if preflight.Failed(results) {
				return apperr.Config("doctor", "one or more required checks failed")
			}
			return nil
		},
	}
}
