package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/awayrec/internal/ffmpeg"
)

func newDevicesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List camera and audio capture devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			ffmpegPath, err := ffmpeg.Resolve(cfg.FFmpeg.Path)
			if err != nil {
				return err
			}

			video, audio, err := ffmpeg.NewLister(ffmpegPath).ListCaptureDevices(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Video devices:")
			printDevices(out, video)
			fmt.Fprintln(out, "Audio devices:")
			printDevices(out, audio)
			return nil
		},
	}
}
