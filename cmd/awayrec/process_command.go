package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/awayrec/internal/ffmpeg"
	"github.com/nguyentantai21042004/awayrec/internal/logger"
	"github.com/nguyentantai21042004/awayrec/internal/processor"
	"github.com/nguyentantai21042004/awayrec/internal/summarizer"
	"github.com/nguyentantai21042004/awayrec/internal/transcriber"
	"github.com/nguyentantai21042004/awayrec/pkg/executor"
)

type processFlags struct {
	input       string
	outDir      string
	summaryDir  string
	modelSize   string
	computeType string
	language    string
}

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var flags processFlags

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Transcribe and summarize one recording",
		Long: "Extracts audio from the input, transcribes it with whisper.cpp and writes\n" +
			"<stem>.transcript.txt, <stem>.summary.md and <stem>.meta.json.\n\n" +
			"Exit codes: 0 ok, 2 input not found, 3 tool failure, 4 network,\n" +
			"5 configuration, 6 empty transcript, 1 unexpected.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("model-size") {
				cfg.Whisper.ModelSize = flags.modelSize
			}
			if cmd.Flags().Changed("compute-type") {
				cfg.Whisper.ComputeType = flags.computeType
			}
			if cmd.Flags().Changed("lang") {
				cfg.Whisper.Language = flags.language
			}
			if err := cfg.ValidateWorker(); err != nil {
				return err
			}

			outDir := cfg.Paths.Transcripts
			summaryDir := cfg.Paths.Summaries
			if cmd.Flags().Changed("out-dir") {
				outDir = flags.outDir
				// Without --summary-dir, summaries land beside the transcript.
				summaryDir = ""
			}
			if cmd.Flags().Changed("summary-dir") {
				summaryDir = flags.summaryDir
			}

			log := ctx.logger()
			defer log.Sync()

			runCtx, stop := workerContext(cmd.Context(), log)
			defer stop()
			runCtx = logger.WithRunID(runCtx, uuid.NewString())

			ffmpegPath, err := ffmpeg.Resolve(cfg.FFmpeg.Path)
			if err != nil {
				return err
			}

			exec := executor.New()
			models := transcriber.NewModelCache(cfg.Whisper.ModelsDir)
			proc := processor.New(
				processor.Settings{
					OutDir:      outDir,
					SummaryDir:  summaryDir,
					FFmpegPath:  ffmpegPath,
					ModelSize:   cfg.Whisper.ModelSize,
					ComputeType: cfg.Whisper.ComputeType,
					Language:    cfg.Whisper.Language,
					Docx:        cfg.Summary.Docx,
				},
				processor.NewAudioExtractor(ffmpegPath, "", exec, log),
				transcriber.New(cfg.Whisper, models, exec, log),
				summarizer.New(cfg.Summary, log),
				log,
			)

			res, err := proc.Process(runCtx, flags.input)
			if err != nil {
				log.Error(runCtx, "Processing %s failed: %v", flags.input, err)
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "transcript: %s\n", res.TranscriptPath)
			fmt.Fprintf(out, "summary:    %s\n", res.SummaryPath)
			if res.DocxPath != "" {
				fmt.Fprintf(out, "docx:       %s\n", res.DocxPath)
			}
			fmt.Fprintf(out, "meta:       %s\n", res.MetaPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.input, "input", "i", "", "Video or audio file to process")
	cmd.Flags().StringVarP(&flags.outDir, "out-dir", "o", "", "Directory for transcript and metadata (default paths.transcripts)")
	cmd.Flags().StringVar(&flags.summaryDir, "summary-dir", "", "Directory for the summary (default: out dir, or paths.summaries)")
	cmd.Flags().StringVar(&flags.modelSize, "model-size", "base", "Whisper model size: tiny, base or small")
	cmd.Flags().StringVar(&flags.computeType, "compute-type", "int8", "Whisper compute type: int8, int8_float16, float16 or float32")
	cmd.Flags().StringVar(&flags.language, "lang", "", "Language hint, e.g. en (default: auto-detect)")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// workerContext detaches the pipeline from the caller's cancellation. The
// first interrupt only logs so the current file finishes with its artifacts;
// a second one aborts.
func workerContext(parent context.Context, log logger.Logger) (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscallSignals()...)

	go func() {
		select {
		case <-sigCh:
			log.Warn(ctx, "Interrupt received, finishing the current file (interrupt again to abort)")
		case <-ctx.Done():
			return
		}
		select {
		case <-sigCh:
			log.Warn(ctx, "Second interrupt, aborting")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}
