package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/awayrec/internal/apperr"
	"github.com/nguyentantai21042004/awayrec/internal/capture"
	"github.com/nguyentantai21042004/awayrec/internal/config"
	"github.com/nguyentantai21042004/awayrec/internal/ffmpeg"
	"github.com/nguyentantai21042004/awayrec/internal/gate"
	"github.com/nguyentantai21042004/awayrec/internal/lockfile"
	"github.com/nguyentantai21042004/awayrec/internal/logger"
	"github.com/nguyentantai21042004/awayrec/internal/presence"
	"github.com/nguyentantai21042004/awayrec/internal/recorder"
	"github.com/nguyentantai21042004/awayrec/pkg/executor"
)

func newRecordCommand(ctx *commandContext) *cobra.Command {
	var noAudio bool
	var region string

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record the screen whenever nobody is in front of the camera",
		Long: "Samples the camera, starts a screen recording once you have been away\n" +
			"long enough and stops it when you are back. Type s, e or q followed by\n" +
			"Enter to force a start, force a stop or quit.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("no-audio") {
				cfg.Recorder.Capture.NoAudio = noAudio
			}
			if cmd.Flags().Changed("region") {
				cfg.Recorder.Capture.Region = region
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscallSignals()...)
			defer stop()
			runCtx = logger.WithRunID(runCtx, uuid.NewString())

			log := ctx.logger()
			defer log.Sync()

			err = runRecorder(runCtx, cfg, log)
			if errors.Is(err, context.Canceled) {
				log.Info(runCtx, "Recorder stopped")
				return nil
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&noAudio, "no-audio", false, "Record video only")
	cmd.Flags().StringVar(&region, "region", "", "Capture region x,y,w,h (default: full screen)")
	return cmd
}

func runRecorder(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	ffmpegPath, err := ffmpeg.Resolve(cfg.FFmpeg.Path)
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	lock, err := lockfile.Acquire(filepath.Join(cfg.Paths.Data, "recorder.lock"), "recorder")
	if err != nil {
		return err
	}
	defer lock.Release()

	capCfg := cfg.Recorder.Capture
	region, err := capture.ParseRegion(capCfg.Region)
	if err != nil {
		return apperr.Config("recorder.capture.region", err.Error())
	}

	var dshowAudio []string
	if runtime.GOOS == "windows" && !capCfg.NoAudio && capCfg.AudioDevice == "" {
		_, dshowAudio, err = ffmpeg.NewLister(ffmpegPath).ListCaptureDevices(ctx)
		if err != nil {
			log.Warn(ctx, "Listing audio devices failed: %v", err)
		}
	}
	audio := capture.PickAudioInput(capture.AudioChoice{
		GOOS:         runtime.GOOS,
		Disabled:     capCfg.NoAudio,
		Backend:      capCfg.AudioBackend,
		Device:       capCfg.AudioDevice,
		DShowDevices: dshowAudio,
	})
	if audio != nil {
		log.Info(ctx, "System audio: %s", audio)
	} else {
		log.Info(ctx, "System audio: disabled")
	}

	detector, err := presence.Select(ctx, cfg.Recorder.Presence, log)
	if err != nil {
		return err
	}
	p := cfg.Recorder.Presence
	detector = presence.NewDeduper(detector, p.HashDistance, p.MaxReuse)

	cameraLog, err := os.OpenFile(filepath.Join(cfg.Paths.Data, "camera.log"), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open camera log: %w", err)
	}
	defer cameraLog.Close()

	starter := executor.NewStarter()
	source, err := presence.NewCameraSource(starter, ffmpegPath, cfg.Recorder.Camera, cameraLog)
	if err != nil {
		return apperr.Wrap(apperr.ErrCaptureUnavailable, "camera", cfg.Recorder.Camera.Device, err)
	}

	planner := func(outputPath string) []capture.Attempt {
		return capture.BuildAttempts(capture.AttemptSpec{
			FFmpegPath: ffmpegPath,
			OutputPath: outputPath,
			Backend:    capture.Backend(capCfg.Backend),
			Alternate:  capture.Backend(capCfg.Alternate),
			Display:    capCfg.Display,
			Region:     region,
			FPS:        capCfg.FPS,
			CRF:        capCfg.CRF,
			Preset:     capCfg.Preset,
			Audio:      audio,
			DebugLogs:  capCfg.DebugLogs,
		})
	}

	supervisor := capture.NewSupervisor(starter, log,
		time.Duration(capCfg.GraceMs)*time.Millisecond,
		time.Duration(capCfg.StopTimeoutMs)*time.Millisecond)

	g := cfg.Recorder.Gate
	ctrl, err := recorder.New(recorder.Options{
		Source:        source,
		Detector:      detector,
		Gate:          gate.New(time.Duration(g.MinAwayMs)*time.Millisecond, time.Duration(g.MinBackMs)*time.Millisecond),
		Capture:       supervisor,
		Plan:          planner,
		RecordingsDir: cfg.Paths.Recordings,
		Overrides:     recorder.TerminalOverrides(ctx, os.Stdin),
		OnSessionEnd: func(s recorder.Session) {
			log.Info(ctx, "Saved %s (%s)", s.OutputPath, s.Duration().Round(time.Second))
		},
		Logger: log,
	})
	if err != nil {
		_ = source.Close()
		return err
	}

	log.Info(ctx, "========================================")
	log.Info(ctx, "Away recorder is ready")
	log.Info(ctx, "Camera: %s %s (%dx%d @ %dfps)", cfg.Recorder.Camera.Format, cfg.Recorder.Camera.Device,
		cfg.Recorder.Camera.Width, cfg.Recorder.Camera.Height, cfg.Recorder.Camera.FPS)
	log.Info(ctx, "Screen: %s (fallback %s)", capCfg.Backend, orNone(capCfg.Alternate))
	log.Info(ctx, "Recordings: %s", cfg.Paths.Recordings)
	log.Info(ctx, "Press Ctrl+C to stop")
	log.Info(ctx, "========================================")

	return ctrl.Run(ctx)
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
