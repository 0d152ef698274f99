package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/brogergvhs/democap/internal/browser"
	"github.com/brogergvhs/democap/internal/capture"
	"github.com/brogergvhs/democap/internal/config"
	"github.com/brogergvhs/democap/internal/encoder"
	"github.com/brogergvhs/democap/internal/scenario"
	"github.com/brogergvhs/democap/internal/ui"
	"github.com/brogergvhs/democap/internal/util"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	flagOutput        string
	flagBaseURL       string
	flagHeadless      bool
	flagEncoder       string
	flagFFmpeg        string
	flagFramerate     int
	flagScale         int
	flagKeepFrames    bool
	flagArchiveFrames bool
	flagNoWaitServer  bool
	flagCDPURL        string
	flagChrome        string
	flagDryRun        bool
)

// pageSession is a browser tab the capture runner can drive.
type pageSession interface {
	capture.Page
	Close()
}

// launchPage and newEncoder are swapped in tests.
var (
	launchPage = func(ctx context.Context, opts browser.Options) (pageSession, error) {
		s, err := browser.Launch(ctx, opts)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	newEncoder = encoder.New
)

func init() {
	captureCmd := &cobra.Command{
		Use:   "capture [flow-or-file]",
		Short: "Run a built-in flow or a scenario file and assemble the frames into a GIF. Uses the defaults from the selected config, overwritten by CLI flags",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCapture,
	}

	captureCmd.Flags().StringVar(&flagOutput, "output", "", "output folder for GIFs and stills")
	captureCmd.Flags().StringVar(&flagBaseURL, "base-url", "", "base URL of the app under capture")
	captureCmd.Flags().BoolVar(&flagHeadless, "headless", false, "run the browser without a window")
	captureCmd.Flags().StringVar(&flagCDPURL, "cdp-url", "", "attach to a running browser at this DevTools URL")
	captureCmd.Flags().StringVar(&flagChrome, "chrome", "", "path to the Chrome/Chromium binary")

	captureCmd.Flags().StringVar(&flagEncoder, "encoder", "", "GIF encoder: auto, ffmpeg or native")
	captureCmd.Flags().StringVar(&flagFFmpeg, "ffmpeg", "", "path to the ffmpeg binary")
	captureCmd.Flags().IntVar(&flagFramerate, "framerate", 0, "GIF frames per second (overrides the scenario)")
	captureCmd.Flags().IntVar(&flagScale, "scale", 0, "GIF width in pixels (overrides the scenario)")
	captureCmd.Flags().BoolVar(&flagKeepFrames, "keep-frames", false, "keep the frame directory after encoding")
	captureCmd.Flags().BoolVar(&flagArchiveFrames, "archive-frames", false, "zip the frames next to the GIF")

	captureCmd.Flags().BoolVar(&flagNoWaitServer, "no-wait-server", false, "skip waiting for the app to answer before launching the browser")
	captureCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "print the plan, don't open a browser")

	rootCmd.AddCommand(captureCmd)
}

func runCapture(cmd *cobra.Command, args []string) error {
	cfg, usedPath, err := loadConfig(config.Options{
		Output:        flagOutput,
		BaseURL:       flagBaseURL,
		Headless:      flagHeadless,
		ChromePath:    flagChrome,
		CDPURL:        flagCDPURL,
		Encoder:       flagEncoder,
		FFmpegPath:    flagFFmpeg,
		Framerate:     flagFramerate,
		ScaleWidth:    flagScale,
		KeepFrames:    flagKeepFrames,
		ArchiveFrames: flagArchiveFrames,
	})
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("headless") {
		cfg.Headless = flagHeadless
	}
	if flagNoWaitServer {
		cfg.WaitServer = false
	}

	var arg string
	if len(args) == 1 {
		arg = args[0]
	}
	sc, err := resolveScenario(arg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	logSvc := ui.NewLoggerTo(out, cfg.Debug)
	settings := settingsFor(cfg, sc, cmd.Flags().Changed)

	logSvc.Debugf("Config file: %s", usedPath)

	if flagDryRun {
		fmt.Fprintln(out, "Dry-run:")
		printPlan(out, sc, cfg.BaseURL, settings)
		return nil
	}

	if err := os.MkdirAll(cfg.Output, 0755); err != nil {
		return fmt.Errorf("cannot create output folder: %w", err)
	}

	staging := filepath.Join(cfg.Output,
		fmt.Sprintf("%s_%s%s", scenario.Slug(sc.Name), uuid.NewString()[:8], util.StagingSuffix))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	util.SetupInterruptHandler(cfg.Output, staging, cancel)

	if cfg.WaitServer && cfg.CDPURL == "" {
		if err := waitForApp(ctx, cfg, sc, logSvc); err != nil {
			return err
		}
	}

	return captureRun(ctx, cfg, sc, settings, staging, logSvc)
}

func waitForApp(ctx context.Context, cfg *config.Config, sc *scenario.Scenario, logSvc *ui.Logger) error {
	client := util.NewHTTPClient(util.HTTPClientOptions{
		Timeout:          10 * time.Second,
		UserAgent:        util.PickUserAgent(cfg.UserAgent),
		BypassCloudflare: cfg.BypassCloudflare,
		DebugLogger:      logSvc,
	})

	target := sc.StartURL(cfg.BaseURL)
	logSvc.Infof("Waiting for %s...", target)

	// Linear backoff over 5 attempts sums to 10 steps.
	return util.WaitForServer(ctx, client, target, 5, cfg.ServerTimeout/10)
}

func captureRun(ctx context.Context, cfg *config.Config, sc *scenario.Scenario, s runSettings, staging string, logSvc *ui.Logger) error {
	start := time.Now()
	stats := &ui.Stats{}

	frames, err := capture.NewFrameStore(staging)
	if err != nil {
		return err
	}

	// Bars would redraw over the login banner and prompt.
	mode := sc.Login.EffectiveMode()
	pm := ui.NewProgressManager(!cfg.Debug && mode != scenario.LoginManual && mode != scenario.LoginAuto)
	defer pm.Close()

	var handle *ui.ProgressHandle
	if sc.CapturesFrames() {
		handle = pm.Register(sc.Name, "frames")
	}
	defer handle.MarkDone()

	logSvc.Infof("Launching browser (headless=%t, %dx%d)", cfg.Headless, s.Width, s.Height)
	session, err := launchPage(ctx, browser.Options{
		Headless:   cfg.Headless,
		Width:      s.Width,
		Height:     s.Height,
		Scale:      s.Scale,
		ChromePath: cfg.ChromePath,
		CDPURL:     cfg.CDPURL,
		UserAgent:  cfg.UserAgent,
		SlowMo:     s.SlowMo,
		Debugf:     logSvc.Debugf,
	})
	if err != nil {
		_ = frames.Remove()
		return err
	}

	runner := &capture.Runner{
		Page:      session,
		Frames:    frames,
		Prompter:  capture.TerminalPrompter{},
		Log:       logSvc,
		OutputDir: cfg.Output,
		BaseURL:   cfg.BaseURL,
		HideCSS:   cfg.HideCSS(),
	}
	if handle != nil {
		runner.Progress = handle
	}

	res, runErr := runner.Run(ctx, sc)
	session.Close()
	handle.MarkDone()

	stats.Frames.Store(int64(frames.Count()))
	stats.Stills.Store(int64(len(res.Stills)))

	if runErr != nil {
		pm.Close()
		if frames.Count() == 0 {
			_ = frames.Remove()
		} else {
			logSvc.Infof("Frames kept in %s", frames.Dir())
		}
		return runErr
	}

	logSvc.Infof("Captured %d frames", frames.Count())

	if !sc.CapturesFrames() {
		_ = frames.Remove()
	} else if err := assemble(ctx, cfg, sc, s, frames, pm, logSvc, stats); err != nil {
		pm.Close()
		return err
	}

	pm.Close()
	printSummary(logSvc, stats, s.GIFPath, time.Since(start))
	return nil
}

func assemble(ctx context.Context, cfg *config.Config, sc *scenario.Scenario, s runSettings, frames *capture.FrameStore, pm *ui.MPBProgressManager, logSvc *ui.Logger, stats *ui.Stats) error {
	if frames.Count() == 0 {
		_ = frames.Remove()
		return fmt.Errorf("%s: %w", sc.Name, encoder.ErrNoFrames)
	}

	enc, err := newEncoder(cfg.Encoder, cfg.FFmpegPath)
	if err != nil {
		return err
	}

	bar := pm.Register(filepath.Base(s.GIFPath), "gif")
	bar.SetTotal(1)
	defer bar.MarkDone()

	logSvc.Infof("Creating GIF with %s...", enc.Name())
	err = enc.Encode(ctx, encoder.Job{
		FramesDir:  frames.Dir(),
		Pattern:    capture.FramePattern,
		Count:      frames.Count(),
		Output:     s.GIFPath,
		Framerate:  s.Framerate,
		ScaleWidth: s.ScaleWidth,
		MaxColors:  s.MaxColors,
	})
	if err != nil {
		var encErr *encoder.Error
		if errors.As(err, &encErr) && encErr.Stderr != "" {
			logSvc.Errorf("%s error: %s", encErr.Encoder, encErr.Stderr)
		}
		logSvc.Infof("Frames kept in %s", frames.Dir())
		return err
	}
	bar.Increment()
	stats.GIFBytes.Store(util.FileSize(s.GIFPath))
	logSvc.Infof("GIF created: %s", s.GIFPath)

	if cfg.ArchiveFrames {
		zipPath := filepath.Join(cfg.Output, sc.ArchiveName())
		if err := util.ArchiveFrames(frames.Paths(), zipPath); err != nil {
			logSvc.Warnf("Archiving frames failed: %v", err)
		} else {
			logSvc.Infof("Frames archived: %s", zipPath)
		}
	}

	if cfg.KeepFrames {
		logSvc.Infof("Frames kept in %s", frames.Dir())
		return nil
	}
	if err := frames.Remove(); err != nil {
		logSvc.Warnf("Cleaning up frames failed: %v", err)
		return nil
	}
	logSvc.Infof("Frame files cleaned up")
	return nil
}

func printSummary(logSvc *ui.Logger, stats *ui.Stats, gifPath string, elapsed time.Duration) {
	logSvc.Println()
	logSvc.Println("Capture Summary:")
	logSvc.Println(fmt.Sprintf("Frames: %d", stats.Frames.Load()))
	if n := stats.Stills.Load(); n > 0 {
		logSvc.Println(fmt.Sprintf("Stills: %d", n))
	}
	if n := stats.GIFBytes.Load(); n > 0 {
		logSvc.Println(fmt.Sprintf("GIF:    %s (%s)", gifPath, util.Human(n)))
	}
	logSvc.Println(fmt.Sprintf("Time:   %s", util.HumanDuration(elapsed)))
	logSvc.Println("\nAll done.")
}
