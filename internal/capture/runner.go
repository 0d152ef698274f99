package capture

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/brogergvhs/democap/internal/scenario"

	"github.com/google/uuid"
)

// SleepFunc waits for d or until ctx ends.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

const (
	defaultGuestText   = "Continue as Guest"
	defaultLoginPrompt = "Press Enter after you've logged in"
	defaultLoginSettle = 2 * time.Second
	debugScreenshot    = "debug-error.png"
	bannerWidth        = 60
)

// Runner executes scenarios against a Page.
type Runner struct {
	Page     Page
	Frames   *FrameStore
	Prompter Prompter
	Log      Logger
	Progress Progress
	Sleep    SleepFunc

	// OutputDir receives stills and debug screenshots.
	OutputDir string
	BaseURL   string
	// HideCSS is injected in addition to the scenario's own hide_css.
	HideCSS string
	// Token replaces {{random}} in fill values. Run picks one when empty.
	Token string
}

func newToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

type Result struct {
	Frames     []string
	Stills     []string
	StagingDir string
	Elapsed    time.Duration
}

// Run drives the page through sc. On error the returned Result still
// lists whatever was captured before the failure.
func (r *Runner) Run(ctx context.Context, sc *scenario.Scenario) (*Result, error) {
	start := time.Now()
	res := &Result{StagingDir: r.Frames.Dir()}
	defer func() {
		res.Frames = r.Frames.Paths()
		res.Elapsed = time.Since(start)
	}()

	if r.Progress != nil {
		r.Progress.SetTotal(sc.EstimateFrames())
	}
	if r.Token == "" {
		r.Token = newToken()
	}

	target := sc.StartURL(r.BaseURL)
	r.Log.Infof("Navigating to %s", target)
	if err := r.Page.Navigate(ctx, target); err != nil {
		return res, fmt.Errorf("navigate %s: %w", target, err)
	}

	css := joinCSS(r.HideCSS, sc.HideCSS)
	if css != "" {
		if err := r.Page.InjectCSS(ctx, css); err != nil {
			return res, fmt.Errorf("inject css: %w", err)
		}
	}

	loggedIn, err := r.login(ctx, sc)
	if err != nil {
		return res, err
	}

	// The page the operator logged in on is a fresh document; inject again.
	if loggedIn && css != "" {
		if err := r.Page.InjectCSS(ctx, css); err != nil {
			return res, fmt.Errorf("inject css: %w", err)
		}
	}

	for i := range sc.Steps {
		step := &sc.Steps[i]
		r.Log.Debugf("step %d: %s", i, step.Describe())

		if err := r.runStep(ctx, sc, i, step, res); err != nil {
			return res, fmt.Errorf("step %d (%s): %w", i, step.Action, err)
		}
	}

	return res, nil
}

func joinCSS(parts ...string) string {
	var out []string
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, "\n")
}

func (r *Runner) sleep(ctx context.Context, d time.Duration) error {
	if r.Sleep != nil {
		return r.Sleep(ctx, d)
	}
	return sleepCtx(ctx, d)
}

// frame captures the viewport into the next frame slot.
func (r *Runner) frame(ctx context.Context) error {
	path := r.Frames.Next()
	if err := r.Page.Screenshot(ctx, path, false); err != nil {
		return fmt.Errorf("frame %s: %w", filepath.Base(path), err)
	}

	r.Frames.Commit()
	if r.Progress != nil {
		r.Progress.Increment()
	}
	return nil
}

func (r *Runner) still(ctx context.Context, res *Result, name string, fullPage bool) error {
	path := filepath.Join(r.OutputDir, name)
	if err := r.Page.Screenshot(ctx, path, fullPage); err != nil {
		return fmt.Errorf("screenshot %s: %w", name, err)
	}

	res.Stills = append(res.Stills, path)
	r.Log.Infof("Screenshot saved: %s", name)
	return nil
}

// expect grows the progress total once a step learns how many frames it
// will really produce.
func (r *Runner) expect(sc *scenario.Scenario, from int, frames int) {
	if r.Progress == nil {
		return
	}

	rest := 0
	for i := from + 1; i < len(sc.Steps); i++ {
		rest += sc.Steps[i].EstimateFrames()
	}
	r.Progress.SetTotal(r.Progress.Current() + frames + rest)
}
