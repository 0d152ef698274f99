package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/brogergvhs/democap/internal/config"
	"github.com/brogergvhs/democap/internal/flows"
	"github.com/brogergvhs/democap/internal/scenario"
)

const defaultFlow = "profile-dropdown"

// resolveScenario treats arg as a built-in flow name first, then as a
// path to a scenario file.
func resolveScenario(arg string) (*scenario.Scenario, error) {
	if arg == "" {
		arg = defaultFlow
	}
	if flows.Has(arg) {
		return flows.Get(arg)
	}

	if _, err := os.Stat(arg); err != nil {
		return nil, fmt.Errorf("%q is neither a built-in flow nor a readable file (see `democap flows`)", arg)
	}
	return scenario.LoadFile(arg)
}

// runSettings are the values a run actually uses once CLI flags, the
// scenario and the config profile are layered, in that order.
type runSettings struct {
	Output     string
	GIFPath    string
	Framerate  int
	ScaleWidth int
	MaxColors  int
	Width      int
	Height     int
	Scale      float64
	SlowMo     time.Duration
}

func settingsFor(cfg *config.Config, sc *scenario.Scenario, flagSet func(string) bool) runSettings {
	s := runSettings{
		Output:     cfg.Output,
		GIFPath:    filepath.Join(cfg.Output, sc.OutputName()),
		Framerate:  cfg.Framerate,
		ScaleWidth: cfg.ScaleWidth,
		MaxColors:  cfg.MaxColors,
		Width:      cfg.ViewportWidth,
		Height:     cfg.ViewportHeight,
		Scale:      cfg.DeviceScaleFactor,
		SlowMo:     cfg.SlowMo,
	}

	if sc.Framerate > 0 && !flagSet("framerate") {
		s.Framerate = sc.Framerate
	}
	if sc.ScaleWidth > 0 && !flagSet("scale") {
		s.ScaleWidth = sc.ScaleWidth
	}
	if v := sc.Viewport; v != nil {
		s.Width, s.Height = v.Width, v.Height
		if v.Scale > 0 {
			s.Scale = v.Scale
		}
	}
	if sc.SlowMo > 0 {
		s.SlowMo = sc.SlowMo
	}
	return s
}

func printPlan(w io.Writer, sc *scenario.Scenario, baseURL string, s runSettings) {
	p := func(format string, args ...any) { _, _ = fmt.Fprintf(w, format, args...) }

	p("Scenario: %s\n", sc.Name)
	if sc.Description != "" {
		p("  %s\n", sc.Description)
	}
	p("Start URL: %s\n", sc.StartURL(baseURL))
	p("Login:     %s\n", sc.Login.EffectiveMode())
	for i := range sc.Login.Steps {
		p("   -  %s\n", sc.Login.Steps[i].Describe())
	}
	p("Viewport:  %dx%d @%gx\n", s.Width, s.Height, s.Scale)
	if sc.CapturesFrames() {
		p("GIF:       %s (%d fps, %dpx wide, ~%d frames)\n", s.GIFPath, s.Framerate, s.ScaleWidth, sc.EstimateFrames())
	} else {
		p("GIF:       none (stills only)\n")
	}

	p("Steps:\n")
	for i := range sc.Steps {
		p("%3d) %s\n", i+1, sc.Steps[i].Describe())
	}
}
