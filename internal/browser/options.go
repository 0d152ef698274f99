// Package browser drives Chromium over the DevTools protocol and exposes
// it as a capture.Page.
package browser

import (
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

const (
	DefaultWidth  = 1400
	DefaultHeight = 900
)

type Options struct {
	Headless bool
	Width    int
	Height   int
	// Scale is the device scale factor. Zero means 1.
	Scale float64

	// ChromePath overrides the browser binary. Empty lets chromedp search.
	ChromePath string
	// CDPURL attaches to an already running browser instead of launching one.
	CDPURL    string
	UserAgent string

	// SlowMo is slept after every navigation and pointer interaction.
	SlowMo time.Duration

	// Debugf receives protocol errors chromedp would otherwise print.
	Debugf func(format string, args ...any)
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Scale <= 0 {
		o.Scale = 1
	}
	return o
}

// flags are the command line switches added on top of chromedp's defaults.
func (o Options) flags() map[string]any {
	o = o.withDefaults()

	f := map[string]any{
		"headless":                  o.Headless,
		"hide-scrollbars":           true,
		"mute-audio":                true,
		"no-first-run":              true,
		"disable-popup-blocking":    true,
		"force-device-scale-factor": fmt.Sprintf("%g", o.Scale),
		"window-size":               fmt.Sprintf("%d,%d", o.Width, o.Height),
	}
	if o.Headless {
		f["headless"] = "new"
	}
	return f
}

func (o Options) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption(nil), chromedp.DefaultExecAllocatorOptions[:]...)
	for name, value := range o.flags() {
		opts = append(opts, chromedp.Flag(name, value))
	}

	if o.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(o.ChromePath))
	}
	if o.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(o.UserAgent))
	}
	return opts
}
