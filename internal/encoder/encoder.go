// Package encoder assembles captured frames into a looping GIF, either by
// running ffmpeg or with a pure Go fallback.
package encoder

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

var ErrNoFrames = errors.New("no frames to encode")

const (
	KindAuto   = "auto"
	KindFFmpeg = "ffmpeg"
	KindNative = "native"
)

const DefaultMaxColors = 256

// Job describes one GIF assembly.
type Job struct {
	FramesDir string
	// Pattern is the printf-style frame file name, e.g. "f%03d.png".
	Pattern string
	Count   int
	Output  string

	Framerate int
	// ScaleWidth resizes frames to this width keeping aspect. Zero keeps
	// the captured size.
	ScaleWidth int
	MaxColors  int
}

// Input is the frame path pattern handed to ffmpeg.
func (j Job) Input() string {
	return filepath.Join(j.FramesDir, j.Pattern)
}

func (j Job) frame(i int) string {
	return filepath.Join(j.FramesDir, fmt.Sprintf(j.Pattern, i))
}

// partial is where the GIF is written until it is complete, so a failed
// encode leaves an earlier Output untouched.
func (j Job) partial() string {
	ext := filepath.Ext(j.Output)
	return strings.TrimSuffix(j.Output, ext) + ".partial" + ext
}

func (j Job) colors() int {
	if j.MaxColors <= 0 || j.MaxColors > 256 {
		return DefaultMaxColors
	}
	return j.MaxColors
}

func (j Job) validate() error {
	if j.Count <= 0 {
		return ErrNoFrames
	}
	if j.Framerate <= 0 {
		return fmt.Errorf("framerate must be positive, got %d", j.Framerate)
	}
	if j.Output == "" {
		return errors.New("output path is empty")
	}
	if !strings.Contains(j.Pattern, "%") {
		return fmt.Errorf("frame pattern %q has no index verb", j.Pattern)
	}
	return nil
}

type Encoder interface {
	Name() string
	Encode(ctx context.Context, job Job) error
}

// Error is an encoder failure together with whatever it printed.
type Error struct {
	Encoder string
	Err     error
	Stderr  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Encoder, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

var lookPath = exec.LookPath

// New returns the encoder for kind. auto prefers ffmpeg when it can be
// found and falls back to the native encoder.
func New(kind, ffmpegPath string) (Encoder, error) {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}

	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindAuto:
		if path, err := lookPath(ffmpegPath); err == nil {
			return NewFFmpeg(path), nil
		}
		return NewNative(), nil

	case KindFFmpeg:
		path, err := lookPath(ffmpegPath)
		if err != nil {
			return nil, fmt.Errorf("ffmpeg not found (install it or use --encoder native): %w", err)
		}
		return NewFFmpeg(path), nil

	case KindNative:
		return NewNative(), nil
	}

	return nil, fmt.Errorf("unknown encoder %q (want auto, ffmpeg or native)", kind)
}
