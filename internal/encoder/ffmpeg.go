package encoder

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// CommandRunner runs name with args, copying its stderr into stderr.
type CommandRunner func(ctx context.Context, name string, args []string, stderr io.Writer) error

func execRunner(ctx context.Context, name string, args []string, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = io.Discard
	cmd.Stderr = stderr
	return cmd.Run()
}

type FFmpeg struct {
	Path string
	Run  CommandRunner
}

func NewFFmpeg(path string) *FFmpeg {
	return &FFmpeg{Path: path, Run: execRunner}
}

func (f *FFmpeg) Name() string { return KindFFmpeg }

func (f *FFmpeg) Encode(ctx context.Context, job Job) error {
	if err := job.validate(); err != nil {
		return err
	}

	run := f.Run
	if run == nil {
		run = execRunner
	}

	tmp := job
	tmp.Output = job.partial()

	var stderr bytes.Buffer
	if err := run(ctx, f.Path, Args(tmp), &stderr); err != nil {
		_ = os.Remove(tmp.Output)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &Error{Encoder: KindFFmpeg, Err: err, Stderr: strings.TrimSpace(stderr.String())}
	}

	if err := os.Rename(tmp.Output, job.Output); err != nil {
		_ = os.Remove(tmp.Output)
		return &Error{Encoder: KindFFmpeg, Err: err}
	}
	return nil
}

// Filter is the -vf graph: optional lanczos scaling, then a palette built
// from the whole clip and applied back onto it.
func Filter(scaleWidth, maxColors int) string {
	var b strings.Builder
	if scaleWidth > 0 {
		fmt.Fprintf(&b, "scale=%d:-1:flags=lanczos,", scaleWidth)
	}
	fmt.Fprintf(&b, "split[s0][s1];[s0]palettegen=max_colors=%d[p];[s1][p]paletteuse", maxColors)
	return b.String()
}

// Args is the ffmpeg argument list for job.
func Args(job Job) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-framerate", fmt.Sprintf("%d", job.Framerate),
		"-i", job.Input(),
		"-vf", Filter(job.ScaleWidth, job.colors()),
		"-loop", "0",
		"-y", job.Output,
	}
}
