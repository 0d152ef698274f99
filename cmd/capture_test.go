package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/brogergvhs/democap/internal/browser"
	"github.com/brogergvhs/democap/internal/capture"
	"github.com/brogergvhs/democap/internal/config"
	"github.com/brogergvhs/democap/internal/encoder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubPage is a browser tab where everything is visible and screenshots
// are written as placeholder files.
type stubPage struct {
	url    string
	shots  []string
	closed bool
}

func (p *stubPage) Navigate(_ context.Context, url string) error { p.url = url; return nil }
func (p *stubPage) URL(context.Context) (string, error) { return p.url, nil }
func (p *stubPage) WaitVisible(context.Context, string, time.Duration) error {
	return nil
}
func (p *stubPage) Visible(context.Context, string, time.Duration) bool { return true }
func (p *stubPage) Click(context.Context, string) error { return nil }
func (p *stubPage) Fill(context.Context, string, string) error { return nil }
func (p *stubPage) Elements(context.Context, string) ([]capture.Element, error) {
	return nil, nil
}
func (p *stubPage) Hover(context.Context, capture.Element) error { return nil }
func (p *stubPage) ClickElement(context.Context, capture.Element) error { return nil }
func (p *stubPage) ScrollIntoView(context.Context, capture.Element) error { return nil }
func (p *stubPage) ScrollBy(context.Context, int, int) error { return nil }
func (p *stubPage) ScrollTo(context.Context, int, int) error { return nil }
func (p *stubPage) InjectCSS(context.Context, string) error { return nil }
func (p *stubPage) HTML(context.Context) (string, error) { return "", nil }
func (p *stubPage) Close() { p.closed = true }

func (p *stubPage) Screenshot(_ context.Context, path string, _ bool) error {
	p.shots = append(p.shots, path)
	return os.WriteFile(path, []byte("png"), 0644)
}

// writeGIF stands in for a successful ffmpeg run.
func writeGIF(_ context.Context, _ string, args []string, _ io.Writer) error {
	return os.WriteFile(args[len(args)-1], []byte("GIF89a"), 0644)
}

func stubCapture(t *testing.T, run encoder.CommandRunner) *stubPage {
	t.Helper()

	page := &stubPage{}
	origLaunch, origEncoder := launchPage, newEncoder
	launchPage = func(context.Context, browser.Options) (pageSession, error) { return page, nil }
	newEncoder = func(string, string) (encoder.Encoder, error) {
		return &encoder.FFmpeg{Path: "ffmpeg", Run: run}, nil
	}
	t.Cleanup(func() { launchPage, newEncoder = origLaunch, origEncoder })

	return page
}

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "demo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

const framesScenario = `
name: demo
url: /new
steps:
  - action: capture
    count: 3
`

func stagingDirs(t *testing.T, outDir string) []string {
	t.Helper()
	dirs, err := filepath.Glob(filepath.Join(outDir, "demo_*_tmp"))
	require.NoError(t, err)
	return dirs
}

func TestCaptureEncodesAndRemovesFrames(t *testing.T) {
	page := stubCapture(t, writeGIF)
	outDir := filepath.Join(t.TempDir(), "gifs")

	out, err := run(t, config.NewStore(t.TempDir()), "capture", writeScenario(t, framesScenario),
		"--output", outDir, "--no-wait-server")
	require.NoError(t, err)

	assert.True(t, page.closed)
	assert.Len(t, page.shots, 3)
	assert.FileExists(t, filepath.Join(outDir, "demo.gif"))
	assert.Empty(t, stagingDirs(t, outDir))
	assert.NoFileExists(t, filepath.Join(outDir, "demo-frames.zip"))

	assert.Contains(t, out, "GIF created: "+filepath.Join(outDir, "demo.gif"))
	assert.Contains(t, out, "Frame files cleaned up")
	assert.Contains(t, out, "Capture Summary:")
	assert.Contains(t, out, "Frames: 3")
}

func TestCaptureKeepsAndArchivesFrames(t *testing.T) {
	stubCapture(t, writeGIF)
	outDir := t.TempDir()

	out, err := run(t, config.NewStore(t.TempDir()), "capture", writeScenario(t, framesScenario),
		"--output", outDir, "--no-wait-server", "--keep-frames", "--archive-frames")
	require.NoError(t, err)

	dirs := stagingDirs(t, outDir)
	require.Len(t, dirs, 1)
	for i := 0; i < 3; i++ {
		assert.FileExists(t, filepath.Join(dirs[0], fmt.Sprintf("f%03d.png", i)))
	}
	assert.FileExists(t, filepath.Join(outDir, "demo-frames.zip"))
	assert.Contains(t, out, "Frames kept in "+dirs[0])
}

func TestCaptureStillsOnlySkipsGIF(t *testing.T) {
	encoded := false
	stubCapture(t, func(context.Context, string, []string, io.Writer) error {
		encoded = true
		return nil
	})
	outDir := t.TempDir()

	_, err := run(t, config.NewStore(t.TempDir()), "capture", writeScenario(t, `
name: demo
url: /new
steps:
  - action: screenshot
    name: closed.png
`), "--output", outDir, "--no-wait-server")
	require.NoError(t, err)

	assert.False(t, encoded)
	assert.FileExists(t, filepath.Join(outDir, "closed.png"))
	assert.NoFileExists(t, filepath.Join(outDir, "demo.gif"))
	assert.Empty(t, stagingDirs(t, outDir))
}

func TestCaptureEncoderFailureKeepsFrames(t *testing.T) {
	stubCapture(t, func(_ context.Context, _ string, _ []string, stderr io.Writer) error {
		fmt.Fprintln(stderr, "Invalid filter")
		return errors.New("exit status 1")
	})
	outDir := t.TempDir()
	previous := filepath.Join(outDir, "demo.gif")
	require.NoError(t, os.WriteFile(previous, []byte("last good run"), 0644))

	out, err := run(t, config.NewStore(t.TempDir()), "capture", writeScenario(t, framesScenario),
		"--output", outDir, "--no-wait-server")
	require.Error(t, err)

	var encErr *encoder.Error
	assert.True(t, errors.As(err, &encErr))
	assert.Contains(t, out, "[ERROR] ffmpeg error: Invalid filter")

	dirs := stagingDirs(t, outDir)
	require.Len(t, dirs, 1)
	assert.Contains(t, out, "Frames kept in "+dirs[0])
	assert.FileExists(t, filepath.Join(dirs[0], "f002.png"))

	data, err := os.ReadFile(previous)
	require.NoError(t, err)
	assert.Equal(t, "last good run", string(data))
}

func TestCaptureLaunchFailureRemovesStaging(t *testing.T) {
	stubCapture(t, writeGIF)
	launchPage = func(context.Context, browser.Options) (pageSession, error) {
		return nil, errors.New("start browser: chrome not found")
	}
	outDir := t.TempDir()

	_, err := run(t, config.NewStore(t.TempDir()), "capture", writeScenario(t, framesScenario),
		"--output", outDir, "--no-wait-server")
	require.ErrorContains(t, err, "chrome not found")
	assert.Empty(t, stagingDirs(t, outDir))
}
