package capture

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/brogergvhs/democap/internal/ui"
	"github.com/stretchr/testify/require"
)

// fakePage records every call and serves canned elements per selector.
type fakePage struct {
	mu sync.Mutex

	url      string
	visible  map[string]bool
	elements map[string][]Element
	html     string

	hoverErr map[int64]error
	shotErr  error

	calls []string
	shots []string
}

func newFakePage() *fakePage {
	return &fakePage{
		url:      "http://localhost:3000/new",
		visible:  map[string]bool{},
		elements: map[string][]Element{},
		hoverErr: map[int64]error{},
	}
}

func (p *fakePage) record(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, fmt.Sprintf(format, args...))
}

func (p *fakePage) Navigate(_ context.Context, url string) error {
	p.record("navigate %s", url)
	p.url = url
	return nil
}

func (p *fakePage) URL(context.Context) (string, error) { return p.url, nil }

func (p *fakePage) WaitVisible(_ context.Context, sel string, _ time.Duration) error {
	p.record("wait %s", sel)
	if !p.visible[sel] {
		return context.DeadlineExceeded
	}
	return nil
}

func (p *fakePage) Visible(_ context.Context, sel string, _ time.Duration) bool {
	p.record("visible %s", sel)
	return p.visible[sel]
}

func (p *fakePage) Click(_ context.Context, sel string) error {
	p.record("click %s", sel)
	return nil
}

func (p *fakePage) Fill(_ context.Context, sel, value string) error {
	p.record("fill %s=%s", sel, value)
	return nil
}

func (p *fakePage) Elements(_ context.Context, sel string) ([]Element, error) {
	return p.elements[sel], nil
}

func (p *fakePage) Hover(_ context.Context, el Element) error {
	p.record("hover %d", el.NodeID)
	return p.hoverErr[el.NodeID]
}

func (p *fakePage) ClickElement(_ context.Context, el Element) error {
	p.record("click-node %d", el.NodeID)
	return nil
}

func (p *fakePage) ScrollIntoView(_ context.Context, el Element) error {
	p.record("scroll-into-view %d", el.NodeID)
	return nil
}

func (p *fakePage) ScrollBy(_ context.Context, dx, dy int) error {
	p.record("scroll-by %d,%d", dx, dy)
	return nil
}

func (p *fakePage) ScrollTo(_ context.Context, x, y int) error {
	p.record("scroll-to %d,%d", x, y)
	return nil
}

func (p *fakePage) Screenshot(_ context.Context, path string, fullPage bool) error {
	if p.shotErr != nil {
		return p.shotErr
	}
	p.mu.Lock()
	p.shots = append(p.shots, path)
	p.mu.Unlock()
	p.record("screenshot %s full=%t", filepath.Base(path), fullPage)
	return os.WriteFile(path, []byte("png"), 0644)
}

func (p *fakePage) InjectCSS(_ context.Context, css string) error {
	p.record("css %d", len(css))
	return nil
}

func (p *fakePage) HTML(context.Context) (string, error) { return p.html, nil }

func (p *fakePage) called(prefix string) []string {
	var out []string
	for _, c := range p.calls {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

type fakePrompter struct {
	labels []string
	err    error
}

func (f *fakePrompter) WaitForEnter(label string) error {
	f.labels = append(f.labels, label)
	return f.err
}

type runnerFixture struct {
	page   *fakePage
	runner *Runner
	log    *bytes.Buffer
	slept  []time.Duration
}

func newRunnerFixture(t *testing.T) *runnerFixture {
	t.Helper()

	out := t.TempDir()
	frames, err := NewFrameStore(filepath.Join(out, "demo_tmp"))
	require.NoError(t, err)

	f := &runnerFixture{page: newFakePage(), log: &bytes.Buffer{}}
	f.runner = &Runner{
		Page:      f.page,
		Frames:    frames,
		Log:       ui.NewLoggerTo(f.log, true),
		OutputDir: out,
		BaseURL:   "http://localhost:3000",
		Sleep: func(ctx context.Context, d time.Duration) error {
			f.slept = append(f.slept, d)
			return ctx.Err()
		},
	}
	return f
}
