package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/brogergvhs/democap/internal/capture"
)

// actionTimeout bounds clicks and navigations that have no explicit timeout.
const actionTimeout = 30 * time.Second

const innerTextJS = `function() { return (this.innerText || this.textContent || "").trim(); }`

// Session is one browser tab.
type Session struct {
	ctx    context.Context
	cancel context.CancelFunc
	slowMo time.Duration
}

var _ capture.Page = (*Session)(nil)

// Launch starts (or attaches to) a browser and opens a tab sized to the
// configured viewport. Close releases both.
func Launch(ctx context.Context, o Options) (*Session, error) {
	o = o.withDefaults()

	var (
		allocCtx    context.Context
		allocCancel context.CancelFunc
	)
	if o.CDPURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(ctx, o.CDPURL)
	} else {
		allocCtx, allocCancel = chromedp.NewExecAllocator(ctx, o.allocatorOptions()...)
	}

	var ctxOpts []chromedp.ContextOption
	if o.Debugf != nil {
		ctxOpts = append(ctxOpts, chromedp.WithErrorf(o.Debugf))
	}
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, ctxOpts...)

	s := &Session{
		ctx: tabCtx,
		cancel: func() {
			tabCancel()
			allocCancel()
		},
		slowMo: o.SlowMo,
	}

	setup := []chromedp.Action{
		chromedp.EmulateViewport(int64(o.Width), int64(o.Height), chromedp.EmulateScale(o.Scale)),
	}
	if o.UserAgent != "" && o.CDPURL != "" {
		setup = append(setup, emulation.SetUserAgentOverride(o.UserAgent))
	}

	if err := chromedp.Run(tabCtx, setup...); err != nil {
		s.Close()
		return nil, fmt.Errorf("start browser: %w", err)
	}
	return s, nil
}

func (s *Session) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}

// run executes actions on the tab, stopping early when ctx ends or the
// timeout passes. Cancelling the derived context leaves the tab open.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(s.ctx, timeout)
	} else {
		runCtx, cancel = context.WithCancel(s.ctx)
	}
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (s *Session) pause(ctx context.Context) error {
	if s.slowMo <= 0 {
		return nil
	}

	t := time.NewTimer(s.slowMo)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	err := s.run(ctx, actionTimeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return err
	}
	return s.pause(ctx)
}

func (s *Session) URL(ctx context.Context) (string, error) {
	var url string
	err := s.run(ctx, actionTimeout, chromedp.Location(&url))
	return url, err
}

func (s *Session) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	return s.run(ctx, timeout, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (s *Session) Visible(ctx context.Context, selector string, timeout time.Duration) bool {
	return s.WaitVisible(ctx, selector, timeout) == nil
}

func (s *Session) Click(ctx context.Context, selector string) error {
	err := s.run(ctx, actionTimeout, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible))
	if err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	return s.pause(ctx)
}

// Fill clears the input and types value into it, so framework change
// handlers see the keystrokes.
func (s *Session) Fill(ctx context.Context, selector, value string) error {
	err := s.run(ctx, actionTimeout,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.SetValue(selector, "", chromedp.ByQuery),
		chromedp.SendKeys(selector, value, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("fill %s: %w", selector, err)
	}
	return s.pause(ctx)
}

// Elements snapshots every match of selector with its text and border box.
// Unrendered matches come back with a nil Box.
func (s *Session) Elements(ctx context.Context, selector string) ([]capture.Element, error) {
	var nodes []*cdp.Node
	var out []capture.Element

	err := s.run(ctx, actionTimeout,
		chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)),
		chromedp.ActionFunc(func(ctx context.Context) error {
			for _, n := range nodes {
				text, err := nodeText(ctx, n.NodeID)
				if err != nil {
					return err
				}
				out = append(out, capture.Element{
					NodeID: int64(n.NodeID),
					Text:   text,
					Box:    nodeBox(ctx, n.NodeID),
				})
			}
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", selector, err)
	}
	return out, nil
}

func nodeText(ctx context.Context, id cdp.NodeID) (string, error) {
	obj, err := dom.ResolveNode().WithNodeID(id).Do(ctx)
	if err != nil {
		return "", err
	}

	res, exc, err := runtime.CallFunctionOn(innerTextJS).
		WithObjectID(obj.ObjectID).
		WithReturnByValue(true).
		Do(ctx)
	if err != nil {
		return "", err
	}
	if exc != nil {
		return "", exc
	}

	var text string
	if len(res.Value) > 0 {
		if err := json.Unmarshal(res.Value, &text); err != nil {
			return "", err
		}
	}
	return text, nil
}

func nodeBox(ctx context.Context, id cdp.NodeID) *capture.Box {
	m, err := dom.GetBoxModel().WithNodeID(id).Do(ctx)
	if err != nil || m == nil {
		return nil
	}
	return quadBox(m.Border)
}

// quadBox converts a content quad (four x,y corners) to its bounding box.
func quadBox(q dom.Quad) *capture.Box {
	if len(q) < 8 {
		return nil
	}

	minX, minY := q[0], q[1]
	maxX, maxY := q[0], q[1]
	for i := 2; i+1 < len(q); i += 2 {
		minX, maxX = min(minX, q[i]), max(maxX, q[i])
		minY, maxY = min(minY, q[i+1]), max(maxY, q[i+1])
	}
	return &capture.Box{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

func center(b *capture.Box) (float64, float64) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// pointAt scrolls the element into view and returns its current center.
func pointAt(ctx context.Context, id cdp.NodeID) (float64, float64, error) {
	if err := dom.ScrollIntoViewIfNeeded().WithNodeID(id).Do(ctx); err != nil {
		return 0, 0, err
	}

	b := nodeBox(ctx, id)
	if b == nil || b.Width == 0 || b.Height == 0 {
		return 0, 0, fmt.Errorf("%w: node %d is not rendered", capture.ErrElementNotFound, id)
	}

	x, y := center(b)
	return x, y, nil
}

func (s *Session) Hover(ctx context.Context, el capture.Element) error {
	err := s.run(ctx, actionTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		x, y, err := pointAt(ctx, cdp.NodeID(el.NodeID))
		if err != nil {
			return err
		}
		return chromedp.MouseEvent(input.MouseMoved, x, y).Do(ctx)
	}))
	if err != nil {
		return err
	}
	return s.pause(ctx)
}

func (s *Session) ClickElement(ctx context.Context, el capture.Element) error {
	err := s.run(ctx, actionTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		x, y, err := pointAt(ctx, cdp.NodeID(el.NodeID))
		if err != nil {
			return err
		}
		return chromedp.MouseClickXY(x, y).Do(ctx)
	}))
	if err != nil {
		return err
	}
	return s.pause(ctx)
}

func (s *Session) ScrollIntoView(ctx context.Context, el capture.Element) error {
	return s.run(ctx, actionTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		return dom.ScrollIntoViewIfNeeded().WithNodeID(cdp.NodeID(el.NodeID)).Do(ctx)
	}))
}

func (s *Session) ScrollBy(ctx context.Context, dx, dy int) error {
	return s.run(ctx, actionTimeout, chromedp.Evaluate(fmt.Sprintf("window.scrollBy(%d, %d)", dx, dy), nil))
}

func (s *Session) ScrollTo(ctx context.Context, x, y int) error {
	return s.run(ctx, actionTimeout, chromedp.Evaluate(fmt.Sprintf("window.scrollTo(%d, %d)", x, y), nil))
}

func (s *Session) Screenshot(ctx context.Context, path string, fullPage bool) error {
	var buf []byte

	action := chromedp.CaptureScreenshot(&buf)
	if fullPage {
		action = chromedp.FullScreenshot(&buf, 100)
	}
	if err := s.run(ctx, actionTimeout, action); err != nil {
		return err
	}

	return os.WriteFile(path, buf, 0644)
}

// InjectCSS adds a style element now and on every later document, so the
// rules survive navigation.
func (s *Session) InjectCSS(ctx context.Context, css string) error {
	if strings.TrimSpace(css) == "" {
		return nil
	}

	script, err := styleScript(css)
	if err != nil {
		return err
	}

	return s.run(ctx, actionTimeout,
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(script).Do(ctx)
			return err
		}),
		chromedp.Evaluate(script, nil),
	)
}

func styleScript(css string) (string, error) {
	lit, err := json.Marshal(css)
	if err != nil {
		return "", err
	}

	return `(function (css) {
  var add = function () {
    var el = document.createElement("style");
    el.setAttribute("data-democap", "");
    el.textContent = css;
    (document.head || document.documentElement).appendChild(el);
  };
  if (document.readyState === "loading") {
    document.addEventListener("DOMContentLoaded", add);
  } else {
    add();
  }
})(` + string(lit) + `);`, nil
}

func (s *Session) HTML(ctx context.Context) (string, error) {
	var html string
	err := s.run(ctx, actionTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}
