package capture

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/brogergvhs/democap/internal/inspect"
	"github.com/brogergvhs/democap/internal/scenario"
)

func (r *Runner) runStep(ctx context.Context, sc *scenario.Scenario, idx int, s *scenario.Step, res *Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	switch s.Action {
	case scenario.ActionGoto:
		target := scenario.ResolveURL(r.BaseURL, s.URL)
		r.Log.Infof("Navigating to %s", target)
		if err := r.Page.Navigate(ctx, target); err != nil {
			return err
		}
		return r.sleep(ctx, s.Settle)

	case scenario.ActionSleep:
		return r.sleep(ctx, s.Duration)

	case scenario.ActionWaitVisible:
		if err := r.Page.WaitVisible(ctx, s.Selector, s.WaitTimeout()); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrElementNotFound, s.Selector, err)
		}
		return nil

	case scenario.ActionRequireVisible:
		return r.requireVisible(ctx, s, res)

	case scenario.ActionClickIfVisible:
		if !r.Page.Visible(ctx, s.Selector, s.WaitTimeout()) {
			r.Log.Debugf("%s not visible, skipping click", s.Selector)
			return nil
		}
		if err := r.Page.Click(ctx, s.Selector); err != nil {
			return err
		}
		return r.sleep(ctx, s.Settle)

	case scenario.ActionClick:
		if err := r.Page.Click(ctx, s.Selector); err != nil {
			return err
		}
		return r.sleep(ctx, s.Settle)

	case scenario.ActionCapture:
		return r.captureFrames(ctx, s)

	case scenario.ActionHoverEach:
		return r.hoverEach(ctx, sc, idx, s, res)

	case scenario.ActionSelectItem:
		return r.selectItem(ctx, s)

	case scenario.ActionScroll:
		for i := 0; i < s.Repeat; i++ {
			if err := r.Page.ScrollBy(ctx, 0, s.By+i*s.Increment); err != nil {
				return err
			}
			if err := r.sleep(ctx, s.Interval); err != nil {
				return err
			}
			if s.Capture {
				if err := r.frame(ctx); err != nil {
					return err
				}
			}
		}
		return nil

	case scenario.ActionScrollTop:
		if err := r.Page.ScrollTo(ctx, 0, 0); err != nil {
			return err
		}
		return r.sleep(ctx, s.Settle)

	case scenario.ActionHoverCards:
		return r.hoverCards(ctx, sc, idx, s)

	case scenario.ActionInjectCSS:
		return r.Page.InjectCSS(ctx, s.CSS)

	case scenario.ActionScreenshot:
		return r.still(ctx, res, s.Name, s.FullPage)

	case scenario.ActionFill:
		r.Log.Infof("Filling %s", s.Selector)
		if err := r.Page.Fill(ctx, s.Selector, s.FillValue(r.Token)); err != nil {
			return err
		}
		return r.sleep(ctx, s.Settle)
	}

	return fmt.Errorf("unknown action %q", s.Action)
}

func (r *Runner) captureFrames(ctx context.Context, s *scenario.Step) error {
	for i := 0; i < s.Count; i++ {
		if err := r.frame(ctx); err != nil {
			return err
		}
		if err := r.sleep(ctx, s.Interval); err != nil {
			return err
		}
	}
	return nil
}

// requireVisible aborts the run when selector never shows up, leaving a
// debug screenshot and the page's test-ids behind for diagnosis.
func (r *Runner) requireVisible(ctx context.Context, s *scenario.Step, res *Result) error {
	if r.Page.Visible(ctx, s.Selector, s.WaitTimeout()) {
		return nil
	}

	r.Log.Errorf("%s not found!", s.Selector)

	name := s.Name
	if name == "" {
		name = debugScreenshot
	}
	r.Log.Infof("Taking debug screenshot...")
	if err := r.still(ctx, res, name, s.FullPage); err != nil {
		r.Log.Warnf("debug screenshot failed: %v", err)
	}

	r.logTestIDs(ctx)
	return fmt.Errorf("%w: %s", ErrElementNotFound, s.Selector)
}

func (r *Runner) logTestIDs(ctx context.Context) {
	html, err := r.Page.HTML(ctx)
	if err != nil {
		r.Log.Debugf("read page html: %v", err)
		return
	}

	ids, err := inspect.TestIDs(html)
	if err != nil || len(ids) == 0 {
		return
	}

	r.Log.Infof("Test ids on the page:")
	for _, id := range ids {
		r.Log.Infof("  - %s", id.ID)
	}
}

func (r *Runner) hoverEach(ctx context.Context, sc *scenario.Scenario, idx int, s *scenario.Step, res *Result) error {
	els, err := r.Page.Elements(ctx, s.Selector)
	if err != nil {
		return err
	}

	r.Log.Infof("Hovering %d menu items...", len(els))
	if !s.WritesStills() {
		r.expect(sc, idx, len(els)*s.Frames)
	}

	for i, el := range els {
		r.Log.Infof("  %d. %s", i+1, strings.TrimSpace(el.Text))

		if err := r.Page.Hover(ctx, el); err != nil {
			return fmt.Errorf("hover item %d: %w", i, err)
		}
		if err := r.sleep(ctx, s.Settle); err != nil {
			return err
		}

		if s.WritesStills() {
			if err := r.still(ctx, res, fmt.Sprintf(s.Name, i), false); err != nil {
				return err
			}
			continue
		}

		for f := 0; f < s.Frames; f++ {
			if err := r.frame(ctx); err != nil {
				return err
			}
			if err := r.sleep(ctx, s.Interval); err != nil {
				return err
			}
		}
	}
	return nil
}

// selectItem finds the first element whose text contains s.Text, holds
// the pointer over it for s.Frames frames, and optionally clicks it.
func (r *Runner) selectItem(ctx context.Context, s *scenario.Step) error {
	els, err := r.Page.Elements(ctx, s.Selector)
	if err != nil {
		return err
	}

	want := strings.ToLower(s.Text)
	var found *Element
	for i := range els {
		if strings.Contains(strings.ToLower(els[i].Text), want) {
			found = &els[i]
			break
		}
	}

	if found == nil {
		r.Log.Errorf("%q not found in menu!", s.Text)
		r.Log.Infof("Available options:")
		for _, el := range els {
			r.Log.Infof("  - %s", strings.TrimSpace(el.Text))
		}
		return fmt.Errorf("%w: no item matching %q in %s", ErrElementNotFound, s.Text, s.Selector)
	}

	r.Log.Infof("Found item: %s", strings.TrimSpace(found.Text))
	for f := 0; f < s.Frames; f++ {
		if err := r.Page.Hover(ctx, *found); err != nil {
			return err
		}
		if err := r.sleep(ctx, s.Interval); err != nil {
			return err
		}
		if err := r.frame(ctx); err != nil {
			return err
		}
	}

	if !s.Click {
		return nil
	}
	if err := r.Page.ClickElement(ctx, *found); err != nil {
		return err
	}
	return r.sleep(ctx, s.Settle)
}

// hoverCards hovers the large, distinct elements matched by any of the
// step's selectors. A card that fails to hover is logged and skipped.
func (r *Runner) hoverCards(ctx context.Context, sc *scenario.Scenario, idx int, s *scenario.Step) error {
	cards := r.collectCards(ctx, s)
	r.Log.Infof("Hovering over %d card(s)...", len(cards))

	per := s.Frames
	if s.Hold {
		per++
	}
	r.expect(sc, idx, len(cards)*per)

	for i, card := range cards {
		if err := r.hoverCard(ctx, s, card); err != nil {
			if ctx.Err() != nil || errors.Is(err, errFrame) {
				return err
			}
			r.Log.Warnf("Error hovering card %d: %v", i+1, err)
		}
	}
	return nil
}

var errFrame = errors.New("frame capture failed")

func (r *Runner) hoverCard(ctx context.Context, s *scenario.Step, card Element) error {
	if s.ScrollIntoView {
		if err := r.Page.ScrollIntoView(ctx, card); err != nil {
			return err
		}
		if err := r.sleep(ctx, s.Settle); err != nil {
			return err
		}
	}

	for f := 0; f < s.Frames; f++ {
		if err := r.Page.Hover(ctx, card); err != nil {
			return err
		}
		if err := r.sleep(ctx, s.Interval); err != nil {
			return err
		}
		if err := r.frame(ctx); err != nil {
			return fmt.Errorf("%w: %v", errFrame, err)
		}
	}

	if s.Hold {
		if err := r.frame(ctx); err != nil {
			return fmt.Errorf("%w: %v", errFrame, err)
		}
		return r.sleep(ctx, s.Interval)
	}
	return nil
}

func (r *Runner) collectCards(ctx context.Context, s *scenario.Step) []Element {
	seenNode := map[int64]bool{}
	seenPos := map[string]bool{}
	var out []Element

	for _, sel := range s.Selectors {
		els, err := r.Page.Elements(ctx, sel)
		if err != nil {
			r.Log.Debugf("selector %s: %v", sel, err)
			continue
		}

		for _, el := range els {
			if s.Limit > 0 && len(out) >= s.Limit {
				return out
			}
			if seenNode[el.NodeID] || !cardMatches(s, el) {
				continue
			}

			if key := positionKey(s.Dedupe, el.Box); key != "" {
				if seenPos[key] {
					continue
				}
				seenPos[key] = true
			}
			seenNode[el.NodeID] = true

			r.Log.Infof("Found card: %s", cardTitle(el.Text))
			out = append(out, el)
		}
	}

	return out
}

func cardMatches(s *scenario.Step, el Element) bool {
	if el.Box == nil || el.Box.Width <= s.MinWidth || el.Box.Height <= s.MinHeight {
		return false
	}

	text := strings.ToLower(el.Text)
	for _, t := range s.RequireText {
		if !strings.Contains(text, strings.ToLower(t)) {
			return false
		}
	}
	if len(s.AnyText) == 0 {
		return true
	}
	for _, t := range s.AnyText {
		if strings.Contains(text, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

func positionKey(mode string, b *Box) string {
	switch mode {
	case "none":
		return ""
	case "y":
		return fmt.Sprintf("%d", int(b.Y))
	default:
		return fmt.Sprintf("%d_%d", int(b.X), int(b.Y))
	}
}

func cardTitle(text string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	line = strings.TrimSpace(line)
	if line == "" {
		return "Unknown"
	}
	if r := []rune(line); len(r) > 30 {
		return string(r[:30])
	}
	return line
}
