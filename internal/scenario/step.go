package scenario

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Action names a step kind.
type Action string

const (
	ActionGoto           Action = "goto"
	ActionSleep          Action = "sleep"
	ActionWaitVisible    Action = "wait_visible"
	ActionRequireVisible Action = "require_visible"
	ActionClickIfVisible Action = "click_if_visible"
	ActionClick          Action = "click"
	ActionCapture        Action = "capture"
	ActionHoverEach      Action = "hover_each"
	ActionSelectItem     Action = "select_item"
	ActionScroll         Action = "scroll"
	ActionScrollTop      Action = "scroll_top"
	ActionHoverCards     Action = "hover_cards"
	ActionInjectCSS      Action = "inject_css"
	ActionScreenshot     Action = "screenshot"
	ActionFill           Action = "fill"
)

// RandomToken in a fill value is replaced by a hex string that stays the
// same for the whole run, so one generated account can be reused.
const RandomToken = "{{random}}"

// DefaultTimeout applies to visibility waits that leave timeout unset.
const DefaultTimeout = 5 * time.Second

// Step is a single UI action. Which fields apply depends on Action.
type Step struct {
	Action Action `yaml:"action"`

	Selector  string   `yaml:"selector,omitempty"`
	Selectors []string `yaml:"selectors,omitempty"`
	Text      string   `yaml:"text,omitempty"`
	URL       string   `yaml:"url,omitempty"`
	CSS       string   `yaml:"css,omitempty"`
	Value     string   `yaml:"value,omitempty"`
	// Name is a still file name. For hover_each it is a pattern with one
	// %d verb, and the step writes stills instead of frames.
	Name string `yaml:"name,omitempty"`

	Timeout  time.Duration `yaml:"timeout,omitempty"`
	Settle   time.Duration `yaml:"settle,omitempty"`
	Duration time.Duration `yaml:"duration,omitempty"`
	Interval time.Duration `yaml:"interval,omitempty"`

	Count     int  `yaml:"count,omitempty"`
	Frames    int  `yaml:"frames,omitempty"`
	Repeat    int  `yaml:"repeat,omitempty"`
	By        int  `yaml:"by,omitempty"`
	Increment int  `yaml:"increment,omitempty"`
	Capture   bool `yaml:"capture,omitempty"`
	Click     bool `yaml:"click,omitempty"`
	FullPage  bool `yaml:"full_page,omitempty"`
	Hold      bool `yaml:"hold,omitempty"`

	// hover_cards filters
	MinWidth       float64  `yaml:"min_width,omitempty"`
	MinHeight      float64  `yaml:"min_height,omitempty"`
	RequireText    []string `yaml:"require_text,omitempty"`
	AnyText        []string `yaml:"any_text,omitempty"`
	Dedupe         string   `yaml:"dedupe,omitempty"`
	Limit          int      `yaml:"limit,omitempty"`
	ScrollIntoView bool     `yaml:"scroll_into_view,omitempty"`
}

// Validate checks the fields the step's action needs.
func (s *Step) Validate() error {
	if err := s.validateCommon(); err != nil {
		return err
	}

	switch s.Action {
	case ActionGoto:
		return requireField(s.URL != "", "url is required")
	case ActionSleep:
		return requireField(s.Duration > 0, "duration must be positive")
	case ActionWaitVisible, ActionRequireVisible, ActionClickIfVisible, ActionClick:
		return requireField(s.Selector != "", "selector is required")
	case ActionCapture:
		return requireField(s.Count >= 1, "count must be at least 1")
	case ActionHoverEach:
		if s.Selector == "" {
			return errors.New("selector is required")
		}
		if s.Name != "" {
			return validStillPattern(s.Name)
		}
		return requireField(s.Frames >= 1, "frames must be at least 1")
	case ActionSelectItem:
		if s.Selector == "" || s.Text == "" {
			return errors.New("selector and text are required")
		}
		return nil
	case ActionScroll:
		return requireField(s.Repeat >= 1, "repeat must be at least 1")
	case ActionScrollTop:
		return nil
	case ActionHoverCards:
		if len(s.Selectors) == 0 {
			return errors.New("selectors must contain at least one selector")
		}
		switch s.Dedupe {
		case "", "xy", "y", "none":
		default:
			return fmt.Errorf("dedupe must be xy, y or none, got %q", s.Dedupe)
		}
		return nil
	case ActionInjectCSS:
		return requireField(strings.TrimSpace(s.CSS) != "", "css is required")
	case ActionFill:
		return requireField(s.Selector != "", "selector is required")
	case ActionScreenshot:
		if s.Name == "" {
			return errors.New("name is required")
		}
		return validStillName(s.Name)
	case "":
		return errors.New("action is required")
	default:
		return fmt.Errorf("unknown action %q", s.Action)
	}
}

func (s *Step) validateCommon() error {
	for field, d := range map[string]time.Duration{
		"timeout": s.Timeout, "settle": s.Settle, "duration": s.Duration, "interval": s.Interval,
	} {
		if d < 0 {
			return fmt.Errorf("%s must not be negative", field)
		}
	}
	if s.Count < 0 || s.Frames < 0 || s.Repeat < 0 || s.Limit < 0 {
		return errors.New("counts must not be negative")
	}
	return nil
}

func requireField(ok bool, msg string) error {
	if ok {
		return nil
	}
	return errors.New(msg)
}

func validStillName(name string) error {
	if filepath.Base(name) != name {
		return fmt.Errorf("name %q must be a bare file name", name)
	}
	if !strings.EqualFold(filepath.Ext(name), ".png") {
		return fmt.Errorf("name %q must end in .png", name)
	}
	return nil
}

func validStillPattern(pattern string) error {
	if strings.Count(pattern, "%") != 1 || strings.Count(pattern, "%d") != 1 {
		return fmt.Errorf("name %q must contain exactly one %%d and no other verbs", pattern)
	}
	return validStillName(fmt.Sprintf(pattern, 0))
}

// WaitTimeout returns Timeout or DefaultTimeout.
func (s *Step) WaitTimeout() time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return DefaultTimeout
}

// FillValue is Value with RandomToken replaced by token.
func (s *Step) FillValue(token string) string {
	return strings.ReplaceAll(s.Value, RandomToken, token)
}

// WritesStills reports whether a hover_each step saves named stills.
func (s *Step) WritesStills() bool {
	return s.Action == ActionHoverEach && s.Name != ""
}

func (s *Step) producesFrames() bool {
	switch s.Action {
	case ActionCapture:
		return true
	case ActionHoverEach:
		return !s.WritesStills()
	case ActionSelectItem:
		return s.Frames > 0
	case ActionScroll:
		return s.Capture
	case ActionHoverCards:
		return s.Frames > 0 || s.Hold
	}
	return false
}

// EstimateFrames is the number of frames the step is expected to add,
// counting one element for steps that iterate over matches.
func (s *Step) EstimateFrames() int {
	if !s.producesFrames() {
		return 0
	}

	switch s.Action {
	case ActionCapture:
		return s.Count
	case ActionHoverEach, ActionSelectItem:
		return s.Frames
	case ActionScroll:
		return s.Repeat
	case ActionHoverCards:
		per := s.Frames
		if s.Hold {
			per++
		}
		return per * max(1, s.Limit)
	}
	return 0
}

// Describe renders the step for dry runs and `validate` output.
func (s *Step) Describe() string {
	switch s.Action {
	case ActionGoto:
		return fmt.Sprintf("goto %s", s.URL)
	case ActionSleep:
		return fmt.Sprintf("sleep %s", s.Duration)
	case ActionWaitVisible, ActionRequireVisible, ActionClickIfVisible:
		return fmt.Sprintf("%s %s (timeout %s)", s.Action, s.Selector, s.WaitTimeout())
	case ActionClick:
		return fmt.Sprintf("click %s", s.Selector)
	case ActionCapture:
		return fmt.Sprintf("capture %d frame(s) every %s", s.Count, s.Interval)
	case ActionHoverEach:
		if s.WritesStills() {
			return fmt.Sprintf("hover each %s, still %s", s.Selector, s.Name)
		}
		return fmt.Sprintf("hover each %s, %d frame(s) per item", s.Selector, s.Frames)
	case ActionSelectItem:
		verb := "hover"
		if s.Click {
			verb = "hover+click"
		}
		return fmt.Sprintf("%s item %q in %s, %d frame(s)", verb, s.Text, s.Selector, s.Frames)
	case ActionScroll:
		return fmt.Sprintf("scroll %d×(%d+i·%d)px, capture=%t", s.Repeat, s.By, s.Increment, s.Capture)
	case ActionScrollTop:
		return "scroll to top"
	case ActionHoverCards:
		return fmt.Sprintf("hover up to %d card(s) from %s", s.Limit, strings.Join(s.Selectors, ", "))
	case ActionInjectCSS:
		return fmt.Sprintf("inject %d bytes of CSS", len(s.CSS))
	case ActionScreenshot:
		return fmt.Sprintf("still %s (full page %t)", s.Name, s.FullPage)
	case ActionFill:
		return fmt.Sprintf("fill %s", s.Selector)
	}
	return string(s.Action)
}
