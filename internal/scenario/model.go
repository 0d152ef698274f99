// Package scenario defines capture scenarios: a start page, a login
// policy and an ordered list of UI steps that produce frames and stills.
package scenario

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Scenario is one capture run loaded from YAML.
type Scenario struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description,omitempty"`
	URL         string        `yaml:"url"`
	Output      string        `yaml:"output,omitempty"`
	Framerate   int           `yaml:"framerate,omitempty"`
	ScaleWidth  int           `yaml:"scale_width,omitempty"`
	Viewport    *Viewport     `yaml:"viewport,omitempty"`
	SlowMo      time.Duration `yaml:"slow_mo,omitempty"`
	Login       Login         `yaml:"login,omitempty"`
	HideCSS     string        `yaml:"hide_css,omitempty"`
	Steps       []Step        `yaml:"steps"`
}

type Viewport struct {
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
	Scale  float64 `yaml:"scale,omitempty"`
}

// LoginMode selects how a run gets past authentication.
type LoginMode string

const (
	LoginNone   LoginMode = "none"
	LoginManual LoginMode = "manual"
	LoginGuest  LoginMode = "guest"
	// LoginAuto asks for manual login only when the start page redirected
	// to a login or signup screen.
	LoginAuto LoginMode = "auto"
)

type Login struct {
	Mode LoginMode `yaml:"mode,omitempty"`
	// Message lines are printed in the banner before the prompt.
	Message []string `yaml:"message,omitempty"`
	Prompt  string   `yaml:"prompt,omitempty"`
	// GuestText is the button text clicked in guest mode.
	GuestText string `yaml:"guest_text,omitempty"`
	// Settle is slept after login completes.
	Settle time.Duration `yaml:"settle,omitempty"`
	// Steps run on the start page before the mode is applied, e.g. to
	// fill in a signup form. They cannot capture.
	Steps []Step `yaml:"steps,omitempty"`
}

func (l *Login) Validate() error {
	switch l.Mode {
	case "", LoginNone, LoginManual, LoginGuest, LoginAuto:
	default:
		return fmt.Errorf("unknown mode %q (want none, manual, guest or auto)", l.Mode)
	}

	for i := range l.Steps {
		st := &l.Steps[i]
		switch st.Action {
		case ActionGoto, ActionSleep, ActionWaitVisible, ActionClickIfVisible, ActionClick, ActionFill:
		default:
			return fmt.Errorf("step %d (%s): not allowed before login", i, st.Action)
		}
		if err := st.Validate(); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, st.Action, err)
		}
	}
	return nil
}

// EffectiveMode treats an empty mode as none.
func (l *Login) EffectiveMode() LoginMode {
	if l.Mode == "" {
		return LoginNone
	}
	return l.Mode
}

func (v *Viewport) Validate() error {
	if v.Width <= 0 || v.Height <= 0 {
		return errors.New("width and height must be positive")
	}
	if v.Scale < 0 {
		return errors.New("scale must not be negative")
	}
	return nil
}

// Validate checks that the scenario is runnable.
func (s *Scenario) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("name must be non-empty")
	}
	if s.Framerate < 0 {
		return errors.New("framerate must not be negative")
	}
	if s.ScaleWidth < 0 {
		return errors.New("scale_width must not be negative")
	}
	if s.Viewport != nil {
		if err := s.Viewport.Validate(); err != nil {
			return fmt.Errorf("viewport: %w", err)
		}
	}
	if err := s.Login.Validate(); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if len(s.Steps) == 0 {
		return errors.New("steps must contain at least one step")
	}
	for i := range s.Steps {
		if err := s.Steps[i].Validate(); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, s.Steps[i].Action, err)
		}
	}
	return nil
}

// CapturesFrames reports whether the run produces frames to assemble. A
// scenario made only of named stills skips GIF assembly.
func (s *Scenario) CapturesFrames() bool {
	for i := range s.Steps {
		if s.Steps[i].producesFrames() {
			return true
		}
	}
	return false
}

// EstimateFrames counts the frames known before running. Steps whose
// frame count depends on the page (hover_each, hover_cards) contribute
// their per-element count once.
func (s *Scenario) EstimateFrames() int {
	n := 0
	for i := range s.Steps {
		n += s.Steps[i].EstimateFrames()
	}
	return n
}
