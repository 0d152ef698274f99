package capture

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brogergvhs/democap/internal/scenario"
)

// login gets the page past authentication according to the scenario's
// login mode. It reports whether an operator logged in by hand.
func (r *Runner) login(ctx context.Context, sc *scenario.Scenario) (bool, error) {
	l := &sc.Login
	settle := l.Settle
	if settle == 0 {
		settle = defaultLoginSettle
	}

	for i := range l.Steps {
		st := &l.Steps[i]
		r.Log.Debugf("login step %d: %s", i, st.Describe())
		if err := r.runStep(ctx, sc, -1, st, nil); err != nil {
			return false, fmt.Errorf("login step %d (%s): %w", i, st.Action, err)
		}
	}

	switch l.EffectiveMode() {
	case scenario.LoginManual:
		if err := r.manualLogin(ctx, l); err != nil {
			return false, err
		}
		return true, r.sleep(ctx, settle)

	case scenario.LoginGuest:
		// Give the auth check time to redirect first.
		if err := r.sleep(ctx, settle); err != nil {
			return false, err
		}
		return false, r.guestLogin(ctx, l, settle)

	case scenario.LoginAuto:
		if err := r.sleep(ctx, settle); err != nil {
			return false, err
		}
		current, err := r.Page.URL(ctx)
		if err != nil {
			return false, fmt.Errorf("read url: %w", err)
		}
		r.Log.Infof("Current URL: %s", current)

		if !strings.Contains(current, "login") && !strings.Contains(current, "signup") {
			return false, nil
		}
		if err := r.manualLogin(ctx, l); err != nil {
			return false, err
		}
		return true, r.sleep(ctx, settle)
	}

	return false, nil
}

func (r *Runner) manualLogin(ctx context.Context, l *scenario.Login) error {
	if r.Prompter == nil {
		return ErrNotInteractive
	}

	rule := strings.Repeat("=", bannerWidth)
	r.Log.Println(rule)
	r.Log.Println(" BROWSER OPEN - PLEASE LOG IN ")
	r.Log.Println(rule)

	lines := l.Message
	if len(lines) == 0 {
		lines = []string{"Log in to your account in the browser window"}
	}
	for i, line := range lines {
		r.Log.Println(fmt.Sprintf("%d. %s", i+1, line))
	}
	r.Log.Println(fmt.Sprintf("%d. Come back here and press Enter", len(lines)+1))
	r.Log.Println(rule)

	prompt := l.Prompt
	if prompt == "" {
		prompt = defaultLoginPrompt
	}
	if err := r.Prompter.WaitForEnter(prompt); err != nil {
		return err
	}

	return ctx.Err()
}

// guestLogin clicks the guest-access button when the app redirected to
// its login page. A missing button is not fatal; later steps fail with a
// clearer message if the app really needs a session.
func (r *Runner) guestLogin(ctx context.Context, l *scenario.Login, settle time.Duration) error {
	current, err := r.Page.URL(ctx)
	if err != nil {
		return fmt.Errorf("read url: %w", err)
	}
	r.Log.Infof("Current URL: %s", current)

	if !strings.Contains(current, "/login") {
		return nil
	}

	text := l.GuestText
	if text == "" {
		text = defaultGuestText
	}

	r.Log.Infof("On login page - looking for %q...", text)
	els, err := r.Page.Elements(ctx, "button, a")
	if err != nil {
		return fmt.Errorf("find guest button: %w", err)
	}

	want := strings.ToLower(text)
	for _, el := range els {
		if strings.Contains(strings.ToLower(el.Text), want) {
			if err := r.Page.ClickElement(ctx, el); err != nil {
				return fmt.Errorf("click %q: %w", text, err)
			}
			return r.sleep(ctx, settle)
		}
	}

	r.Log.Warnf("No guest button found, continuing without login")
	return nil
}
