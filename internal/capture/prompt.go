package capture

import (
	"errors"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"golang.org/x/term"
)

// Prompter blocks until the operator confirms a manual step.
type Prompter interface {
	WaitForEnter(label string) error
}

// TerminalPrompter prompts on stdin and refuses to run without a TTY, so
// an unattended run fails instead of hanging on a login nobody performs.
type TerminalPrompter struct{}

func (TerminalPrompter) WaitForEnter(label string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return ErrNotInteractive
	}

	p := promptui.Prompt{Label: label}
	if _, err := p.Run(); err != nil {
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return fmt.Errorf("login cancelled: %w", err)
		}
		return err
	}
	return nil
}
