package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"golang.org/x/term"
)

var errNoTerminal = errors.New("not an interactive terminal")

func interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// confirm asks a yes/no question. Without a terminal it refuses rather
// than guessing.
func confirm(label string) (bool, error) {
	if !interactive() {
		return false, fmt.Errorf("%s: %w (pass --yes)", label, errNoTerminal)
	}

	p := promptui.Prompt{Label: label, IsConfirm: true}
	if _, err := p.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
