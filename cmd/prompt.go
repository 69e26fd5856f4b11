package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/desertthunder/pathwise/internal/shared"
	"golang.org/x/term"
)

// stdinIsTerminal is swapped out in tests.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func required(label string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(label + " is required")
		}
		return nil
	}
}

// promptValue fills *value interactively when it is empty. flag names the
// command-line alternative used in the error when stdin is not a terminal.
func promptValue(title, flag string, secret bool, value *string) error {
	if *value != "" {
		return nil
	}
	if !stdinIsTerminal() {
		return fmt.Errorf("%w: --%s is required when stdin is not a terminal", shared.ErrMissingArgument, flag)
	}

	input := huh.NewInput().
		Title(title).
		Value(value).
		Validate(required(flag))
	if secret {
		input.EchoMode(huh.EchoModePassword)
	}
	return input.Run()
}

// confirm asks a yes/no question; skip answers yes without asking.
func confirm(title string, skip bool) (bool, error) {
	if skip {
		return true, nil
	}
	if !stdinIsTerminal() {
		return false, fmt.Errorf("%w: pass --yes to confirm when stdin is not a terminal", shared.ErrMissingArgument)
	}

	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	return ok, err
}
