package cli

import (
	"errors"
	"io"
	"strings"

	"github.com/manifoldco/promptui"
)

// ErrNoChoices is returned by Select when there is nothing to pick from.
var ErrNoChoices = errors.New("no choices to select from")

// Prompter reads one choice from a list. Select is the interactive
// implementation; tests substitute their own.
type Prompter interface {
	Select(label string, choices ...string) (string, error)
}

// Terminal is a Prompter backed by promptui. Nil streams fall back to the
// process stdin/stdout.
type Terminal struct {
	Stdin  io.ReadCloser
	Stdout io.WriteCloser
}

// Select shows choices in the given order and returns the chosen one. Typing
// filters the list by prefix.
func (t Terminal) Select(label string, choices ...string) (string, error) {
	if len(choices) == 0 {
		return "", ErrNoChoices
	}

	sel := &promptui.Select{
		Label: label,
		Items: choices,
		Searcher: func(input string, index int) bool {
			if len(input) == 0 {
				return false
			}

			return strings.HasPrefix(strings.ToLower(choices[index]), strings.ToLower(input))
		},
		Stdin:  t.Stdin,
		Stdout: t.Stdout,
	}

	_, value, err := sel.Run()
	if err != nil {
		return "", err
	}

	return value, nil
}

// Select prompts on the process terminal.
func Select(label string, choices ...string) (string, error) {
	return Terminal{}.Select(label, choices...)
}

// IsInterrupt reports whether err means the user aborted the prompt
// (Ctrl-C or Ctrl-D).
func IsInterrupt(err error) bool {
	return errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF)
}
