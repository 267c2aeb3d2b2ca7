package confirm

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
)

var (
	warning = lipgloss.AdaptiveColor{Light: "#D7263D", Dark: "#FF5F87"}

	warningStyle = lipgloss.NewStyle().
			Foreground(warning).
			Bold(true).
			MarginTop(1)
)

// Terminal asks through an interactive huh confirm form.
// Prompts are serialised since there is one terminal.
type Terminal struct {
	mu  sync.Mutex
	out io.Writer
}

// NewTerminal creates a terminal gate writing its header to out (stdout if nil).
func NewTerminal(out io.Writer) *Terminal {
	if out == nil {
		out = os.Stdout
	}
	return &Terminal{out: out}
}

// Confirm renders the prompt and waits for the answer. ctx is not consulted once
// the form is shown.
func (t *Terminal) Confirm(ctx context.Context, prompt Prompt) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	affirmative, negative := prompt.Affirmative, prompt.Negative
	if affirmative == "" {
		affirmative = "Yes"
	}
	if negative == "" {
		negative = "No"
	}

	fmt.Fprintln(t.out, warningStyle.Render("! "+prompt.Title))

	var answer bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(prompt.Title).
				Description(prompt.Description).
				Affirmative(affirmative).
				Negative(negative).
				Value(&answer),
		),
	).Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, errors.Wrap(err, "run confirmation form")
	}

	return answer, nil
}
