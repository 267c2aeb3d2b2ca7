// Package confirm asks the user to approve destructive actions before they happen.
package confirm

import "context"

// Prompt describes a yes/no decision shown to the user.
type Prompt struct {
	Title       string
	Description string
	Affirmative string
	Negative    string
}

// RebondPrompt warns that bonding over an existing bond resets vesting.
var RebondPrompt = Prompt{
	Title: "You have an existing bond",
	Description: "Bonding will reset your vesting period and forfeit rewards. " +
		"We recommend claiming rewards first or using a fresh wallet. Do you still want to proceed?",
	Affirmative: "Yes, bond anyway",
	Negative:    "No, cancel",
}

// Gate blocks the calling goroutine until the user decides. There is no timeout;
// once shown the prompt runs to completion.
type Gate interface {
	Confirm(ctx context.Context, prompt Prompt) (bool, error)
}

// Func adapts a function to Gate.
type Func func(ctx context.Context, prompt Prompt) (bool, error)

// Confirm calls f.
func (f Func) Confirm(ctx context.Context, prompt Prompt) (bool, error) {
	return f(ctx, prompt)
}

// Static always answers the same, for headless runs.
type Static bool

// Confirm returns the fixed answer.
func (s Static) Confirm(context.Context, Prompt) (bool, error) {
	return bool(s), nil
}
