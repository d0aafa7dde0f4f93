// Package prompt asks the operator yes/no questions and waits for enter
// before exit. On a terminal it uses a small bubbletea program; otherwise it
// reads plain lines, so answers can be scripted through stdin.
package prompt

import (
	"context"
	"io"
	"os"

	"github.com/kyleseven/ReLive-Compress/internal/term"
)

// Prompter interacts with the operator.
type Prompter interface {
	// Confirm asks a yes/no question. The default answer is no.
	Confirm(ctx context.Context, question string) (bool, error)
	// Pause shows message and waits for enter.
	Pause(ctx context.Context, message string) error
}

// Options configures New.
type Options struct {
	AssumeYes bool // Confirm answers yes without asking.
	NoPause   bool // Pause returns immediately.
	In        *os.File
	Out       io.Writer
}

// New returns the Prompter for o. Pause is skipped when stdin is not a
// terminal since nobody is there to press enter.
func New(o Options) Prompter {
	tty := term.IsTerminal(o.In)
	var base Prompter
	if tty {
		base = NewTTYPrompter(o.In, o.Out)
	} else {
		base = NewLinePrompter(o.In, o.Out)
	}
	return &policy{base: base, assumeYes: o.AssumeYes, noPause: o.NoPause || !tty}
}

type policy struct {
	base      Prompter
	assumeYes bool
	noPause   bool
}

func (p *policy) Confirm(ctx context.Context, question string) (bool, error) {
	if p.assumeYes {
		return true, nil
	}
	return p.base.Confirm(ctx, question)
}

func (p *policy) Pause(ctx context.Context, message string) error {
	if p.noPause {
		return nil
	}
	return p.base.Pause(ctx, message)
}

// Auto answers every question with Answer and never pauses.
type Auto struct {
	Answer bool
}

func (a Auto) Confirm(context.Context, string) (bool, error) { return a.Answer, nil }

func (Auto) Pause(context.Context, string) error { return nil }
