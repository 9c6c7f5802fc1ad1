// Package prompt implements gate.Gate as an interactive terminal menu.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/manifoldco/promptui"

	"github.com/root-talis/kasoru/gate"
)

const defaultSize = 10

// Prompt asks the operator to pick the last migration to apply.
type Prompt struct {
	Label string
	Size  int

	// Stdin and Stdout default to the process terminal when nil.
	Stdin  io.ReadCloser
	Stdout io.WriteCloser
}

func New(label string) *Prompt {
	return &Prompt{Label: label, Size: defaultSize}
}

func (p *Prompt) Choose(ctx context.Context, labels []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %w", gate.ErrCancelled, err)
	}

	size := p.Size
	if size <= 0 {
		size = defaultSize
	}

	selector := promptui.Select{
		Label:  p.Label,
		Items:  labels,
		Size:   size,
		Stdin:  p.Stdin,
		Stdout: p.Stdout,
	}

	offset, _, err := selector.Run()
	if err != nil {
		return 0, mapError(err)
	}

	return offset, nil
}

func mapError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) || errors.Is(err, promptui.ErrAbort) {
		return gate.ErrCancelled
	}
	return fmt.Errorf("failed to read selection: %w", err)
}
