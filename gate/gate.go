// Package gate defines how an operator picks where a commit or rollback stops.
package gate

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrCancelled is returned by a Gate when the operator declines to choose.
	ErrCancelled = errors.New("selection cancelled")

	ErrOutOfRange = errors.New("selected offset is out of range")
)

// Gate picks a stopping offset among labels, which are listed in the order
// they would be applied.
type Gate interface {
	Choose(ctx context.Context, labels []string) (int, error)
}

// Func adapts a plain function to a Gate.
type Func func(ctx context.Context, labels []string) (int, error)

func (f Func) Choose(ctx context.Context, labels []string) (int, error) {
	return f(ctx, labels)
}

// Fixed always chooses the same offset.
type Fixed int

func (f Fixed) Choose(_ context.Context, labels []string) (int, error) {
	if int(f) < 0 || int(f) >= len(labels) {
		return 0, fmt.Errorf("%w: %d of %d", ErrOutOfRange, int(f), len(labels))
	}
	return int(f), nil
}

// Cancel always cancels.
type Cancel struct{}

func (Cancel) Choose(context.Context, []string) (int, error) {
	return 0, ErrCancelled
}
