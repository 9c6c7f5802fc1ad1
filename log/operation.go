package log

import (
	"context"

	"github.com/google/uuid"
)

// WithOperation returns a context carrying a fresh operation ID and the
// direction name, so every record of one run can be correlated.
func WithOperation(ctx context.Context, direction string) context.Context {
	ctx = context.WithValue(ctx, OperationIDKey, uuid.NewString())
	if direction != "" {
		ctx = context.WithValue(ctx, DirectionKey, direction)
	}
	return ctx
}

// OperationID returns the operation ID stored by WithOperation, if any.
func OperationID(ctx context.Context) string {
	id, _ := ctx.Value(OperationIDKey).(string)
	return id
}
