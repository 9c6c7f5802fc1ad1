package driver

import (
	"context"
	"database/sql"
	"errors"

	"github.com/root-talis/kasoru/migration"
)

const DefaultCursorTableName = "kasoru_cursor"

// CursorStore persists the single migration cursor of a database.
type CursorStore interface {
	// Ensure creates the cursor table and its only row (set to migration.Clean)
	// when they are missing. Calling it again never resets an existing cursor.
	Ensure(ctx context.Context) error

	// Read returns the stored cursor, or migration.Clean when there is no row.
	Read(ctx context.Context) (migration.Cursor, error)

	// Write moves the cursor from one value to another inside tx. It never
	// commits; ErrCursorMoved is returned when the stored value is not from.
	Write(ctx context.Context, tx *sql.Tx, from, to migration.Cursor) error
}

var (
	ErrInvalidCursorTable = errors.New("an error has occurred when reading cursor table")
	ErrCursorMoved        = errors.New("cursor was moved by another process")
)
