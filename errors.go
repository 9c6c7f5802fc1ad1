package kasoru

import (
	"errors"
	"fmt"

	"github.com/root-talis/kasoru/migration"
)

var (
	ErrCatalogRead       = errors.New("failed to read migrations catalog")
	ErrCursorUnavailable = errors.New("failed to read migration cursor")
	ErrScriptRead        = errors.New("failed to read migration script")
	ErrTransaction       = errors.New("migration transaction failed")

	ErrDuplicateUnit    = errors.New("migration is listed more than once")
	ErrCursorOutOfRange = errors.New("migration cursor is outside of the catalog")
	ErrOffsetOutOfRange = errors.New("selected migration is outside of the list")
	ErrUnknownDirection = errors.New("unknown migration direction")
	ErrNoGate           = errors.New("no selection gate to choose a migration with")
)

// CatalogReadError is returned when the list of migrations cannot be built.
type CatalogReadError struct {
	Err error
}

func (e *CatalogReadError) Error() string {
	return fmt.Sprintf("%s: %v", ErrCatalogRead, e.Err)
}

func (e *CatalogReadError) Unwrap() error {
	return e.Err
}

func (e *CatalogReadError) Is(target error) bool {
	return target == ErrCatalogRead
}

// CursorUnavailableError is returned when the cursor table cannot be
// bootstrapped or read.
type CursorUnavailableError struct {
	Err error
}

func (e *CursorUnavailableError) Error() string {
	return fmt.Sprintf("%s: %v", ErrCursorUnavailable, e.Err)
}

func (e *CursorUnavailableError) Unwrap() error {
	return e.Err
}

func (e *CursorUnavailableError) Is(target error) bool {
	return target == ErrCursorUnavailable
}

// ScriptReadError is returned when a script of a selected unit cannot be
// read. Nothing has been sent to the database at that point.
type ScriptReadError struct {
	Unit      migration.Unit
	Direction migration.Direction
	Err       error
}

func (e *ScriptReadError) Error() string {
	return fmt.Sprintf("%s (%s %s): %v", ErrScriptRead, e.Direction, e.Unit.ID, e.Err)
}

func (e *ScriptReadError) Unwrap() error {
	return e.Err
}

func (e *ScriptReadError) Is(target error) bool {
	return target == ErrScriptRead
}

// TransactionError is returned when the transaction applying a plan fails.
// The transaction has been rolled back and the cursor still equals From.
type TransactionError struct {
	Direction migration.Direction
	From      migration.Cursor
	To        migration.Cursor
	Operation string
	Err       error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("%s (%s from %d to %d) during %s: %v", ErrTransaction, e.Direction, e.From, e.To, e.Operation, e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

func (e *TransactionError) Is(target error) bool {
	return target == ErrTransaction
}
