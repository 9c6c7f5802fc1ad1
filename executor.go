package kasoru

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/root-talis/kasoru/driver"
	"github.com/root-talis/kasoru/log"
	"github.com/root-talis/kasoru/source"
)

const maxConcurrentReads = 8

// Executor applies a plan as one database transaction: the scripts of all
// planned units followed by the cursor update.
type Executor struct {
	db     *sql.DB
	source source.Source
	store  driver.CursorStore
}

func NewExecutor(db *sql.DB, src source.Source, store driver.CursorStore) *Executor {
	return &Executor{
		db:     db,
		source: src,
		store:  store,
	}
}

// Execute reads every script of the plan, then runs them and moves the
// cursor from plan.From to plan.To in a single transaction. On failure the
// transaction is rolled back and the cursor keeps its old value.
func (e *Executor) Execute(ctx context.Context, plan Plan) error {
	script, err := e.Script(ctx, plan)
	if err != nil {
		return err
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return e.transactionError(plan, "begin transaction", err)
	}

	// MySQL rejects a query that is only whitespace
	if strings.TrimSpace(script) != "" {
		if _, err = tx.ExecContext(ctx, script); err != nil {
			return e.rollback(ctx, tx, e.transactionError(plan, "execute scripts", err))
		}
	} else {
		log.DebugContext(ctx, "all migration scripts are empty, only the cursor moves")
	}

	if err = e.store.Write(ctx, tx, plan.From, plan.To); err != nil {
		return e.rollback(ctx, tx, e.transactionError(plan, "update cursor", err))
	}

	if err = tx.Commit(); err != nil {
		return e.rollback(ctx, tx, e.transactionError(plan, "commit transaction", err))
	}

	return nil
}

// Script returns the scripts of the plan joined in plan order, each
// followed by a newline. Reads run concurrently.
func (e *Executor) Script(ctx context.Context, plan Plan) (string, error) {
	scripts := make([]string, len(plan.Units))

	var group errgroup.Group
	group.SetLimit(maxConcurrentReads)

	for i, unit := range plan.Units {
		i, unit := i, unit
		group.Go(func() error {
			script, err := e.source.ReadScript(unit, plan.Direction)
			if err != nil {
				return &ScriptReadError{Unit: unit, Direction: plan.Direction, Err: err}
			}
			scripts[i] = script
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return "", err
	}

	var builder strings.Builder
	for i, script := range scripts {
		log.DebugContext(ctx, "migration script loaded", "migration", plan.Units[i].ID, "bytes", len(script))
		builder.WriteString(script)
		builder.WriteString("\n")
	}

	return builder.String(), nil
}

func (e *Executor) rollback(ctx context.Context, tx *sql.Tx, cause error) error {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		log.ErrorContext(ctx, "failed to roll back migration transaction", "error", err)
	}
	return cause
}

func (e *Executor) transactionError(plan Plan, operation string, err error) error {
	return &TransactionError{
		Direction: plan.Direction,
		From:      plan.From,
		To:        plan.To,
		Operation: operation,
		Err:       err,
	}
}
