// Package kasoru moves a database schema forward and backward through an
// ordered catalog of migrations, tracking progress with a single cursor.
package kasoru

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/root-talis/kasoru/driver"
	"github.com/root-talis/kasoru/gate"
	"github.com/root-talis/kasoru/log"
	"github.com/root-talis/kasoru/migration"
	"github.com/root-talis/kasoru/source"
)

// ---

type Kasoru interface {
	Status(ctx context.Context) (*StatusResult, error)
	Commit(ctx context.Context, options Options) (*Result, error)
	Rollback(ctx context.Context, options Options) (*Result, error)
}

type Options struct {
	// All applies the whole subset without asking the gate.
	All bool
}

type Outcome uint

const (
	Applied Outcome = iota
	AlreadyMigrated
	AlreadyClean
	Cancelled
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case AlreadyMigrated:
		return "already fully migrated"
	case AlreadyClean:
		return "already clean"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

type Result struct {
	Outcome   Outcome
	Direction migration.Direction
	Units     []migration.Unit
	From      migration.Cursor
	To        migration.Cursor
}

type StatusResult struct {
	Migrations   []migration.State
	Cursor       migration.Cursor
	AppliedCount uint
	PendingCount uint
}

// ---

type kasoruImpl struct {
	source   source.Source
	store    driver.CursorStore
	gate     gate.Gate
	executor *Executor
}

// ---

// New wires a runner around a caller-owned database handle. gate may be nil
// when every operation runs with Options.All.
func New(db *sql.DB, src source.Source, store driver.CursorStore, g gate.Gate) Kasoru {
	return &kasoruImpl{
		source:   src,
		store:    store,
		gate:     g,
		executor: NewExecutor(db, src, store),
	}
}

// ---

func (k *kasoruImpl) Status(ctx context.Context) (*StatusResult, error) {
	catalog, err := k.loadCatalog()
	if err != nil {
		return nil, err
	}

	cursor, err := k.loadCursor(ctx)
	if err != nil {
		return nil, err
	}

	if err := catalog.check(cursor); err != nil {
		return nil, err
	}

	result := StatusResult{
		Migrations: catalog.States(cursor),
		Cursor:     cursor,
	}
	for _, state := range result.Migrations {
		if state.Status == migration.Applied {
			result.AppliedCount++
		} else {
			result.PendingCount++
		}
	}

	return &result, nil
}

func (k *kasoruImpl) Commit(ctx context.Context, options Options) (*Result, error) {
	return k.run(ctx, migration.Commit, options)
}

func (k *kasoruImpl) Rollback(ctx context.Context, options Options) (*Result, error) {
	return k.run(ctx, migration.Rollback, options)
}

func (k *kasoruImpl) run(ctx context.Context, direction migration.Direction, options Options) (*Result, error) {
	catalog, err := k.loadCatalog()
	if err != nil {
		return nil, err
	}

	cursor, err := k.loadCursor(ctx)
	if err != nil {
		return nil, err
	}

	log.DebugContext(ctx, "migration state loaded", "cursor", int(cursor), "migrations", len(catalog))

	subset, err := Resolve(catalog, cursor, direction)
	if err != nil {
		return nil, err
	}

	result := &Result{Direction: direction, From: cursor, To: cursor}

	if subset.Empty() {
		if direction == migration.Commit {
			result.Outcome = AlreadyMigrated
		} else {
			result.Outcome = AlreadyClean
		}
		log.InfoContext(ctx, "nothing to do", "outcome", result.Outcome.String(), "cursor", int(cursor))
		return result, nil
	}

	plan, err := k.choose(ctx, subset, options)
	if errors.Is(err, gate.ErrCancelled) {
		result.Outcome = Cancelled
		log.InfoContext(ctx, "selection cancelled, database left untouched")
		return result, nil
	}
	if err != nil {
		return nil, err
	}

	log.InfoContext(ctx, "applying migrations", "count", len(plan.Units), "from", int(plan.From), "to", int(plan.To))

	if err := k.executor.Execute(ctx, plan); err != nil {
		log.ErrorContext(ctx, "migration failed, cursor unchanged", "error", err, "cursor", int(plan.From))
		return nil, err
	}

	for _, unit := range plan.Units {
		log.InfoContext(ctx, "migration applied", "migration", unit.ID)
	}

	result.Outcome = Applied
	result.Units = plan.Units
	result.To = plan.To

	return result, nil
}

func (k *kasoruImpl) choose(ctx context.Context, subset Subset, options Options) (Plan, error) {
	if options.All {
		return subset.All()
	}

	if k.gate == nil {
		return Plan{}, ErrNoGate
	}

	offset, err := k.gate.Choose(ctx, subset.Labels())
	if err != nil {
		if errors.Is(err, gate.ErrCancelled) {
			return Plan{}, err
		}
		return Plan{}, fmt.Errorf("failed to select a migration: %w", err)
	}

	return subset.Stop(offset)
}

func (k *kasoruImpl) loadCatalog() (Catalog, error) {
	names, err := k.source.ListUnits()
	if err != nil {
		return nil, &CatalogReadError{Err: err}
	}

	catalog, err := NewCatalog(names)
	if err != nil {
		return nil, &CatalogReadError{Err: err}
	}

	return catalog, nil
}

func (k *kasoruImpl) loadCursor(ctx context.Context) (migration.Cursor, error) {
	if err := k.store.Ensure(ctx); err != nil {
		return migration.Clean, &CursorUnavailableError{Err: err}
	}

	cursor, err := k.store.Read(ctx)
	if err != nil {
		return migration.Clean, &CursorUnavailableError{Err: err}
	}

	return cursor, nil
}
