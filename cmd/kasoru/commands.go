package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/root-talis/kasoru"
	"github.com/root-talis/kasoru/gate"
	"github.com/root-talis/kasoru/gate/prompt"
	"github.com/root-talis/kasoru/log"
	"github.com/root-talis/kasoru/migration"
	"github.com/root-talis/kasoru/source/files"
)

type CreateCmd struct {
	Slug string `arg:"" help:"Short name of the migration: letters, digits and underscores."`
}

func (c *CreateCmd) Run(globals *Globals, out io.Writer) error {
	cfg, err := globals.config(false)
	if err != nil {
		return err
	}

	unit, err := files.Create(cfg.MigrationsDir, c.Slug, time.Now())
	if err != nil {
		return err //nolint:wrapcheck
	}

	dir := filepath.Join(cfg.MigrationsDir, unit.ID)
	fmt.Fprintf(out, "created %s\n", dir)
	fmt.Fprintf(out, "  %s\n", filepath.Join(dir, unit.ID+migration.Commit.ScriptSuffix()))
	fmt.Fprintf(out, "  %s\n", filepath.Join(dir, unit.ID+migration.Rollback.ScriptSuffix()))

	return nil
}

type CommitCmd struct {
	All bool `help:"Apply every pending migration without asking."`
}

func (c *CommitCmd) Run(ctx context.Context, globals *Globals, out io.Writer) error {
	return migrate(ctx, globals, out, migration.Commit, c.All)
}

type RollbackCmd struct {
	All bool `help:"Roll back every applied migration without asking."`
}

func (c *RollbackCmd) Run(ctx context.Context, globals *Globals, out io.Writer) error {
	return migrate(ctx, globals, out, migration.Rollback, c.All)
}

type StatusCmd struct{}

func (c *StatusCmd) Run(ctx context.Context, globals *Globals, out io.Writer) error {
	ctx = log.WithOperation(context.WithValue(ctx, log.CommandKey, "status"), "")

	runner, closeFn, err := open(ctx, globals, nil)
	if err != nil {
		return err
	}
	defer closeFn()

	status, err := runner.Status(ctx)
	if err != nil {
		return err //nolint:wrapcheck
	}

	for _, state := range status.Migrations {
		mark := " "
		if state.Status == migration.Applied {
			mark = "x"
		}
		fmt.Fprintf(out, "[%s] %s  %s\n", mark, state.Timestamp(), state.Slug())
	}
	fmt.Fprintf(out, "cursor: %d, applied: %d, pending: %d\n", status.Cursor, status.AppliedCount, status.PendingCount)

	return nil
}

func migrate(ctx context.Context, globals *Globals, out io.Writer, direction migration.Direction, all bool) error {
	ctx = log.WithOperation(context.WithValue(ctx, log.CommandKey, direction.String()), direction.String())

	var selector gate.Gate
	if !all {
		selector = prompt.New(promptLabel(direction))
	}

	runner, closeFn, err := open(ctx, globals, selector)
	if err != nil {
		return err
	}
	defer closeFn()

	var result *kasoru.Result
	if direction == migration.Commit {
		result, err = runner.Commit(ctx, kasoru.Options{All: all})
	} else {
		result, err = runner.Rollback(ctx, kasoru.Options{All: all})
	}
	if err != nil {
		return fmt.Errorf("operation %s: %w", log.OperationID(ctx), err)
	}

	switch result.Outcome {
	case kasoru.Applied:
		for _, unit := range result.Units {
			fmt.Fprintf(out, "%s %s\n", direction, unit.ID)
		}
		fmt.Fprintf(out, "cursor moved from %d to %d\n", result.From, result.To)
	default:
		fmt.Fprintf(out, "%s, cursor stays at %d\n", result.Outcome, result.From)
	}

	return nil
}

func promptLabel(direction migration.Direction) string {
	if direction == migration.Rollback {
		return "Roll back down to and including"
	}
	return "Commit up to and including"
}

// open connects to the configured database and wires a runner around it.
func open(ctx context.Context, globals *Globals, selector gate.Gate) (kasoru.Kasoru, func(), error) {
	cfg, err := globals.config(true)
	if err != nil {
		return nil, nil, err
	}

	src, err := files.NewFilesSource(os.DirFS(cfg.MigrationsDir), ".")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open migrations directory %s: %w", cfg.MigrationsDir, err)
	}

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	closeFn := func() {
		if err := db.conn.Close(); err != nil {
			log.WarnContext(ctx, "failed to close database connection", "error", err)
		}
	}

	return kasoru.New(db.conn, src, db.store, selector), closeFn, nil
}
