// Command kasoru commits and rolls back SQL migrations kept in a directory
// tree, one transaction per run.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/root-talis/kasoru/config"
	"github.com/root-talis/kasoru/log"
)

// Globals are flags shared by every command. Empty values fall back to the
// environment, see config.Load.
type Globals struct {
	EnvFile    string `name:"env-file" help:"Read environment variables from this file first." type:"path"`
	Migrations string `help:"Directory holding the migrations (KASORU_MIGRATIONS)." type:"path"`
	Driver     string `help:"Database driver: postgres, mysql or sqlite (KASORU_DRIVER)."`
	Table      string `help:"Name of the cursor table (KASORU_TABLE)."`
	LogFormat  string `name:"log-format" help:"Log format: text or json." enum:"text,json" default:"text"`
	LogLevel   string `name:"log-level" help:"Log level: debug, info, warn or error." default:"info"`
}

type CLI struct {
	Globals

	Create   CreateCmd   `cmd:"" help:"Scaffold a new migration."`
	Commit   CommitCmd   `cmd:"" help:"Apply pending migrations."`
	Rollback RollbackCmd `cmd:"" help:"Roll back applied migrations."`
	Status   StatusCmd   `cmd:"" help:"List migrations and the current cursor."`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "kasoru: %s\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	var cli CLI

	parser, err := kong.New(&cli,
		kong.Name("kasoru"),
		kong.Description("Cursor based SQL migrations."),
		kong.BindTo(ctx, (*context.Context)(nil)),
		kong.BindTo(stdout, (*io.Writer)(nil)),
	)
	if err != nil {
		return fmt.Errorf("failed to build command line parser: %w", err)
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		return err //nolint:wrapcheck
	}

	log.SetDefault(log.New(os.Stderr, cli.LogFormat, log.ParseLevel(cli.LogLevel), nil))

	return kctx.Run(&cli.Globals) //nolint:wrapcheck
}

// config resolves the environment and applies flag overrides on top.
func (g *Globals) config(needDatabase bool) (config.Config, error) {
	cfg, err := config.Load(g.EnvFile, needDatabase)
	if err != nil {
		return config.Config{}, err //nolint:wrapcheck
	}

	if g.Migrations != "" {
		cfg.MigrationsDir = g.Migrations
	}
	if driverName := config.NormalizeDriver(g.Driver); driverName != "" {
		cfg.Driver = driverName
	}
	if g.Table != "" {
		cfg.CursorTable = g.Table
	}

	if needDatabase {
		if err := cfg.Validate(); err != nil {
			return config.Config{}, err //nolint:wrapcheck
		}
	}

	return cfg, nil
}
