package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/root-talis/kasoru/config"
	"github.com/root-talis/kasoru/driver"
	"github.com/root-talis/kasoru/driver/mysql"
	"github.com/root-talis/kasoru/driver/postgres"
	"github.com/root-talis/kasoru/driver/sqlite"
)

type database struct {
	conn  *sql.DB
	store driver.CursorStore
}

func openDatabase(ctx context.Context, cfg config.Config) (*database, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		conn, err := postgres.Connect(ctx, cfg.DSN)
		if err != nil {
			return nil, err //nolint:wrapcheck
		}
		store := postgres.NewDriver(conn, postgres.DriverConfig{CursorTableName: cfg.CursorTable})
		return &database{conn: conn.DB, store: store}, nil

	case config.DriverMySQL:
		dsn, databaseName, err := mysql.PrepareDSN(cfg.DSN)
		if err != nil {
			return nil, err //nolint:wrapcheck
		}

		conn, err := sql.Open(mysql.DriverName, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := conn.PingContext(ctx); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		store := mysql.NewDriver(conn, mysql.DriverConfig{DatabaseName: databaseName, CursorTableName: cfg.CursorTable})
		return &database{conn: conn, store: store}, nil

	case config.DriverSQLite:
		conn, err := sqlite.Open(cfg.DSN)
		if err != nil {
			return nil, err //nolint:wrapcheck
		}
		store := sqlite.NewDriver(conn, sqlite.DriverConfig{CursorTableName: cfg.CursorTable})
		return &database{conn: conn, store: store}, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
