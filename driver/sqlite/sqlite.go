package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver

	"github.com/root-talis/kasoru/driver"
	"github.com/root-talis/kasoru/migration"
)

const DriverName = "sqlite3"

type DriverConfig struct {
	CursorTableName string
}

type sqliteDriver struct {
	conn   *sql.DB
	config DriverConfig
}

func NewDriver(conn *sql.DB, config DriverConfig) driver.CursorStore {
	if config.CursorTableName == "" {
		config.CursorTableName = driver.DefaultCursorTableName
	}

	return &sqliteDriver{
		conn:   conn,
		config: config,
	}
}

// Open connects to the database file at path.
func Open(path string) (*sql.DB, error) {
	conn, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	return conn, nil
}

func (drv *sqliteDriver) Ensure(ctx context.Context) error {
	tableName := drv.makeQuotedCursorTableName()

	_, err := drv.conn.ExecContext(ctx, fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s ("+
			"id        INTEGER PRIMARY KEY CHECK (id = 1), "+
			"\"cursor\"  INTEGER NOT NULL DEFAULT -1, "+
			"completed TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP"+
			")",
		tableName,
	))
	if err != nil {
		return fmt.Errorf("failed to create cursor table %s: %w", tableName, err)
	}

	_, err = drv.conn.ExecContext(ctx, fmt.Sprintf(
		"INSERT OR IGNORE INTO %s (id, \"cursor\") VALUES (1, %d)",
		tableName, migration.Clean,
	))
	if err != nil {
		return fmt.Errorf("failed to initialize cursor table %s: %w", tableName, err)
	}

	return nil
}

func (drv *sqliteDriver) Read(ctx context.Context) (migration.Cursor, error) {
	var cursor int

	err := drv.conn.QueryRowContext(ctx, fmt.Sprintf(
		"SELECT \"cursor\" FROM %s WHERE id = 1",
		drv.makeQuotedCursorTableName(),
	)).Scan(&cursor)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return migration.Clean, nil
	case err != nil:
		return migration.Clean, fmt.Errorf("%w: %w", driver.ErrInvalidCursorTable, err)
	}

	return migration.Cursor(cursor), nil
}

func (drv *sqliteDriver) Write(ctx context.Context, tx *sql.Tx, from, to migration.Cursor) error {
	result, err := tx.ExecContext(ctx, fmt.Sprintf(
		"UPDATE %s SET \"cursor\" = ?, completed = CURRENT_TIMESTAMP WHERE id = 1 AND \"cursor\" = ?",
		drv.makeQuotedCursorTableName(),
	), int(to), int(from))
	if err != nil {
		return fmt.Errorf("failed to update cursor: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update cursor: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: expected %d", driver.ErrCursorMoved, from)
	}

	return nil
}

func (drv *sqliteDriver) makeQuotedCursorTableName() string {
	return `"` + strings.ReplaceAll(drv.config.CursorTableName, `"`, `""`) + `"`
}
