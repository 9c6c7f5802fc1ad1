// Package postgres stores the migration cursor in a PostgreSQL table.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/root-talis/kasoru/driver"
	"github.com/root-talis/kasoru/migration"
)

const DriverName = "postgres"

// DriverConfig configures where the cursor table lives.
type DriverConfig struct {
	// SchemaName is optional; the search path is used when empty.
	SchemaName string

	// CursorTableName defaults to driver.DefaultCursorTableName.
	CursorTableName string
}

type postgresDriver struct {
	conn   *sqlx.DB
	config DriverConfig
}

// NewDriver returns a cursor store working through conn.
func NewDriver(conn *sqlx.DB, config DriverConfig) driver.CursorStore {
	if config.CursorTableName == "" {
		config.CursorTableName = driver.DefaultCursorTableName
	}

	return &postgresDriver{
		conn:   conn,
		config: config,
	}
}

// Connect opens and pings a PostgreSQL connection pool.
func Connect(ctx context.Context, dsn string) (*sqlx.DB, error) {
	conn, err := sqlx.ConnectContext(ctx, DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return conn, nil
}

// Ensure creates the singleton cursor table and its row. The CHECK on id
// keeps the table to one row; ON CONFLICT makes concurrent first runs safe.
func (drv *postgresDriver) Ensure(ctx context.Context) error {
	tableName := drv.makeQuotedCursorTableName()

	_, err := drv.conn.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id        SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
			cursor    INTEGER NOT NULL DEFAULT -1,
			completed TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`, tableName))
	if err != nil {
		return fmt.Errorf("failed to create cursor table %s: %w", tableName, err)
	}

	_, err = drv.conn.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, cursor, completed)
		VALUES (1, $1, NOW())
		ON CONFLICT (id) DO NOTHING
	`, tableName), int(migration.Clean))
	if err != nil {
		return fmt.Errorf("failed to initialize cursor table %s: %w", tableName, err)
	}

	return nil
}

func (drv *postgresDriver) Read(ctx context.Context) (migration.Cursor, error) {
	var cursor int

	err := drv.conn.GetContext(ctx, &cursor, fmt.Sprintf(
		"SELECT cursor FROM %s WHERE id = 1",
		drv.makeQuotedCursorTableName(),
	))

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return migration.Clean, nil
	case err != nil:
		return migration.Clean, fmt.Errorf("%w: %w", driver.ErrInvalidCursorTable, err)
	}

	return migration.Cursor(cursor), nil
}

func (drv *postgresDriver) Write(ctx context.Context, tx *sql.Tx, from, to migration.Cursor) error {
	query := drv.conn.Rebind(fmt.Sprintf(
		"UPDATE %s SET cursor = ?, completed = NOW() WHERE id = 1 AND cursor = ?",
		drv.makeQuotedCursorTableName(),
	))

	result, err := tx.ExecContext(ctx, query, int(to), int(from))
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

func (drv *postgresDriver) makeQuotedCursorTableName() string {
	if drv.config.SchemaName == "" {
		return pq.QuoteIdentifier(drv.config.CursorTableName)
	}

	return pq.QuoteIdentifier(drv.config.SchemaName) + "." + pq.QuoteIdentifier(drv.config.CursorTableName)
}
