package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	mysqldrv "github.com/go-sql-driver/mysql"

	"github.com/root-talis/kasoru/driver"
	"github.com/root-talis/kasoru/migration"
)

const DriverName = "mysql"

type DriverConfig struct {
	DatabaseName    string
	CursorTableName string
}

type mysqlDriver struct {
	conn   *sql.DB
	config DriverConfig
}

func NewDriver(conn *sql.DB, config DriverConfig) driver.CursorStore {
	if config.CursorTableName == "" {
		config.CursorTableName = driver.DefaultCursorTableName
	}

	return &mysqlDriver{
		conn:   conn,
		config: config,
	}
}

// PrepareDSN enables multi-statement execution, which concatenated migration
// scripts need, and reports the database name the DSN points at.
func PrepareDSN(dsn string) (string, string, error) {
	cfg, err := mysqldrv.ParseDSN(dsn)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse mysql dsn: %w", err)
	}

	cfg.MultiStatements = true

	return cfg.FormatDSN(), cfg.DBName, nil
}

// Ensure creates the cursor table. The primary key pins the table to one
// row, so concurrent first runs cannot insert it twice.
func (drv *mysqlDriver) Ensure(ctx context.Context) error {
	tableName := drv.makeEscapedCursorTableName()

	_, err := drv.conn.ExecContext(ctx, fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s ("+
			"id         tinyint not null default 1, "+
			"`cursor`   int not null default -1, "+
			"completed  datetime default CURRENT_TIMESTAMP not null, "+
			"primary key (id)"+
			") default charset utf8",
		tableName,
	))
	if err != nil {
		return fmt.Errorf("failed to create cursor table %s: %w", tableName, err)
	}

	_, err = drv.conn.ExecContext(ctx, fmt.Sprintf(
		"INSERT IGNORE INTO %s (id, `cursor`) VALUES (1, %d)",
		tableName, migration.Clean,
	))
	if err != nil {
		return fmt.Errorf("failed to initialize cursor table %s: %w", tableName, err)
	}

	return nil
}

func (drv *mysqlDriver) Read(ctx context.Context) (migration.Cursor, error) {
	var cursor int

	err := drv.conn.QueryRowContext(ctx, fmt.Sprintf(
		"SELECT `cursor` FROM %s WHERE id = 1",
		drv.makeEscapedCursorTableName(),
	)).Scan(&cursor)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return migration.Clean, nil
	case err != nil:
		return migration.Clean, fmt.Errorf("%w: %w", driver.ErrInvalidCursorTable, err)
	}

	return migration.Cursor(cursor), nil
}

func (drv *mysqlDriver) Write(ctx context.Context, tx *sql.Tx, from, to migration.Cursor) error {
	result, err := tx.ExecContext(ctx, fmt.Sprintf(
		"UPDATE %s SET `cursor` = ?, completed = CURRENT_TIMESTAMP WHERE id = 1 AND `cursor` = ?",
		drv.makeEscapedCursorTableName(),
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

func (drv *mysqlDriver) makeEscapedCursorTableName() string {
	if drv.config.DatabaseName == "" {
		return quoteIdentifier(drv.config.CursorTableName)
	}

	return quoteIdentifier(drv.config.DatabaseName) + "." + quoteIdentifier(drv.config.CursorTableName)
}

// quoteIdentifier wraps name in backticks. A backtick inside an identifier
// is written twice.
func quoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
