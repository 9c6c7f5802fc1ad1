package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/root-talis/kasoru/driver"
	"github.com/root-talis/kasoru/driver/sqlite"
	"github.com/root-talis/kasoru/migration"
)

var defaultDriverConfig = sqlite.DriverConfig{CursorTableName: "kasoru_cursor"} //nolint:gochecknoglobals

func openTestDatabase(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := sqlite.Open(filepath.Join(t.TempDir(), "kasoru.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := conn.Close(); err != nil {
			t.Errorf("failed to close test database: %s", err)
		}
	})

	return conn
}

func countRows(t *testing.T, conn *sql.DB, table string) int {
	t.Helper()

	var count int
	require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&count))
	return count
}

func TestEnsure(t *testing.T) {
	t.Parallel()

	t.Run("creates the table with a clean cursor", func(t *testing.T) {
		t.Parallel()

		conn := openTestDatabase(t)
		drv := sqlite.NewDriver(conn, defaultDriverConfig)

		require.NoError(t, drv.Ensure(context.Background()))

		cursor, err := drv.Read(context.Background())
		require.NoError(t, err)
		assert.Equal(t, migration.Clean, cursor)
		assert.Equal(t, 1, countRows(t, conn, "kasoru_cursor"))
	})

	t.Run("is idempotent and never resets the cursor", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		conn := openTestDatabase(t)
		drv := sqlite.NewDriver(conn, defaultDriverConfig)

		require.NoError(t, drv.Ensure(ctx))

		tx, err := conn.BeginTx(ctx, nil)
		require.NoError(t, err)
		require.NoError(t, drv.Write(ctx, tx, migration.Clean, 2))
		require.NoError(t, tx.Commit())

		require.NoError(t, drv.Ensure(ctx))
		require.NoError(t, drv.Ensure(ctx))

		cursor, err := drv.Read(ctx)
		require.NoError(t, err)
		assert.Equal(t, migration.Cursor(2), cursor)
		assert.Equal(t, 1, countRows(t, conn, "kasoru_cursor"))
	})

	t.Run("concurrent first runs create a single row", func(t *testing.T) {
		t.Parallel()

		conn := openTestDatabase(t)
		conn.SetMaxOpenConns(1)

		var wg sync.WaitGroup
		errs := make([]error, 4)
		for i := range errs {
			i := i
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs[i] = sqlite.NewDriver(conn, defaultDriverConfig).Ensure(context.Background())
			}()
		}
		wg.Wait()

		for _, err := range errs {
			assert.NoError(t, err)
		}
		assert.Equal(t, 1, countRows(t, conn, "kasoru_cursor"))
	})

	t.Run("uses a custom table name", func(t *testing.T) {
		t.Parallel()

		conn := openTestDatabase(t)
		drv := sqlite.NewDriver(conn, sqlite.DriverConfig{CursorTableName: "some_strange_cursor"})

		require.NoError(t, drv.Ensure(context.Background()))
		assert.Equal(t, 1, countRows(t, conn, "some_strange_cursor"))
	})

	t.Run("defaults the table name", func(t *testing.T) {
		t.Parallel()

		conn := openTestDatabase(t)
		drv := sqlite.NewDriver(conn, sqlite.DriverConfig{})

		require.NoError(t, drv.Ensure(context.Background()))
		assert.Equal(t, 1, countRows(t, conn, driver.DefaultCursorTableName))
	})
}

func TestRead(t *testing.T) {
	t.Parallel()

	t.Run("treats a missing row as clean", func(t *testing.T) {
		t.Parallel()

		conn := openTestDatabase(t)
		drv := sqlite.NewDriver(conn, defaultDriverConfig)

		require.NoError(t, drv.Ensure(context.Background()))
		_, err := conn.Exec("DELETE FROM kasoru_cursor")
		require.NoError(t, err)

		cursor, err := drv.Read(context.Background())
		require.NoError(t, err)
		assert.Equal(t, migration.Clean, cursor)
	})

	t.Run("fails on a table with bad structure", func(t *testing.T) {
		t.Parallel()

		conn := openTestDatabase(t)
		_, err := conn.Exec("CREATE TABLE kasoru_cursor (id INTEGER PRIMARY KEY)")
		require.NoError(t, err)

		drv := sqlite.NewDriver(conn, defaultDriverConfig)

		_, err = drv.Read(context.Background())
		assert.ErrorIs(t, err, driver.ErrInvalidCursorTable)
	})
}

func TestWrite(t *testing.T) {
	t.Parallel()

	t.Run("is invisible until the transaction commits", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		conn := openTestDatabase(t)
		drv := sqlite.NewDriver(conn, defaultDriverConfig)
		require.NoError(t, drv.Ensure(ctx))

		tx, err := conn.BeginTx(ctx, nil)
		require.NoError(t, err)
		require.NoError(t, drv.Write(ctx, tx, migration.Clean, 0))
		require.NoError(t, tx.Rollback())

		cursor, err := drv.Read(ctx)
		require.NoError(t, err)
		assert.Equal(t, migration.Clean, cursor)
	})

	t.Run("fails when the cursor was moved", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		conn := openTestDatabase(t)
		drv := sqlite.NewDriver(conn, defaultDriverConfig)
		require.NoError(t, drv.Ensure(ctx))

		tx, err := conn.BeginTx(ctx, nil)
		require.NoError(t, err)
		err = drv.Write(ctx, tx, 1, 2)
		assert.ErrorIs(t, err, driver.ErrCursorMoved)
		require.NoError(t, tx.Rollback())
	})
}
