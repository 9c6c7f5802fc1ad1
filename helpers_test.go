package kasoru_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/root-talis/kasoru/driver"
	"github.com/root-talis/kasoru/driver/sqlite"
	"github.com/root-talis/kasoru/migration"
	"github.com/root-talis/kasoru/source"
)

var ErrAny = errors.New("test error") //nolint:gochecknoglobals

// -- testing double for source ----------

type script struct {
	commit   string
	rollback string
}

type sourceMock struct {
	units   map[string]script
	listErr error

	mu    sync.Mutex
	reads []string
}

func newSourceMock(units map[string]script) *sourceMock {
	return &sourceMock{units: units}
}

func (m *sourceMock) ListUnits() ([]string, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}

	names := make([]string, 0, len(m.units))
	for name := range m.units {
		names = append(names, name)
	}
	return names, nil
}

func (m *sourceMock) ReadScript(unit migration.Unit, direction migration.Direction) (string, error) {
	m.mu.Lock()
	m.reads = append(m.reads, fmt.Sprintf("%s:%s", direction, unit.ID))
	m.mu.Unlock()

	s, ok := m.units[unit.ID]
	if !ok {
		return "", fmt.Errorf("%w: %s", source.ErrScriptNotFound, unit.ID)
	}

	if direction == migration.Commit {
		return s.commit, nil
	}
	return s.rollback, nil
}

func (m *sourceMock) readCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reads)
}

// -- testing double for cursor store ----------

type storeMock struct {
	cursor    migration.Cursor
	ensureErr error
	readErr   error
	writes    int
}

func (m *storeMock) Ensure(context.Context) error {
	return m.ensureErr
}

func (m *storeMock) Read(context.Context) (migration.Cursor, error) {
	return m.cursor, m.readErr
}

func (m *storeMock) Write(context.Context, *sql.Tx, migration.Cursor, migration.Cursor) error {
	m.writes++
	return nil
}

// -- real sqlite database ----------

type testDatabase struct {
	conn  *sql.DB
	store driver.CursorStore
}

func newTestDatabase(t *testing.T, cursor migration.Cursor) *testDatabase {
	t.Helper()

	ctx := context.Background()

	conn, err := sqlite.Open(filepath.Join(t.TempDir(), "kasoru.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	store := sqlite.NewDriver(conn, sqlite.DriverConfig{})
	require.NoError(t, store.Ensure(ctx))

	if cursor != migration.Clean {
		tx, err := conn.BeginTx(ctx, nil)
		require.NoError(t, err)
		require.NoError(t, store.Write(ctx, tx, migration.Clean, cursor))
		require.NoError(t, tx.Commit())
	}

	return &testDatabase{conn: conn, store: store}
}

func (db *testDatabase) cursor(t *testing.T) migration.Cursor {
	t.Helper()

	cursor, err := db.store.Read(context.Background())
	require.NoError(t, err)
	return cursor
}

func (db *testDatabase) hasTable(t *testing.T, name string) bool {
	t.Helper()

	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&count)
	require.NoError(t, err)
	return count == 1
}

// tableUnits builds units whose commit script creates a table named after
// the unit and whose rollback script drops it.
func tableUnits(names ...string) map[string]script {
	units := make(map[string]script, len(names))
	for _, name := range names {
		table := tableOf(name)
		units[name] = script{
			commit:   fmt.Sprintf("CREATE TABLE %s (id INTEGER);", table),
			rollback: fmt.Sprintf("DROP TABLE %s;", table),
		}
	}
	return units
}

func tableOf(unitID string) string {
	return "t_" + migration.Unit{ID: unitID}.Slug()
}
