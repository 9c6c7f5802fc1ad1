package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/root-talis/kasoru/migration"
)

var slugRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_]*$`)

var ErrInvalidSlug = errors.New("migration name must start with a letter or a digit and contain only letters, digits and underscores")

// Create scaffolds a new unit under migrationsDirectory: a directory named
// after now and slug holding an empty commit script and an empty rollback
// script. It returns the created unit.
func Create(migrationsDirectory, slug string, now time.Time) (migration.Unit, error) {
	if !slugRegex.MatchString(slug) {
		return migration.Unit{}, fmt.Errorf("%w (got: %q)", ErrInvalidSlug, slug)
	}

	unit := migration.Unit{ID: now.UTC().Format(migration.TimestampLayout) + "_" + slug}

	if err := os.MkdirAll(migrationsDirectory, 0o755); err != nil {
		return migration.Unit{}, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	unitDir := filepath.Join(migrationsDirectory, unit.ID)
	if err := os.Mkdir(unitDir, 0o755); err != nil {
		return migration.Unit{}, fmt.Errorf("failed to create migration %s: %w", unit.ID, err)
	}

	for _, direction := range []migration.Direction{migration.Commit, migration.Rollback} {
		scriptPath := filepath.Join(unitDir, unit.ID+direction.ScriptSuffix())
		if err := os.WriteFile(scriptPath, nil, 0o644); err != nil {
			return migration.Unit{}, fmt.Errorf("failed to write %s script of migration %s: %w", direction, unit.ID, err)
		}
	}

	return unit, nil
}
