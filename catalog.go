package kasoru

import (
	"fmt"
	"sort"
	"strings"

	"github.com/root-talis/kasoru/migration"
)

// Catalog is the list of known units in ascending ID order. Because IDs
// start with a timestamp, catalog order is creation order.
type Catalog []migration.Unit

// NewCatalog builds a catalog from unordered unit directory names. Hidden
// names are skipped; duplicates are rejected. Names are not validated
// otherwise, so anything sorting between two units becomes a unit too.
func NewCatalog(names []string) (Catalog, error) {
	ids := make([]string, 0, len(names))
	for _, name := range names {
		if name == "" || strings.HasPrefix(name, ".") {
			continue
		}
		ids = append(ids, name)
	}

	sort.Strings(ids)

	catalog := make(Catalog, len(ids))
	for i, id := range ids {
		if i > 0 && ids[i-1] == id {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateUnit, id)
		}
		catalog[i] = migration.Unit{ID: id}
	}

	return catalog, nil
}

// Last returns the cursor of a fully migrated database.
func (c Catalog) Last() migration.Cursor {
	return migration.Cursor(len(c) - 1)
}

func (c Catalog) check(cursor migration.Cursor) error {
	if cursor < migration.Clean || cursor > c.Last() {
		return fmt.Errorf("%w: cursor %d, %d migrations known", ErrCursorOutOfRange, cursor, len(c))
	}
	return nil
}

// States describes every unit of the catalog relative to cursor.
func (c Catalog) States(cursor migration.Cursor) []migration.State {
	states := make([]migration.State, len(c))
	for i, unit := range c {
		status := migration.Pending
		if migration.Cursor(i) <= cursor {
			status = migration.Applied
		}

		states[i] = migration.State{Unit: unit, Index: i, Status: status}
	}

	return states
}
