package kasoru

import (
	"fmt"

	"github.com/root-talis/kasoru/migration"
)

// Subset is the ordered list of units an operation may move across, starting
// from the unit nearest to the cursor.
type Subset struct {
	Direction migration.Direction
	Cursor    migration.Cursor
	Units     []migration.Unit

	// indices[i] is the catalog index of Units[i]
	indices []int
}

// Plan is a resolved operation: the units to apply in order and the cursor
// value that follows.
type Plan struct {
	Direction migration.Direction
	Units     []migration.Unit
	From      migration.Cursor
	To        migration.Cursor
}

// Resolve computes the units reachable from cursor in the given direction.
// Commit yields catalog[cursor+1:] in ascending order; rollback yields
// catalog[:cursor+1] most recent first. It does no I/O.
func Resolve(catalog Catalog, cursor migration.Cursor, direction migration.Direction) (Subset, error) {
	if err := catalog.check(cursor); err != nil {
		return Subset{}, err
	}

	subset := Subset{Direction: direction, Cursor: cursor}

	switch direction {
	case migration.Commit:
		for i := int(cursor) + 1; i < len(catalog); i++ {
			subset.Units = append(subset.Units, catalog[i])
			subset.indices = append(subset.indices, i)
		}
	case migration.Rollback:
		for i := int(cursor); i >= 0; i-- {
			subset.Units = append(subset.Units, catalog[i])
			subset.indices = append(subset.indices, i)
		}
	default:
		return Subset{}, fmt.Errorf("%w: %q", ErrUnknownDirection, rune(direction))
	}

	return subset, nil
}

func (s Subset) Empty() bool {
	return len(s.Units) == 0
}

func (s Subset) Labels() []string {
	labels := make([]string, len(s.Units))
	for i, unit := range s.Units {
		labels[i] = unit.ID
	}
	return labels
}

// Stop plans the operation that applies Units[0..offset] inclusive.
func (s Subset) Stop(offset int) (Plan, error) {
	if offset < 0 || offset >= len(s.Units) {
		return Plan{}, fmt.Errorf("%w: %d of %d", ErrOffsetOutOfRange, offset, len(s.Units))
	}

	to := migration.Cursor(s.indices[offset])
	if s.Direction == migration.Rollback {
		to--
	}

	units := make([]migration.Unit, offset+1)
	copy(units, s.Units[:offset+1])

	return Plan{
		Direction: s.Direction,
		Units:     units,
		From:      s.Cursor,
		To:        to,
	}, nil
}

// All plans the operation that applies the whole subset.
func (s Subset) All() (Plan, error) {
	return s.Stop(len(s.Units) - 1)
}
