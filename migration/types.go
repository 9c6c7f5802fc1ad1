package migration

import "strings"

type Direction rune

const (
	Rollback Direction = 'r'
	Commit   Direction = 'c'
)

func (d Direction) String() string {
	switch d {
	case Commit:
		return "commit"
	case Rollback:
		return "rollback"
	default:
		return "unknown"
	}
}

// ScriptSuffix is the file name suffix identifying the script of a unit
// that moves the database in this direction.
func (d Direction) ScriptSuffix() string {
	return "_" + d.String() + ".sql"
}

// ---

const TimestampLayout = "20060102150405"

// Cursor is the catalog index of the last committed unit.
type Cursor int

// Clean is the cursor of a database with no units applied.
const Clean Cursor = -1

// ---

// Unit is a single migration: a directory named <timestamp>_<slug> holding
// a commit script and a rollback script.
type Unit struct {
	ID string
}

func (u Unit) Timestamp() string {
	timestamp, _, _ := strings.Cut(u.ID, "_")
	return timestamp
}

func (u Unit) Slug() string {
	_, slug, _ := strings.Cut(u.ID, "_")
	return slug
}

func (u Unit) String() string {
	return u.ID
}

// ---

type Status uint

const (
	Pending Status = iota
	Applied
)

func (s Status) String() string {
	if s == Applied {
		return "applied"
	}
	return "pending"
}

type State struct {
	Unit
	Index  int
	Status Status
}
