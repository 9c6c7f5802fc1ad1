package source

import (
	"errors"

	"github.com/root-talis/kasoru/migration"
)

type Source interface {
	ListUnits() ([]string, error)
	ReadScript(unit migration.Unit, direction migration.Direction) (string, error)
}

var (
	ErrScriptNotFound  = errors.New("migration script not found")
	ErrScriptAmbiguous = errors.New("more than one migration script matches")
)
