package files

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/root-talis/kasoru/migration"
	"github.com/root-talis/kasoru/source"
)

type filesSource struct {
	fsys          fs.FS
	migrationsDir string
}

var ErrMigrationsDirectoryIsNotADirectory = errors.New("migrationsDirectory is not a directory")

// NewFilesSource returns a source reading units from the subdirectories of
// migrationsDirectory inside fsys. Use os.DirFS for the real filesystem.
func NewFilesSource(fsys fs.FS, migrationsDirectory string) (source.Source, error) {
	stat, err := fs.Stat(fsys, migrationsDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to stat migrations directory: %w", err)
	}

	if !stat.IsDir() {
		return nil, ErrMigrationsDirectoryIsNotADirectory
	}

	return &filesSource{
		fsys:          fsys,
		migrationsDir: migrationsDirectory,
	}, nil
}

func (src *filesSource) ListUnits() ([]string, error) {
	dirEntries, err := fs.ReadDir(src.fsys, src.migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read contents of migrations directory: %w", err)
	}

	names := make([]string, 0, len(dirEntries))
	for _, entry := range dirEntries {
		if !entry.IsDir() || isHidden(entry.Name()) {
			continue
		}

		names = append(names, entry.Name())
	}

	return names, nil
}

// ReadScript picks the script by its suffix, so the position of the file in
// the directory listing does not matter.
func (src *filesSource) ReadScript(unit migration.Unit, direction migration.Direction) (string, error) {
	unitDir := path.Join(src.migrationsDir, unit.ID)

	dirEntries, err := fs.ReadDir(src.fsys, unitDir)
	if err != nil {
		return "", fmt.Errorf("failed to read contents of migration %s: %w", unit.ID, err)
	}

	suffix := direction.ScriptSuffix()
	found := ""

	for _, entry := range dirEntries {
		name := entry.Name()
		if !entry.Type().IsRegular() || isHidden(name) || !strings.HasSuffix(name, suffix) {
			continue
		}

		if found != "" {
			return "", fmt.Errorf("%w: %s and %s in %s", source.ErrScriptAmbiguous, found, name, unit.ID)
		}
		found = name
	}

	if found == "" {
		return "", fmt.Errorf("%w: no *%s in %s", source.ErrScriptNotFound, suffix, unit.ID)
	}

	script, err := fs.ReadFile(src.fsys, path.Join(unitDir, found))
	if err != nil {
		return "", fmt.Errorf("failed to read %s script of migration %s: %w", direction, unit.ID, err)
	}

	return string(script), nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
