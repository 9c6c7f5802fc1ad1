// Package config loads the runner settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/root-talis/kasoru/driver"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

var ErrUnknownDriver = errors.New("unknown database driver")

// Config captures the environment driven settings of a run.
type Config struct {
	Driver        string
	DSN           string
	CursorTable   string
	MigrationsDir string
}

// Load reads envFile when it is not empty, then parses the process
// environment. Values already present in the environment win over the file.
//
// The DSN is only required when needDatabase is set, so commands that never
// connect can run without one. Missing variables are reported together.
// The driver name is normalized but not checked, see Validate.
func Load(envFile string, needDatabase bool) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("failed to read env file %s: %w", envFile, err)
		}
	}

	cfg := Config{
		Driver:        DriverPostgres,
		CursorTable:   driver.DefaultCursorTableName,
		MigrationsDir: "migrations",
	}

	missing := make([]string, 0, 1)

	if driverName := NormalizeDriver(os.Getenv("KASORU_DRIVER")); driverName != "" {
		cfg.Driver = driverName
	}

	if dsn := strings.TrimSpace(os.Getenv("KASORU_DSN")); dsn != "" {
		cfg.DSN = dsn
	} else if dsn := strings.TrimSpace(os.Getenv("DATABASE_URL")); dsn != "" {
		cfg.DSN = dsn
	} else if needDatabase {
		missing = append(missing, "KASORU_DSN")
	}

	if table := strings.TrimSpace(os.Getenv("KASORU_TABLE")); table != "" {
		cfg.CursorTable = table
	}

	if dir := strings.TrimSpace(os.Getenv("KASORU_MIGRATIONS")); dir != "" {
		cfg.MigrationsDir = dir
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

// Validate checks the values that can still be overridden after Load, so
// call it once the command line has been applied.
func (c Config) Validate() error {
	switch c.Driver {
	case DriverPostgres, DriverMySQL, DriverSQLite:
		return nil
	default:
		return fmt.Errorf("%w: %q (want %s, %s or %s)", ErrUnknownDriver, c.Driver, DriverPostgres, DriverMySQL, DriverSQLite)
	}
}

func NormalizeDriver(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
