package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// DefaultMigrationsDir is resolved against the working directory.
const DefaultMigrationsDir = "migrations"

// migrationsSource maps a database driver to its file:// migration source
// under dir.
func migrationsSource(dir, dbDriver string) (string, error) {
	var sub string
	switch dbDriver {
	case "postgres":
		sub = "postgresql"
	case "mysql":
		sub = "mysql"
	default:
		return "", fmt.Errorf("unsupported database driver %q", dbDriver)
	}
	return "file://" + filepath.ToSlash(filepath.Join(dir, sub)), nil
}

// migrationsDatabaseURL turns a go-sql-driver/mysql DSN into the mysql://
// URL golang-migrate expects. PostgreSQL connection strings are URLs already.
func migrationsDatabaseURL(dbDriver, dbConnectionString string) string {
	if dbDriver == "mysql" && !strings.Contains(dbConnectionString, "://") {
		return "mysql://" + dbConnectionString
	}
	return dbConnectionString
}

// RunMigrations creates the key_rings and versioned_keys tables for the
// configured driver. An up to date schema is not an error.
func RunMigrations(logger *slog.Logger, dir, dbDriver, dbConnectionString string) error {
	source, err := migrationsSource(dir, dbDriver)
	if err != nil {
		return err
	}

	logger.Info("running database migrations",
		slog.String("driver", dbDriver),
		slog.String("source", source),
	)

	m, err := migrate.New(source, migrationsDatabaseURL(dbDriver, dbConnectionString))
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer closeMigrate(m, logger)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	logger.Info("migrations completed", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
	return nil
}
