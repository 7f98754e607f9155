package sqlite

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
)

// The analytics schema currently fits in a single migration, but new files
// named NNN_description.up.sql are picked up automatically and applied in
// lexicographic (= numeric) order.
//
//go:embed migrations/*.up.sql
var migrations embed.FS

// MigrateUp brings the database schema up to date. Each pending migration
// runs in its own transaction and is recorded in schema_migrations, so
// calling it again is a no-op.
func MigrateUp(db *sql.DB) error {
	if err := createVersionTable(db); err != nil {
		return err
	}

	names, err := fs.Glob(migrations, "migrations/*.up.sql")
	if err != nil {
		return fmt.Errorf("migrate: list migrations: %w", err)
	}
	sort.Strings(names)

	for _, fullPath := range names {
		name := path.Base(fullPath)
		version := versionOf(name)

		var applied bool
		row := db.QueryRow("SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = ?)", version)
		if err := row.Scan(&applied); err != nil {
			return fmt.Errorf("migrate: check %s: %w", name, err)
		}
		if applied {
			continue
		}

		stmts, err := migrations.ReadFile(fullPath)
		if err != nil {
			return fmt.Errorf("migrate: read %s: %w", name, err)
		}
		if err := runMigration(db, version, name, string(stmts)); err != nil {
			return fmt.Errorf("migrate: apply %s: %w", name, err)
		}
	}
	return nil
}

// MigrationVersion reports the highest applied schema version, 0 when the
// database is fresh.
func MigrationVersion(db *sql.DB) (int, error) {
	if err := createVersionTable(db); err != nil {
		return 0, err
	}
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("migrate: read version: %w", err)
	}
	return version, nil
}

func createVersionTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version     INTEGER NOT NULL PRIMARY KEY,
			name        TEXT    NOT NULL,
			applied_at  TEXT    NOT NULL DEFAULT (datetime('now'))
		)
	`)
	if err != nil {
		return fmt.Errorf("migrate: create schema_migrations: %w", err)
	}
	return nil
}

// versionOf parses the numeric prefix of "NNN_description.up.sql".
func versionOf(name string) int {
	var version int
	if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
		return 0
	}
	return version
}

// runMigration executes the file's statements and records the version in the
// same transaction.
func runMigration(db *sql.DB, version int, name, stmts string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(stmts); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version, name) VALUES (?, ?)", version, name); err != nil {
		return err
	}
	return tx.Commit()
}
