// Package sqlite provides the SQLite connection factory and migration system
// for the visit analytics store. Uses modernc.org/sqlite, a pure-Go driver,
// no CGO required.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// Register the modernc sqlite driver under the name "sqlite"
	_ "modernc.org/sqlite"
)

// NewDB opens (or creates) a SQLite database at path and configures it for
// concurrent use:
//   - WAL journal mode (concurrent reads during visit writes)
//   - 5-second busy timeout (burst visit writes must not fail with SQLITE_BUSY)
//   - Synchronous=NORMAL (safe with WAL, faster than FULL)
//
// The parent directory is created when missing; the analytics volume starts
// empty on a fresh deployment. Use ":memory:" as path in tests.
func NewDB(path string) (*sql.DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite.NewDB: create data dir %q: %w", dir, err)
		}
	}

	// PRAGMAs applied at connection time via DSN query parameters.
	dsn := path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite.NewDB: open %q: %w", path, err)
	}

	// WAL allows concurrent readers; writers are serialized by SQLite itself.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.NewDB: ping %q: %w", path, err)
	}

	return db, nil
}
