// Package sqlite provides the SQLite connection factory and migrations for
// zof's run history. Uses modernc.org/sqlite, a pure-Go driver, so the
// binaries build without CGO.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	// Register the modernc sqlite driver under the name "sqlite".
	_ "modernc.org/sqlite"
)

// pragmas are applied at connection time through DSN parameters, so every
// pooled connection gets them:
//   - WAL journal mode: concurrent reads while a writer is active
//   - foreign keys on: SQLite leaves them off by default
//   - 5s busy timeout: burst writes wait instead of failing with SQLITE_BUSY
//   - synchronous NORMAL: safe under WAL, faster than FULL
var pragmas = []string{
	"journal_mode(WAL)",
	"foreign_keys(ON)",
	"busy_timeout(5000)",
	"synchronous(NORMAL)",
	"temp_store(MEMORY)",
}

// NewDB opens (or creates) a SQLite database at path. Use ":memory:" in
// tests. The parent directory must already exist; NewDB will not create it.
func NewDB(path string) (*sql.DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return nil, fmt.Errorf("sqlite.NewDB: parent directory %q does not exist", dir)
		}
	}

	dsn := path + "?_pragma=" + strings.Join(pragmas, "&_pragma=")
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite.NewDB: open %q: %w", path, err)
	}

	// WAL permits many readers but a single writer; SQLite serializes the
	// writers itself, so a small pool is enough. Each ":memory:" connection
	// is its own private database, so the pool is pinned to one there or
	// pooled connections would see different schemas.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.NewDB: ping %q: %w", path, err)
	}

	return db, nil
}
