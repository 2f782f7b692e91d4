// Package db stores repository snapshots in a SQL database.
//
// SQLite is the default, at ~/.tasks/tasks.db; PostgreSQL is supported with
// the "postgres" driver. Use Open() to connect and Init() to create the schema.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Times are stored as unix seconds so both drivers round-trip them exactly.
const schema = `
CREATE TABLE IF NOT EXISTS items (
	id INTEGER PRIMARY KEY,
	type TEXT NOT NULL,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	start_unix BIGINT,
	duration INTEGER NOT NULL DEFAULT 0,
	epic_id INTEGER,
	position INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS history (
	position INTEGER PRIMARY KEY,
	item_id INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_items_type ON items(type);
CREATE INDEX IF NOT EXISTS idx_items_epic ON items(epic_id);
`

// DB wraps a SQL database connection with snapshot operations.
type DB struct {
	*sql.DB
	driver string
	loc    *time.Location
}

// DefaultPath returns the default database path (~/.tasks/tasks.db)
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".tasks", "tasks.db"), nil
}

// Open connects to the database. For sqlite, dsn is a file path and its
// directory is created if needed.
func Open(driver, dsn string) (*DB, error) {
	switch driver {
	case DriverSQLite:
		if dsn != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
				return nil, fmt.Errorf("failed to create directory: %w", err)
			}
		}
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == DriverSQLite {
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	} else if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	return &DB{DB: db, driver: driver, loc: time.Local}, nil
}

// Init creates the schema.
func (db *DB) Init() error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SetLocation sets the time zone loaded start times are expressed in.
func (db *DB) SetLocation(loc *time.Location) {
	db.loc = loc
}

// Driver returns the driver name the database was opened with.
func (db *DB) Driver() string {
	return db.driver
}

// rebind rewrites ? placeholders to $1, $2, ... for postgres.
func (db *DB) rebind(query string) string {
	if db.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
