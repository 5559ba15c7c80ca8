package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is stamped into PRAGMA user_version. Version 1 is the
// first run-log schema; a later layout bumps it and adds an upgrade step
// in migrate.
const schemaVersion = 1

// ErrSchemaTooNew is returned by Open for a database stamped by a newer
// build.
var ErrSchemaTooNew = errors.New("store: database schema is newer than this build")

// pragmas configure each connection for the run log: scenario runs are
// appended by one writer (test --db) while trace may read the same file.
var pragmas = []string{
	// Readers see committed runs while a test run is being recorded.
	"PRAGMA journal_mode = WAL",
	// A run is reproducible from its scenario, so losing the last commit
	// on power failure is acceptable.
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
	// events.run_id references runs.id.
	"PRAGMA foreign_keys = ON",
}

// Store is the SQLite run log.
type Store struct {
	db *sql.DB
}

// Open opens the run log at path, creating the file and schema on first
// use. Opening an existing log is a no-op beyond the pragmas.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	// One connection: pragmas are per connection and SQLite has a single
	// writer anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := setup(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func setup(db *sql.DB) error {
	if err := db.Ping(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return migrate(db)
}

// migrate brings the schema to schemaVersion. schema.sql is idempotent, so
// a fresh file and a current one take the same path.
func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version > schemaVersion {
		return fmt.Errorf("%w: v%d, want v%d", ErrSchemaTooNew, version, schemaVersion)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if version == schemaVersion {
		return nil
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("stamp schema version: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// pragma reads a pragma value. Tests use it to check the configuration.
func (s *Store) pragma(name string) (string, error) {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return value, nil
}
