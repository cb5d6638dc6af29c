package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// ErrNewerSchema is returned by Open for a journal written by a newer hotbar.
var ErrNewerSchema = errors.New("journal schema is newer than this build")

// connParams are applied by the driver to every pooled connection.
// _txlock=immediate makes Append take the write lock at BEGIN, so a trace
// reading the same file from another process never upgrades mid-transaction.
var connParams = url.Values{
	"_journal_mode": {"WAL"},
	"_synchronous":  {"NORMAL"},
	"_busy_timeout": {"5000"},
	"_foreign_keys": {"on"},
	"_txlock":       {"immediate"},
}

// requiredPragmas are checked after connecting. The driver ignores a
// journal mode the file cannot use, and Append relies on the foreign key
// to reject entries for unknown sessions.
var requiredPragmas = map[string]string{
	"journal_mode": "wal",
	"foreign_keys": "1",
}

// migration upgrades the journal by one schema version.
type migration struct {
	version int
	stmt    string
}

// migrations run after schema.sql, which only creates the version 0 tables.
var migrations = []migration{
	// trace --kind and CountKinds
	{1, `CREATE INDEX IF NOT EXISTS idx_entries_session_kind ON entries(session_token, kind)`},
	// ListSessions order
	{2, `CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_ms, token)`},
}

// schemaVersion is the user_version of an up-to-date journal.
var schemaVersion = migrations[len(migrations)-1].version

// Store is the durable session journal. It implements engine.Journal.
type Store struct {
	db *sql.DB
}

// Open creates or opens the journal at path and brings its schema up to date.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?"+connParams.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: the session flushes entries from whichever goroutine
	// made the decision, and SQLite has a single writer anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := checkPragmas(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

func checkPragmas(db *sql.DB) error {
	for name, want := range requiredPragmas {
		got, err := pragma(db, name)
		if err != nil {
			return err
		}
		if got != want {
			return fmt.Errorf("journal needs %s=%s, database has %q", name, want, got)
		}
	}
	return nil
}

func pragma(db *sql.DB, name string) (string, error) {
	var value string
	if err := db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return "", fmt.Errorf("read pragma %s: %w", name, err)
	}
	return value, nil
}

func userVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("get user_version: %w", err)
	}
	return version, nil
}

// migrate creates missing tables, then runs each pending migration in its
// own transaction together with the user_version bump.
func migrate(db *sql.DB) error {
	version, err := userVersion(db)
	if err != nil {
		return err
	}
	if version > schemaVersion {
		return fmt.Errorf("%w: version %d, supported %d", ErrNewerSchema, version, schemaVersion)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		if err := apply(db, m); err != nil {
			return err
		}
	}
	return nil
}

func apply(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migrate to v%d: begin: %w", m.version, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(m.stmt); err != nil {
		return fmt.Errorf("migrate to v%d: %w", m.version, err)
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
		return fmt.Errorf("migrate to v%d: set user_version: %w", m.version, err)
	}
	return tx.Commit()
}
