// Package journal provides a SQLite-backed, append-only record of fork
// dispatches.
//
// The journal implements the core Observer interface: one row per failed
// duplication attempt, one row per dispatched outcome, each stamped with
// a monotonic logical seq. Ordering always uses seq, never wall-clock
// timestamps; the created_at column exists for operators, not for
// ordering.
//
// The journal is meant to be observed from the parent side. Under the
// real primitive a child execution inherits a copied database handle it
// must not use; the spawn command's child branch execs immediately and
// never touches it.
package journal

import (
	"database/sql"
	_ "embed"
	"fmt"
	"sync"
	"sync/atomic"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Journal provides durable storage for dispatch records.
// Uses SQLite with WAL mode for concurrent read access.
type Journal struct {
	db  *sql.DB
	seq atomic.Int64

	// pending counts failed attempts per chain token, so a successful
	// dispatch row can record how many failures preceded it.
	mu      sync.Mutex
	pending map[string]int
}

// Open creates or opens a SQLite journal at the given path.
// Applies required pragmas and the schema automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// This function is idempotent - safe to call on an existing journal.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to journal: %w", err)
	}

	// SQLite only supports one writer at a time; a single connection
	// avoids SQLITE_BUSY between the observer and readers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	j := &Journal{db: db, pending: make(map[string]int)}

	// Resume the seq clock past anything already recorded, so appends
	// to an existing journal stay monotonic.
	var maxSeq sql.NullInt64
	row := db.QueryRow(`SELECT MAX(seq) FROM (
		SELECT seq FROM dispatches UNION ALL SELECT seq FROM failed_attempts
	)`)
	if err := row.Scan(&maxSeq); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read journal position: %w", err)
	}
	if maxSeq.Valid {
		j.seq.Store(maxSeq.Int64)
	}

	return j, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// nextSeq returns the next logical sequence number.
func (j *Journal) nextSeq() int64 {
	return j.seq.Add(1)
}
