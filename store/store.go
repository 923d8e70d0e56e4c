// Package store is hotpot's embedded relational activity store: SQLite
// via github.com/pocketbase/dbx (the teacher's own query builder,
// previously reached only through PocketBase's Dao) over
// github.com/mattn/go-sqlite3 (the teacher's own driver). It owns
// ingestion transactions and the streaming query surface rendering
// reads from, per spec.md §4.4.
package store

import (
	"context"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pocketbase/dbx"

	"hotpot/herr"
)

// Store is the Activity Store described in spec.md §4.4. Activity
// writes (PutActivity, UpdateProperties, DeleteActivity) go through
// WithTx, whose writeMu serializes them, matching spec.md §5's "Writers
// are serialized by the store." Config, mask and Strava-auth upserts
// are single statements issued on the handle without writeMu.
type Store struct {
	db      *dbx.DB
	writeMu sync.Mutex
}

// Open opens (creating if absent) the SQLite database at path, applies
// schema migrations, and enables WAL mode so readers get consistent
// snapshots concurrent with a single writer, per spec.md §4.4
// "Concurrency".
func Open(path string) (*Store, error) {
	db, err := dbx.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, herr.Store("open", "failed to open database", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.NewQuery(p).Execute(); err != nil {
			return nil, herr.Store("open", "failed to set pragma", err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func dsn(path string) string {
	return fmt.Sprintf("%s?_journal_mode=WAL&_foreign_keys=on", path)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for one-off queries outside the
// Store's own operation set.
func (s *Store) DB() *dbx.DB { return s.db }

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS activities (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL,
			strava_id INTEGER UNIQUE,
			title TEXT,
			created_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS activity_properties (
			activity_id INTEGER NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
			key TEXT NOT NULL,
			value_type TEXT NOT NULL,
			value_num REAL,
			value_str TEXT,
			value_bool INTEGER,
			PRIMARY KEY (activity_id, key)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_activity_properties_key ON activity_properties(key);`,
		`CREATE TABLE IF NOT EXISTS activity_tiles (
			activity_id INTEGER NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
			z INTEGER NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			encoded_pixels BLOB NOT NULL,
			PRIMARY KEY (activity_id, z, x, y)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_activity_tiles_zxy ON activity_tiles(z, x, y, activity_id);`,
		`CREATE TABLE IF NOT EXISTS config (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS strava_auth (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			access_token TEXT NOT NULL,
			refresh_token TEXT NOT NULL,
			expires_at INTEGER NOT NULL,
			athlete_id INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS masks (
			name TEXT PRIMARY KEY,
			lat REAL NOT NULL,
			lon REAL NOT NULL,
			radius_m REAL NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.NewQuery(stmt).Execute(); err != nil {
			return herr.Store("migrate", "failed to apply schema", err)
		}
	}
	return nil
}

// WithTx serializes callers through writeMu and runs fn inside a single
// dbx transaction, so an activity row and all its tiles commit
// atomically (spec.md §3 "All writes happen inside a single store
// transaction per activity").
func (s *Store) WithTx(ctx context.Context, fn func(tx *dbx.Tx) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return herr.Store("tx", "failed to begin transaction", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return herr.Store("tx", "failed to commit transaction", err)
	}
	return nil
}
