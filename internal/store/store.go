// Package store persists target fingerprints between build invocations.
//
// The backing file is a single SQLite database: one row per resolved target
// identity holding the latest known fingerprint, plus a singleton version
// row gating the whole store. Compatibility is all-or-nothing: any
// structural mismatch destroys and recreates the store rather than
// migrating it. A lost fingerprint only costs one extra rebuild.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"

	_ "modernc.org/sqlite"

	"github.com/crucible-build/crucible/internal/target"
)

// schemaVersion is bumped whenever the store layout changes. Stores written
// by any other version are reset.
const schemaVersion = 1

// versionMagic tags the singleton version row. It makes it unlikely that an
// unrelated database is mistaken for a fingerprint store, and doubles as
// the constant key for retrieving the row.
const versionMagic = 76388

const (
	sqlCreateVersion = `CREATE TABLE IF NOT EXISTS version(
		magic INTEGER NOT NULL UNIQUE,
		value INTEGER NOT NULL
	)`
	sqlCreateTargets = `CREATE TABLE IF NOT EXISTS targets(
		id TEXT PRIMARY KEY,
		fingerprint BLOB NOT NULL
	)`
	sqlInitVersion  = `INSERT INTO version(magic, value) VALUES(?, ?)`
	sqlFetchVersion = `SELECT value FROM version WHERE magic = ?`
	sqlFetchTarget  = `SELECT fingerprint FROM targets WHERE id = ?`
	sqlSetTarget    = `INSERT INTO targets(id, fingerprint) VALUES(?, ?)
		ON CONFLICT(id) DO UPDATE SET fingerprint = excluded.fingerprint`
)

// Store is a handle on the fingerprint database for one build invocation.
// It is not safe for concurrent build processes; callers serialize
// invocations against the same path.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens the store at path, resetting it first if it is absent, corrupt
// or written by an incompatible schema version. Failure to delete or
// recreate the backing file is fatal; a store that silently stopped caching
// could masquerade as successful incremental builds.
func Open(path string) (*Store, error) {
	// Optimistic check: the database is already initialized in the
	// current version. Any failure here (missing table, unrelated file,
	// corrupt data) just means the store is incompatible.
	if db, err := openFile(path); err == nil {
		version := -1
		if err := db.QueryRow(sqlFetchVersion, versionMagic).Scan(&version); err != nil {
			version = -1
		}
		if version == schemaVersion {
			return &Store{db: db, path: path}, nil
		}
		_ = db.Close()
	}

	db, err := reset(path)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, path: path}, nil
}

// Get returns the last persisted fingerprint for id, or nil when the
// identity has never been seen. Both cases read as "must rebuild".
func (s *Store) Get(id target.ResolvedID) (target.Fingerprint, error) {
	var fingerprint []byte
	err := s.db.QueryRow(sqlFetchTarget, string(id)).Scan(&fingerprint)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read fingerprint store at %s: %w", s.path, err)
	}
	return fingerprint, nil
}

// Set upserts the fingerprint for id. Last write wins.
func (s *Store) Set(id target.ResolvedID, fingerprint target.Fingerprint) error {
	if _, err := s.db.Exec(sqlSetTarget, string(id), []byte(fingerprint)); err != nil {
		return fmt.Errorf("cannot write fingerprint store at %s: %w", s.path, err)
	}
	return nil
}

// Close releases the database handle. The store must be closed on every
// exit path of a build invocation, including failed ones.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

func openFile(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cannot open/create fingerprint store at %s: %w", path, err)
	}
	// A single build process holds a single connection.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cannot open/create fingerprint store at %s: %w", path, err)
	}
	return db, nil
}

// reset destroys an incompatible store and recreates it empty at the
// current schema version.
func reset(path string) (*sql.DB, error) {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("cannot delete incompatible fingerprint store at %s: %w", path, err)
		}
	}

	db, err := openFile(path)
	if err != nil {
		return nil, err
	}
	for _, stmt := range []string{sqlCreateVersion, sqlCreateTargets} {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("cannot recreate fingerprint store at %s: %w", path, err)
		}
	}
	if _, err := db.Exec(sqlInitVersion, versionMagic, schemaVersion); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cannot recreate fingerprint store at %s: %w", path, err)
	}
	return db, nil
}
