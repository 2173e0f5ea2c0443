/*
Package sqlite provides a SQLite-backed implementation of store.KV.

PURPOSE:
  The local fallback cache. Each collection the back office keeps offline
  (reservations, announcements, menu, orders) is one JSON payload under a
  fixed key. The payload is opaque here; decoding and tolerance of corrupt
  data belong to the caller.

KEY TABLES:
  kv_cache: key -> payload, with the time of the last write

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. The connection pool is capped at one
  connection so ":memory:" databases are shared by every call.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Readers don't block the writer
  - Better crash recovery

USAGE:
  cache, err := sqlite.New("./data/fuego.db")
  if err != nil {
      log.Fatal(err)
  }
  defer cache.Close()

SEE ALSO:
  - store/store.go: KV contract
  - store/redis: the same contract on Redis
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fuego/backoffice/store"
)

// Store implements store.KV using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ store.KV = (*Store)(nil)

// New creates a new SQLite cache with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv_cache (
		key TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		updated_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Get returns the payload stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var payload []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM kv_cache WHERE key = ?",
		key,
	).Scan(&payload)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

// Set replaces the payload stored under key.
func (s *Store) Set(ctx context.Context, key string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO kv_cache (key, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query, key, payload, time.Now().UTC().Format(time.RFC3339))
	return err
}

// Keys lists every key with a stored payload, for diagnostics.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT key FROM kv_cache ORDER BY key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
