// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// store is the persistent L2 layer: a single SQLite file holding the
// cache entry table, opened in WAL mode.
type store struct {
	db *sql.DB
}

func openStore(path string) (*store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	s := &store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return s, nil
}

func (s *store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS cache_entries (
			key TEXT PRIMARY KEY,
			namespace TEXT NOT NULL,
			payload BLOB NOT NULL,
			created_at INTEGER NOT NULL,
			expires_at INTEGER NOT NULL,
			hit_count INTEGER NOT NULL DEFAULT 0,
			last_accessed INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cache_namespace ON cache_entries(namespace)`,
		`CREATE INDEX IF NOT EXISTS idx_cache_expires_at ON cache_entries(expires_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

func (s *store) close() error {
	return s.db.Close()
}

type storedEntry struct {
	payload   []byte
	expiresAt int64
}

func (s *store) get(key string, now time.Time) (storedEntry, bool, error) {
	var payload []byte
	var expiresAt int64
	err := s.db.QueryRow(
		`SELECT payload, expires_at FROM cache_entries WHERE key = ?`, key,
	).Scan(&payload, &expiresAt)
	if err == sql.ErrNoRows {
		return storedEntry{}, false, nil
	}
	if err != nil {
		return storedEntry{}, false, fmt.Errorf("querying cache entry: %w", err)
	}

	if now.Unix() > expiresAt {
		s.delete(key)
		return storedEntry{}, false, nil
	}

	_, err = s.db.Exec(
		`UPDATE cache_entries SET hit_count = hit_count + 1, last_accessed = ? WHERE key = ?`,
		now.Unix(), key,
	)
	if err != nil {
		return storedEntry{}, false, fmt.Errorf("updating hit counters: %w", err)
	}

	return storedEntry{payload: payload, expiresAt: expiresAt}, true, nil
}

func (s *store) getBatch(keys []string, now time.Time) (map[string][]byte, error) {
	if len(keys) == 0 {
		return map[string][]byte{}, nil
	}

	placeholders := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		placeholders[i] = "?"
		args[i] = k
	}

	query := fmt.Sprintf(
		`SELECT key, payload, expires_at FROM cache_entries WHERE key IN (%s)`,
		strings.Join(placeholders, ","),
	)
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("batch querying cache entries: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]byte)
	var expired []string
	for rows.Next() {
		var key string
		var payload []byte
		var expiresAt int64
		if err := rows.Scan(&key, &payload, &expiresAt); err != nil {
			return nil, fmt.Errorf("scanning cache entry: %w", err)
		}
		if now.Unix() > expiresAt {
			expired = append(expired, key)
			continue
		}
		out[key] = payload
	}
	for _, k := range expired {
		s.delete(k)
	}
	return out, nil
}

func (s *store) set(key, namespace string, payload []byte, ttl time.Duration, now time.Time) error {
	expiresAt := now.Add(ttl).Unix()
	_, err := s.db.Exec(
		`INSERT INTO cache_entries (key, namespace, payload, created_at, expires_at, hit_count, last_accessed)
		 VALUES (?, ?, ?, ?, ?, 0, ?)
		 ON CONFLICT(key) DO UPDATE SET
			namespace=excluded.namespace, payload=excluded.payload,
			created_at=excluded.created_at, expires_at=excluded.expires_at,
			hit_count=0, last_accessed=excluded.last_accessed`,
		key, namespace, payload, now.Unix(), expiresAt, now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upserting cache entry: %w", err)
	}
	return nil
}

func (s *store) setBatch(items map[string][]byte, namespace string, ttl time.Duration, now time.Time) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning batch set transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO cache_entries (key, namespace, payload, created_at, expires_at, hit_count, last_accessed)
		 VALUES (?, ?, ?, ?, ?, 0, ?)
		 ON CONFLICT(key) DO UPDATE SET
			namespace=excluded.namespace, payload=excluded.payload,
			created_at=excluded.created_at, expires_at=excluded.expires_at,
			hit_count=0, last_accessed=excluded.last_accessed`)
	if err != nil {
		return 0, fmt.Errorf("preparing batch set: %w", err)
	}
	defer stmt.Close()

	expiresAt := now.Add(ttl).Unix()
	count := 0
	for key, payload := range items {
		if _, err := stmt.Exec(key, namespace, payload, now.Unix(), expiresAt, now.Unix()); err != nil {
			return 0, fmt.Errorf("batch setting key %s: %w", key, err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing batch set: %w", err)
	}
	return count, nil
}

func (s *store) delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM cache_entries WHERE key = ?`, key)
	return err
}

func (s *store) invalidatePrefix(prefix string) (int, error) {
	res, err := s.db.Exec(`DELETE FROM cache_entries WHERE key LIKE ?`, prefix+"%")
	if err != nil {
		return 0, fmt.Errorf("invalidating prefix %s: %w", prefix, err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *store) cleanupExpired(now time.Time) (int, error) {
	res, err := s.db.Exec(`DELETE FROM cache_entries WHERE expires_at < ?`, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("cleaning up expired entries: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *store) count() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT count(*) FROM cache_entries`).Scan(&n)
	return n, err
}
