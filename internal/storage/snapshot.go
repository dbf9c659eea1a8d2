package storage

import (
	"database/sql"
	"fmt"
	"time"

	"kvhttpd/internal/cache"
	"kvhttpd/internal/errors"
)

// SnapshotStore persists the full contents of a cache.
type SnapshotStore struct {
	db *DB
}

// NewSnapshotStore creates a snapshot store on an open database
func NewSnapshotStore(db *DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// Save replaces the stored snapshot with entries in a single transaction
func (s *SnapshotStore) Save(entries []cache.Entry) error {
	savedAt := time.Now().UTC().Format(time.RFC3339)

	err := s.db.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM cache_entries"); err != nil {
			return fmt.Errorf("failed to clear snapshot: %w", err)
		}

		stmt, err := tx.Prepare(`
			INSERT INTO cache_entries (key, kind, value, saved_at)
			VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, e := range entries {
			encoded, err := e.Value.Encode()
			if err != nil {
				return err
			}
			if _, err := stmt.Exec(e.Key, string(e.Value.Kind), encoded, savedAt); err != nil {
				return fmt.Errorf("failed to save key %q: %w", e.Key, err)
			}
		}
		return nil
	})
	if err != nil {
		return errors.New(errors.SnapshotFailed, "failed to save cache snapshot", err)
	}

	s.db.logger.Debug("Cache snapshot saved", "entries", len(entries), "path", s.db.Path())
	return nil
}

// Load returns the stored snapshot sorted by key
func (s *SnapshotStore) Load() ([]cache.Entry, error) {
	rows, err := s.db.Query(`
		SELECT key, kind, value
		FROM cache_entries
		ORDER BY key
	`)
	if err != nil {
		return nil, errors.New(errors.SnapshotFailed, "failed to query cache snapshot", err)
	}
	defer rows.Close()

	var entries []cache.Entry
	for rows.Next() {
		var key, kind, encoded string
		if err := rows.Scan(&key, &kind, &encoded); err != nil {
			return nil, errors.New(errors.SnapshotFailed, "failed to scan snapshot row", err)
		}
		v, err := cache.Decode(cache.Kind(kind), encoded)
		if err != nil {
			return nil, errors.New(errors.SnapshotFailed, fmt.Sprintf("corrupt snapshot entry %q", key), err)
		}
		entries = append(entries, cache.Entry{Key: key, Value: v})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.New(errors.SnapshotFailed, "failed to read cache snapshot", err)
	}

	return entries, nil
}
