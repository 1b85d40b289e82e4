package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure Go SQLite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS article_cache (
	key        TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	created_at INTEGER NOT NULL
)`

// SQLiteStore persists cache entries across restarts. Articles are stored as
// a JSON payload per key, this is a cache and not a queryable archive.
type SQLiteStore struct {
	conn *sqlx.DB
}

// NewSQLiteStore opens (and if needed creates) the cache database at dsn
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		dsn = "file:buurtkrant-cache.db?cache=shared&mode=rwc"
	}

	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			return nil, fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	if _, err := conn.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("init cache schema: %w", err)
	}

	return &SQLiteStore{conn: conn}, nil
}

// Get loads the entry for key, (nil, nil) when absent
func (s *SQLiteStore) Get(ctx context.Context, key string) (*Entry, error) {
	var row struct {
		Payload   string `db:"payload"`
		CreatedAt int64  `db:"created_at"`
	}
	err := s.conn.GetContext(ctx, &row,
		"SELECT payload, created_at FROM article_cache WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cache entry %q: %w", key, err)
	}

	entry := Entry{Key: key, CreatedAt: time.Unix(row.CreatedAt, 0)}
	if err := json.Unmarshal([]byte(row.Payload), &entry.Articles); err != nil {
		return nil, fmt.Errorf("decode cache entry %q: %w", key, err)
	}
	return &entry, nil
}

// Set stores or replaces the entry for its key
func (s *SQLiteStore) Set(ctx context.Context, entry Entry) error {
	payload, err := json.Marshal(entry.Articles)
	if err != nil {
		return fmt.Errorf("encode cache entry %q: %w", entry.Key, err)
	}
	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO article_cache (key, payload, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, created_at = excluded.created_at`,
		entry.Key, string(payload), entry.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("store cache entry %q: %w", entry.Key, err)
	}
	return nil
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}
