package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spiffcs/repolist/internal/log"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps entries in a single key/value table.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var _ Store = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS cache (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps writes serialized without SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache table: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// Load implements Store.
func (s *SQLiteStore) Load(user string) (*Entry, bool) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM cache WHERE key = ?`, Key(user)).Scan(&value)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Debug("cache read failed", "user", user, "error", err)
		}
		return nil, false
	}
	e, ok := decode([]byte(value))
	if !ok {
		log.Debug("cache entry unreadable", "user", user)
	}
	return e, ok
}

// Save implements Store.
func (s *SQLiteStore) Save(user string, entry *Entry) error {
	if entry == nil {
		return nil
	}
	data, err := entry.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO cache (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		Key(user), string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Clear implements Store.
func (s *SQLiteStore) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM cache`); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

type row struct {
	key   string
	value string
}

func (s *SQLiteStore) all() ([]row, error) {
	rows, err := s.db.Query(`SELECT key, value FROM cache`)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache: %w", err)
	}
	defer rows.Close()

	var out []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.key, &r.value); err != nil {
			return nil, fmt.Errorf("failed to read cache: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Prune implements Store.
func (s *SQLiteStore) Prune(before time.Time) (int, error) {
	rows, err := s.all()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, r := range rows {
		if e, ok := decode([]byte(r.value)); ok && !e.CapturedAt.Before(before) {
			continue
		}
		if _, err := s.db.Exec(`DELETE FROM cache WHERE key = ?`, r.key); err != nil {
			return removed, fmt.Errorf("failed to prune cache: %w", err)
		}
		removed++
	}
	return removed, nil
}

// Stats implements Store.
func (s *SQLiteStore) Stats(ttl time.Duration) (*Stats, error) {
	rows, err := s.all()
	if err != nil {
		return nil, err
	}

	stats := &Stats{Backend: BackendSQLite, Location: s.path}
	now := time.Now()
	for _, r := range rows {
		stats.add(r.key, []byte(r.value), now, ttl)
	}
	sort.Strings(stats.Users)
	return stats, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
