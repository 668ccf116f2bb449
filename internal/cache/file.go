package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spiffcs/repolist/internal/log"
)

// FileStore keeps one JSON file per key in a directory.
type FileStore struct {
	dir string
	mu  sync.Mutex // serializes writers within this process
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory backing the store.
func (s *FileStore) Dir() string {
	return s.dir
}

// fileName maps a key to a file name. Characters that are not safe in
// file names are replaced.
func fileName(key string) string {
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, key)
	return safe + ".json"
}

// keyFromFileName recovers the key of a current-version entry file.
func keyFromFileName(name string) string {
	base := strings.TrimSuffix(name, ".json")
	prefix := strings.TrimSuffix(fileName(keyPrefix), ".json")
	if strings.HasPrefix(base, prefix) {
		return keyPrefix + strings.TrimPrefix(base, prefix)
	}
	return base
}

func (s *FileStore) path(user string) string {
	return filepath.Join(s.dir, fileName(Key(user)))
}

// Load implements Store.
func (s *FileStore) Load(user string) (*Entry, bool) {
	data, err := os.ReadFile(s.path(user))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Debug("cache read failed", "user", user, "error", err)
		}
		return nil, false
	}
	e, ok := decode(data)
	if !ok {
		log.Debug("cache entry unreadable", "user", user)
	}
	return e, ok
}

// Save implements Store. The entry is written to a temporary file and
// renamed into place so readers never observe a partial entry.
func (s *FileStore) Save(user string, entry *Entry) error {
	if entry == nil {
		return nil
	}
	data, err := entry.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, ".entry-*")
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(user)); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Clear implements Store.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// Prune implements Store.
func (s *FileStore) Prune(before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if e, ok := decode(data); ok && !e.CapturedAt.Before(before) {
			continue
		}
		if err := os.Remove(path); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// Stats implements Store.
func (s *FileStore) Stats(ttl time.Duration) (*Stats, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	stats := &Stats{Backend: BackendFile, Location: s.dir}
	now := time.Now()
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		stats.add(keyFromFileName(entry.Name()), data, now, ttl)
	}
	sort.Strings(stats.Users)
	return stats, nil
}

// Close implements Store.
func (s *FileStore) Close() error {
	return nil
}
