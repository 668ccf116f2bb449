package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Store is a key-value store of repository lists scoped by user.
// Implementations must be safe for concurrent use. Load never fails:
// unreadable or corrupt entries are reported as missing.
type Store interface {
	Load(user string) (*Entry, bool)
	Save(user string, entry *Entry) error
	Clear() error
	// Prune removes entries captured before the given time, and entries
	// that can no longer be decoded.
	Prune(before time.Time) (int, error)
	Stats(ttl time.Duration) (*Stats, error)
	Close() error
}

// Open returns the store for backend. An empty path selects the default
// location under the user cache directory.
func Open(backend, path string) (Store, error) {
	switch backend {
	case "", BackendFile:
		if path == "" {
			dir, err := defaultDir()
			if err != nil {
				return nil, err
			}
			path = filepath.Join(dir, "repos")
		}
		return NewFileStore(path)
	case BackendSQLite:
		if path == "" {
			dir, err := defaultDir()
			if err != nil {
				return nil, err
			}
			path = filepath.Join(dir, "cache.db")
		}
		return NewSQLiteStore(path)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q (expected %s, %s or %s)", backend, BackendFile, BackendSQLite, BackendMemory)
	}
}

func defaultDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user cache directory: %w", err)
	}
	return filepath.Join(dir, "repolist"), nil
}
