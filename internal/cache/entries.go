// Package cache persists fetched repository lists, one entry per user.
package cache

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spiffcs/repolist/internal/constants"
	"github.com/spiffcs/repolist/internal/model"
)

// Version is part of every key; bumping it orphans all existing entries.
const Version = constants.CacheVersion

// keyPrefix is the part of the key shared by every user.
var keyPrefix = fmt.Sprintf("gh_repos_cache_v%d:", Version)

// Key returns the storage key for a user's repository list.
func Key(user string) string {
	return keyPrefix + user
}

// userFromKey is the inverse of Key. It reports false for keys of other
// versions.
func userFromKey(key string) (string, bool) {
	if !strings.HasPrefix(key, keyPrefix) {
		return "", false
	}
	return strings.TrimPrefix(key, keyPrefix), true
}

// Entry is one cached repository list. It is always written whole.
type Entry struct {
	CapturedAt   time.Time
	Validator    string // ETag of the last response, may be empty
	Repositories []model.Repository
}

// wireEntry is the stored JSON shape: capture time in Unix milliseconds.
type wireEntry struct {
	TS   int64              `json:"ts"`
	ETag string             `json:"etag"`
	Data []model.Repository `json:"data"`
}

// MarshalJSON implements json.Marshaler.
func (e Entry) MarshalJSON() ([]byte, error) {
	data := e.Repositories
	if data == nil {
		data = []model.Repository{}
	}
	return json.Marshal(wireEntry{
		TS:   e.CapturedAt.UnixMilli(),
		ETag: e.Validator,
		Data: data,
	})
}

// UnmarshalJSON implements json.Unmarshaler. An entry without a
// repository array is rejected.
func (e *Entry) UnmarshalJSON(b []byte) error {
	var w wireEntry
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if w.Data == nil {
		return fmt.Errorf("cache entry has no repository list")
	}
	e.CapturedAt = time.UnixMilli(w.TS)
	e.Validator = w.ETag
	e.Repositories = w.Data
	return nil
}

// Fresh reports whether the entry is younger than ttl at now.
func (e *Entry) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.CapturedAt) < ttl
}

// decode parses a stored value. Any failure is a miss.
func decode(data []byte) (*Entry, bool) {
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, false
	}
	return &e, true
}

// Stats summarizes the contents of a store.
type Stats struct {
	Backend  string
	Location string
	Total    int      // all entries, including other versions and corrupt ones
	Fresh    int      // current-version entries younger than the TTL
	Users    []string // users with a current-version entry
	Oldest   time.Time
	Newest   time.Time
}

func (s *Stats) add(key string, data []byte, now time.Time, ttl time.Duration) {
	s.Total++
	user, ok := userFromKey(key)
	if !ok {
		return
	}
	e, ok := decode(data)
	if !ok {
		return
	}
	s.Users = append(s.Users, user)
	if e.Fresh(now, ttl) {
		s.Fresh++
	}
	if s.Oldest.IsZero() || e.CapturedAt.Before(s.Oldest) {
		s.Oldest = e.CapturedAt
	}
	if e.CapturedAt.After(s.Newest) {
		s.Newest = e.CapturedAt
	}
}
