package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/spiffcs/repolist/internal/model"
)

func sampleEntry(capturedAt time.Time) *Entry {
	return &Entry{
		CapturedAt: capturedAt,
		Validator:  `W/"abc"`,
		Repositories: []model.Repository{
			{ID: 1, Name: "alpha", HTMLURL: "https://github.com/octo/alpha", StargazersCount: 3},
			{ID: 2, Name: "beta", HTMLURL: "https://github.com/octo/beta", Fork: true},
		},
	}
}

// stores returns one instance of every backend rooted in a temp dir.
func stores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	fs, err := NewFileStore(filepath.Join(dir, "files"))
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	sq, err := NewSQLiteStore(filepath.Join(dir, "cache.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error: %v", err)
	}
	t.Cleanup(func() { sq.Close() })

	return map[string]Store{
		BackendFile:   fs,
		BackendSQLite: sq,
		BackendMemory: NewMemoryStore(),
	}
}

func TestKey(t *testing.T) {
	if got := Key("octo"); got != "gh_repos_cache_v1:octo" {
		t.Errorf("Key(octo) = %q", got)
	}
	if user, ok := userFromKey(Key("octo")); !ok || user != "octo" {
		t.Errorf("userFromKey round trip = (%q, %v)", user, ok)
	}
	if _, ok := userFromKey("gh_repos_cache_v0:octo"); ok {
		t.Error("expected keys of other versions to be rejected")
	}
}

func TestStoreRoundTrip(t *testing.T) {
	captured := time.UnixMilli(time.Now().UnixMilli())

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok := s.Load("octo"); ok {
				t.Fatal("expected miss on empty store")
			}

			want := sampleEntry(captured)
			if err := s.Save("octo", want); err != nil {
				t.Fatalf("Save() error: %v", err)
			}

			got, ok := s.Load("octo")
			if !ok {
				t.Fatal("expected hit after Save")
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("entry mismatch (-want +got):\n%s", diff)
			}

			// entries are replaced whole
			replacement := &Entry{CapturedAt: captured, Repositories: []model.Repository{}}
			if err := s.Save("octo", replacement); err != nil {
				t.Fatalf("Save() error: %v", err)
			}
			got, _ = s.Load("octo")
			if got.Validator != "" || len(got.Repositories) != 0 {
				t.Errorf("expected replaced entry, got %+v", got)
			}
		})
	}
}

func TestStorePruneAndStats(t *testing.T) {
	now := time.Now()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Save("old", sampleEntry(now.Add(-2*time.Hour))); err != nil {
				t.Fatalf("Save() error: %v", err)
			}
			if err := s.Save("new", sampleEntry(now.Add(-time.Minute))); err != nil {
				t.Fatalf("Save() error: %v", err)
			}

			stats, err := s.Stats(10 * time.Minute)
			if err != nil {
				t.Fatalf("Stats() error: %v", err)
			}
			if stats.Total != 2 || stats.Fresh != 1 {
				t.Errorf("expected 2 total / 1 fresh, got %d / %d", stats.Total, stats.Fresh)
			}
			if diff := cmp.Diff([]string{"new", "old"}, stats.Users); diff != "" {
				t.Errorf("users mismatch (-want +got):\n%s", diff)
			}

			removed, err := s.Prune(now.Add(-time.Hour))
			if err != nil {
				t.Fatalf("Prune() error: %v", err)
			}
			if removed != 1 {
				t.Errorf("expected 1 pruned entry, got %d", removed)
			}
			if _, ok := s.Load("old"); ok {
				t.Error("expected old entry to be pruned")
			}
			if _, ok := s.Load("new"); !ok {
				t.Error("expected new entry to survive")
			}

			if err := s.Clear(); err != nil {
				t.Fatalf("Clear() error: %v", err)
			}
			if _, ok := s.Load("new"); ok {
				t.Error("expected empty store after Clear")
			}
		})
	}
}

func TestFileStoreCorruptEntryIsMiss(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}

	tests := []struct {
		name    string
		content string
	}{
		{"invalid json", "{not json"},
		{"missing data", `{"ts": 1, "etag": "x"}`},
		{"null data", `{"ts": 1, "etag": "x", "data": null}`},
		{"data not an array", `{"ts": 1, "etag": "x", "data": {"a": 1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := os.WriteFile(s.path("octo"), []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			if _, ok := s.Load("octo"); ok {
				t.Errorf("expected %s to be treated as a miss", tt.name)
			}
		})
	}
}

func TestEntryWireFormat(t *testing.T) {
	e := Entry{CapturedAt: time.UnixMilli(1700000000123), Validator: `"v1"`}
	data, err := e.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error: %v", err)
	}
	want := `{"ts":1700000000123,"etag":"\"v1\"","data":[]}`
	if string(data) != want {
		t.Errorf("MarshalJSON() = %s, want %s", data, want)
	}
}

func TestEntryFresh(t *testing.T) {
	now := time.Now()
	ttl := 10 * time.Minute

	tests := []struct {
		name string
		age  time.Duration
		want bool
	}{
		{"just captured", 0, true},
		{"just under ttl", ttl - time.Second, true},
		{"exactly ttl", ttl, false},
		{"stale", ttl + time.Second, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Entry{CapturedAt: now.Add(-tt.age)}
			if got := e.Fresh(now, ttl); got != tt.want {
				t.Errorf("Fresh() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		backend string
		path    string
		wantErr bool
	}{
		{BackendFile, filepath.Join(dir, "f"), false},
		{"", filepath.Join(dir, "g"), false},
		{BackendSQLite, filepath.Join(dir, "c.db"), false},
		{BackendMemory, "", false},
		{"redis", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			s, err := Open(tt.backend, tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open(%q) error = %v, wantErr %v", tt.backend, err, tt.wantErr)
			}
			if s != nil {
				s.Close()
			}
		})
	}
}
