package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvUser, EnvAddr, EnvCacheBackend} {
		t.Setenv(k, "")
	}
}

func TestLoadFromDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfg, err := LoadFrom(filepath.Join(dir, "missing.yaml"), filepath.Join(dir, "missing-local.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"PageSize", cfg.GetPageSize(), 100},
		{"DefaultFormat", cfg.GetDefaultFormat(), "table"},
		{"Debounce", cfg.GetDebounce(), 150 * time.Millisecond},
		{"CacheBackend", cfg.GetCacheBackend(), "file"},
		{"CacheTTL", cfg.GetCacheTTL(), 10 * time.Minute},
		{"CachePath", cfg.GetCachePath(), ""},
		{"ServerAddr", cfg.GetServerAddr(), ":8080"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestLoadFromMergesLocalOverGlobal(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	global := writeFile(t, dir, "global.yaml", `
user: octocat
page_size: 50
default_format: json
cache:
  backend: sqlite
  ttl: 30m
server:
  addr: ":9000"
  cors_origins: ["https://a.example.org"]
`)
	local := writeFile(t, dir, "local.yaml", `
default_format: markdown
cache:
  ttl: 5m
server:
  cors_origins: ["https://b.example.org"]
`)

	cfg, err := LoadFrom(global, local)
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}

	if cfg.User != "octocat" {
		t.Errorf("User = %q, global value should survive", cfg.User)
	}
	if cfg.GetPageSize() != 50 {
		t.Errorf("GetPageSize() = %d", cfg.GetPageSize())
	}
	if cfg.GetDefaultFormat() != "markdown" {
		t.Errorf("GetDefaultFormat() = %q, local should win", cfg.GetDefaultFormat())
	}
	if cfg.GetCacheBackend() != "sqlite" {
		t.Errorf("GetCacheBackend() = %q", cfg.GetCacheBackend())
	}
	if cfg.GetCacheTTL() != 5*time.Minute {
		t.Errorf("GetCacheTTL() = %v", cfg.GetCacheTTL())
	}
	if cfg.GetServerAddr() != ":9000" {
		t.Errorf("GetServerAddr() = %q", cfg.GetServerAddr())
	}
	if diff := cmp.Diff([]string{"https://b.example.org"}, cfg.GetCORSOrigins()); diff != "" {
		t.Errorf("GetCORSOrigins() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFromEnvironmentWins(t *testing.T) {
	dir := t.TempDir()
	global := writeFile(t, dir, "global.yaml", "user: octocat\n")
	t.Setenv(EnvUser, "hubot")
	t.Setenv(EnvAddr, "127.0.0.1:9999")
	t.Setenv(EnvCacheBackend, "memory")

	cfg, err := LoadFrom(global, "")
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}
	if cfg.User != "hubot" {
		t.Errorf("User = %q, want env value", cfg.User)
	}
	if cfg.GetServerAddr() != "127.0.0.1:9999" {
		t.Errorf("GetServerAddr() = %q", cfg.GetServerAddr())
	}
	if cfg.GetCacheBackend() != "memory" {
		t.Errorf("GetCacheBackend() = %q", cfg.GetCacheBackend())
	}
}

func TestLoadFromInvalidYAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.yaml", "user: [unterminated\n")

	if _, err := LoadFrom(bad, ""); err == nil {
		t.Error("expected parse error")
	}
}

func TestGetPageSizeClamps(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 100},
		{-5, 100},
		{30, 30},
		{500, 100},
	}
	for _, tt := range tests {
		cfg := &Config{PageSize: tt.in}
		if got := cfg.GetPageSize(); got != tt.want {
			t.Errorf("GetPageSize() with %d = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSet(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		wantErr bool
		check   func(*Config) bool
	}{
		{"user", "octocat", false, func(c *Config) bool { return c.User == "octocat" }},
		{"page_size", "25", false, func(c *Config) bool { return c.PageSize == 25 }},
		{"page_size", "0", true, nil},
		{"page_size", "many", true, nil},
		{"debounce", "300ms", false, func(c *Config) bool { return c.GetDebounce() == 300*time.Millisecond }},
		{"cache.backend", "sqlite", false, func(c *Config) bool { return c.GetCacheBackend() == "sqlite" }},
		{"cache.backend", "redis", true, nil},
		{"cache.ttl", "1h", false, func(c *Config) bool { return c.GetCacheTTL() == time.Hour }},
		{"cache.ttl", "soon", true, nil},
		{"server.cors_origins", "https://a.org, ,https://b.org", false, func(c *Config) bool {
			return cmp.Equal(c.GetCORSOrigins(), []string{"https://a.org", "https://b.org"})
		}},
		{"nope", "x", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			cfg := &Config{}
			err := cfg.Set(tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Set() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil && !tt.check(cfg) {
				t.Errorf("Set(%q, %q) did not apply: %+v", tt.key, tt.value, cfg)
			}
		})
	}
}

func TestKeysAreSettable(t *testing.T) {
	values := map[string]string{
		"page_size":     "10",
		"debounce":      "1s",
		"cache.backend": "file",
		"cache.ttl":     "1m",
	}
	for _, key := range Keys() {
		v, ok := values[key]
		if !ok {
			v = "value"
		}
		if err := (&Config{}).Set(key, v); err != nil {
			t.Errorf("Set(%q) error: %v", key, err)
		}
	}
}

func TestSaveFileRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.User = "octocat"
	if err := cfg.SaveFile(path); err != nil {
		t.Fatalf("SaveFile() error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config file mode = %o, want 600", perm)
	}

	loaded, err := LoadFrom(path, "")
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestToYAMLNeverContainsToken(t *testing.T) {
	t.Setenv(EnvToken, "ghp_secret")
	out, err := DefaultConfig().ToYAML()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "ghp_secret") {
		t.Error("token leaked into config YAML")
	}
	if !strings.Contains(out, "ttl: 10m0s") {
		t.Errorf("expected durations in Go syntax, got:\n%s", out)
	}
}

func TestMinimalConfigParses(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "config.yaml", MinimalConfig())
	cfg, err := LoadFrom(path, "")
	if err != nil {
		t.Fatalf("MinimalConfig() does not parse: %v", err)
	}
	if cfg.GetDefaultFormat() != "table" {
		t.Errorf("GetDefaultFormat() = %q", cfg.GetDefaultFormat())
	}
}

func TestLoadFileIgnoresEnvironment(t *testing.T) {
	t.Setenv(EnvUser, "from-env")
	dir := t.TempDir()

	missing, err := LoadFile(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadFile() on missing file error: %v", err)
	}
	if diff := cmp.Diff(&Config{}, missing); diff != "" {
		t.Errorf("missing file config mismatch (-want +got):\n%s", diff)
	}

	path := writeFile(t, dir, "config.yaml", "user: octocat\n")
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if cfg.User != "octocat" {
		t.Errorf("User = %q, want octocat", cfg.User)
	}
}
