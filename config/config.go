package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/spiffcs/repolist/internal/cache"
	"github.com/spiffcs/repolist/internal/constants"
)

// Environment variables that override file settings.
const (
	EnvUser         = "REPOLIST_USER"
	EnvAddr         = "REPOLIST_ADDR"
	EnvCacheBackend = "REPOLIST_CACHE_BACKEND"
	EnvToken        = "GITHUB_TOKEN"
)

// Config represents the application configuration
type Config struct {
	User          string         `yaml:"user,omitempty" json:"user,omitempty"`
	PageSize      int            `yaml:"page_size,omitempty" json:"page_size,omitempty"`
	DefaultFormat string         `yaml:"default_format,omitempty" json:"default_format,omitempty"`
	Debounce      *time.Duration `yaml:"debounce,omitempty" json:"debounce,omitempty"`

	Cache  *CacheConfig  `yaml:"cache,omitempty" json:"cache,omitempty"`
	Server *ServerConfig `yaml:"server,omitempty" json:"server,omitempty"`
}

// CacheConfig selects and tunes the repository cache.
type CacheConfig struct {
	Backend string         `yaml:"backend,omitempty" json:"backend,omitempty"`
	TTL     *time.Duration `yaml:"ttl,omitempty" json:"ttl,omitempty"`
	Path    string         `yaml:"path,omitempty" json:"path,omitempty"`
}

// ServerConfig configures `repolist serve`.
type ServerConfig struct {
	Addr        string   `yaml:"addr,omitempty" json:"addr,omitempty"`
	PublicURL   string   `yaml:"public_url,omitempty" json:"public_url,omitempty"`
	CORSOrigins []string `yaml:"cors_origins,omitempty" json:"cors_origins,omitempty"`
}

// DefaultConfigDir returns the default config directory
func DefaultConfigDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ".repolist"
	}
	return filepath.Join(configDir, "repolist")
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// LocalConfigPath returns the path to the local config file in the current directory
func LocalConfigPath() string {
	return ".repolist.yaml"
}

// Load loads the configuration. The global config from the user config
// directory is read first, a local .repolist.yaml is merged on top and
// environment variables (including those from a .env file) win last.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath(), LocalConfigPath())
}

// LoadFrom is Load with explicit file locations. Missing files are skipped.
func LoadFrom(globalPath, localPath string) (*Config, error) {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	cfg := &Config{}

	global, err := readFile(globalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load global config file: %w", err)
	}
	if global != nil {
		cfg = global
	}

	local, err := readFile(localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load local config file: %w", err)
	}
	if local != nil {
		cfg = mergeConfig(cfg, local)
	}

	cfg.applyEnv()
	return cfg, nil
}

// LoadFile reads a single config file without merging or environment
// overrides. A missing file yields an empty config.
func LoadFile(path string) (*Config, error) {
	cfg, err := readFile(path)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = &Config{}
	}
	return cfg, nil
}

func readFile(path string) (*Config, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvUser); v != "" {
		c.User = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		if c.Server == nil {
			c.Server = &ServerConfig{}
		}
		c.Server.Addr = v
	}
	if v := os.Getenv(EnvCacheBackend); v != "" {
		if c.Cache == nil {
			c.Cache = &CacheConfig{}
		}
		c.Cache.Backend = v
	}
}

// mergeConfig merges local config on top of global config.
// Local values take precedence; unset local values preserve global values.
func mergeConfig(global, local *Config) *Config {
	result := *global

	if local.User != "" {
		result.User = local.User
	}
	if local.PageSize != 0 {
		result.PageSize = local.PageSize
	}
	if local.DefaultFormat != "" {
		result.DefaultFormat = local.DefaultFormat
	}
	if local.Debounce != nil {
		result.Debounce = local.Debounce
	}

	result.Cache = mergeCache(global.Cache, local.Cache)
	result.Server = mergeServer(global.Server, local.Server)
	return &result
}

func mergeCache(global, local *CacheConfig) *CacheConfig {
	if global == nil && local == nil {
		return nil
	}
	result := &CacheConfig{}
	if global != nil {
		*result = *global
	}
	if local != nil {
		if local.Backend != "" {
			result.Backend = local.Backend
		}
		if local.TTL != nil {
			result.TTL = local.TTL
		}
		if local.Path != "" {
			result.Path = local.Path
		}
	}
	return result
}

func mergeServer(global, local *ServerConfig) *ServerConfig {
	if global == nil && local == nil {
		return nil
	}
	result := &ServerConfig{}
	if global != nil {
		*result = *global
	}
	if local != nil {
		if local.Addr != "" {
			result.Addr = local.Addr
		}
		if local.PublicURL != "" {
			result.PublicURL = local.PublicURL
		}
		// Local list replaces if non-empty
		if len(local.CORSOrigins) > 0 {
			result.CORSOrigins = local.CORSOrigins
		}
	}
	return result
}

// GetGitHubToken returns the GitHub token from the GITHUB_TOKEN environment variable.
// Tokens are only read from the environment, never from config files.
func (c *Config) GetGitHubToken() string {
	return os.Getenv(EnvToken)
}

// GetPageSize returns the configured page size, clamped to the API's 1..100.
func (c *Config) GetPageSize() int {
	switch {
	case c.PageSize <= 0:
		return constants.DefaultPageSize
	case c.PageSize > constants.DefaultPageSize:
		return constants.DefaultPageSize
	default:
		return c.PageSize
	}
}

// GetDefaultFormat returns the configured output format, "table" if unset.
func (c *Config) GetDefaultFormat() string {
	if c.DefaultFormat == "" {
		return "table"
	}
	return c.DefaultFormat
}

// GetDebounce returns the query debounce interval.
func (c *Config) GetDebounce() time.Duration {
	if c.Debounce == nil || *c.Debounce < 0 {
		return constants.QueryDebounce
	}
	return *c.Debounce
}

// GetCacheBackend returns the cache backend, "file" if unset.
func (c *Config) GetCacheBackend() string {
	if c.Cache == nil || c.Cache.Backend == "" {
		return cache.BackendFile
	}
	return strings.ToLower(c.Cache.Backend)
}

// GetCacheTTL returns how long cached lists are served without revalidation.
func (c *Config) GetCacheTTL() time.Duration {
	if c.Cache == nil || c.Cache.TTL == nil || *c.Cache.TTL <= 0 {
		return constants.CacheTTL
	}
	return *c.Cache.TTL
}

// GetCachePath returns the configured cache location; empty selects the
// backend's default.
func (c *Config) GetCachePath() string {
	if c.Cache == nil {
		return ""
	}
	return c.Cache.Path
}

// GetServerAddr returns the listen address for `serve`.
func (c *Config) GetServerAddr() string {
	if c.Server == nil || c.Server.Addr == "" {
		return constants.DefaultServerAddr
	}
	return c.Server.Addr
}

// GetPublicURL returns the base URL the server advertises in logs.
func (c *Config) GetPublicURL() string {
	if c.Server == nil || c.Server.PublicURL == "" {
		return constants.DefaultPublicURL
	}
	return c.Server.PublicURL
}

// GetCORSOrigins returns the origins allowed to call the JSON API.
func (c *Config) GetCORSOrigins() []string {
	if c.Server == nil {
		return nil
	}
	return c.Server.CORSOrigins
}

// Set assigns a dotted key such as "cache.ttl" from its string form.
func (c *Config) Set(key, value string) error {
	switch key {
	case "user":
		c.User = value
	case "page_size":
		var n int
		if _, err := fmt.Sscanf(value, "%d", &n); err != nil || n < 1 || n > constants.DefaultPageSize {
			return fmt.Errorf("page_size must be between 1 and %d", constants.DefaultPageSize)
		}
		c.PageSize = n
	case "default_format":
		c.DefaultFormat = value
	case "debounce":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid debounce: %w", err)
		}
		c.Debounce = &d
	case "cache.backend":
		switch value {
		case cache.BackendFile, cache.BackendSQLite, cache.BackendMemory:
		default:
			return fmt.Errorf("unknown cache backend %q (use file, sqlite or memory)", value)
		}
		c.ensureCache().Backend = value
	case "cache.ttl":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid cache.ttl: %w", err)
		}
		c.ensureCache().TTL = &d
	case "cache.path":
		c.ensureCache().Path = value
	case "server.addr":
		c.ensureServer().Addr = value
	case "server.public_url":
		c.ensureServer().PublicURL = value
	case "server.cors_origins":
		var origins []string
		for _, o := range strings.Split(value, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.ensureServer().CORSOrigins = origins
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

// Keys lists the keys accepted by Set.
func Keys() []string {
	return []string{
		"user", "page_size", "default_format", "debounce",
		"cache.backend", "cache.ttl", "cache.path",
		"server.addr", "server.public_url", "server.cors_origins",
	}
}

func (c *Config) ensureCache() *CacheConfig {
	if c.Cache == nil {
		c.Cache = &CacheConfig{}
	}
	return c.Cache
}

func (c *Config) ensureServer() *ServerConfig {
	if c.Server == nil {
		c.Server = &ServerConfig{}
	}
	return c.Server
}

// Save saves the configuration to the global config file
func (c *Config) Save() error {
	return c.SaveFile(ConfigPath())
}

// SaveFile writes the configuration as YAML to path.
func (c *Config) SaveFile(path string) error {
	data, err := c.ToYAML()
	if err != nil {
		return err
	}
	return SaveTo(path, data)
}

// DefaultConfig returns a fully populated config with all default values.
// This is useful for generating a complete config file template.
func DefaultConfig() *Config {
	debounce := constants.QueryDebounce
	ttl := constants.CacheTTL
	return &Config{
		User:          "",
		PageSize:      constants.DefaultPageSize,
		DefaultFormat: "table",
		Debounce:      &debounce,
		Cache: &CacheConfig{
			Backend: cache.BackendFile,
			TTL:     &ttl,
		},
		Server: &ServerConfig{
			Addr:      constants.DefaultServerAddr,
			PublicURL: constants.DefaultPublicURL,
		},
	}
}

// ToYAML returns the config as a YAML string
func (c *Config) ToYAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(data), nil
}

// ConfigPathInfo contains information about config file paths
type ConfigPathInfo struct {
	GlobalPath   string
	GlobalExists bool
	LocalPath    string
	LocalExists  bool
}

// GetConfigPaths returns path info for both global and local configs
func GetConfigPaths() ConfigPathInfo {
	globalPath := ConfigPath()
	localPath := LocalConfigPath()

	// Get absolute path for local config
	absLocalPath, err := filepath.Abs(localPath)
	if err != nil {
		absLocalPath = localPath
	}

	_, globalErr := os.Stat(globalPath)
	_, localErr := os.Stat(localPath)

	return ConfigPathInfo{
		GlobalPath:   globalPath,
		GlobalExists: globalErr == nil,
		LocalPath:    absLocalPath,
		LocalExists:  localErr == nil,
	}
}

// MinimalConfig returns a minimal config template with comments
func MinimalConfig() string {
	return `# repolist configuration file
# See: repolist config defaults  (for all available options)

# GitHub user whose public repositories are listed
# user: octocat

# Output format: table, json, markdown or html
default_format: table

# Cache backend: file, sqlite or memory
# cache:
#   backend: file
#   ttl: 10m0s

# Web server (repolist serve)
# server:
#   addr: ":8080"
#   cors_origins:
#     - https://example.org

# The GitHub token is read from GITHUB_TOKEN only.
`
}

// SaveTo writes content to a specific path, creating directories as needed
func SaveTo(path string, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	return nil
}
