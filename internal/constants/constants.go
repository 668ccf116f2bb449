// Package constants provides a centralized location for the configuration
// defaults and limits used throughout repolist.
package constants

import "time"

// GitHub API constants
const (
	// DefaultAPIBaseURL is the REST endpoint root for public github.com.
	DefaultAPIBaseURL = "https://api.github.com/"

	// MediaTypeGitHubJSON is the Accept header sent with every request.
	MediaTypeGitHubJSON = "application/vnd.github+json"

	// DefaultPageSize is the per_page value used when none is configured.
	DefaultPageSize = 100

	// MaxPages is the hard safety cap on the number of pages fetched
	// for a single user.
	MaxPages = 100

	// RateLimitLowWatermark is the threshold below which rate limit
	// warnings are logged.
	RateLimitLowWatermark = 10
)

// Cache constants
const (
	// CacheVersion is part of every cache key. Bumping it implicitly
	// invalidates all previously stored entries.
	CacheVersion = 1

	// CacheTTL is the age after which a cached repository list must be
	// revalidated against the API. It is a hard cutoff, not sliding.
	CacheTTL = 10 * time.Minute
)

// Interaction constants
const (
	// QueryDebounce is the settle time after the last query edit before
	// the list is filtered again.
	QueryDebounce = 150 * time.Millisecond

	// LoadingStatus is shown in the status region while a fetch is running.
	LoadingStatus = "Loading…"

	// StatusSeparator joins the counts and the last fetch error.
	StatusSeparator = " · "
)

// Server constants
const (
	// DefaultServerAddr is the listen address for `repolist serve`.
	DefaultServerAddr = ":8080"

	// DefaultPublicURL is the base URL used to print shareable links.
	DefaultPublicURL = "http://localhost:8080/"

	// ShutdownTimeout bounds graceful shutdown of the HTTP server.
	ShutdownTimeout = 10 * time.Second
)

// TUI constants
const (
	// TUIRefreshBuffer is the capacity of the view refresh channel.
	// A single slot is enough since refreshes coalesce.
	TUIRefreshBuffer = 1

	// HeaderLines is the number of lines used above the list.
	HeaderLines = 3

	// FooterLines is the number of lines used below the list.
	FooterLines = 3
)
