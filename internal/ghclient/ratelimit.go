package ghclient

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/spiffcs/repolist/internal/constants"
	"github.com/spiffcs/repolist/internal/log"
)

// RateLimitState tracks the most recent rate limit headers seen by a Client.
type RateLimitState struct {
	mu        sync.RWMutex
	remaining int
	limit     int
	resetAt   time.Time
	seen      bool
}

// Update records the values of one response.
func (s *RateLimitState) Update(remaining, limit int, resetAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remaining = remaining
	s.limit = limit
	s.resetAt = resetAt
	s.seen = true
}

// Status returns the last recorded values. ok is false until a response
// carrying rate limit headers has been seen.
func (s *RateLimitState) Status() (remaining, limit int, resetAt time.Time, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.remaining, s.limit, s.resetAt, s.seen
}

// Exhausted reports whether the last response left no quota and the
// reset time is still ahead.
func (s *RateLimitState) Exhausted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seen && s.remaining == 0 && time.Now().Before(s.resetAt)
}

// rateLimitTransport records the rate limit headers of every response.
type rateLimitTransport struct {
	base  http.RoundTripper
	state *RateLimitState
}

func (t *rateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return resp, err
	}

	remaining, limit, resetAt := parseRateLimitHeaders(resp.Header)
	if remaining >= 0 && limit > 0 {
		t.state.Update(remaining, limit, resetAt)
	}
	if remaining >= 0 && remaining <= constants.RateLimitLowWatermark {
		log.Debug("rate limit low", "remaining", remaining, "resets_at", resetAt.Format(time.RFC3339))
	}
	log.Trace("response", "url", req.URL.String(), "status", resp.StatusCode, "etag", resp.Header.Get("ETag"))

	return resp, nil
}

// parseRateLimitHeaders extracts rate limit info from response headers.
// Missing or malformed counts are reported as -1.
func parseRateLimitHeaders(h http.Header) (remaining, limit int, resetAt time.Time) {
	remaining = -1
	limit = -1

	if v := h.Get("X-RateLimit-Remaining"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			remaining = n
		}
	}
	if v := h.Get("X-RateLimit-Limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if v := h.Get("X-RateLimit-Reset"); v != "" {
		if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
			resetAt = time.Unix(secs, 0)
		}
	}
	return remaining, limit, resetAt
}
