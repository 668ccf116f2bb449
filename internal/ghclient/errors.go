package ghclient

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"
)

// APIError is a non-success response from the GitHub API.
type APIError struct {
	StatusCode int
	Body       string // best-effort; empty when unreadable
	Header     http.Header

	// ResetAt is set when the client refused the request locally because
	// an earlier response exhausted the quota.
	ResetAt time.Time
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("GitHub API %d", e.StatusCode)
	}
	return fmt.Sprintf("GitHub API %d: %s", e.StatusCode, e.Body)
}

// RateLimited reports whether the response says the quota is exhausted.
func (e *APIError) RateLimited() bool {
	if e.Header.Get("X-RateLimit-Remaining") == "0" && e.Header.Get("X-RateLimit-Reset") != "" {
		return true
	}
	return !e.ResetAt.IsZero()
}

// Message returns the user-facing description of the error. Rate limit
// reset times are rendered as HH:MM in loc.
func (e *APIError) Message(loc *time.Location) string {
	if !e.RateLimited() {
		return e.Error()
	}
	reset, ok := e.resetTime()
	if !ok {
		return "GitHub API rate limit reached. Try again later."
	}
	if loc == nil {
		loc = time.Local
	}
	return fmt.Sprintf("GitHub API rate limit reached. Try again after %s.", reset.In(loc).Format("15:04"))
}

// maxResetSeconds is the end of year 9999 in Unix seconds. Larger resets
// cannot be shown as a clock time.
const maxResetSeconds = 253402300799

func (e *APIError) resetTime() (time.Time, bool) {
	if v := e.Header.Get("X-RateLimit-Reset"); v != "" {
		secs, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(secs) || math.IsInf(secs, 0) || math.Abs(secs) > maxResetSeconds {
			return time.Time{}, false
		}
		whole, frac := math.Modf(secs)
		return time.Unix(int64(whole), int64(frac*1e9)), true
	}
	if !e.ResetAt.IsZero() {
		return e.ResetAt, true
	}
	return time.Time{}, false
}
