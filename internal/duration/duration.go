// Package duration parses human-readable durations such as "12h" or "2w".
package duration

import (
	"fmt"
	"strings"
	"time"
)

const day = 24 * time.Hour

// Parse parses human-readable durations like "90m", "1w", "30d", "6mo".
// Months are 30 days and years 365 days.
func Parse(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)

	var n int
	var unit string
	if _, err := fmt.Sscanf(s, "%d%s", &n, &unit); err != nil {
		return 0, fmt.Errorf("invalid duration format: %q (use e.g. 12h, 30d, 2w)", s)
	}
	if n < 0 {
		return 0, fmt.Errorf("duration must not be negative: %q", s)
	}

	var d time.Duration
	switch strings.ToLower(unit) {
	case "s", "sec", "secs":
		d = time.Second
	case "m", "min", "mins":
		d = time.Minute
	case "h", "hr", "hrs", "hour", "hours":
		d = time.Hour
	case "d", "day", "days":
		d = day
	case "w", "wk", "wks", "week", "weeks":
		d = 7 * day
	case "mo", "month", "months":
		d = 30 * day
	case "y", "yr", "yrs", "year", "years":
		d = 365 * day
	default:
		return 0, fmt.Errorf("unknown duration unit: %q", unit)
	}
	return time.Duration(n) * d, nil
}

// Ago parses s and returns the instant that long before now.
func Ago(s string, now time.Time) (time.Time, error) {
	d, err := Parse(s)
	if err != nil {
		return time.Time{}, err
	}
	return now.Add(-d), nil
}
