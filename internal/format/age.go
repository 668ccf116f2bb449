package format

import (
	"fmt"
	"time"
)

// Age formats a duration in compact form: "now", "5m", "2h", "3d", "2w",
// "3mo", "2y".
func Age(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	}

	days := int(d.Hours() / 24)
	switch {
	case days < 7:
		return fmt.Sprintf("%dd", days)
	case days < 30:
		return fmt.Sprintf("%dw", days/7)
	case days < 365:
		return fmt.Sprintf("%dmo", days/30)
	default:
		return fmt.Sprintf("%dy", days/365)
	}
}

// Since formats the age of an ISO-8601 timestamp relative to now. It
// returns "" when the timestamp cannot be parsed.
func Since(iso string, now time.Time) string {
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return ""
	}
	if d := now.Sub(t); d > 0 {
		return Age(d)
	}
	return "now"
}
