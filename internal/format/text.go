// Package format provides text helpers for terminal output.
package format

import (
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"
)

// ansiRegex matches SGR escape sequences
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// ellipsis marks truncated text.
const ellipsis = "…"

// StripANSI removes color escape sequences.
func StripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// DisplayWidth returns the number of terminal columns s occupies, ignoring
// color escapes and counting East Asian wide runes and emoji as two.
func DisplayWidth(s string) int {
	return runewidth.StringWidth(StripANSI(s))
}

// Truncate shortens plain text to at most width columns, ending it with an
// ellipsis when anything was cut. Newlines and tabs become spaces so a
// repository description always fits on one line.
func Truncate(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, ellipsis)
}

// PadRight pads s with spaces to width visible columns. Colored strings
// are measured without their escapes.
func PadRight(s string, width int) string {
	if w := DisplayWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// Fit truncates and pads plain text to exactly width columns.
func Fit(s string, width int) string {
	return PadRight(Truncate(s, width), width)
}
