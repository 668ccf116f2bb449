// Package lang resolves a repository's primary language to a stable badge
// identifier and display color.
package lang

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf16"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Fallback colors are hsl(hue, fallbackSaturation, fallbackLightness).
const (
	fallbackSaturation = 65
	fallbackLightness  = 52
)

// palette holds the linguist colors of the most common languages, keyed by slug.
var palette = map[string]string{
	"javascript":       "#f1e05a",
	"typescript":       "#3178c6",
	"python":           "#3572a5",
	"go":               "#00add8",
	"java":             "#b07219",
	"ruby":             "#701516",
	"php":              "#4f5d95",
	"rust":             "#dea584",
	"kotlin":           "#a97bff",
	"swift":            "#f05138",
	"html":             "#e34c26",
	"css":              "#563d7c",
	"shell":            "#89e051",
	"powershell":       "#012456",
	"elixir":           "#6e4a7e",
	"c":                "#555555",
	"cpp":              "#f34b7d",
	"csharp":           "#178600",
	"fsharp":           "#b845fc",
	"dart":             "#00b4ab",
	"lua":              "#000080",
	"vue":              "#41b883",
	"svelte":           "#ff3e00",
	"dockerfile":       "#384d54",
	"jupyter-notebook": "#da5b0b",
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slug normalizes a language name to a CSS-safe identifier, e.g.
// "C++" -> "cpp", "Jupyter Notebook" -> "jupyter-notebook".
func Slug(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	// Only whole names are special; "Objective-C++" is "objective-c".
	switch s {
	case "c#":
		return "csharp"
	case "c++":
		return "cpp"
	case "f#":
		return "fsharp"
	}
	s = nonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Color returns the CSS color for a language: a palette hex value for
// well-known languages, otherwise an hsl() color derived from a hash of
// the name.
func Color(name string) string {
	slug := Slug(name)
	if c, ok := palette[slug]; ok {
		return c
	}
	return fmt.Sprintf("hsl(%d %d%% %d%%)", hue(hashKey(slug, name)), fallbackSaturation, fallbackLightness)
}

// Hex is like Color but always returns a #rrggbb value, for terminals.
func Hex(name string) string {
	slug := Slug(name)
	if c, ok := palette[slug]; ok {
		return c
	}
	h := float64(hue(hashKey(slug, name)))
	return colorful.Hsl(h, fallbackSaturation/100.0, fallbackLightness/100.0).Clamped().Hex()
}

// Known reports whether the language has a fixed palette color.
func Known(name string) bool {
	_, ok := palette[Slug(name)]
	return ok
}

func hashKey(slug, name string) string {
	switch {
	case slug != "":
		return slug
	case name != "":
		return name
	default:
		return "unknown"
	}
}

// hue hashes the UTF-16 code units of s, matching what a browser computes
// for the same string, so web and terminal badges agree.
func hue(s string) uint32 {
	var h uint32
	for _, u := range utf16.Encode([]rune(s)) {
		h = h*31 + uint32(u)
	}
	return h % 360
}
