// Package output renders repository lists for the command line.
package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/spiffcs/repolist/internal/model"
	"github.com/spiffcs/repolist/internal/render"
)

// Format represents the output format
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatTable, FormatJSON, FormatMarkdown, FormatHTML}
}

// ParseFormat validates a format name. An empty name selects the table.
func ParseFormat(s string) (Format, error) {
	if s == "" {
		return FormatTable, nil
	}
	for _, f := range Formats() {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q (use table, json, markdown or html)", s)
}

// Options tune terminal rendering.
type Options struct {
	// Color enables ANSI colors in table output.
	Color bool
	// Hyperlinks wraps repository names in OSC 8 links.
	Hyperlinks bool
	// Now is the reference time for ages. Zero means time.Now.
	Now time.Time
}

// RowRenderer returns the function that renders one repository in format f.
func RowRenderer(f Format, opts Options) func(model.Repository) string {
	switch f {
	case FormatJSON:
		return jsonRow
	case FormatMarkdown:
		return markdownRow
	case FormatHTML:
		return render.Row
	default:
		t := &tableRenderer{opts: opts}
		return t.row
	}
}

// Header returns the lines printed before the rows, if any.
func Header(f Format) string {
	switch f {
	case FormatTable:
		return tableHeader()
	case FormatMarkdown:
		return markdownHeader
	default:
		return ""
	}
}
