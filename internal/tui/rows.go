package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/spiffcs/repolist/internal/format"
	"github.com/spiffcs/repolist/internal/lang"
	"github.com/spiffcs/repolist/internal/model"
)

// Column widths
const (
	colName  = 28
	colLang  = 12
	colStars = 6
	colForks = 5
	colAge   = 4
	colDesc  = 48
)

// now is replaced in tests.
var now = time.Now

// RenderRow renders one repository as a single terminal line.
func RenderRow(r model.Repository) string {
	name := nameStyle.Render(format.Fit(r.Name, colName))

	language := format.Fit(r.Language, colLang)
	if r.Language != "" {
		language = langStyle(lang.Hex(r.Language)).Render(language)
	}

	stars := starStyle.Render(fmt.Sprintf("★%*d", colStars-1, r.StargazersCount))
	forks := dimStyle.Render(fmt.Sprintf("⑂%*d", colForks-1, r.ForksCount))
	age := dimStyle.Render(format.PadRight(format.Since(r.UpdatedAt, now()), colAge))

	parts := []string{name, language, stars, forks, age, format.Truncate(r.Description, colDesc)}

	var labels []string
	if r.Archived {
		labels = append(labels, "archived")
	}
	if r.Fork {
		labels = append(labels, "fork")
	}
	if len(labels) > 0 {
		parts = append(parts, labelStyle.Render(strings.Join(labels, " ")))
	}
	return strings.Join(parts, " ")
}

// calculateScrollWindow calculates which items to show based on cursor position
func calculateScrollWindow(cursor, total, viewHeight int) (start, end int) {
	if viewHeight < 1 {
		viewHeight = 1
	}
	if total <= viewHeight {
		return 0, total
	}

	start = cursor - viewHeight/2
	if start < 0 {
		start = 0
	}

	end = start + viewHeight
	if end > total {
		end = total
		start = end - viewHeight
	}

	return start, end
}
