package output

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/spiffcs/repolist/internal/format"
	"github.com/spiffcs/repolist/internal/lang"
	"github.com/spiffcs/repolist/internal/model"
)

// Column widths
const (
	colName  = 30
	colLang  = 14
	colStars = 7
	colForks = 6
	colAge   = 5
	colDesc  = 50
)

func tableHeader() string {
	header := strings.Join([]string{
		format.PadRight("Repository", colName),
		format.PadRight("Language", colLang),
		fmt.Sprintf("%*s", colStars, "Stars"),
		fmt.Sprintf("%*s", colForks, "Forks"),
		format.PadRight("Age", colAge),
		"Description",
	}, "  ")
	width := colName + colLang + colStars + colForks + colAge + colDesc + 10
	return header + "\n" + strings.Repeat("-", width)
}

type tableRenderer struct {
	opts Options
}

func (t *tableRenderer) paint(c *color.Color, s string) string {
	if !t.opts.Color {
		return s
	}
	c.EnableColor()
	return c.Sprint(s)
}

func (t *tableRenderer) row(r model.Repository) string {
	now := t.opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	var suffix string
	switch {
	case r.Archived:
		suffix = " [archived]"
	case r.Fork:
		suffix = " [fork]"
	}
	name := format.Truncate(r.Name, colName-format.DisplayWidth(suffix))
	visible := format.DisplayWidth(name + suffix)
	if t.opts.Hyperlinks && r.HTMLURL != "" {
		name = hyperlink(name, r.HTMLURL)
	}
	name = t.paint(color.New(color.Bold), name)
	if suffix != "" {
		name += t.paint(color.New(color.FgHiBlack), suffix)
	}
	if visible < colName {
		name += strings.Repeat(" ", colName-visible)
	}

	language := format.Fit(r.Language, colLang)
	if r.Language != "" {
		language = t.paint(langColor(r.Language), language)
	}

	age := format.Since(r.UpdatedAt, now)
	age = t.paint(color.New(color.FgHiBlack), format.PadRight(age, colAge))

	return strings.Join([]string{
		name,
		language,
		fmt.Sprintf("%*s", colStars, strconv.Itoa(r.StargazersCount)),
		fmt.Sprintf("%*s", colForks, strconv.Itoa(r.ForksCount)),
		age,
		format.Truncate(r.Description, colDesc),
	}, "  ")
}

// langColor returns the terminal color of a language badge.
func langColor(name string) *color.Color {
	c, err := colorful.Hex(lang.Hex(name))
	if err != nil {
		return color.New(color.FgWhite)
	}
	r, g, b := c.RGB255()
	return color.RGB(int(r), int(g), int(b))
}

// hyperlink creates a clickable terminal hyperlink using OSC 8
// Format: \033]8;;URL\033\\TEXT\033]8;;\033\\
func hyperlink(text, url string) string {
	return fmt.Sprintf("\033]8;;%s\033\\%s\033]8;;\033\\", url, text)
}
