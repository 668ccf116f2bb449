// Package render turns repositories into HTML markup for the web host.
package render

import (
	"html/template"
	"strings"
	"time"

	"github.com/spiffcs/repolist/internal/lang"
	"github.com/spiffcs/repolist/internal/model"
)

const rowTemplate = `<article class="repo" role="listitem">
  <div class="repo-main">
    <h3><a href="{{.URL}}" target="_blank" rel="noreferrer">{{.Name}}</a></h3>
    {{- if .Description}}
    <p class="muted">{{.Description}}</p>
    {{- end}}
    <div class="repo-meta">
      <div class="meta-grid">
        {{- if .Language}}
        <span class="meta-item lang lang-{{.Slug}}" style="--lang: {{.Color}}">{{.Language}}</span>
        {{- end}}
        <span class="meta-item">★ {{.Stars}}</span>
        <span class="meta-item">⑂ {{.Forks}}</span>
        {{- if .Archived}}
        <span class="meta-label">archived</span>
        {{- end}}
        {{- if .Fork}}
        <span class="meta-label">fork</span>
        {{- end}}
      </div>
      {{- if .Updated}}
      <div class="meta-right"><span class="updated">updated {{.Updated}}</span></div>
      {{- end}}
    </div>
  </div>
</article>
`

var rowTmpl = template.Must(template.New("row").Parse(rowTemplate))

type rowData struct {
	URL         string
	Name        string
	Description string
	Language    string
	Slug        string
	Color       template.CSS
	Stars       int
	Forks       int
	Archived    bool
	Fork        bool
	Updated     string
}

// Row renders one repository as an <article> fragment. Untrusted text is
// escaped by html/template; unsafe link schemes are neutralized.
func Row(r model.Repository) string {
	d := rowData{
		URL:         r.HTMLURL,
		Name:        r.Name,
		Description: r.Description,
		Language:    r.Language,
		Stars:       r.StargazersCount,
		Forks:       r.ForksCount,
		Archived:    r.Archived,
		Fork:        r.Fork,
		Updated:     FormatDate(r.UpdatedAt),
	}
	if r.Language != "" {
		d.Slug = lang.Slug(r.Language)
		// Color only ever produces a hex literal or an hsl() expression.
		d.Color = template.CSS(lang.Color(r.Language))
	}

	var sb strings.Builder
	if err := rowTmpl.Execute(&sb, d); err != nil {
		return ""
	}
	return sb.String()
}

// FormatDate returns the UTC calendar date (YYYY-MM-DD) of an ISO-8601
// timestamp, or "" when the input is empty or unparseable.
func FormatDate(iso string) string {
	if iso == "" {
		return ""
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, iso); err == nil {
			return t.UTC().Format("2006-01-02")
		}
	}
	return ""
}
