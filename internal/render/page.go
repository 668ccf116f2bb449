package render

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/spiffcs/repolist/internal/model"
)

// PageData is everything the full document needs.
type PageData struct {
	User   string
	State  model.ViewState
	Status string
	Rows   []string // fragments produced by Row
}

type sortOption struct {
	Value    string
	Label    string
	Selected bool
}

type pageView struct {
	User         string
	Query        string
	IncludeForks bool
	Status       string
	Options      []sortOption
	Rows         []template.HTML
}

var sortLabels = map[model.SortMode]string{
	model.SortUpdated: "Recently updated",
	model.SortStars:   "Stars",
	model.SortName:    "Name",
}

const pageTemplate = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.User}} · repositories</title>
  <style>
    body { font-family: system-ui, sans-serif; margin: 2rem auto; max-width: 56rem; padding: 0 1rem; }
    .controls { display: flex; gap: .75rem; align-items: center; margin-bottom: 1rem; }
    .repo { border-bottom: 1px solid #d0d7de; padding: .75rem 0; }
    .repo h3 { margin: 0 0 .25rem; font-size: 1.05rem; }
    .muted { color: #57606a; margin: 0 0 .5rem; }
    .repo-meta { display: flex; justify-content: space-between; font-size: .85rem; color: #57606a; }
    .meta-grid { display: flex; gap: .75rem; flex-wrap: wrap; }
    .lang::before { content: ""; display: inline-block; width: .7em; height: .7em; border-radius: 50%; margin-right: .3em; background: var(--lang); }
    .meta-label { border: 1px solid #d0d7de; border-radius: 1em; padding: 0 .5em; }
    #status { color: #57606a; font-size: .9rem; }
  </style>
</head>
<body>
  <h1>{{.User}}</h1>
  <form class="controls" method="get" action="">
    <input id="q" name="q" type="search" placeholder="Filter repositories" value="{{.Query}}">
    <select id="sort" name="sort" onchange="this.form.submit()">
      {{- range .Options}}
      <option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>
      {{- end}}
    </select>
    <label><input id="forks" name="forks" type="checkbox" value="1"{{if .IncludeForks}} checked{{end}} onchange="this.form.submit()"> Include forks</label>
    <noscript><button type="submit">Apply</button></noscript>
  </form>
  <p id="status" role="status">{{.Status}}</p>
  <div id="list" role="list">
    {{- range .Rows}}
    {{.}}
    {{- end}}
  </div>
</body>
</html>
`

var pageTmpl = template.Must(template.New("page").Parse(pageTemplate))

// Page renders the complete HTML document for the web host.
func Page(data PageData) (string, error) {
	v := pageView{
		User:         data.User,
		Query:        data.State.Query,
		IncludeForks: data.State.IncludeForks,
		Status:       data.Status,
		Options:      sortOptions(data.State.Sort),
		Rows:         make([]template.HTML, len(data.Rows)),
	}
	for i, row := range data.Rows {
		// rows come from Row, which escapes its input
		v.Rows[i] = template.HTML(row)
	}

	var sb strings.Builder
	if err := pageTmpl.Execute(&sb, v); err != nil {
		return "", fmt.Errorf("failed to render page: %w", err)
	}
	return sb.String(), nil
}

// sortOptions builds the <select> options. An unrecognized mode is listed
// as its own option so the control reflects the URL without rewriting it.
func sortOptions(current model.SortMode) []sortOption {
	var opts []sortOption
	known := false
	for _, m := range model.SortModes() {
		selected := m == current
		known = known || selected
		opts = append(opts, sortOption{Value: string(m), Label: sortLabels[m], Selected: selected})
	}
	if !known && current != "" {
		opts = append(opts, sortOption{Value: string(current), Label: string(current), Selected: true})
	}
	return opts
}
