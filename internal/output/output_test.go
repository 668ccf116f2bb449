package output

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/spiffcs/repolist/internal/format"
	"github.com/spiffcs/repolist/internal/model"
	"github.com/spiffcs/repolist/internal/session"
	"github.com/spiffcs/repolist/internal/urlstate"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func sampleRepo() model.Repository {
	return model.Repository{
		ID:              7,
		Name:            "widget",
		Description:     "A small | useful\nwidget",
		HTMLURL:         "https://github.com/octo/widget",
		StargazersCount: 42,
		ForksCount:      3,
		Language:        "Go",
		UpdatedAt:       "2024-05-30T12:00:00Z",
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{"JSON", FormatJSON, false},
		{"markdown", FormatMarkdown, false},
		{"html", FormatHTML, false},
		{"yaml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTableRow(t *testing.T) {
	row := RowRenderer(FormatTable, Options{Now: now})(sampleRepo())

	if strings.Contains(row, "\x1b") {
		t.Errorf("expected no escapes without color, got %q", row)
	}
	for _, want := range []string{"widget", "Go", "42", "3", "2d", "A small | useful widget"} {
		if !strings.Contains(row, want) {
			t.Errorf("row %q missing %q", row, want)
		}
	}
	if strings.Contains(row, "\n") {
		t.Errorf("row must be a single line: %q", row)
	}
}

func TestTableRowColumnsAlign(t *testing.T) {
	render := RowRenderer(FormatTable, Options{Now: now, Color: true})

	short := sampleRepo()
	long := sampleRepo()
	long.Name = strings.Repeat("x", 60)
	long.Archived = true

	a := format.StripANSI(render(short))
	b := format.StripANSI(render(long))
	ia := strings.Index(a, "Go")
	ib := strings.Index(b, "Go")
	if ia < 0 || ib < 0 {
		t.Fatalf("language column missing: %q / %q", a, b)
	}
	if wa, wb := format.DisplayWidth(a[:ia]), format.DisplayWidth(b[:ib]); wa != wb {
		t.Errorf("language column starts at %d and %d", wa, wb)
	}
	if !strings.Contains(b, "[archived]") {
		t.Errorf("expected archived marker, got %q", b)
	}
	if !strings.Contains(b, "…") {
		t.Errorf("expected long name to be truncated, got %q", b)
	}
}

func TestTableRowHyperlink(t *testing.T) {
	row := RowRenderer(FormatTable, Options{Now: now, Hyperlinks: true})(sampleRepo())
	if !strings.Contains(row, "\x1b]8;;https://github.com/octo/widget\x1b\\widget") {
		t.Errorf("expected OSC 8 link, got %q", row)
	}
}

func TestTableRowColor(t *testing.T) {
	row := RowRenderer(FormatTable, Options{Now: now, Color: true})(sampleRepo())
	// #00add8 is rgb(0, 173, 216)
	if !strings.Contains(row, "38;2;0;173;216") {
		t.Errorf("expected language color escape, got %q", row)
	}
}

func TestJSONRow(t *testing.T) {
	row := RowRenderer(FormatJSON, Options{})(sampleRepo())

	var got model.Repository
	if err := json.Unmarshal([]byte(row), &got); err != nil {
		t.Fatalf("row is not JSON: %v", err)
	}
	if diff := cmp.Diff(sampleRepo(), got); diff != "" {
		t.Errorf("decoded row mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(row, `"stargazers_count":42`) {
		t.Errorf("expected API field names, got %s", row)
	}
}

func TestMarkdownRow(t *testing.T) {
	r := sampleRepo()
	r.Fork = true
	row := RowRenderer(FormatMarkdown, Options{})(r)

	want := `| [widget](https://github.com/octo/widget) _fork_ | Go | 42 | 3 | 2024-05-30 | A small \| useful widget |`
	if row != want {
		t.Errorf("markdownRow() =\n%s\nwant\n%s", row, want)
	}
}

func TestHTMLRow(t *testing.T) {
	row := RowRenderer(FormatHTML, Options{})(sampleRepo())
	if !strings.Contains(row, `<article class="repo" role="listitem">`) {
		t.Errorf("expected article markup, got %s", row)
	}
}

type staticFetcher struct {
	repos []model.Repository
}

func (f staticFetcher) Fetch(context.Context, string, int) model.FetchResult {
	return model.FetchResult{Repositories: f.repos}
}

func TestListViewWithController(t *testing.T) {
	repos := []model.Repository{
		{Name: "b", HTMLURL: "https://github.com/o/b", StargazersCount: 1},
		{Name: "a", HTMLURL: "https://github.com/o/a", StargazersCount: 9},
		{Name: "fork", Fork: true},
	}
	start := urlstate.Encode(model.ViewState{Sort: model.SortStars}, nil)
	view := NewListView()
	c := session.New(staticFetcher{repos}, view, urlstate.NewHistory(start), "o",
		session.WithRenderer(RowRenderer(FormatJSON, Options{})))
	defer c.Close()

	c.Init(context.Background())

	var buf bytes.Buffer
	if err := view.WriteTo(&buf, FormatJSON); err != nil {
		t.Fatalf("WriteTo() error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 rows without forks, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], `"name":"a"`) {
		t.Errorf("expected star order, first row %s", lines[0])
	}
	if got := view.Status(); got != "2 shown / 3 total" {
		t.Errorf("Status() = %q", got)
	}
	if got := view.State().Sort; got != model.SortStars {
		t.Errorf("State().Sort = %q", got)
	}
}

func TestListViewEmptyTable(t *testing.T) {
	var buf bytes.Buffer
	if err := NewListView().WriteTo(&buf, FormatTable); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "No repositories found.\n" {
		t.Errorf("WriteTo() = %q", got)
	}
}

func TestHeader(t *testing.T) {
	if Header(FormatJSON) != "" || Header(FormatHTML) != "" {
		t.Error("json and html have no header")
	}
	if !strings.HasPrefix(Header(FormatTable), "Repository") {
		t.Errorf("unexpected table header %q", Header(FormatTable))
	}
	if !strings.HasPrefix(Header(FormatMarkdown), "| Repository |") {
		t.Errorf("unexpected markdown header %q", Header(FormatMarkdown))
	}
}
