package output

import (
	"fmt"
	"strings"

	"github.com/spiffcs/repolist/internal/model"
	"github.com/spiffcs/repolist/internal/render"
)

const markdownHeader = "| Repository | Language | Stars | Forks | Updated | Description |\n" +
	"|---|---|--:|--:|---|---|"

var markdownEscaper = strings.NewReplacer("|", `\|`, "\r\n", " ", "\n", " ", "[", `\[`, "]", `\]`)

func markdownRow(r model.Repository) string {
	name := markdownEscaper.Replace(r.Name)
	if r.HTMLURL != "" {
		name = fmt.Sprintf("[%s](%s)", name, strings.ReplaceAll(r.HTMLURL, ")", "%29"))
	}
	var flags []string
	if r.Archived {
		flags = append(flags, "archived")
	}
	if r.Fork {
		flags = append(flags, "fork")
	}
	if len(flags) > 0 {
		name += " _" + strings.Join(flags, ", ") + "_"
	}

	return fmt.Sprintf("| %s | %s | %d | %d | %s | %s |",
		name,
		markdownEscaper.Replace(r.Language),
		r.StargazersCount,
		r.ForksCount,
		render.FormatDate(r.UpdatedAt),
		markdownEscaper.Replace(r.Description),
	)
}
