package session

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/spiffcs/repolist/internal/constants"
	"github.com/spiffcs/repolist/internal/model"
)

// Apply returns the repositories visible under state: forks dropped unless
// included, then matched against the trimmed query, then sorted. repos is
// not modified.
func Apply(repos []model.Repository, state model.ViewState) []model.Repository {
	query := strings.ToLower(strings.TrimSpace(state.Query))

	out := make([]model.Repository, 0, len(repos))
	for _, r := range repos {
		if r.Fork && !state.IncludeForks {
			continue
		}
		if query != "" && !strings.Contains(haystack(r), query) {
			continue
		}
		out = append(out, r)
	}

	sortRepositories(out, state.Sort)
	return out
}

func haystack(r model.Repository) string {
	return strings.ToLower(r.Name + " " + r.Description + " " + r.Language)
}

// sortRepositories sorts in place. Unrecognized modes sort like
// SortUpdated.
func sortRepositories(repos []model.Repository, mode model.SortMode) {
	switch mode {
	case model.SortStars:
		sort.SliceStable(repos, func(i, j int) bool {
			return repos[i].StargazersCount > repos[j].StargazersCount
		})
	case model.SortName:
		// collators are not safe for concurrent use
		c := collate.New(language.Und)
		sort.SliceStable(repos, func(i, j int) bool {
			return c.CompareString(repos[i].Name, repos[j].Name) < 0
		})
	default:
		// ISO-8601 strings order chronologically
		sort.SliceStable(repos, func(i, j int) bool {
			return repos[i].UpdatedAt > repos[j].UpdatedAt
		})
	}
}

// StatusLine formats the status region text.
func StatusLine(shown, total int, lastErr string) string {
	s := fmt.Sprintf("%d shown / %d total", shown, total)
	if lastErr != "" {
		s += constants.StatusSeparator + lastErr
	}
	return s
}
