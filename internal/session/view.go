// Package session drives one interactive repository listing: it keeps the
// view state in sync with the URL, fetches repositories and renders the
// filtered, sorted list into a View.
package session

import (
	"context"

	"github.com/spiffcs/repolist/internal/model"
)

// View is the surface a host renders into. The controller calls it while
// holding its own lock, so implementations must not call back into the
// controller synchronously.
type View interface {
	// Bind hands the view the handlers to call on user input.
	Bind(h Handlers)
	SetControls(state model.ViewState)
	SetStatus(status string)
	SetList(rows []string)
}

// Handlers receives user input from a View.
type Handlers interface {
	QueryChanged(query string)
	SortChanged(mode model.SortMode)
	ForksToggled(include bool)
	// Navigated re-reads the state from the current history entry.
	Navigated()
}

// Fetcher loads a user's repositories. Implementations report failures in
// the result and return an empty, error-free result when ctx is cancelled.
type Fetcher interface {
	Fetch(ctx context.Context, user string, pageSize int) model.FetchResult
}
