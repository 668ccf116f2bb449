package ghclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spiffcs/repolist/internal/cache"
	"github.com/spiffcs/repolist/internal/constants"
	"github.com/spiffcs/repolist/internal/log"
	"github.com/spiffcs/repolist/internal/model"
)

// PageLister fetches one page of a user's repositories.
type PageLister interface {
	ListPage(ctx context.Context, user string, perPage, page int, validator string) (*Page, error)
}

var _ PageLister = (*Client)(nil)

// Fetcher retrieves a user's complete repository list, serving it from the
// cache while fresh and revalidating it with the stored ETag once stale.
type Fetcher struct {
	pages    PageLister
	store    cache.Store
	ttl      time.Duration
	maxPages int
	now      func() time.Time
	loc      *time.Location
	progress func(user string, page int)
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithTTL sets how long a cached list is served without revalidation.
func WithTTL(ttl time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.ttl = ttl
	}
}

// WithMaxPages sets the page cap.
func WithMaxPages(n int) FetcherOption {
	return func(f *Fetcher) {
		f.maxPages = n
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) FetcherOption {
	return func(f *Fetcher) {
		f.now = now
	}
}

// WithLocation sets the zone rate limit reset times are shown in.
func WithLocation(loc *time.Location) FetcherOption {
	return func(f *Fetcher) {
		f.loc = loc
	}
}

// WithProgress registers a callback invoked before each page request.
func WithProgress(fn func(user string, page int)) FetcherOption {
	return func(f *Fetcher) {
		f.progress = fn
	}
}

// NewFetcher creates a Fetcher. A nil store disables caching.
func NewFetcher(pages PageLister, store cache.Store, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		pages:    pages,
		store:    store,
		ttl:      constants.CacheTTL,
		maxPages: constants.MaxPages,
		now:      time.Now,
		loc:      time.Local,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.store == nil {
		f.store = cache.NewMemoryStore()
	}
	return f
}

type fetchState int

const (
	stateCheckCache fetchState = iota
	stateFetchPage
	stateRevalidated
	statePersist
	stateDone
)

func (s fetchState) String() string {
	switch s {
	case stateCheckCache:
		return "check-cache"
	case stateFetchPage:
		return "fetch-page"
	case stateRevalidated:
		return "revalidated"
	case statePersist:
		return "persist"
	default:
		return "done"
	}
}

// fetchRun is the mutable state of one Fetch call.
type fetchRun struct {
	user     string
	pageSize int
	cached   *cache.Entry
	page     int
	latest   string // validator of page 1, which stands for the listing
	repos    []model.Repository
	result   model.FetchResult
}

// Fetch returns all public repositories of user. It never fails: API,
// network and rate limit problems are reported in FetchResult.Error, and
// cancellation of ctx yields an empty result with no error.
func (f *Fetcher) Fetch(ctx context.Context, user string, pageSize int) model.FetchResult {
	if pageSize <= 0 {
		pageSize = constants.DefaultPageSize
	}
	run := &fetchRun{user: user, pageSize: pageSize, page: 1, repos: []model.Repository{}}

	state := stateCheckCache
	for state != stateDone {
		next := f.step(ctx, state, run)
		log.Trace("fetch transition", "user", user, "from", state, "to", next)
		state = next
	}
	return run.result
}

func (f *Fetcher) step(ctx context.Context, state fetchState, run *fetchRun) fetchState {
	switch state {
	case stateCheckCache:
		return f.checkCache(run)
	case stateFetchPage:
		return f.fetchPage(ctx, run)
	case stateRevalidated:
		return f.revalidated(run)
	case statePersist:
		return f.persist(run)
	default:
		return stateDone
	}
}

func (f *Fetcher) checkCache(run *fetchRun) fetchState {
	entry, ok := f.store.Load(run.user)
	if !ok {
		log.Debug("cache miss", "user", run.user)
		return stateFetchPage
	}
	run.cached = entry

	if entry.Fresh(f.now(), f.ttl) {
		log.Info("serving cached repositories", "user", run.user, "count", len(entry.Repositories))
		run.result = model.FetchResult{Repositories: entry.Repositories}
		return stateDone
	}
	log.Debug("cache stale", "user", run.user, "captured_at", entry.CapturedAt, "has_validator", entry.Validator != "")
	return stateFetchPage
}

func (f *Fetcher) fetchPage(ctx context.Context, run *fetchRun) fetchState {
	if ctx.Err() != nil {
		return f.cancelled(run)
	}
	if f.progress != nil {
		f.progress(run.user, run.page)
	}

	// Only page 1 is conditional: its validator is the one stored, and a
	// 304 there means the listing as a whole is unchanged.
	validator := ""
	if run.cached != nil && run.page == 1 {
		validator = run.cached.Validator
	}

	page, err := f.pages.ListPage(ctx, run.user, run.pageSize, run.page, validator)
	if err != nil {
		return f.failed(ctx, run, err)
	}

	if page.NotModified {
		if run.cached != nil && run.page == 1 {
			return stateRevalidated
		}
		return f.failed(ctx, run, &APIError{StatusCode: 304})
	}

	if run.page == 1 {
		run.latest = page.Validator
	}
	if len(page.Repositories) == 0 {
		return statePersist
	}
	run.repos = append(run.repos, page.Repositories...)
	if len(page.Repositories) < run.pageSize {
		return statePersist
	}

	run.page++
	if run.page > f.maxPages {
		log.Warn("page cap reached", "user", run.user, "pages", f.maxPages)
		return statePersist
	}
	return stateFetchPage
}

func (f *Fetcher) revalidated(run *fetchRun) fetchState {
	log.Info("cached repositories still current", "user", run.user, "count", len(run.cached.Repositories))
	f.save(run.user, &cache.Entry{
		CapturedAt:   f.now(),
		Validator:    run.cached.Validator,
		Repositories: run.cached.Repositories,
	})
	run.result = model.FetchResult{Repositories: run.cached.Repositories}
	return stateDone
}

func (f *Fetcher) persist(run *fetchRun) fetchState {
	log.Info("fetched repositories", "user", run.user, "count", len(run.repos), "pages", run.page)
	f.save(run.user, &cache.Entry{
		CapturedAt:   f.now(),
		Validator:    run.latest,
		Repositories: run.repos,
	})
	run.result = model.FetchResult{Repositories: run.repos}
	return stateDone
}

func (f *Fetcher) failed(ctx context.Context, run *fetchRun, err error) fetchState {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return f.cancelled(run)
	}

	var apiErr *APIError
	msg := fmt.Sprintf("failed to load repositories: %v", err)
	if errors.As(err, &apiErr) {
		msg = apiErr.Message(f.loc)
	}
	log.Debug("fetch failed", "user", run.user, "page", run.page, "error", msg)
	run.result = model.FetchResult{Repositories: []model.Repository{}, Error: msg}
	return stateDone
}

func (f *Fetcher) cancelled(run *fetchRun) fetchState {
	log.Debug("fetch cancelled", "user", run.user, "page", run.page)
	run.result = model.FetchResult{Repositories: []model.Repository{}}
	return stateDone
}

// save persists an entry. Failures only cost the caching benefit.
func (f *Fetcher) save(user string, entry *cache.Entry) {
	if err := f.store.Save(user, entry); err != nil {
		log.Debug("failed to cache repositories", "user", user, "error", err)
	}
}
