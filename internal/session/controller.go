package session

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spiffcs/repolist/internal/constants"
	"github.com/spiffcs/repolist/internal/log"
	"github.com/spiffcs/repolist/internal/model"
	"github.com/spiffcs/repolist/internal/render"
	"github.com/spiffcs/repolist/internal/urlstate"
)

// Phase is the controller's loading state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseLoaded
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	default:
		return "idle"
	}
}

// Controller owns the repository list and view state of one page view or
// terminal session. At most one fetch is outstanding at a time.
type Controller struct {
	fetcher  Fetcher
	view     View
	history  *urlstate.History
	user     string
	pageSize int
	render   func(model.Repository) string
	debounce time.Duration
	id       string

	mu          sync.Mutex
	phase       Phase
	state       model.ViewState
	repos       []model.Repository
	lastErr     string
	generation  uint64 // bumped per fetch; stale results are dropped
	cancelFetch context.CancelFunc
	timer       *time.Timer
	timerSeq    uint64
	suppressURL bool
	closed      bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithPageSize sets the page size passed to the fetcher.
func WithPageSize(n int) Option {
	return func(c *Controller) {
		c.pageSize = n
	}
}

// WithRenderer sets the row renderer. The default produces HTML.
func WithRenderer(fn func(model.Repository) string) Option {
	return func(c *Controller) {
		c.render = fn
	}
}

// WithDebounce sets the settle time for query edits.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) {
		c.debounce = d
	}
}

// New creates a controller for user's repositories and binds it to view.
// Back/forward moves in history are handled as navigations.
func New(fetcher Fetcher, view View, history *urlstate.History, user string, opts ...Option) *Controller {
	if history == nil {
		history = urlstate.NewHistory(nil)
	}
	c := &Controller{
		fetcher:  fetcher,
		view:     view,
		history:  history,
		user:     user,
		pageSize: constants.DefaultPageSize,
		render:   render.Row,
		debounce: constants.QueryDebounce,
		id:       uuid.NewString(),
		state:    model.DefaultViewState(),
	}
	for _, opt := range opts {
		opt(c)
	}

	view.Bind(c)
	history.OnNavigate(func(*url.URL) { c.Navigated() })
	return c
}

// SessionID identifies the controller in logs.
func (c *Controller) SessionID() string {
	return c.id
}

// History returns the URL history the controller writes to.
func (c *Controller) History() *urlstate.History {
	return c.history
}

// Init reads the state from the current URL into the controls, then loads
// and renders the list. It blocks until the fetch finishes or is
// superseded.
func (c *Controller) Init(ctx context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.state = urlstate.Decode(c.history.Location())
	c.view.SetControls(c.state)
	c.mu.Unlock()

	c.load(ctx)
}

// Reload fetches again, keeping the current state.
func (c *Controller) Reload(ctx context.Context) {
	c.load(ctx)
}

func (c *Controller) load(ctx context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.cancelFetch != nil {
		c.cancelFetch()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	c.cancelFetch = cancel
	c.generation++
	gen := c.generation
	c.setPhaseLocked(PhaseLoading)
	c.view.SetStatus(constants.LoadingStatus)
	c.mu.Unlock()

	result := c.fetcher.Fetch(fetchCtx, c.user, c.pageSize)
	cancelled := fetchCtx.Err() != nil
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.generation {
		log.Debug("discarding superseded fetch", "session", c.id, "generation", gen)
		return
	}
	c.cancelFetch = nil
	// A failed or cancelled fetch keeps whatever was loaded before.
	switch {
	case result.Error != "":
		c.lastErr = result.Error
	case cancelled:
	default:
		c.repos = result.Repositories
		c.lastErr = ""
	}
	c.setPhaseLocked(PhaseLoaded)
	c.runLocked()
}

// Close cancels the in-flight fetch and any pending query update. The
// controller ignores all input afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.cancelFetch != nil {
		c.cancelFetch()
		c.cancelFetch = nil
	}
	c.stopTimerLocked()
	log.Debug("session closed", "session", c.id)
}

// QueryChanged implements Handlers. The list is re-rendered once edits
// have settled.
func (c *Controller) QueryChanged(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.state.Query = query
	c.stopTimerLocked()
	seq := c.timerSeq
	c.timer = time.AfterFunc(c.debounce, func() { c.flushQuery(seq) })
}

func (c *Controller) flushQuery(seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || seq != c.timerSeq {
		return
	}
	c.timer = nil
	c.runLocked()
}

// SortChanged implements Handlers.
func (c *Controller) SortChanged(mode model.SortMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.state.Sort = mode
	c.stopTimerLocked()
	c.runLocked()
}

// ForksToggled implements Handlers.
func (c *Controller) ForksToggled(include bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.state.IncludeForks = include
	c.stopTimerLocked()
	c.runLocked()
}

// Navigated implements Handlers. The URL is not rewritten, so moving
// through history never creates new entries.
func (c *Controller) Navigated() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.stopTimerLocked()
	c.state = urlstate.Decode(c.history.Location())
	c.view.SetControls(c.state)

	c.suppressURL = true
	c.runLocked()
	c.suppressURL = false
}

// Phase returns the loading state.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// State returns the current view state.
func (c *Controller) State() model.ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastError returns the error of the most recent completed fetch.
func (c *Controller) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Repositories returns a copy of the loaded list, unfiltered.
func (c *Controller) Repositories() []model.Repository {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Repository(nil), c.repos...)
}

// Visible returns the repositories currently shown.
func (c *Controller) Visible() []model.Repository {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Apply(c.repos, c.state)
}

// runLocked renders the list and status for the current state and mirrors
// the state into the URL unless suppressed.
func (c *Controller) runLocked() {
	items := Apply(c.repos, c.state)
	rows := make([]string, len(items))
	for i, r := range items {
		rows[i] = c.render(r)
	}
	c.view.SetList(rows)
	c.view.SetStatus(StatusLine(len(items), len(c.repos), c.lastErr))
	log.Trace("rendered", "session", c.id, "shown", len(items), "total", len(c.repos))

	if !c.suppressURL {
		c.history.Replace(urlstate.Encode(c.state, c.history.Location()))
	}
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.timerSeq++
}

func (c *Controller) setPhaseLocked(p Phase) {
	if c.phase != p {
		log.Debug("session phase", "session", c.id, "user", c.user, "from", c.phase, "to", p)
	}
	c.phase = p
}
