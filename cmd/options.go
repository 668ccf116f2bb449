package cmd

// Options holds the shared command-line options for the repolist CLI.
type Options struct {
	User      string
	Query     string
	Sort      string
	Forks     bool
	URL       string // page URL to start from, e.g. "/u/octocat?sort=stars"
	Format    string
	PrintURL  bool
	PageSize  int
	NoCache   bool
	APIURL    string
	Verbosity int
	TUI       *bool // nil = auto-detect, true = force TUI, false = disable TUI
}

// Option is a functional option for configuring Options.
type Option func(*Options)

// NewOptions creates a new Options with defaults and applies any provided options.
func NewOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithUser sets the GitHub user whose repositories are listed.
func WithUser(user string) Option {
	return func(o *Options) {
		o.User = user
	}
}

// WithQuery sets the initial filter text.
func WithQuery(q string) Option {
	return func(o *Options) {
		o.Query = q
	}
}

// WithSort sets the initial sort mode (updated, stars, name).
func WithSort(sort string) Option {
	return func(o *Options) {
		o.Sort = sort
	}
}

// WithForks includes forked repositories.
func WithForks(include bool) Option {
	return func(o *Options) {
		o.Forks = include
	}
}

// WithFormat sets the output format (table, json, markdown, html).
func WithFormat(format string) Option {
	return func(o *Options) {
		o.Format = format
	}
}

// WithNoCache keeps fetched lists in memory only.
func WithNoCache(noCache bool) Option {
	return func(o *Options) {
		o.NoCache = noCache
	}
}

// WithAPIURL points the client at a different GitHub API endpoint.
func WithAPIURL(u string) Option {
	return func(o *Options) {
		o.APIURL = u
	}
}

// WithVerbosity sets the verbosity level.
func WithVerbosity(v int) Option {
	return func(o *Options) {
		o.Verbosity = v
	}
}

// WithTUI controls TUI mode (nil = auto-detect, true = force, false = disable).
func WithTUI(tui *bool) Option {
	return func(o *Options) {
		o.TUI = tui
	}
}
