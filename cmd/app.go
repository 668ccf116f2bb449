package cmd

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spiffcs/repolist/config"
	"github.com/spiffcs/repolist/internal/cache"
	"github.com/spiffcs/repolist/internal/constants"
	"github.com/spiffcs/repolist/internal/ghclient"
	"github.com/spiffcs/repolist/internal/log"
	"github.com/spiffcs/repolist/internal/model"
	"github.com/spiffcs/repolist/internal/urlstate"
)

// userPathPrefix is the page path of a user's listing, as served by `serve`.
const userPathPrefix = "/u/"

// app bundles what the listing commands share.
type app struct {
	cfg     *config.Config
	store   cache.Store
	client  *ghclient.Client
	fetcher *ghclient.Fetcher
}

// newApp loads the configuration, opens the cache and builds the GitHub
// client and fetcher.
func newApp(ctx context.Context, opts *Options) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	store, err := openStore(cfg, opts)
	if err != nil {
		return nil, err
	}

	clientOpts := []ghclient.ClientOption{ghclient.WithToken(cfg.GetGitHubToken())}
	if opts.APIURL != "" {
		clientOpts = append(clientOpts, ghclient.WithBaseURL(opts.APIURL))
	}
	client, err := ghclient.NewClient(ctx, clientOpts...)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}

	fetcher := ghclient.NewFetcher(client, store,
		ghclient.WithTTL(cfg.GetCacheTTL()),
		ghclient.WithProgress(func(user string, page int) {
			log.Progress("Fetching repositories of %s: page %d...", user, page)
		}),
	)

	return &app{cfg: cfg, store: store, client: client, fetcher: fetcher}, nil
}

func openStore(cfg *config.Config, opts *Options) (cache.Store, error) {
	backend := cfg.GetCacheBackend()
	if opts.NoCache {
		backend = cache.BackendMemory
	}
	store, err := cache.Open(backend, cfg.GetCachePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	return store, nil
}

func (a *app) Close() {
	log.ProgressDone()
	if err := a.store.Close(); err != nil {
		log.Debug("failed to close cache", "error", err)
	}
}

func (a *app) pageSize(opts *Options) (int, error) {
	if opts.PageSize == 0 {
		return a.cfg.GetPageSize(), nil
	}
	if opts.PageSize < 1 || opts.PageSize > constants.DefaultPageSize {
		return 0, fmt.Errorf("--page-size must be between 1 and %d", constants.DefaultPageSize)
	}
	return opts.PageSize, nil
}

// startURL builds the initial page URL: --url if given, with any view
// flags that were set explicitly applied on top.
func startURL(cmd *cobra.Command, opts *Options) (*url.URL, error) {
	u := &url.URL{Path: "/"}
	if opts.URL != "" {
		parsed, err := url.Parse(opts.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid --url: %w", err)
		}
		u = &url.URL{Path: parsed.Path, RawQuery: parsed.RawQuery}
	}

	state := urlstate.Decode(u)
	flags := cmd.Flags()
	if flags.Changed("query") {
		state.Query = opts.Query
	}
	if flags.Changed("sort") {
		state.Sort = model.SortMode(opts.Sort)
	}
	if flags.Changed("forks") {
		state.IncludeForks = opts.Forks
	}
	return urlstate.Encode(state, u), nil
}

// resolveUser picks the user from --user, a /u/<user> page URL or the
// config, in that order.
func resolveUser(opts *Options, cfg *config.Config, start *url.URL) (string, error) {
	if opts.User != "" {
		return opts.User, nil
	}
	if start != nil && strings.HasPrefix(start.Path, userPathPrefix) {
		if u := strings.Trim(strings.TrimPrefix(start.Path, userPathPrefix), "/"); u != "" {
			return u, nil
		}
	}
	if cfg.User != "" {
		return cfg.User, nil
	}
	return "", fmt.Errorf("no GitHub user given: pass --user or set %s", config.EnvUser)
}

// shareURL returns the address of the listing on the web server.
func shareURL(publicURL, user string, loc *url.URL) (string, error) {
	base, err := url.Parse(publicURL)
	if err != nil {
		return "", fmt.Errorf("invalid public URL %q: %w", publicURL, err)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	ref := &url.URL{Path: strings.TrimPrefix(userPathPrefix, "/") + user}
	if loc != nil {
		ref.RawQuery = loc.RawQuery
	}
	return base.ResolveReference(ref).String(), nil
}

// addViewFlags adds the flags that select the user and initial view state.
func addViewFlags(cmd *cobra.Command, opts *Options) {
	flags := cmd.Flags()
	flags.StringVarP(&opts.User, "user", "u", "", "GitHub user whose public repositories are listed")
	flags.StringVarP(&opts.Query, "query", "q", "", "Filter by name, description or language")
	flags.StringVar(&opts.Sort, "sort", "", "Sort by updated, stars or name (default updated)")
	flags.BoolVar(&opts.Forks, "forks", false, "Include forked repositories")
	flags.StringVar(&opts.URL, "url", "", "Start from a page URL, e.g. /u/octocat?sort=stars")
	flags.IntVar(&opts.PageSize, "page-size", 0, "Repositories per API request (1-100)")
	addClientFlags(cmd, opts)
}

// addClientFlags adds the flags shared by every command that talks to GitHub.
func addClientFlags(cmd *cobra.Command, opts *Options) {
	flags := cmd.Flags()
	flags.BoolVar(&opts.NoCache, "no-cache", false, "Keep fetched lists in memory only")
	flags.StringVar(&opts.APIURL, "api-url", "", "GitHub API base URL")
	_ = flags.MarkHidden("api-url")
	flags.CountVarP(&opts.Verbosity, "verbose", "v", "Increase verbosity (-v info, -vv debug, -vvv trace)")
}
