package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/spiffcs/repolist/config"
	"github.com/spiffcs/repolist/internal/duration"
	"github.com/spiffcs/repolist/internal/format"
	"github.com/spiffcs/repolist/internal/log"
)

// NewCmdCache creates the cache command with subcommands.
func NewCmdCache(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the repository list cache",
	}

	cmd.AddCommand(newCmdCacheClear())
	cmd.AddCommand(newCmdCacheStats())
	cmd.AddCommand(newCmdCachePrune())
	cmd.AddCommand(newCmdCacheWarm(opts))

	return cmd
}

// newCmdCacheClear creates the cache clear subcommand.
func newCmdCacheClear() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached repository list",
		Args:  cobra.NoArgs,
		RunE:  runCacheClear,
	}
}

// newCmdCacheStats creates the cache stats subcommand.
func newCmdCacheStats() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		Args:  cobra.NoArgs,
		RunE:  runCacheStats,
	}
}

// newCmdCachePrune creates the cache prune subcommand.
func newCmdCachePrune() *cobra.Command {
	var olderThan string

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove old and unreadable cache entries",
		Long: `Remove entries captured longer ago than --older-than, along with
entries written by other versions of repolist and entries that cannot be read.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCachePrune(cmd, olderThan)
		},
	}

	cmd.Flags().StringVar(&olderThan, "older-than", "7d", "Age of entries to remove (e.g. 30m, 12h, 7d, 2w)")

	return cmd
}

// newCmdCacheWarm creates the cache warm subcommand.
func newCmdCacheWarm(opts *Options) *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "warm <user>...",
		Short: "Fetch and cache the repository lists of users",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheWarm(cmd, opts, args, concurrency)
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Number of users fetched at once")
	addClientFlags(cmd, opts)

	return cmd
}

func runCacheClear(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	store, err := openStore(cfg, &Options{})
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
	return nil
}

func runCacheStats(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	store, err := openStore(cfg, &Options{})
	if err != nil {
		return err
	}
	defer store.Close()

	ttl := cfg.GetCacheTTL()
	stats, err := store.Stats(ttl)
	if err != nil {
		return fmt.Errorf("failed to get cache stats: %w", err)
	}

	out := cmd.OutOrStdout()
	now := time.Now()
	fmt.Fprintf(out, "Cache statistics:\n")
	fmt.Fprintf(out, "  Backend:  %s\n", stats.Backend)
	fmt.Fprintf(out, "  Location: %s\n", stats.Location)
	fmt.Fprintf(out, "  Repository lists (TTL: %s):\n", ttl)
	fmt.Fprintf(out, "    Total:   %d\n", stats.Total)
	fmt.Fprintf(out, "    Fresh:   %d\n", stats.Fresh)
	fmt.Fprintf(out, "    Expired: %d\n", stats.Total-stats.Fresh)
	if len(stats.Users) > 0 {
		users := append([]string(nil), stats.Users...)
		sort.Strings(users)
		fmt.Fprintf(out, "  Users: %s\n", strings.Join(users, ", "))
		fmt.Fprintf(out, "  Oldest entry: %s ago\n", format.Age(now.Sub(stats.Oldest)))
		fmt.Fprintf(out, "  Newest entry: %s ago\n", format.Age(now.Sub(stats.Newest)))
	}
	return nil
}

func runCachePrune(cmd *cobra.Command, olderThan string) error {
	before, err := duration.Ago(olderThan, time.Now())
	if err != nil {
		return fmt.Errorf("invalid --older-than: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	store, err := openStore(cfg, &Options{})
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.Prune(before)
	if err != nil {
		return fmt.Errorf("failed to prune cache: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cache entries.\n", n)
	return nil
}

type warmResult struct {
	count int
	err   string
}

func runCacheWarm(cmd *cobra.Command, opts *Options, users []string, concurrency int) error {
	log.Initialize(opts.Verbosity, cmd.ErrOrStderr())
	if concurrency < 1 {
		return fmt.Errorf("--concurrency must be at least 1")
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	pageSize, err := a.pageSize(opts)
	if err != nil {
		return err
	}

	results := make([]warmResult, len(users))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, user := range users {
		i, user := i, user
		g.Go(func() error {
			results[i] = warmUser(gctx, a, user, pageSize)
			return nil
		})
	}
	_ = g.Wait()
	log.ProgressDone()

	failed := 0
	out := cmd.OutOrStdout()
	for i, user := range users {
		r := results[i]
		if r.err != "" {
			failed++
			fmt.Fprintf(out, "%s: %s\n", user, r.err)
			continue
		}
		fmt.Fprintf(out, "%s: %d repositories\n", user, r.count)
	}
	if failed > 0 {
		return fmt.Errorf("failed to warm %d of %d users", failed, len(users))
	}
	return nil
}

func warmUser(ctx context.Context, a *app, user string, pageSize int) warmResult {
	res := a.fetcher.Fetch(ctx, user, pageSize)
	if res.Error != "" {
		return warmResult{err: res.Error}
	}
	return warmResult{count: len(res.Repositories)}
}
