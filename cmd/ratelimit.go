package cmd

import (
	"fmt"
	"io"
	"time"

	gh "github.com/google/go-github/v57/github"
	"github.com/spf13/cobra"

	"github.com/spiffcs/repolist/config"
	"github.com/spiffcs/repolist/internal/ghclient"
)

// NewCmdRateLimit creates the ratelimit command.
func NewCmdRateLimit(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratelimit",
		Short: "Check GitHub API rate limit status",
		Long:  `Display current GitHub API rate limit status including remaining quota and reset time.`,
	}
	cmd.AddCommand(NewCmdRateLimitStatus(opts))
	return cmd
}

// NewCmdRateLimitStatus creates the ratelimit status subcommand.
func NewCmdRateLimitStatus(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show current rate limit status",
		Long: `Display the current GitHub API rate limit status. Without GITHUB_TOKEN
the anonymous per-IP quota is shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRateLimitStatus(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.APIURL, "api-url", "", "GitHub API base URL")
	_ = cmd.Flags().MarkHidden("api-url")
	return cmd
}

func runRateLimitStatus(cmd *cobra.Command, opts *Options) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	clientOpts := []ghclient.ClientOption{ghclient.WithToken(cfg.GetGitHubToken())}
	if opts.APIURL != "" {
		clientOpts = append(clientOpts, ghclient.WithBaseURL(opts.APIURL))
	}
	client, err := ghclient.NewClient(cmd.Context(), clientOpts...)
	if err != nil {
		return fmt.Errorf("failed to create GitHub client: %w", err)
	}

	limits, err := client.RateLimits(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	auth := "anonymous"
	if cfg.GetGitHubToken() != "" {
		auth = "token"
	}
	fmt.Fprintf(out, "GitHub API Rate Limits (%s):\n\n", auth)
	printRate(out, "Core API:  ", limits.Core)
	printRate(out, "Search API:", limits.Search)
	printRate(out, "GraphQL:   ", limits.GraphQL)
	return nil
}

func printRate(out io.Writer, label string, r *gh.Rate) {
	if r == nil {
		return
	}
	resetIn := time.Until(r.Reset.Time).Round(time.Second)
	if resetIn < 0 {
		resetIn = 0
	}
	fmt.Fprintf(out, "%s %d/%d remaining (resets in %s)\n", label, r.Remaining, r.Limit, resetIn)
}
