package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/spiffcs/repolist/internal/log"
	"github.com/spiffcs/repolist/internal/session"
	"github.com/spiffcs/repolist/internal/tui"
	"github.com/spiffcs/repolist/internal/urlstate"
)

// NewCmdBrowse creates the browse command.
func NewCmdBrowse(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse a user's public repositories interactively",
		Long: `Open an interactive list of a GitHub user's public repositories.

Type to filter, use tab to change the sort order and ctrl+f to include
forks. alt+left and alt+right move back and forward through earlier views.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrowse(cmd, opts)
		},
	}

	addViewFlags(cmd, opts)

	return cmd
}

func runBrowse(cmd *cobra.Command, opts *Options) error {
	// The alt screen owns the terminal; progress and logs would corrupt it.
	log.Initialize(0, io.Discard)

	ctx := cmd.Context()
	a, err := newApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	start, err := startURL(cmd, opts)
	if err != nil {
		return err
	}
	user, err := resolveUser(opts, a.cfg, start)
	if err != nil {
		return err
	}
	pageSize, err := a.pageSize(opts)
	if err != nil {
		return err
	}

	view := tui.NewScreenView()
	c := session.New(a.fetcher, view, urlstate.NewHistory(start), user,
		session.WithPageSize(pageSize),
		session.WithRenderer(tui.RenderRow),
		session.WithDebounce(a.cfg.GetDebounce()),
	)

	return tui.Run(ctx, c, view, user, tui.WithRateLimit(a.client.RateLimit()))
}
