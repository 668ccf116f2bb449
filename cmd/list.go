package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/spiffcs/repolist/internal/log"
	"github.com/spiffcs/repolist/internal/output"
	"github.com/spiffcs/repolist/internal/session"
	"github.com/spiffcs/repolist/internal/urlstate"
)

// NewCmdList creates the list command.
func NewCmdList(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print a user's public repositories",
		Long: `Print the public repositories of a GitHub user, newest activity first.

The list can be filtered with --query, sorted with --sort and can include
forks with --forks. --url starts from a page URL as served by
'repolist serve', so a shared link reproduces the same listing.`,
		Example: `  repolist list -u octocat
  repolist list -u octocat -q go --sort stars -o markdown
  repolist list --url '/u/octocat?forks=1'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, opts)
		},
	}

	addListFlags(cmd, opts)

	return cmd
}

// addListFlags adds list-specific flags to a command.
func addListFlags(cmd *cobra.Command, opts *Options) {
	addViewFlags(cmd, opts)
	flags := cmd.Flags()
	flags.StringVarP(&opts.Format, "output", "o", "", "Output format (table, json, markdown, html)")
	flags.BoolVar(&opts.PrintURL, "print-url", false, "Print a shareable link to the listing")
	flags.Var(newTUIFlag(opts), "tui", "Browse interactively (true, false, auto)")
	flags.Lookup("tui").NoOptDefVal = "true"
}

func runList(cmd *cobra.Command, opts *Options) error {
	log.Initialize(opts.Verbosity, cmd.ErrOrStderr())

	ctx := cmd.Context()
	a, err := newApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	name := opts.Format
	if name == "" {
		name = a.cfg.GetDefaultFormat()
	}
	f, err := output.ParseFormat(name)
	if err != nil {
		return err
	}

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

	tty := isTerminal(cmd)
	renderOpts := output.Options{
		Color:      tty && !color.NoColor,
		Hyperlinks: tty,
	}

	view := output.NewListView()
	c := session.New(a.fetcher, view, urlstate.NewHistory(start), user,
		session.WithPageSize(pageSize),
		session.WithRenderer(output.RowRenderer(f, renderOpts)),
	)
	defer c.Close()

	c.Init(ctx)
	log.ProgressDone()

	if lastErr := c.LastError(); lastErr != "" && len(c.Repositories()) == 0 {
		return fmt.Errorf("failed to list repositories of %s: %s", user, lastErr)
	}

	if err := view.WriteTo(cmd.OutOrStdout(), f); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), view.Status())

	if opts.PrintURL {
		link, err := shareURL(a.cfg.GetPublicURL(), user, c.History().Location())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), link)
	}
	return nil
}

// isTerminal reports whether the command writes to a terminal.
func isTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.OutOrStdout().(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
