package cmd

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/spiffcs/repolist/internal/log"
	"github.com/spiffcs/repolist/internal/server"
)

type serveOptions struct {
	*Options
	Addr string
}

// NewCmdServe creates the serve command.
func NewCmdServe(opts *Options) *cobra.Command {
	so := &serveOptions{Options: opts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve repository listings over HTTP",
		Long: `Serve the repository listing page and its JSON API.

  /                         listing of the default user
  /u/<user>                 listing of any user
  /api/users/<user>/repos   filtered and sorted list as JSON
  /healthz                  liveness and last seen rate limit

Page URLs carry the view state (q, sort, forks), so they can be shared.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, so)
		},
	}

	cmd.Flags().StringVarP(&opts.User, "user", "u", "", "Default GitHub user for /")
	cmd.Flags().StringVar(&so.Addr, "addr", "", "Listen address (default from config, :8080)")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", 0, "Repositories per API request (1-100)")
	addClientFlags(cmd, opts)

	return cmd
}

func runServe(cmd *cobra.Command, opts *serveOptions) error {
	// Request logs are always on.
	log.Initialize(max(opts.Verbosity, log.LevelInfo), cmd.ErrOrStderr())
	if !log.Enabled(log.LevelDebug) {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, opts.Options)
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := resolveUser(opts.Options, a.cfg, nil)
	if err != nil {
		return err
	}
	pageSize, err := a.pageSize(opts.Options)
	if err != nil {
		return err
	}

	addr := opts.Addr
	if addr == "" {
		addr = a.cfg.GetServerAddr()
	}

	srv := server.New(a.fetcher, user,
		server.WithPageSize(pageSize),
		server.WithCORSOrigins(a.cfg.GetCORSOrigins()),
		server.WithRateLimit(a.client.RateLimit()),
	)
	log.Info("serving repositories", "user", user, "url", a.cfg.GetPublicURL())
	if err := srv.Run(ctx, addr); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}
