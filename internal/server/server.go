// Package server serves the repository list as a web page and JSON API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/spiffcs/repolist/internal/constants"
	"github.com/spiffcs/repolist/internal/log"
	"github.com/spiffcs/repolist/internal/model"
	"github.com/spiffcs/repolist/internal/render"
	"github.com/spiffcs/repolist/internal/session"
	"github.com/spiffcs/repolist/internal/urlstate"
)

// RateLimitSource reports the last observed API quota.
type RateLimitSource interface {
	Status() (remaining, limit int, resetAt time.Time, ok bool)
}

// Server is the web host. Every page view gets its own controller; the
// request context cancels its fetch when the client goes away.
type Server struct {
	fetcher     session.Fetcher
	user        string
	pageSize    int
	corsOrigins []string
	rate        RateLimitSource
	router      *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithPageSize sets the page size used for fetches.
func WithPageSize(n int) Option {
	return func(s *Server) {
		s.pageSize = n
	}
}

// WithCORSOrigins allows cross-origin reads of the JSON API.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

// WithRateLimit exposes quota information on /healthz.
func WithRateLimit(src RateLimitSource) Option {
	return func(s *Server) {
		s.rate = src
	}
}

// New creates a server listing user's repositories.
func New(fetcher session.Fetcher, user string, opts ...Option) *Server {
	s := &Server{
		fetcher:  fetcher,
		user:     user,
		pageSize: constants.DefaultPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())
	if cfg, ok := corsConfig(s.corsOrigins); ok {
		r.Use(cors.New(cfg))
	}

	r.GET("/", s.handlePage)
	r.GET("/u/:user", s.handlePage)
	r.GET("/api/repos", s.handleRepos)
	r.GET("/api/users/:user/repos", s.handleRepos)
	r.GET("/healthz", s.handleHealth)
	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", addr, "user", s.user)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func (s *Server) userFor(c *gin.Context) string {
	if u := c.Param("user"); u != "" {
		return u
	}
	return s.user
}

// load runs a request-scoped controller to completion.
func (s *Server) load(c *gin.Context, start *url.URL, opts ...session.Option) (*session.Controller, *bufferView) {
	view := &bufferView{}
	opts = append([]session.Option{session.WithPageSize(s.pageSize)}, opts...)
	ctrl := session.New(s.fetcher, view, urlstate.NewHistory(start), s.userFor(c), opts...)
	ctrl.Init(c.Request.Context())
	return ctrl, view
}

func (s *Server) handlePage(c *gin.Context) {
	requested := &url.URL{Path: c.Request.URL.Path, RawQuery: c.Request.URL.RawQuery}
	canonical, ok := urlstate.Canonical(requested)
	if !ok {
		c.Redirect(http.StatusFound, canonical.String())
		return
	}

	ctrl, view := s.load(c, canonical)
	defer ctrl.Close()

	state, status, rows := view.snapshot()
	page, err := render.Page(render.PageData{
		User:   s.userFor(c),
		State:  state,
		Status: status,
		Rows:   rows,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "render_failed", Message: err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

// ReposResponse is the body of GET /api/repos.
type ReposResponse struct {
	User   string             `json:"user"`
	State  model.ViewState    `json:"state"`
	Shown  int                `json:"shown"`
	Total  int                `json:"total"`
	Status string             `json:"status"`
	Error  string             `json:"error,omitempty"`
	Items  []model.Repository `json:"items"`
}

func (s *Server) handleRepos(c *gin.Context) {
	start := &url.URL{Path: "/", RawQuery: c.Request.URL.RawQuery}
	ctrl, view := s.load(c, start, session.WithRenderer(func(model.Repository) string { return "" }))
	defer ctrl.Close()

	items := ctrl.Visible()
	_, status, _ := view.snapshot()
	c.JSON(http.StatusOK, ReposResponse{
		User:   s.userFor(c),
		State:  ctrl.State(),
		Shown:  len(items),
		Total:  len(ctrl.Repositories()),
		Status: status,
		Error:  ctrl.LastError(),
		Items:  items,
	})
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status    string          `json:"status"`
	RateLimit *RateLimitState `json:"rateLimit,omitempty"`
}

// RateLimitState is the quota part of HealthResponse.
type RateLimitState struct {
	Remaining int       `json:"remaining"`
	Limit     int       `json:"limit"`
	ResetAt   time.Time `json:"resetAt"`
}

func (s *Server) handleHealth(c *gin.Context) {
	resp := HealthResponse{Status: "ok"}
	if s.rate != nil {
		if remaining, limit, resetAt, ok := s.rate.Status(); ok {
			resp.RateLimit = &RateLimitState{Remaining: remaining, Limit: limit, ResetAt: resetAt}
		}
	}
	c.JSON(http.StatusOK, resp)
}

// ErrorResponse is the body of failed requests.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"query", c.Request.URL.RawQuery,
			"status", c.Writer.Status(),
			"duration", time.Since(start).Round(time.Millisecond),
		)
	}
}

// corsConfig builds the CORS settings for origins. Entries that are not
// http(s) origins are dropped; "*" allows every origin.
func corsConfig(origins []string) (cors.Config, bool) {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodHead},
		AllowHeaders: []string{"Origin", "Accept"},
		MaxAge:       12 * time.Hour,
	}
	for _, o := range origins {
		o = strings.TrimSpace(o)
		switch {
		case o == "*":
			cfg.AllowAllOrigins = true
			cfg.AllowOrigins = nil
			return cfg, true
		case strings.HasPrefix(o, "http://"), strings.HasPrefix(o, "https://"):
			cfg.AllowOrigins = append(cfg.AllowOrigins, strings.TrimSuffix(o, "/"))
		default:
			log.Warn("ignoring invalid CORS origin", "origin", o)
		}
	}
	return cfg, len(cfg.AllowOrigins) > 0
}
