// Package ghclient talks to the GitHub REST API and implements the cached,
// paginated repository fetch.
package ghclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/spiffcs/repolist/internal/constants"
	"github.com/spiffcs/repolist/internal/log"
	"github.com/spiffcs/repolist/internal/model"
)

// Client wraps the GitHub API client
type Client struct {
	client *gh.Client
	rate   *RateLimitState
}

type clientOptions struct {
	// token is never logged or serialized.
	token      string
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures NewClient.
type ClientOption func(*clientOptions)

// WithToken authenticates requests. Unauthenticated clients are limited
// to 60 requests per hour.
func WithToken(token string) ClientOption {
	return func(o *clientOptions) {
		o.token = token
	}
}

// WithBaseURL points the client at another API root, e.g. a test server.
func WithBaseURL(base string) ClientOption {
	return func(o *clientOptions) {
		o.baseURL = base
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(o *clientOptions) {
		o.httpClient = c
	}
}

// NewClient creates a GitHub client.
func NewClient(ctx context.Context, opts ...ClientOption) (*Client, error) {
	o := &clientOptions{baseURL: constants.DefaultAPIBaseURL}
	for _, opt := range opts {
		opt(o)
	}

	hc := o.httpClient
	if o.token != "" {
		if hc != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, hc)
		}
		hc = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: o.token}))
	}
	if hc == nil {
		hc = &http.Client{}
	}

	base := hc.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	state := &RateLimitState{}
	wrapped := *hc
	wrapped.Transport = &rateLimitTransport{base: base, state: state}

	client := gh.NewClient(&wrapped)
	if o.baseURL != constants.DefaultAPIBaseURL {
		if !strings.HasSuffix(o.baseURL, "/") {
			o.baseURL += "/"
		}
		u, err := url.Parse(o.baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid API base URL %q: %w", o.baseURL, err)
		}
		client.BaseURL = u
	}

	return &Client{client: client, rate: state}, nil
}

// RateLimit returns the rate limit state observed by this client.
func (c *Client) RateLimit() *RateLimitState {
	return c.rate
}

// RateLimits fetches the current GitHub API rate limit status.
func (c *Client) RateLimits(ctx context.Context) (*gh.RateLimits, error) {
	limits, _, err := c.client.RateLimit.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get rate limits: %w", err)
	}
	return limits, nil
}

// Page is one page of a user's repository listing.
type Page struct {
	Repositories []model.Repository
	Validator    string // ETag of the response, may be empty
	NotModified  bool   // 304: the validator still matches
}

// ListPage fetches a single page of a user's public repositories, most
// recently updated first. validator, when set, is sent as If-None-Match.
// Non-success responses are returned as *APIError.
func (c *Client) ListPage(ctx context.Context, user string, perPage, page int, validator string) (*Page, error) {
	path := fmt.Sprintf("users/%s/repos?per_page=%d&page=%d&type=public&sort=updated",
		url.PathEscape(user), perPage, page)
	req, err := c.client.NewRequest(http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", constants.MediaTypeGitHubJSON)
	if validator != "" {
		req.Header.Set("If-None-Match", validator)
	}

	log.Debug("requesting repositories", "user", user, "page", page, "conditional", validator != "")

	var body json.RawMessage
	resp, err := c.client.Do(ctx, req, &body)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if resp != nil && resp.StatusCode == http.StatusNotModified {
		return &Page{NotModified: true, Validator: validator}, nil
	}
	if err != nil {
		return nil, toAPIError(resp, err)
	}

	p := &Page{Validator: resp.Header.Get("ETag")}
	if !isJSONArray(body) {
		// anything but an array ends the listing
		return p, nil
	}

	var batch []*gh.Repository
	if err := json.Unmarshal(body, &batch); err != nil {
		return nil, fmt.Errorf("failed to decode repositories: %w", err)
	}
	p.Repositories = make([]model.Repository, 0, len(batch))
	for _, r := range batch {
		if r == nil {
			continue
		}
		p.Repositories = append(p.Repositories, toRepository(r))
	}
	return p, nil
}

// toAPIError converts go-github's error types into *APIError. Transport
// failures are passed through.
func toAPIError(resp *gh.Response, err error) error {
	var rle *gh.RateLimitError
	if errors.As(err, &rle) {
		apiErr := &APIError{StatusCode: http.StatusForbidden, Header: http.Header{}, ResetAt: rle.Rate.Reset.Time}
		if rle.Response != nil {
			apiErr.StatusCode = rle.Response.StatusCode
			apiErr.Header = rle.Response.Header
			apiErr.Body = readBody(rle.Response)
		}
		return apiErr
	}

	var er *gh.ErrorResponse
	if errors.As(err, &er) && er.Response != nil {
		body := readBody(er.Response)
		if body == "" {
			body = er.Message
		}
		return &APIError{StatusCode: er.Response.StatusCode, Body: body, Header: er.Response.Header}
	}

	var ae *gh.AbuseRateLimitError
	if errors.As(err, &ae) && ae.Response != nil {
		return &APIError{StatusCode: ae.Response.StatusCode, Body: readBody(ae.Response), Header: ae.Response.Header}
	}

	if resp != nil && resp.Response != nil && resp.StatusCode >= http.StatusBadRequest {
		return &APIError{StatusCode: resp.StatusCode, Body: readBody(resp.Response), Header: resp.Header}
	}
	return err
}

// readBody returns the response body text. go-github leaves the consumed
// body readable on error responses; read failures yield "".
func readBody(resp *http.Response) string {
	if resp == nil || resp.Body == nil {
		return ""
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func isJSONArray(b []byte) bool {
	for _, c := range b {
		switch c {
		case ' ', '\t', '\r', '\n':
			continue
		case '[':
			return true
		default:
			return false
		}
	}
	return false
}

// toRepository converts an API repository into the model type.
func toRepository(r *gh.Repository) model.Repository {
	repo := model.Repository{
		ID:              r.GetID(),
		Name:            r.GetName(),
		FullName:        r.GetFullName(),
		Description:     r.GetDescription(),
		HTMLURL:         r.GetHTMLURL(),
		StargazersCount: r.GetStargazersCount(),
		ForksCount:      r.GetForksCount(),
		Language:        r.GetLanguage(),
		Archived:        r.GetArchived(),
		Fork:            r.GetFork(),
	}
	if ts := r.GetUpdatedAt(); !ts.IsZero() {
		repo.UpdatedAt = ts.UTC().Format("2006-01-02T15:04:05Z")
	}
	return repo
}
