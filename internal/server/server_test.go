package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"

	"github.com/spiffcs/repolist/internal/model"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type stubFetcher struct {
	mu     sync.Mutex
	users  []string
	result model.FetchResult
}

func (f *stubFetcher) Fetch(ctx context.Context, user string, pageSize int) model.FetchResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = append(f.users, user)
	return f.result
}

type stubRate struct{}

func (stubRate) Status() (int, int, time.Time, bool) {
	return 12, 60, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), true
}

var repos = []model.Repository{
	{Name: "api", HTMLURL: "https://github.com/octo/api", StargazersCount: 4, UpdatedAt: "2024-02-01T00:00:00Z", Language: "Go"},
	{Name: "fork", HTMLURL: "https://github.com/octo/fork", Fork: true, UpdatedAt: "2024-03-01T00:00:00Z"},
	{Name: "web", HTMLURL: "https://github.com/octo/web", StargazersCount: 9, UpdatedAt: "2024-01-01T00:00:00Z"},
}

func newTestServer(opts ...Option) (*Server, *stubFetcher) {
	f := &stubFetcher{result: model.FetchResult{Repositories: repos}}
	return New(f, "octo", opts...), f
}

func get(t *testing.T, h http.Handler, target string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestPageRendersList(t *testing.T) {
	s, _ := newTestServer()
	w := get(t, s.Handler(), "/?sort=stars")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `<p id="status" role="status">2 shown / 3 total</p>`) {
		t.Errorf("expected status line in page")
	}
	webAt := strings.Index(body, ">web</a>")
	apiAt := strings.Index(body, ">api</a>")
	if webAt < 0 || apiAt < 0 || webAt > apiAt {
		t.Errorf("expected web before api when sorted by stars")
	}
	if strings.Contains(body, ">fork</a>") {
		t.Errorf("expected fork to be hidden by default")
	}
	if !strings.Contains(body, `<option value="stars" selected>`) {
		t.Errorf("expected sort control to reflect the URL")
	}
}

func TestPageRedirectsToCanonicalURL(t *testing.T) {
	s, f := newTestServer()

	tests := []struct {
		target string
		want   string
	}{
		{"/?sort=updated", "/"},
		{"/?forks=0&q=", "/"},
		{"/?sort=name&q=go&forks=0", "/?sort=name&q=go"},
		{"/u/hubot?sort=updated", "/u/hubot"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			w := get(t, s.Handler(), tt.target)
			if w.Code != http.StatusFound {
				t.Fatalf("expected 302, got %d", w.Code)
			}
			if got := w.Header().Get("Location"); got != tt.want {
				t.Errorf("expected redirect to %q, got %q", tt.want, got)
			}
		})
	}

	if len(f.users) != 0 {
		t.Errorf("expected no fetch for redirected requests, got %d", len(f.users))
	}
}

func TestPageForOtherUser(t *testing.T) {
	s, f := newTestServer()
	w := get(t, s.Handler(), "/u/hubot")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if diff := cmp.Diff([]string{"hubot"}, f.users); diff != "" {
		t.Errorf("fetched users mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(w.Body.String(), "<h1>hubot</h1>") {
		t.Error("expected heading for the requested user")
	}
}

func TestReposAPI(t *testing.T) {
	s, _ := newTestServer()
	w := get(t, s.Handler(), "/api/repos?forks=1&sort=name")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp ReposResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Shown != 3 || resp.Total != 3 {
		t.Errorf("expected 3/3, got %d/%d", resp.Shown, resp.Total)
	}
	if diff := cmp.Diff(model.ViewState{Sort: model.SortName, IncludeForks: true}, resp.State); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}
	var got []string
	for _, r := range resp.Items {
		got = append(got, r.Name)
	}
	if diff := cmp.Diff([]string{"api", "fork", "web"}, got); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
	if resp.Status != "3 shown / 3 total" {
		t.Errorf("unexpected status %q", resp.Status)
	}
}

func TestReposAPIReportsFetchError(t *testing.T) {
	s, f := newTestServer()
	f.result = model.FetchResult{Repositories: []model.Repository{}, Error: "GitHub API 404"}

	w := get(t, s.Handler(), "/api/users/ghost/repos")

	var resp ReposResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Error != "GitHub API 404" || resp.User != "ghost" {
		t.Errorf("unexpected response %+v", resp)
	}
	if resp.Status != "0 shown / 0 total · GitHub API 404" {
		t.Errorf("unexpected status %q", resp.Status)
	}
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(WithRateLimit(stubRate{}))
	w := get(t, s.Handler(), "/healthz")

	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "ok" || resp.RateLimit == nil || resp.RateLimit.Remaining != 12 {
		t.Errorf("unexpected health response %+v", resp)
	}
}

func TestCORS(t *testing.T) {
	s, _ := newTestServer(WithCORSOrigins([]string{"https://app.example.org", "not-an-origin"}))

	w := get(t, s.Handler(), "/api/repos", "Origin", "https://app.example.org")
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.org" {
		t.Errorf("expected allowed origin header, got %q", got)
	}

	w = get(t, s.Handler(), "/api/repos", "Origin", "https://evil.example")
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no CORS header for unknown origin, got %q", got)
	}
}

func TestCORSConfig(t *testing.T) {
	if _, ok := corsConfig(nil); ok {
		t.Error("expected CORS to be disabled without origins")
	}
	if _, ok := corsConfig([]string{"ftp://x"}); ok {
		t.Error("expected invalid origins to be dropped")
	}
	cfg, ok := corsConfig([]string{"https://a.example/", "*"})
	if !ok || !cfg.AllowAllOrigins || cfg.AllowOrigins != nil {
		t.Errorf("expected wildcard to allow all origins, got %+v", cfg)
	}
}

func TestRunShutsDownOnCancel(t *testing.T) {
	s, _ := newTestServer()
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx, "127.0.0.1:0") }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
