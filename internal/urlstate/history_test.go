package urlstate

import (
	"net/url"
	"testing"
)

func TestHistoryReplaceDoesNotNotify(t *testing.T) {
	h := NewHistory(&url.URL{Path: "/"})
	calls := 0
	h.OnNavigate(func(*url.URL) { calls++ })

	h.Replace(&url.URL{Path: "/", RawQuery: "q=go"})

	if calls != 0 {
		t.Errorf("expected no navigation events, got %d", calls)
	}
	if h.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", h.Len())
	}
	if got := h.Location().RawQuery; got != "q=go" {
		t.Errorf("expected replaced location, got %q", got)
	}
}

func TestHistoryBackForward(t *testing.T) {
	h := NewHistory(&url.URL{Path: "/"})
	h.Push(&url.URL{Path: "/", RawQuery: "q=a"})
	h.Push(&url.URL{Path: "/", RawQuery: "q=b"})

	var seen []string
	h.OnNavigate(func(u *url.URL) { seen = append(seen, u.RawQuery) })

	if !h.Back() || !h.Back() {
		t.Fatal("expected two successful Back moves")
	}
	if h.Back() {
		t.Error("expected Back at oldest entry to fail")
	}
	if !h.Forward() {
		t.Fatal("expected Forward to succeed")
	}

	want := []string{"q=a", "", "q=a"}
	if len(seen) != len(want) {
		t.Fatalf("expected %d events, got %v", len(want), seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("event %d: expected %q, got %q", i, want[i], seen[i])
		}
	}
}

func TestHistoryPushDropsForwardEntries(t *testing.T) {
	h := NewHistory(&url.URL{Path: "/"})
	h.Push(&url.URL{Path: "/", RawQuery: "q=a"})
	h.Back()
	h.Push(&url.URL{Path: "/", RawQuery: "q=c"})

	if h.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", h.Len())
	}
	if h.CanGoForward() {
		t.Error("expected no forward entries after Push")
	}
	if !h.CanGoBack() {
		t.Error("expected a back entry after Push")
	}
}

func TestHistoryLocationIsACopy(t *testing.T) {
	h := NewHistory(&url.URL{Path: "/"})
	loc := h.Location()
	loc.RawQuery = "q=mutated"

	if h.Location().RawQuery != "" {
		t.Error("expected mutation of the returned URL not to affect history")
	}
}

func TestHistoryListenerMayReadLocation(t *testing.T) {
	h := NewHistory(&url.URL{Path: "/"})
	h.Push(&url.URL{Path: "/", RawQuery: "sort=name"})

	var got string
	h.OnNavigate(func(*url.URL) { got = h.Location().RawQuery })
	h.Back()

	if got != "" {
		t.Errorf("expected listener to observe the new location, got %q", got)
	}
}
