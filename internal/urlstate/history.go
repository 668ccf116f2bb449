package urlstate

import (
	"net/url"
	"sync"
)

// NavigateFunc is called after Back or Forward moved to another entry.
type NavigateFunc func(*url.URL)

// History is a browser-style session history of URLs. Replace rewrites
// the current entry silently, Push appends a new one, and Back/Forward
// move between entries and notify the registered listeners.
type History struct {
	mu        sync.Mutex
	entries   []*url.URL
	index     int
	listeners []NavigateFunc
}

// NewHistory returns a history whose only entry is start.
func NewHistory(start *url.URL) *History {
	if start == nil {
		start = &url.URL{Path: "/"}
	}
	return &History{entries: []*url.URL{clone(start)}}
}

// Location returns a copy of the current entry.
func (h *History) Location() *url.URL {
	h.mu.Lock()
	defer h.mu.Unlock()
	return clone(h.entries[h.index])
}

// Replace overwrites the current entry without notifying listeners.
func (h *History) Replace(u *url.URL) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries[h.index] = clone(u)
}

// Push adds u after the current entry, dropping any forward entries.
func (h *History) Push(u *url.URL) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries[:h.index+1], clone(u))
	h.index++
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// CanGoBack reports whether Back would move.
func (h *History) CanGoBack() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index > 0
}

// CanGoForward reports whether Forward would move.
func (h *History) CanGoForward() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index < len(h.entries)-1
}

// OnNavigate registers fn to be called after every Back/Forward move.
func (h *History) OnNavigate(fn NavigateFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, fn)
}

// Back moves to the previous entry. It returns false at the oldest entry.
func (h *History) Back() bool {
	return h.move(-1)
}

// Forward moves to the next entry. It returns false at the newest entry.
func (h *History) Forward() bool {
	return h.move(1)
}

func (h *History) move(delta int) bool {
	h.mu.Lock()
	next := h.index + delta
	if next < 0 || next >= len(h.entries) {
		h.mu.Unlock()
		return false
	}
	h.index = next
	loc := clone(h.entries[next])
	listeners := append([]NavigateFunc(nil), h.listeners...)
	h.mu.Unlock()

	// listeners may call back into the history
	for _, fn := range listeners {
		fn(clone(loc))
	}
	return true
}

func clone(u *url.URL) *url.URL {
	if u == nil {
		return &url.URL{Path: "/"}
	}
	cp := *u
	if u.User != nil {
		user := *u.User
		cp.User = &user
	}
	return &cp
}
