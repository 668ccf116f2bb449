package tui

import (
	"sync"

	"github.com/spiffcs/repolist/internal/constants"
	"github.com/spiffcs/repolist/internal/model"
	"github.com/spiffcs/repolist/internal/session"
)

// screen is a snapshot of everything the controller has rendered.
type screen struct {
	state       model.ViewState
	controlsSeq uint64 // bumped when the controller rewrites the controls
	status      string
	rows        []string
}

// ScreenView is a session.View for the terminal. It stores what the
// controller renders and signals the Bubble Tea program to redraw.
type ScreenView struct {
	mu       sync.Mutex
	handlers session.Handlers
	current  screen
	updated  chan struct{}
}

// NewScreenView returns an empty view.
func NewScreenView() *ScreenView {
	return &ScreenView{
		updated: make(chan struct{}, constants.TUIRefreshBuffer),
	}
}

// Bind implements session.View.
func (v *ScreenView) Bind(h session.Handlers) {
	v.mu.Lock()
	v.handlers = h
	v.mu.Unlock()
}

// SetControls implements session.View.
func (v *ScreenView) SetControls(state model.ViewState) {
	v.mu.Lock()
	v.current.state = state
	v.current.controlsSeq++
	v.mu.Unlock()
	v.notify()
}

// SetStatus implements session.View.
func (v *ScreenView) SetStatus(status string) {
	v.mu.Lock()
	v.current.status = status
	v.mu.Unlock()
	v.notify()
}

// SetList implements session.View.
func (v *ScreenView) SetList(rows []string) {
	v.mu.Lock()
	v.current.rows = append([]string(nil), rows...)
	v.mu.Unlock()
	v.notify()
}

// Updated is signalled after each change. Signals coalesce.
func (v *ScreenView) Updated() <-chan struct{} {
	return v.updated
}

func (v *ScreenView) snapshot() screen {
	v.mu.Lock()
	defer v.mu.Unlock()
	s := v.current
	s.rows = append([]string(nil), v.current.rows...)
	return s
}

// notify performs a non-blocking send; a pending signal already covers
// this change.
func (v *ScreenView) notify() {
	select {
	case v.updated <- struct{}{}:
	default:
	}
}
