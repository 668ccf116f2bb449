package server

import (
	"sync"

	"github.com/spiffcs/repolist/internal/model"
	"github.com/spiffcs/repolist/internal/session"
)

// bufferView captures the final render of a request-scoped controller.
type bufferView struct {
	mu       sync.Mutex
	controls model.ViewState
	status   string
	rows     []string
}

var _ session.View = (*bufferView)(nil)

func (v *bufferView) Bind(session.Handlers) {}

func (v *bufferView) SetControls(s model.ViewState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.controls = s
}

func (v *bufferView) SetStatus(s string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.status = s
}

func (v *bufferView) SetList(rows []string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rows = rows
}

func (v *bufferView) snapshot() (model.ViewState, string, []string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.controls, v.status, v.rows
}
