package output

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spiffcs/repolist/internal/model"
	"github.com/spiffcs/repolist/internal/session"
)

// ListView is a session.View that collects the rendered rows so a one-shot
// command can print them once the fetch has completed.
type ListView struct {
	mu       sync.Mutex
	handlers session.Handlers
	state    model.ViewState
	status   string
	rows     []string
}

// NewListView returns an empty ListView.
func NewListView() *ListView {
	return &ListView{}
}

// Bind implements session.View.
func (v *ListView) Bind(h session.Handlers) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.handlers = h
}

// SetControls implements session.View.
func (v *ListView) SetControls(state model.ViewState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = state
}

// SetStatus implements session.View.
func (v *ListView) SetStatus(status string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.status = status
}

// SetList implements session.View.
func (v *ListView) SetList(rows []string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rows = append(v.rows[:0], rows...)
}

// Status returns the last status line.
func (v *ListView) Status() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status
}

// State returns the state last shown in the controls.
func (v *ListView) State() model.ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Rows returns a copy of the rendered rows.
func (v *ListView) Rows() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.rows...)
}

// WriteTo prints the header for f followed by the rows.
func (v *ListView) WriteTo(w io.Writer, f Format) error {
	rows := v.Rows()
	if len(rows) == 0 && f == FormatTable {
		_, err := fmt.Fprintln(w, "No repositories found.")
		return err
	}

	var b strings.Builder
	if h := Header(f); h != "" {
		b.WriteString(h)
		b.WriteByte('\n')
	}
	for _, row := range rows {
		b.WriteString(strings.TrimRight(row, "\n"))
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}
