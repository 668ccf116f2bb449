package tui

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/spiffcs/repolist/internal/constants"
	"github.com/spiffcs/repolist/internal/model"
	"github.com/spiffcs/repolist/internal/session"
	"github.com/spiffcs/repolist/internal/urlstate"
)

// RateLimitSource reports the last observed API quota.
type RateLimitSource interface {
	Status() (remaining, limit int, resetAt time.Time, ok bool)
}

// BrowseModel is the Bubble Tea model for browsing a user's repositories.
// Input is forwarded to a session.Controller, which renders into a
// ScreenView; the model redraws whenever the view changes.
type BrowseModel struct {
	ctx         context.Context
	controller  *session.Controller
	view        *ScreenView
	user        string
	rate        RateLimitSource
	input       textinput.Model
	spinner     spinner.Model
	screen      screen
	controlsSeq uint64
	cursor      int
	width       int
	height      int
	statusMsg   string
	quitting    bool
}

// BrowseOption is a functional option for configuring a BrowseModel.
type BrowseOption func(*BrowseModel)

// WithRateLimit shows the remaining API quota in the footer.
func WithRateLimit(src RateLimitSource) BrowseOption {
	return func(m *BrowseModel) {
		m.rate = src
	}
}

// refreshMsg signals that the view has new content.
type refreshMsg struct{}

// loadedMsg signals that a fetch started by the model has returned.
type loadedMsg struct{}

// clearStatusMsg is a message to clear the status
type clearStatusMsg struct{}

// NewBrowseModel creates a model driving c, which must render into view.
func NewBrowseModel(ctx context.Context, c *session.Controller, view *ScreenView, user string, opts ...BrowseOption) BrowseModel {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "filter by name, description or language"
	ti.CharLimit = 200
	ti.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	m := BrowseModel{
		ctx:        ctx,
		controller: c,
		view:       view,
		user:       user,
		input:      ti,
		spinner:    s,
		width:      100,
		height:     24,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init implements tea.Model. It starts the initial load.
func (m BrowseModel) Init() tea.Cmd {
	c, ctx := m.controller, m.ctx
	return tea.Batch(
		m.spinner.Tick,
		textinput.Blink,
		waitForRefresh(m.view.Updated()),
		func() tea.Msg {
			c.Init(ctx)
			return loadedMsg{}
		},
	)
}

// Update implements tea.Model
func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case refreshMsg:
		m.refresh()
		return m, waitForRefresh(m.view.Updated())

	case loadedMsg:
		m.refresh()
		return m, nil

	case clearStatusMsg:
		m.statusMsg = ""
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// refresh copies the latest rendered screen into the model. The query
// input follows the controller only when it rewrote the controls, so
// keystrokes in flight are never overwritten.
func (m *BrowseModel) refresh() {
	m.screen = m.view.snapshot()
	if m.screen.controlsSeq != m.controlsSeq {
		m.controlsSeq = m.screen.controlsSeq
		if m.input.Value() != m.screen.state.Query {
			m.input.SetValue(m.screen.state.Query)
			m.input.CursorEnd()
		}
	}
	if m.cursor >= len(m.screen.rows) {
		m.cursor = max(len(m.screen.rows)-1, 0)
	}
}

// handleKey processes keyboard input
func (m BrowseModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := m.controller
	switch msg.String() {
	case "esc", "ctrl+c":
		m.quitting = true
		c.Close()
		return m, tea.Quit

	case "tab":
		c.SortChanged(nextSort(c.State().Sort, 1))
		return m, nil

	case "shift+tab":
		c.SortChanged(nextSort(c.State().Sort, -1))
		return m, nil

	case "ctrl+f":
		c.ForksToggled(!c.State().IncludeForks)
		return m, nil

	case "ctrl+r":
		ctx := m.ctx
		return m, func() tea.Msg {
			c.Reload(ctx)
			return loadedMsg{}
		}

	case "ctrl+s":
		h := c.History()
		h.Push(urlstate.Encode(c.State(), h.Location()))
		m.statusMsg = "Saved view to history"
		return m, clearStatusAfter(2 * time.Second)

	case "alt+left":
		if !c.History().Back() {
			m.statusMsg = "No earlier view"
			return m, clearStatusAfter(2 * time.Second)
		}
		return m, nil

	case "alt+right":
		if !c.History().Forward() {
			m.statusMsg = "No later view"
			return m, clearStatusAfter(2 * time.Second)
		}
		return m, nil

	case "down", "ctrl+n":
		if m.cursor < len(m.screen.rows)-1 {
			m.cursor++
		}
		return m, nil

	case "up", "ctrl+p":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "pgdown":
		m.cursor = min(m.cursor+m.listHeight(), max(len(m.screen.rows)-1, 0))
		return m, nil

	case "pgup":
		m.cursor = max(m.cursor-m.listHeight(), 0)
		return m, nil

	case "enter":
		return m.openSelected()
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		c.QueryChanged(after)
		m.cursor = 0
	}
	return m, cmd
}

// openSelected opens the repository under the cursor in the default browser.
func (m BrowseModel) openSelected() (tea.Model, tea.Cmd) {
	visible := m.controller.Visible()
	if m.cursor >= len(visible) {
		return m, nil
	}
	url := visible[m.cursor].HTMLURL
	if url == "" {
		m.statusMsg = "No URL available"
		return m, clearStatusAfter(2 * time.Second)
	}
	return m, openURL(url)
}

func (m BrowseModel) listHeight() int {
	return m.height - constants.HeaderLines - constants.FooterLines - 1
}

// View implements tea.Model
func (m BrowseModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", titleStyle.Render("Repositories of"), userStyle.Render(m.user))
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(renderControls(m.screen.state))
	b.WriteString("\n")

	rows := m.screen.rows
	if len(rows) == 0 {
		if m.controller.Phase() != session.PhaseLoading {
			b.WriteString(emptyStyle.Render("  No repositories match."))
		}
		b.WriteString("\n")
	}
	start, end := calculateScrollWindow(m.cursor, len(rows), m.listHeight())
	for i := start; i < end; i++ {
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("▸ "))
		} else {
			b.WriteString("  ")
		}
		b.WriteString(rows[i])
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(renderHelp())
	return b.String()
}

func (m BrowseModel) renderStatus() string {
	var parts []string
	status := m.screen.status
	switch {
	case m.controller.Phase() == session.PhaseLoading:
		parts = append(parts, m.spinner.View()+" "+statusStyle.Render(status))
	case m.controller.LastError() != "":
		parts = append(parts, errorStyle.Render(status))
	case status != "":
		parts = append(parts, statusStyle.Render(status))
	}
	if m.rate != nil {
		if remaining, limit, _, ok := m.rate.Status(); ok {
			parts = append(parts, dimStyle.Render(fmt.Sprintf("API %d/%d", remaining, limit)))
		}
	}
	if m.statusMsg != "" {
		parts = append(parts, statusStyle.Render(m.statusMsg))
	}
	return strings.Join(parts, dimStyle.Render(constants.StatusSeparator))
}

func renderControls(state model.ViewState) string {
	forks := "hidden"
	if state.IncludeForks {
		forks = "shown"
	}
	sortMode := string(state.Sort)
	if sortMode == "" {
		sortMode = string(model.SortUpdated)
	}
	return controlLabelStyle.Render("sort ") + controlValueStyle.Render(sortMode) +
		controlLabelStyle.Render("   forks ") + controlValueStyle.Render(forks)
}

func renderHelp() string {
	return helpStyle.Render("type: filter   tab: sort   ctrl+f: forks   ctrl+s: save view   alt+←/→: back/forward   enter: open   ctrl+r: reload   esc: quit")
}

// nextSort steps through the known sort modes. An unrecognized mode steps
// to the first known one.
func nextSort(current model.SortMode, step int) model.SortMode {
	modes := model.SortModes()
	for i, mode := range modes {
		if mode == current {
			return modes[(i+step+len(modes))%len(modes)]
		}
	}
	return modes[0]
}

// waitForRefresh creates a command that waits for the next view change.
func waitForRefresh(updated <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-updated
		return refreshMsg{}
	}
}

// clearStatusAfter returns a command that clears the status after a delay
func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}

// openURL opens a URL in the default browser
func openURL(url string) tea.Cmd {
	return func() tea.Msg {
		var cmd *exec.Cmd

		switch runtime.GOOS {
		case "darwin":
			cmd = exec.Command("open", url)
		case "linux":
			cmd = exec.Command("xdg-open", url)
		case "windows":
			cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
		default:
			return nil
		}

		_ = cmd.Start()
		return nil
	}
}
