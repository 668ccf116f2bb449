package cmd

import (
	"fmt"
	"strings"

	"github.com/spiffcs/repolist/internal/tui"
)

// tuiFlag is the tri-state --tui flag: unset means auto-detect.
type tuiFlag struct {
	opts *Options
}

func newTUIFlag(opts *Options) *tuiFlag {
	return &tuiFlag{opts: opts}
}

func (f *tuiFlag) String() string {
	switch {
	case f.opts.TUI == nil:
		return "auto"
	case *f.opts.TUI:
		return "true"
	default:
		return "false"
	}
}

func (f *tuiFlag) Set(s string) error {
	var v bool
	switch strings.ToLower(s) {
	case "true", "1", "yes", "on":
		v = true
	case "false", "0", "no", "off":
		v = false
	case "auto":
		f.opts.TUI = nil
		return nil
	default:
		return fmt.Errorf("invalid value %q: use true, false, or auto", s)
	}
	f.opts.TUI = &v
	return nil
}

func (f *tuiFlag) Type() string {
	return "bool"
}

// IsBoolFlag lets a bare --tui mean --tui=true.
func (f *tuiFlag) IsBoolFlag() bool {
	return true
}

// shouldUseTUI decides whether bare `repolist` opens the browser or prints
// a listing.
func shouldUseTUI(opts *Options) bool {
	// Logs would be hidden behind the alt screen
	if opts.Verbosity > 0 {
		return false
	}
	if opts.TUI != nil {
		return *opts.TUI
	}
	return tui.ShouldUseTUI()
}
