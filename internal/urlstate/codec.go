// Package urlstate mirrors the list's view state into a URL query string
// and keeps an in-process navigation history of those URLs.
package urlstate

import (
	"net/url"
	"strings"

	"github.com/spiffcs/repolist/internal/model"
)

// Query parameter names.
const (
	ParamQuery = "q"
	ParamSort  = "sort"
	ParamForks = "forks"
)

// forksOn is the only value of the forks parameter that means true.
const forksOn = "1"

// Decode reads the view state from u. Missing parameters take their
// defaults; the sort value is accepted as-is, even when unrecognized.
func Decode(u *url.URL) model.ViewState {
	state := model.DefaultViewState()
	if u == nil {
		return state
	}

	params := u.Query()
	state.Query = params.Get(ParamQuery)
	if s := params.Get(ParamSort); s != "" {
		state.Sort = model.SortMode(s)
	}
	state.IncludeForks = params.Get(ParamForks) == forksOn
	return state
}

// Encode returns a copy of u with the three state parameters set or
// removed. Default values are never encoded and unrelated parameters are
// preserved. u is not modified.
func Encode(state model.ViewState, u *url.URL) *url.URL {
	out := &url.URL{Path: "/"}
	if u != nil {
		cp := *u
		out = &cp
	}
	if out.Path == "" && out.Opaque == "" {
		out.Path = "/"
	}

	var sort, forks string
	if state.Sort != "" && state.Sort != model.SortUpdated {
		sort = string(state.Sort)
	}
	if state.IncludeForks {
		forks = forksOn
	}
	out.RawQuery = setParams(out.RawQuery, []param{
		{ParamQuery, state.Query},
		{ParamSort, sort},
		{ParamForks, forks},
	})
	out.ForceQuery = false
	return out
}

type param struct {
	key, value string
}

// setParams rewrites the state parameters of a raw query in place. Other
// pairs keep their position and spelling; empty values are removed and
// parameters not present before are appended in order.
func setParams(rawQuery string, params []param) string {
	values := make(map[string]string, len(params))
	for _, p := range params {
		values[p.key] = p.value
	}
	written := make(map[string]bool, len(params))

	var pairs []string
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		rawKey, _, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			key = rawKey
		}
		value, ours := values[key]
		if !ours {
			pairs = append(pairs, pair)
			continue
		}
		if value != "" && !written[key] {
			pairs = append(pairs, key+"="+url.QueryEscape(value))
			written[key] = true
		}
	}
	for _, p := range params {
		if p.value != "" && !written[p.key] {
			pairs = append(pairs, p.key+"="+url.QueryEscape(p.value))
		}
	}
	return strings.Join(pairs, "&")
}

// Canonical re-encodes the state decoded from u. The boolean reports
// whether u already was in canonical form.
func Canonical(u *url.URL) (*url.URL, bool) {
	c := Encode(Decode(u), u)
	return c, u != nil && c.String() == u.String()
}
