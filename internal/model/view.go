package model

// SortMode selects the ordering of the rendered list. Unrecognized values
// are kept as-is and sort like SortUpdated.
type SortMode string

const (
	SortUpdated SortMode = "updated"
	SortStars   SortMode = "stars"
	SortName    SortMode = "name"
)

// SortModes lists the recognized sort modes in cycling order.
func SortModes() []SortMode {
	return []SortMode{SortUpdated, SortStars, SortName}
}

// ViewState is the filter/sort state mirrored into the controls and the URL.
type ViewState struct {
	Query        string   `json:"q"`
	Sort         SortMode `json:"sort"`
	IncludeForks bool     `json:"forks"`
}

// DefaultViewState returns the state encoded by a URL without parameters.
func DefaultViewState() ViewState {
	return ViewState{Sort: SortUpdated}
}

// IsDefault reports whether s equals DefaultViewState.
func (s ViewState) IsDefault() bool {
	return s == DefaultViewState()
}
