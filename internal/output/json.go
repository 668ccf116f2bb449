package output

import (
	"encoding/json"

	"github.com/spiffcs/repolist/internal/model"
)

// jsonRow renders one repository as a single JSON line.
func jsonRow(r model.Repository) string {
	b, err := json.Marshal(r)
	if err != nil {
		// Repository holds only strings, numbers and bools.
		return "{}"
	}
	return string(b)
}
