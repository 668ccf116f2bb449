// Package model defines the data types shared across repolist.
package model

// Repository is an immutable snapshot of a public repository as returned by
// the GitHub REST API. JSON tags follow the API field names so cached
// entries keep the upstream shape.
type Repository struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	FullName        string `json:"full_name,omitempty"`
	Description     string `json:"description,omitempty"`
	HTMLURL         string `json:"html_url"`
	StargazersCount int    `json:"stargazers_count"`
	ForksCount      int    `json:"forks_count"`
	Language        string `json:"language,omitempty"`
	UpdatedAt       string `json:"updated_at,omitempty"` // raw ISO-8601, compared as a string
	Archived        bool   `json:"archived"`
	Fork            bool   `json:"fork"`
}

// FetchResult is produced once per fetch. An empty Error means success;
// a cancelled fetch yields no repositories and no error.
type FetchResult struct {
	Repositories []Repository `json:"repositories"`
	Error        string       `json:"error,omitempty"`
}
