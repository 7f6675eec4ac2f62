package types

import "time"

// Profile is the public GitHub profile of the analyzed user
type Profile struct {
	Login       string    `json:"login"`
	Name        string    `json:"name"`
	Bio         string    `json:"bio"`
	PublicRepos int       `json:"public_repos"`
	Followers   int       `json:"followers"`
	Following   int       `json:"following"`
	CreatedAt   time.Time `json:"created_at"`
	AvatarURL   string    `json:"avatar_url"`
}

// Repository holds the repository fields the scorer looks at
type Repository struct {
	Name            string    `json:"name"`
	FullName        string    `json:"full_name"`
	Description     string    `json:"description"`
	Language        string    `json:"language"`
	StargazersCount int       `json:"stargazers_count"`
	ForksCount      int       `json:"forks_count"`
	OpenIssuesCount int       `json:"open_issues_count"`
	HasWiki         bool      `json:"has_wiki"`
	Size            int       `json:"size"`
	Fork            bool      `json:"fork"`
	UpdatedAt       time.Time `json:"updated_at"`
	Topics          []string  `json:"topics"`

	// HasReadme is nil when README presence was not checked
	HasReadme *bool `json:"has_readme,omitempty"`
}

// Event is a public activity event of the user
type Event struct {
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	Repo      string    `json:"repo"`
}

// Snapshot is everything one scoring pass needs. AsOf pins "now" so
// scoring the same snapshot twice gives the same result.
type Snapshot struct {
	Profile         Profile      `json:"profile"`
	Repositories    []Repository `json:"repositories"`
	Events          []Event      `json:"events"`
	EventsAvailable bool         `json:"events_available"`
	AsOf            time.Time    `json:"as_of"`
}

// AnalyzeRequest represents the request structure for analyze endpoint
type AnalyzeRequest struct {
	Username string `json:"username" binding:"required"`
}
