package analysis

import (
	"fmt"
	"time"

	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/types"
)

var testAsOf = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

func daysAgo(d float64) time.Time {
	return testAsOf.Add(-time.Duration(d * float64(24*time.Hour)))
}

// activeSnapshot: 50 repos over 3 languages and 10 topics, 80% described,
// 200 stars, 30 forks, 20 open issues, 30 events on 30 distinct days
func activeSnapshot() types.Snapshot {
	languages := []string{"Go", "Python", "TypeScript"}

	repos := make([]types.Repository, 50)
	for i := range repos {
		desc := ""
		if i < 40 {
			desc = "a useful project"
		}
		forks := 0
		if i < 30 {
			forks = 1
		}
		issues := 0
		if i < 20 {
			issues = 1
		}
		repos[i] = types.Repository{
			Name:            fmt.Sprintf("repo-%d", i),
			FullName:        fmt.Sprintf("active/repo-%d", i),
			Description:     desc,
			Language:        languages[i%len(languages)],
			StargazersCount: 4,
			ForksCount:      forks,
			OpenIssuesCount: issues,
			HasWiki:         true,
			Size:            500,
			UpdatedAt:       daysAgo(5),
			Topics:          []string{fmt.Sprintf("topic-%d", i%10)},
		}
	}

	events := make([]types.Event, 30)
	for i := range events {
		events[i] = types.Event{Type: "PushEvent", CreatedAt: daysAgo(float64(i + 1)), Repo: "active/repo-0"}
	}

	return types.Snapshot{
		Profile:         types.Profile{Login: "known-active-user", Followers: 40, Following: 20, AvatarURL: "https://avatars/1"},
		Repositories:    repos,
		Events:          events,
		EventsAvailable: true,
		AsOf:            testAsOf,
	}
}

// inactiveSnapshot: one empty repository, no followers, no events
func inactiveSnapshot() types.Snapshot {
	return types.Snapshot{
		Profile: types.Profile{Login: "inactive-new-user"},
		Repositories: []types.Repository{{
			Name:      "first-repo",
			HasWiki:   true,
			UpdatedAt: daysAgo(3),
		}},
		Events:          []types.Event{},
		EventsAvailable: true,
		AsOf:            testAsOf,
	}
}

func boolPtr(b bool) *bool { return &b }
