package analysis

import (
	"sort"
	"time"

	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/types"
)

// Preprocessor cleans raw events before they are scored
type Preprocessor struct {
	window time.Duration
}

// NewPreprocessor creates a preprocessor keeping events younger than window
func NewPreprocessor(window time.Duration) *Preprocessor {
	return &Preprocessor{window: window}
}

// ProcessEvents returns the events inside (asOf-window, asOf], newest first,
// with duplicates removed. The input is not modified.
func (p *Preprocessor) ProcessEvents(events []types.Event, asOf time.Time) []types.Event {
	cutoff := asOf.Add(-p.window)

	kept := make([]types.Event, 0, len(events))
	for _, e := range events {
		if e.CreatedAt.After(cutoff) && !e.CreatedAt.After(asOf) {
			kept = append(kept, e)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].CreatedAt.After(kept[j].CreatedAt)
	})

	return p.removeDuplicates(kept)
}

// removeDuplicates drops events repeated across page boundaries when the
// feed shifts between two page requests
func (p *Preprocessor) removeDuplicates(events []types.Event) []types.Event {
	type key struct {
		typ, repo string
		at        int64
	}

	seen := make(map[key]struct{}, len(events))
	cleaned := events[:0]
	for _, event := range events {
		k := key{event.Type, event.Repo, event.CreatedAt.UnixNano()}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		cleaned = append(cleaned, event)
	}

	return cleaned
}

// InWindow reports whether t falls inside the preprocessor's window
func (p *Preprocessor) InWindow(t, asOf time.Time) bool {
	return t.After(asOf.Add(-p.window)) && !t.After(asOf)
}
