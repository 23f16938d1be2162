package activity

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind distinguishes movies from show episodes.
type Kind string

const (
	KindMovie   Kind = "movie"
	KindEpisode Kind = "episode"
)

var (
	// ErrToggleNotAllowed is returned when a sync toggle is requested for an
	// activity that has no match or has already been synced.
	ErrToggleNotAllowed = errors.New("toggle not allowed")
	// ErrNotMatched is returned when an operation requires a match.
	ErrNotMatched = errors.New("activity has no match")
)

const netflixWatchBase = "https://www.netflix.com/watch/"

// Activity is a single observed playback record awaiting reconciliation.
type Activity struct {
	LocalID        string       `json:"local_id"`
	Kind           Kind         `json:"kind"`
	Title          string       `json:"title"`
	EpisodeTitle   string       `json:"episode_title,omitempty"`
	Season         int          `json:"season,omitempty"`
	Episode        int          `json:"episode,omitempty"`
	ObservedAt     time.Time    `json:"observed_at"`
	Match          *Match       `json:"match,omitempty"`
	AlreadySynced  bool         `json:"already_synced"`
	ToggledForSync bool         `json:"toggled_for_sync"`
	Suggestions    []Suggestion `json:"suggestions,omitempty"`
}

// Suggestion is a crowd-sourced candidate catalog path with its support count.
type Suggestion struct {
	URL          string `json:"url"`
	SupportCount int    `json:"count"`
}

// IsEpisode reports whether the activity describes a show episode.
func (a Activity) IsEpisode() bool {
	return a.Kind == KindEpisode || strings.TrimSpace(a.EpisodeTitle) != "" || a.Season > 0
}

// DisplayTitle renders "Show: Episode" for episodes and the title otherwise.
func (a Activity) DisplayTitle() string {
	if ep := strings.TrimSpace(a.EpisodeTitle); ep != "" {
		return fmt.Sprintf("%s: %s", a.Title, ep)
	}
	return a.Title
}

// WatchURL returns the Netflix page for the observed item.
func (a Activity) WatchURL() string {
	return netflixWatchBase + a.LocalID
}

// Matched reports whether a catalog match is attached.
func (a Activity) Matched() bool {
	return a.Match != nil
}

// CanToggle reports whether the sync toggle is currently meaningful.
func (a Activity) CanToggle() bool {
	return a.Match != nil && !a.AlreadySynced
}

// SetToggled records the user's sync intent. It refuses, leaving the record
// unchanged, when the activity is unmatched or already synced.
func (a *Activity) SetToggled(enabled bool) error {
	if !a.CanToggle() {
		return fmt.Errorf("%w: activity %s (matched=%t, synced=%t)", ErrToggleNotAllowed, a.LocalID, a.Match != nil, a.AlreadySynced)
	}
	a.ToggledForSync = enabled
	return nil
}

// ApplyMatch replaces any previous match. A new submission always supersedes
// the prior one.
func (a *Activity) ApplyMatch(m Match) {
	match := m
	a.Match = &match
}

// MarkSynced flags the mapping as persisted remotely. Once set it is never
// cleared within a session.
func (a *Activity) MarkSynced() error {
	if a.Match == nil {
		return fmt.Errorf("mark synced %s: %w", a.LocalID, ErrNotMatched)
	}
	a.AlreadySynced = true
	a.ToggledForSync = false
	return nil
}

// Clone returns a deep copy so callers can mutate without aliasing.
func (a Activity) Clone() Activity {
	out := a
	if a.Match != nil {
		m := *a.Match
		out.Match = &m
	}
	if a.Suggestions != nil {
		out.Suggestions = append([]Suggestion(nil), a.Suggestions...)
	}
	return out
}
