package activity

import (
	"fmt"
	"strings"
	"time"
)

const traktWebBase = "https://trakt.tv"

// Match is a resolved reference from an activity to a Trakt catalog entry.
type Match struct {
	CatalogID  string    `json:"catalog_id"`
	TraktID    int64     `json:"trakt_id,omitempty"`
	Kind       Kind      `json:"kind"`
	Title      string    `json:"title"`
	URL        string    `json:"url"`
	ShowTitle  string    `json:"show_title,omitempty"`
	ShowSlug   string    `json:"show_slug,omitempty"`
	Season     int       `json:"season,omitempty"`
	Number     int       `json:"number,omitempty"`
	Year       int       `json:"year,omitempty"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// DisplayTitle renders "Show: Episode" for episodes and the title otherwise.
func (m Match) DisplayTitle() string {
	if m.Kind == KindEpisode && strings.TrimSpace(m.ShowTitle) != "" {
		return fmt.Sprintf("%s: %s", m.ShowTitle, m.Title)
	}
	return m.Title
}

// CanonicalURL builds the trakt.tv page for the match from its hierarchical
// identifiers, falling back to the submitted URL.
func (m Match) CanonicalURL() string {
	switch {
	case m.Kind == KindEpisode && m.ShowSlug != "" && m.Season >= 0 && m.Number > 0:
		return fmt.Sprintf("%s/shows/%s/seasons/%d/episodes/%d", traktWebBase, m.ShowSlug, m.Season, m.Number)
	case m.Kind == KindMovie && m.CatalogID != "":
		return fmt.Sprintf("%s/movies/%s", traktWebBase, m.CatalogID)
	default:
		return m.URL
	}
}

// SameTarget reports whether two matches reference the same catalog entry,
// ignoring resolution time.
func (m Match) SameTarget(other Match) bool {
	a, b := m, other
	a.ResolvedAt, b.ResolvedAt = time.Time{}, time.Time{}
	return a == b
}
