package trakt

import (
	"errors"
	"testing"

	"traktflix/internal/activity"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		raw  string
		want Target
	}{
		{"https://trakt.tv/movies/inception-2010", Target{Kind: activity.KindMovie, Slug: "inception-2010"}},
		{"https://www.trakt.tv/movies/inception-2010?utm=x#top", Target{Kind: activity.KindMovie, Slug: "inception-2010"}},
		{"movies/inception-2010", Target{Kind: activity.KindMovie, Slug: "inception-2010"}},
		{"/movies/inception-2010/", Target{Kind: activity.KindMovie, Slug: "inception-2010"}},
		{"https://trakt.tv/shows/dark/seasons/1/episodes/3", Target{Kind: activity.KindEpisode, Slug: "dark", Season: 1, Episode: 3}},
		{"shows/dark/seasons/0/episodes/1", Target{Kind: activity.KindEpisode, Slug: "dark", Season: 0, Episode: 1}},
		{"https://staging.example/movies/heat-1995", Target{Kind: activity.KindMovie, Slug: "heat-1995"}},
		{"trakt.tv/movies/inception-2010", Target{Kind: activity.KindMovie, Slug: "inception-2010"}},
		{"www.trakt.tv/shows/dark/seasons/1/episodes/3?ref=x", Target{Kind: activity.KindEpisode, Slug: "dark", Season: 1, Episode: 3}},
		{"Trakt.TV/movies/inception-2010", Target{Kind: activity.KindMovie, Slug: "inception-2010"}},
		{"staging.example/movies/heat-1995", Target{Kind: activity.KindMovie, Slug: "heat-1995"}},
	}
	for _, tt := range tests {
		got, err := ParseURL(tt.raw, "staging.example")
		if err != nil {
			t.Fatalf("ParseURL(%q): %v", tt.raw, err)
		}
		if got != tt.want {
			t.Fatalf("ParseURL(%q) = %+v, want %+v", tt.raw, got, tt.want)
		}
	}
}

func TestParseURLRejects(t *testing.T) {
	for _, raw := range []string{
		"",
		"https://example.com/movies/inception-2010",
		"example.com/movies/inception-2010",
		"trakt.tv/users/me/history",
		"trakt.tv",
		"https://trakt.tv/shows/dark",
		"https://trakt.tv/shows/dark/seasons/x/episodes/1",
		"https://trakt.tv/shows/dark/seasons/1/episodes/0",
		"https://trakt.tv/users/me/history",
		"not a url at all",
	} {
		if _, err := ParseURL(raw); !errors.Is(err, ErrUnrecognizedURL) {
			t.Fatalf("ParseURL(%q) expected ErrUnrecognizedURL, got %v", raw, err)
		}
	}
}

func TestTargetPath(t *testing.T) {
	if got := (Target{Kind: activity.KindMovie, Slug: "heat-1995"}).Path(); got != "movies/heat-1995" {
		t.Fatalf("unexpected movie path %q", got)
	}
	ep := Target{Kind: activity.KindEpisode, Slug: "dark", Season: 2, Episode: 4}
	if got := ep.Path(); got != "shows/dark/seasons/2/episodes/4" {
		t.Fatalf("unexpected episode path %q", got)
	}
}
