package cachekey_test

import (
	"testing"
	"time"

	"traktflix/internal/activity"
	"traktflix/internal/cachekey"
)

func sampleActivities() []activity.Activity {
	return []activity.Activity{
		{LocalID: "70131314", Kind: activity.KindMovie, Title: "Inception"},
		{LocalID: "80100172", Kind: activity.KindEpisode, Title: "Dark", EpisodeTitle: "Secrets", Season: 1, Episode: 1},
		{LocalID: "80100173", Kind: activity.KindEpisode, Title: "Dark", EpisodeTitle: "Lies", Season: 1, Episode: 2},
		{LocalID: "80117401", Kind: activity.KindEpisode, Title: "Dark", EpisodeTitle: "Lies"},
		{LocalID: "81040344", Kind: activity.KindMovie, Title: "Amélie"},
		{LocalID: "81040345", Kind: activity.KindMovie, Title: "Amelie 2"},
		{LocalID: "99999999", Kind: activity.KindMovie, Title: "!!!"},
		{LocalID: "99999998", Kind: activity.KindMovie, Title: ""},
	}
}

func TestDeriveIsDeterministic(t *testing.T) {
	for _, act := range sampleActivities() {
		first := cachekey.Derive(act)
		act.ObservedAt = time.Now()
		act.ToggledForSync = !act.ToggledForSync
		act.Match = &activity.Match{CatalogID: "changed"}
		if second := cachekey.Derive(act); second != first {
			t.Fatalf("key changed for %s: %q vs %q", act.LocalID, first, second)
		}
	}
}

func TestDeriveIsInjectiveOverSamples(t *testing.T) {
	seen := map[string]string{}
	for _, act := range sampleActivities() {
		key := cachekey.Derive(act)
		if key == "" {
			t.Fatalf("empty key for %s", act.LocalID)
		}
		if other, ok := seen[key]; ok {
			t.Fatalf("key %q shared by %s and %s", key, other, act.LocalID)
		}
		seen[key] = act.LocalID
	}
}

func TestDeriveFormats(t *testing.T) {
	tests := []struct {
		name string
		act  activity.Activity
		want string
	}{
		{name: "movie", act: activity.Activity{LocalID: "1", Title: "Inception"}, want: "movie:inception"},
		{name: "diacritics", act: activity.Activity{LocalID: "1", Title: "Amélie"}, want: "movie:amelie"},
		{name: "punctuation", act: activity.Activity{LocalID: "1", Title: "  Spider-Man: Into the Spider-Verse "}, want: "movie:spider-man-into-the-spider-verse"},
		{name: "episode numbers", act: activity.Activity{LocalID: "1", Kind: activity.KindEpisode, Title: "Dark", Season: 2, Episode: 3}, want: "episode:dark:s2e3"},
		{name: "episode title", act: activity.Activity{LocalID: "1", Title: "Dark", EpisodeTitle: "Lies"}, want: "episode:dark:lies"},
		{name: "fallback", act: activity.Activity{LocalID: " 42 ", Title: "???"}, want: "netflix-42"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := cachekey.Derive(tc.act); got != tc.want {
				t.Fatalf("Derive() = %q, want %q", got, tc.want)
			}
		})
	}
}
