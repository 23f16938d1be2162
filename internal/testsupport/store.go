package testsupport

import (
	"context"
	"testing"
	"time"

	"traktflix/internal/activity"
	"traktflix/internal/config"
	"traktflix/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// SaveMovie stores an unmatched movie activity and returns it.
func SaveMovie(t testing.TB, st *store.Store, localID, title string) activity.Activity {
	t.Helper()

	a := activity.Activity{
		LocalID:    localID,
		Kind:       activity.KindMovie,
		Title:      title,
		ObservedAt: time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC),
	}
	if err := st.SaveActivity(context.Background(), a); err != nil {
		t.Fatalf("store.SaveActivity: %v", err)
	}
	return a
}
