package matchcache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"traktflix/internal/activity"
)

var inception = activity.Match{
	CatalogID: "inception-2010",
	Kind:      activity.KindMovie,
	Title:     "Inception",
	URL:       "https://trakt.tv/movies/inception-2010",
}

func TestCacheStoreAndLookup(t *testing.T) {
	cache := NewCache(filepath.Join(t.TempDir(), "match_cache.json"), nil)
	if err := cache.Store("movie:inception", inception); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	found, ok := cache.Lookup("movie:inception")
	if !ok {
		t.Fatal("Lookup failed to find stored entry")
	}
	if found.Match.CatalogID != "inception-2010" {
		t.Errorf("CatalogID mismatch: got %q", found.Match.CatalogID)
	}
	if found.CachedAt.IsZero() {
		t.Error("expected CachedAt to be stamped")
	}
}

func TestCachePersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "match_cache.json")
	first := NewCache(path, nil)
	if err := first.Store("movie:inception", inception); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	second := NewCache(path, nil)
	if second.Count() != 1 {
		t.Fatalf("expected 1 entry after reload, got %d", second.Count())
	}
}

func TestCacheStoreOverwrites(t *testing.T) {
	cache := NewCache(filepath.Join(t.TempDir(), "match_cache.json"), nil)
	cache.Store("movie:heat", inception)
	other := inception
	other.CatalogID = "heat-1995"
	if err := cache.Store("movie:heat", other); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	found, _ := cache.Lookup("movie:heat")
	if found.Match.CatalogID != "heat-1995" || cache.Count() != 1 {
		t.Fatalf("expected overwrite, got %+v count=%d", found, cache.Count())
	}
}

func TestCacheApply(t *testing.T) {
	cache := NewCache(filepath.Join(t.TempDir(), "match_cache.json"), nil)
	cache.Store("movie:inception", inception)

	a := &activity.Activity{LocalID: "1", Kind: activity.KindMovie, Title: "Inception"}
	if !cache.Apply(a) {
		t.Fatal("expected cached match to apply")
	}
	if a.Match == nil || a.Match.CatalogID != "inception-2010" {
		t.Fatalf("unexpected match %+v", a.Match)
	}

	matched := &activity.Activity{LocalID: "2", Title: "Inception", Match: &activity.Match{CatalogID: "other"}}
	if cache.Apply(matched) || matched.Match.CatalogID != "other" {
		t.Fatal("Apply must not replace an existing match")
	}
}

func TestCacheListRemoveClear(t *testing.T) {
	cache := NewCache(filepath.Join(t.TempDir(), "match_cache.json"), nil)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	cache.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	cache.Store("a", inception)
	cache.Store("b", inception)

	list := cache.List()
	if len(list) != 2 || list[0].Key != "b" {
		t.Fatalf("expected newest first, got %+v", list)
	}
	if err := cache.Remove("a"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := cache.Remove("a"); err == nil {
		t.Fatal("expected error removing missing key")
	}
	if err := cache.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if cache.Count() != 0 {
		t.Fatalf("expected empty cache, got %d", cache.Count())
	}
}

func TestCacheDisabled(t *testing.T) {
	cache := NewCache("", nil)
	if cache.Enabled() {
		t.Fatal("empty path should disable cache")
	}
	if err := cache.Store("k", inception); err != nil {
		t.Fatalf("disabled Store should be a no-op, got %v", err)
	}
	if _, ok := cache.Lookup("k"); ok {
		t.Fatal("disabled cache should never hit")
	}
	if cache.List() != nil {
		t.Fatal("disabled List should be nil")
	}
}

func TestCacheRejectsEmptyKey(t *testing.T) {
	cache := NewCache(filepath.Join(t.TempDir(), "match_cache.json"), nil)
	if err := cache.Store("  ", inception); err == nil {
		t.Fatal("expected empty key error")
	}
}

func TestCacheIgnoresCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "match_cache.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cache := NewCache(path, nil)
	if cache.Count() != 0 {
		t.Fatalf("expected empty cache after corrupt load, got %d", cache.Count())
	}
}
