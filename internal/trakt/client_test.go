package trakt

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"traktflix/internal/activity"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /movies/inception-2010", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("trakt-api-key") != "client-123" || r.Header.Get("trakt-api-version") != "2" {
			http.Error(w, "missing headers", http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"title": "Inception",
			"year":  2010,
			"ids":   map[string]any{"trakt": 16662, "slug": "inception-2010", "tmdb": 27205},
		})
	})
	mux.HandleFunc("GET /shows/dark", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"title": "Dark",
			"year":  2017,
			"ids":   map[string]any{"trakt": 1, "slug": "dark"},
		})
	})
	mux.HandleFunc("GET /shows/dark/seasons/1/episodes/3", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"season": 1,
			"number": 3,
			"title":  "Past and Present",
			"ids":    map[string]any{"trakt": 2217411},
		})
	})
	mux.HandleFunc("GET /genres/movies", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("trakt-api-key") != "client-123" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte(`[{"name":"Action","slug":"action"}]`))
	})
	mux.HandleFunc("GET /movies/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream", http.StatusBadGateway)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestResolveMovie(t *testing.T) {
	srv := newTestServer(t)
	client, err := New("client-123", srv.URL, "https://trakt.tv", WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	m, err := client.ResolveURL(context.Background(), activity.Activity{Title: "Inception"}, "https://trakt.tv/movies/inception-2010")
	if err != nil {
		t.Fatalf("ResolveURL: %v", err)
	}
	if m.CatalogID != "inception-2010" || m.Title != "Inception" || m.TraktID != 16662 || m.Year != 2010 {
		t.Fatalf("unexpected match %+v", m)
	}
	if m.URL != "https://trakt.tv/movies/inception-2010" || m.URL != m.CanonicalURL() {
		t.Fatalf("unexpected url %q", m.URL)
	}
}

func TestResolveSchemelessHostURL(t *testing.T) {
	srv := newTestServer(t)
	client, _ := New("client-123", srv.URL, "")
	m, err := client.ResolveURL(context.Background(), activity.Activity{Title: "Inception"}, "trakt.tv/movies/inception-2010")
	if err != nil {
		t.Fatalf("ResolveURL: %v", err)
	}
	if m.CatalogID != "inception-2010" || m.URL != "https://trakt.tv/movies/inception-2010" {
		t.Fatalf("unexpected match %+v", m)
	}
}

func TestResolveEpisode(t *testing.T) {
	srv := newTestServer(t)
	client, _ := New("client-123", srv.URL, "")
	m, err := client.ResolveURL(context.Background(), activity.Activity{Kind: activity.KindEpisode, Title: "Dark"}, "shows/dark/seasons/1/episodes/3")
	if err != nil {
		t.Fatalf("ResolveURL: %v", err)
	}
	if m.Kind != activity.KindEpisode || m.ShowTitle != "Dark" || m.Season != 1 || m.Number != 3 {
		t.Fatalf("unexpected match %+v", m)
	}
	if m.CatalogID != "dark/seasons/1/episodes/3" {
		t.Fatalf("unexpected catalog id %q", m.CatalogID)
	}
	if m.DisplayTitle() != "Dark: Past and Present" {
		t.Fatalf("unexpected display title %q", m.DisplayTitle())
	}
	if m.URL != "https://trakt.tv/shows/dark/seasons/1/episodes/3" {
		t.Fatalf("unexpected url %q", m.URL)
	}
}

func TestResolveNotFound(t *testing.T) {
	srv := newTestServer(t)
	client, _ := New("client-123", srv.URL, "")
	_, err := client.ResolveURL(context.Background(), activity.Activity{}, "movies/unknown")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveUpstreamError(t *testing.T) {
	srv := newTestServer(t)
	client, _ := New("client-123", srv.URL, "")
	_, err := client.ResolveURL(context.Background(), activity.Activity{}, "movies/broken")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected non-404 error, got %v", err)
	}
}

func TestResolveUnrecognizedSkipsNetwork(t *testing.T) {
	client, _ := New("client-123", "http://127.0.0.1:1", "")
	_, err := client.ResolveURL(context.Background(), activity.Activity{}, "https://imdb.com/title/tt1375666")
	if !errors.Is(err, ErrUnrecognizedURL) {
		t.Fatalf("expected ErrUnrecognizedURL, got %v", err)
	}
}

func TestNewValidates(t *testing.T) {
	if _, err := New("", "https://api.trakt.tv", ""); err == nil {
		t.Fatal("expected missing client id error")
	}
	if _, err := New("id", "", ""); err == nil {
		t.Fatal("expected missing base url error")
	}
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t)
	good, _ := New("client-123", srv.URL, "")
	if err := good.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
	bad, _ := New("wrong", srv.URL, "")
	if err := bad.HealthCheck(context.Background()); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
