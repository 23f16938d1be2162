package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"traktflix/internal/activity"
	"traktflix/internal/app"
	"traktflix/internal/config"
	"traktflix/internal/httpapi"
	"traktflix/internal/testsupport"
)

func traktServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /movies/inception-2010", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"title": "Inception", "year": 2010, "ids": map[string]any{"trakt": 1, "slug": "inception-2010"}})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newServer(t *testing.T, opts ...testsupport.ConfigOption) (*config.Config, *app.App, http.Handler) {
	t.Helper()
	traktSrv := traktServer(t)
	opts = append([]testsupport.ConfigOption{testsupport.WithTraktBaseURLs(traktSrv.URL, "")}, opts...)
	cfg := testsupport.NewConfig(t, opts...)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	a, err := app.Open(cfg, nil)
	if err != nil {
		t.Fatalf("app.Open: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	srv, err := httpapi.New(cfg, a, nil)
	if err != nil {
		t.Fatalf("httpapi.New: %v", err)
	}
	return cfg, a, srv.Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func importMovie(t *testing.T, a *app.App, id string) {
	t.Helper()
	if _, err := a.Import(context.Background(), activity.Activity{LocalID: id, Kind: activity.KindMovie, Title: "Inception"}); err != nil {
		t.Fatalf("Import: %v", err)
	}
}

func TestCorrectionAndSubmitFlow(t *testing.T) {
	_, a, h := newServer(t)
	importMovie(t, a, "42")

	rec := do(t, h, http.MethodPost, "/api/activities/42/correction", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("open correction: %d %s", rec.Code, rec.Body.String())
	}
	var state map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &state)
	if state["state"] != "awaiting_correction" || state["form_visible"] != true {
		t.Fatalf("unexpected state payload %v", state)
	}

	rec = do(t, h, http.MethodPost, "/api/activities/42/submit", `{"url":"https://trakt.tv/movies/inception-2010"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: %d %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}

	rec = do(t, h, http.MethodGet, "/api/activities/42", "")
	if rec.Code != http.StatusOK || !bytes.Contains(rec.Body.Bytes(), []byte("inception-2010")) {
		t.Fatalf("get: %d %s", rec.Code, rec.Body.String())
	}
}

func TestErrorStatusMapping(t *testing.T) {
	_, a, h := newServer(t)
	importMovie(t, a, "1")

	if rec := do(t, h, http.MethodGet, "/api/activities/missing", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/activities/1/submit", `{"url":""}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty url, got %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, h, http.MethodPost, "/api/activities/1/submit", `{"bogus":true}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", rec.Code)
	}
	do(t, h, http.MethodPost, "/api/activities/1/correction", "")
	if rec := do(t, h, http.MethodPost, "/api/activities/1/submit", `{"url":"movies/nope"}`); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unresolvable url, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/activities/1/toggle", `{"enabled":true}`); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for toggle on unmatched, got %d", rec.Code)
	}
}

func TestHideCorrectionAndList(t *testing.T) {
	_, a, h := newServer(t)
	importMovie(t, a, "1")
	importMovie(t, a, "2")

	do(t, h, http.MethodPost, "/api/activities/1/correction", "")
	rec := do(t, h, http.MethodDelete, "/api/activities/1/correction", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"state":"idle"`) {
		t.Fatalf("hide correction: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/api/activities?limit=1", "")
	var list struct {
		Activities []json.RawMessage `json:"activities"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil || len(list.Activities) != 1 {
		t.Fatalf("list: %s err=%v", rec.Body.String(), err)
	}
	if rec := do(t, h, http.MethodGet, "/api/activities?limit=x", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", rec.Code)
	}
}

func TestRefreshRefusedWhenDisabled(t *testing.T) {
	_, _, h := newServer(t)
	rec := do(t, h, http.MethodPost, "/api/suggestions/refresh", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"attached":0`) {
		t.Fatalf("refresh: %d %s", rec.Code, rec.Body.String())
	}
}

func TestBearerToken(t *testing.T) {
	_, _, h := newServer(t, testsupport.WithAPIToken("s3cret"))

	if rec := do(t, h, http.MethodGet, "/api/activities", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/activities", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/metrics", ""); rec.Code != http.StatusOK {
		t.Fatalf("metrics should not require a token, got %d", rec.Code)
	}
}

func TestRunHoldsLock(t *testing.T) {
	cfg, a, _ := newServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	cfg.Paths.APIBind = ln.Addr().String()
	ln.Close()

	first, _ := httpapi.New(cfg, a, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- first.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		conn, err := net.Dial("tcp", cfg.Paths.APIBind)
		if err == nil {
			conn.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server did not start: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	second, _ := httpapi.New(cfg, a, nil)
	if err := second.Run(context.Background()); err == nil || !strings.Contains(err.Error(), "already running") {
		t.Fatalf("expected lock error, got %v", err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
