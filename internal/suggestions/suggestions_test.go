package suggestions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"traktflix/internal/activity"
	"traktflix/internal/services"
	"traktflix/internal/store"
	"traktflix/internal/transport"
)

type fakeConfig struct {
	mu    sync.Mutex
	ns    store.Namespace
	err   error
	reads int
}

func (f *fakeConfig) Get(_ context.Context, namespace string) (store.Namespace, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if namespace != store.OptionsNamespace {
		return store.Namespace{}, nil
	}
	return f.ns, f.err
}

func (f *fakeConfig) set(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ns = store.Namespace{Options: &store.Options{SendReceiveSuggestions: enabled}}
}

type fakePermissions struct {
	allowed bool
	err     error
	origins []string
}

func (f *fakePermissions) Contains(_ context.Context, scope string, origins []string) (bool, error) {
	f.origins = origins
	return f.allowed, f.err
}

type recordingSender struct {
	mu       sync.Mutex
	requests []transport.Request
	fail     error
}

func (s *recordingSender) Send(req transport.Request) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	fail := s.fail
	s.mu.Unlock()
	if fail != nil {
		req.OnError(fail)
		return
	}
	req.OnSuccess(http.StatusOK)
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func movie() activity.Activity {
	return activity.Activity{
		LocalID: "70131314",
		Kind:    activity.KindMovie,
		Title:   "Inception",
		Match:   &activity.Match{CatalogID: "inception-2010", Title: "Inception"},
	}
}

func publishOnce(t *testing.T, cfg *fakeConfig, perms *fakePermissions, sender *recordingSender) {
	t.Helper()
	p := NewPublisher(Gate{Config: cfg, Permissions: perms}, sender, "https://script.google.com/macros/s/x/exec", nil)
	p.Publish(context.Background(), movie(), "https://trakt.tv/movies/inception-2010")
	p.Wait()
}

func TestPublishSendsOneRequestWhenAllowed(t *testing.T) {
	cfg := &fakeConfig{}
	cfg.set(true)
	perms := &fakePermissions{allowed: true}
	sender := &recordingSender{}
	publishOnce(t, cfg, perms, sender)

	if sender.count() != 1 {
		t.Fatalf("expected one request, got %d", sender.count())
	}
	req := sender.requests[0]
	if req.Method != http.MethodPost || !strings.HasSuffix(req.URL, "/exec") {
		t.Fatalf("unexpected request %s %s", req.Method, req.URL)
	}
	if req.Params["id"] != "movie:inception" || req.Params["url"] != "https://trakt.tv/movies/inception-2010" {
		t.Fatalf("unexpected params %v", req.Params)
	}
	if len(perms.origins) != 2 || perms.origins[0] != "*://script.google.com/*" {
		t.Fatalf("unexpected origins checked %v", perms.origins)
	}
}

func TestPublishGatedByPreference(t *testing.T) {
	cfg := &fakeConfig{}
	cfg.set(false)
	sender := &recordingSender{}
	publishOnce(t, cfg, &fakePermissions{allowed: true}, sender)
	if sender.count() != 0 {
		t.Fatalf("expected zero requests when disabled, got %d", sender.count())
	}

	unset := &fakeConfig{}
	publishOnce(t, unset, &fakePermissions{allowed: true}, sender)
	if sender.count() != 0 {
		t.Fatalf("expected zero requests when options unset, got %d", sender.count())
	}
}

func TestPublishGatedByPermission(t *testing.T) {
	cfg := &fakeConfig{}
	cfg.set(true)
	sender := &recordingSender{}
	publishOnce(t, cfg, &fakePermissions{allowed: false}, sender)
	if sender.count() != 0 {
		t.Fatalf("expected zero requests without permission, got %d", sender.count())
	}
	publishOnce(t, cfg, &fakePermissions{err: errors.New("denied")}, sender)
	if sender.count() != 0 {
		t.Fatalf("expected zero requests on permission error, got %d", sender.count())
	}
}

func TestPublishConfigReadErrorIsSilent(t *testing.T) {
	cfg := &fakeConfig{err: errors.New("db closed")}
	sender := &recordingSender{}
	publishOnce(t, cfg, &fakePermissions{allowed: true}, sender)
	if sender.count() != 0 {
		t.Fatalf("expected zero requests on config error, got %d", sender.count())
	}
}

func TestPublishRereadsPreferenceEachCall(t *testing.T) {
	cfg := &fakeConfig{}
	cfg.set(true)
	perms := &fakePermissions{allowed: true}
	sender := &recordingSender{}
	p := NewPublisher(Gate{Config: cfg, Permissions: perms}, sender, "https://script.google.com/x", nil)

	p.Publish(context.Background(), movie(), "movies/inception-2010")
	p.Wait()
	cfg.set(false)
	p.Publish(context.Background(), movie(), "movies/inception-2010")
	p.Wait()

	if sender.count() != 1 {
		t.Fatalf("expected preference change to take effect, got %d requests", sender.count())
	}
	if cfg.reads != 2 {
		t.Fatalf("expected two config reads, got %d", cfg.reads)
	}
}

func TestPublishTransportFailureIsAbsorbed(t *testing.T) {
	cfg := &fakeConfig{}
	cfg.set(true)
	sender := &recordingSender{fail: errors.New("connection refused")}
	a := movie()
	p := NewPublisher(Gate{Config: cfg, Permissions: &fakePermissions{allowed: true}}, sender, "https://script.google.com/x", nil)
	p.Publish(context.Background(), a, "movies/inception-2010")
	p.Wait()
	if a.Match == nil || a.Match.CatalogID != "inception-2010" || a.AlreadySynced {
		t.Fatalf("activity altered: %+v", a)
	}
}

type panicSender struct{}

func (panicSender) Send(transport.Request) { panic("sender exploded") }

func TestPublishRecoversPanics(t *testing.T) {
	cfg := &fakeConfig{}
	cfg.set(true)
	p := NewPublisher(Gate{Config: cfg, Permissions: &fakePermissions{allowed: true}}, panicSender{}, "https://script.google.com/x", nil)
	p.Publish(context.Background(), movie(), "movies/inception-2010")
	p.Wait()
}

func TestPublishSurvivesCanceledContext(t *testing.T) {
	cfg := &fakeConfig{}
	cfg.set(true)
	sender := &recordingSender{}
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPublisher(Gate{Config: cfg, Permissions: &fakePermissions{allowed: true}}, sender, "https://script.google.com/x", nil)
	p.Publish(ctx, movie(), "movies/inception-2010")
	cancel()
	p.Wait()
	if sender.count() != 1 {
		t.Fatalf("caller cancellation must not abort the detached publish, got %d", sender.count())
	}
}

func TestGateErrorsAreClassified(t *testing.T) {
	cfg := &fakeConfig{}
	cfg.set(false)
	err := Gate{Config: cfg, Permissions: &fakePermissions{allowed: true}}.Check(context.Background())
	if !errors.Is(err, services.ErrPermissionOrConfigUnavailable) || !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected disabled classification, got %v", err)
	}
	cfg.set(true)
	err = Gate{Config: cfg, Permissions: &fakePermissions{}}.Check(context.Background())
	if !errors.Is(err, ErrNoPermission) || !IsSkipped(err) {
		t.Fatalf("expected no-permission classification, got %v", err)
	}
}

func TestFetchAndAttach(t *testing.T) {
	var gotIDs string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIDs = r.URL.Query().Get("ids")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"movie:heat": []map[string]any{
				{"url": "movies/heat-1986", "count": 1},
				{"url": "movies/heat-1995", "count": 7},
				{"url": "", "count": 99},
				{"url": "movies/heat-2013", "count": 1},
			},
		})
	}))
	defer srv.Close()

	cfg := &fakeConfig{}
	cfg.set(true)
	client := NewClient(Gate{Config: cfg, Permissions: &fakePermissions{allowed: true}}, srv.URL, time.Second)

	acts := []activity.Activity{
		{LocalID: "1", Kind: activity.KindMovie, Title: "Heat"},
		{LocalID: "2", Kind: activity.KindMovie, Title: "Heat"},
		movie(),
		{LocalID: "3", Kind: activity.KindMovie, Title: "Unknown Film"},
	}
	n, err := client.Attach(context.Background(), acts)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 activities with suggestions, got %d", n)
	}
	if gotIDs != "movie:heat,movie:unknown-film" {
		t.Fatalf("unexpected ids query %q", gotIDs)
	}
	got := acts[0].Suggestions
	if len(got) != 3 || got[0].URL != "movies/heat-1995" || got[1].URL != "movies/heat-1986" || got[2].URL != "movies/heat-2013" {
		t.Fatalf("unexpected ranking %+v", got)
	}
	if acts[2].Suggestions != nil || acts[3].Suggestions != nil {
		t.Fatal("matched and unknown activities should get no suggestions")
	}
}

func TestFetchSkippedWhenGated(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	defer srv.Close()

	cfg := &fakeConfig{}
	cfg.set(false)
	client := NewClient(Gate{Config: cfg, Permissions: &fakePermissions{allowed: true}}, srv.URL, time.Second)
	_, err := client.Fetch(context.Background(), []string{"movie:heat"})
	if !IsSkipped(err) {
		t.Fatalf("expected skipped error, got %v", err)
	}
	if called {
		t.Fatal("gated fetch must not contact the endpoint")
	}
}

func TestFetchUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()
	cfg := &fakeConfig{}
	cfg.set(true)
	client := NewClient(Gate{Config: cfg, Permissions: &fakePermissions{allowed: true}}, srv.URL, time.Second)
	if _, err := client.Fetch(context.Background(), []string{"movie:heat"}); err == nil || IsSkipped(err) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}
