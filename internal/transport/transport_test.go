package transport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func TestSendPostsJSONBody(t *testing.T) {
	var (
		mu   sync.Mutex
		got  map[string]string
		ct   string
		meth string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		meth = r.Method
		ct = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	h := New(time.Second, WithHTTPClient(srv.Client()))
	var status int
	h.Send(Request{
		Method:    http.MethodPost,
		URL:       srv.URL,
		Params:    map[string]string{"id": "movie:inception", "url": "movies/inception-2010"},
		OnSuccess: func(s int) { status = s },
		OnError:   func(err error) { t.Errorf("unexpected error: %v", err) },
	})
	h.Wait()

	mu.Lock()
	defer mu.Unlock()
	if meth != http.MethodPost || ct != "application/json" {
		t.Fatalf("unexpected method/content type %s %s", meth, ct)
	}
	if got["id"] != "movie:inception" || got["url"] != "movies/inception-2010" {
		t.Fatalf("unexpected body %v", got)
	}
	if status != http.StatusOK {
		t.Fatalf("expected success callback with 200, got %d", status)
	}
}

func TestSendGetEncodesQuery(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query().Get("ids")
	}))
	defer srv.Close()

	h := New(time.Second)
	h.Send(Request{Method: "get", URL: srv.URL + "/exec", Params: map[string]string{"ids": "a,b"}})
	h.Wait()
	if query != "a,b" {
		t.Fatalf("expected ids=a,b, got %q", query)
	}
}

func TestSendReportsHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	h := New(time.Second)
	var gotErr error
	succeeded := false
	h.Send(Request{
		Method:    http.MethodPost,
		URL:       srv.URL,
		OnSuccess: func(int) { succeeded = true },
		OnError:   func(err error) { gotErr = err },
	})
	h.Wait()
	if succeeded || gotErr == nil {
		t.Fatalf("expected error callback only, succeeded=%t err=%v", succeeded, gotErr)
	}
}

func TestSendRejectsInvalidURL(t *testing.T) {
	h := New(time.Second)
	var gotErr error
	h.Send(Request{Method: http.MethodPost, URL: "not a url", OnError: func(err error) { gotErr = err }})
	h.Wait()
	if gotErr == nil {
		t.Fatal("expected invalid url error")
	}
}

func TestSendRecoversCallbackPanic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	defer srv.Close()

	h := New(time.Second)
	h.Send(Request{Method: http.MethodPost, URL: srv.URL, OnSuccess: func(int) { panic("boom") }})
	h.Wait()
}
