package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"traktflix/internal/logging"
)

const userAgent = "traktflix/0.1.0"

// Request describes one outbound call. GET params are encoded in the query
// string; other methods send them as a JSON object body.
type Request struct {
	Method    string
	URL       string
	Params    map[string]string
	OnSuccess func(status int)
	OnError   func(err error)
}

// Sender is the fire-and-forget contract consumed by the publisher.
type Sender interface {
	Send(req Request)
}

// HTTP sends requests with a shared http.Client on detached goroutines.
type HTTP struct {
	client *http.Client
	logger *slog.Logger
	wg     sync.WaitGroup
}

// Option configures an HTTP sender.
type Option func(*HTTP)

// WithHTTPClient overrides the default client.
func WithHTTPClient(client *http.Client) Option {
	return func(h *HTTP) {
		if client != nil {
			h.client = client
		}
	}
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *HTTP) { h.logger = logger }
}

// New builds an HTTP sender whose requests time out after timeout.
func New(timeout time.Duration, opts ...Option) *HTTP {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	h := &HTTP{client: &http.Client{Timeout: timeout}}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = logging.NewComponentLogger(h.logger, "transport")
	return h
}

// Send dispatches req in the background. Exactly one of OnSuccess or OnError
// runs when the request settles.
func (h *HTTP) Send(req Request) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				h.logger.Debug("transport callback panicked", logging.Any("panic", r))
			}
		}()
		status, err := h.do(context.Background(), req)
		if err != nil {
			h.logger.Debug("request failed",
				logging.String("method", req.Method),
				logging.URL(req.URL),
				logging.Error(err),
			)
			if req.OnError != nil {
				req.OnError(err)
			}
			return
		}
		if req.OnSuccess != nil {
			req.OnSuccess(status)
		}
	}()
}

// Wait blocks until every dispatched request has settled.
func (h *HTTP) Wait() {
	h.wg.Wait()
}

func (h *HTTP) do(ctx context.Context, r Request) (int, error) {
	method := strings.ToUpper(strings.TrimSpace(r.Method))
	if method == "" {
		method = http.MethodGet
	}
	endpoint, err := url.Parse(strings.TrimSpace(r.URL))
	if err != nil || endpoint.Host == "" {
		return 0, fmt.Errorf("invalid request url %q", r.URL)
	}

	var body io.Reader
	if method == http.MethodGet {
		q := endpoint.Query()
		for k, v := range r.Params {
			q.Set(k, v)
		}
		endpoint.RawQuery = q.Encode()
	} else {
		payload, err := json.Marshal(r.Params)
		if err != nil {
			return 0, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return resp.StatusCode, fmt.Errorf("%s %s returned %d: %s", method, endpoint.Host, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}
