package suggestions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"traktflix/internal/activity"
	"traktflix/internal/cachekey"
	"traktflix/internal/logging"
	"traktflix/internal/observability"
)

// maxKeysPerRequest bounds the ids query parameter.
const maxKeysPerRequest = 50

// Client fetches crowd-sourced suggestions.
type Client struct {
	gate       Gate
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient builds a Client for endpoint.
func NewClient(gate Gate, endpoint string, timeout time.Duration, opts ...ClientOption) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		gate:       gate,
		endpoint:   strings.TrimSpace(endpoint),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "suggestions")
	return c
}

// Fetch returns suggestions per cache key, each list sorted by support count
// descending. When the gate refuses, Fetch returns the gate error and no
// request is made.
func (c *Client) Fetch(ctx context.Context, keys []string) (map[string][]activity.Suggestion, error) {
	if err := c.gate.Check(ctx); err != nil {
		observability.RecordSuggestionFetch("skipped")
		return nil, err
	}
	keys = uniqueKeys(keys)
	out := make(map[string][]activity.Suggestion, len(keys))
	for start := 0; start < len(keys); start += maxKeysPerRequest {
		end := min(start+maxKeysPerRequest, len(keys))
		batch, err := c.fetchBatch(ctx, keys[start:end])
		if err != nil {
			observability.RecordSuggestionFetch("error")
			return nil, err
		}
		for k, v := range batch {
			out[k] = v
		}
	}
	observability.RecordSuggestionFetch("ok")
	return out, nil
}

// Attach fills Suggestions on unmatched activities in place and returns how
// many activities received at least one suggestion.
func (c *Client) Attach(ctx context.Context, acts []activity.Activity) (int, error) {
	keyed := make(map[string][]int)
	keys := make([]string, 0, len(acts))
	for i := range acts {
		if acts[i].Match != nil {
			continue
		}
		key := cachekey.Derive(acts[i])
		if _, seen := keyed[key]; !seen {
			keys = append(keys, key)
		}
		keyed[key] = append(keyed[key], i)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	found, err := c.Fetch(ctx, keys)
	if err != nil {
		return 0, err
	}
	attached := 0
	for key, idx := range keyed {
		list := found[key]
		if len(list) == 0 {
			continue
		}
		for _, i := range idx {
			acts[i].Suggestions = append([]activity.Suggestion(nil), list...)
			attached++
		}
	}
	return attached, nil
}

func (c *Client) fetchBatch(ctx context.Context, keys []string) (map[string][]activity.Suggestion, error) {
	endpoint, err := url.Parse(c.endpoint)
	if err != nil || endpoint.Host == "" {
		return nil, fmt.Errorf("parse suggestions endpoint %q", c.endpoint)
	}
	q := endpoint.Query()
	q.Set("ids", strings.Join(keys, ","))
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch suggestions: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("suggestions returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload map[string][]activity.Suggestion
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode suggestions: %w", err)
	}
	for k, list := range payload {
		payload[k] = Rank(list)
	}
	c.logger.Debug("fetched suggestions",
		logging.Int("requested", len(keys)),
		logging.Int("returned", len(payload)),
	)
	return payload, nil
}

// Rank drops empty URLs and orders suggestions by support count descending,
// keeping the upstream order among ties.
func Rank(list []activity.Suggestion) []activity.Suggestion {
	out := make([]activity.Suggestion, 0, len(list))
	for _, s := range list {
		s.URL = strings.TrimSpace(s.URL)
		if s.URL == "" {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SupportCount > out[j].SupportCount
	})
	return out
}

func uniqueKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// IsSkipped reports whether err came from the gate rather than the network.
func IsSkipped(err error) bool {
	return errors.Is(err, ErrDisabled) || errors.Is(err, ErrNoPermission)
}
