package trakt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"traktflix/internal/activity"
	"traktflix/internal/logging"
)

const apiVersion = "2"

var (
	// ErrNotFound marks a catalog entry Trakt does not know.
	ErrNotFound = errors.New("trakt entry not found")
	// ErrUnauthorized means Trakt rejected the client id.
	ErrUnauthorized = errors.New("trakt rejected client id")
)

type ids struct {
	Trakt int64  `json:"trakt"`
	Slug  string `json:"slug"`
	IMDB  string `json:"imdb"`
	TMDB  int64  `json:"tmdb"`
}

// Movie is the Trakt movie summary.
type Movie struct {
	Title string `json:"title"`
	Year  int    `json:"year"`
	IDs   ids    `json:"ids"`
}

// Show is the Trakt show summary.
type Show struct {
	Title string `json:"title"`
	Year  int    `json:"year"`
	IDs   ids    `json:"ids"`
}

// Episode is the Trakt episode summary.
type Episode struct {
	Season int    `json:"season"`
	Number int    `json:"number"`
	Title  string `json:"title"`
	IDs    ids    `json:"ids"`
}

// Client talks to the Trakt API.
type Client struct {
	clientID   string
	baseURL    string
	webBaseURL string
	webHost    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a Trakt client. webBaseURL is used for canonical match URLs and
// is also accepted as a host in submitted URLs.
func New(clientID, baseURL, webBaseURL string, opts ...Option) (*Client, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, errors.New("trakt client id required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("trakt base url required")
	}
	webBaseURL = strings.TrimRight(strings.TrimSpace(webBaseURL), "/")
	if webBaseURL == "" {
		webBaseURL = "https://trakt.tv"
	}
	web, err := url.Parse(webBaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse trakt web url: %w", err)
	}
	client := &Client{
		clientID:   clientID,
		baseURL:    strings.TrimRight(baseURL, "/"),
		webBaseURL: webBaseURL,
		webHost:    web.Hostname(),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, "trakt")
	return client, nil
}

// ResolveURL resolves rawURL into a match. The activity is informational; the
// URL alone decides the target.
func (c *Client) ResolveURL(ctx context.Context, a activity.Activity, rawURL string) (activity.Match, error) {
	target, err := ParseURL(rawURL, c.webHost)
	if err != nil {
		return activity.Match{}, err
	}
	if target.Kind == activity.KindMovie {
		return c.resolveMovie(ctx, target)
	}
	if !a.IsEpisode() && a.Title != "" {
		c.logger.Debug("movie activity resolved to an episode url",
			logging.ActivityID(a.LocalID),
			logging.URL(rawURL),
		)
	}
	return c.resolveEpisode(ctx, target)
}

func (c *Client) resolveMovie(ctx context.Context, target Target) (activity.Match, error) {
	movie, err := c.GetMovie(ctx, target.Slug)
	if err != nil {
		return activity.Match{}, err
	}
	slug := movie.IDs.Slug
	if slug == "" {
		slug = target.Slug
	}
	return activity.Match{
		CatalogID: slug,
		TraktID:   movie.IDs.Trakt,
		Kind:      activity.KindMovie,
		Title:     movie.Title,
		URL:       c.webBaseURL + "/movies/" + slug,
		Year:      movie.Year,
	}, nil
}

func (c *Client) resolveEpisode(ctx context.Context, target Target) (activity.Match, error) {
	show, err := c.GetShow(ctx, target.Slug)
	if err != nil {
		return activity.Match{}, err
	}
	showSlug := show.IDs.Slug
	if showSlug == "" {
		showSlug = target.Slug
	}
	episode, err := c.GetEpisode(ctx, showSlug, target.Season, target.Episode)
	if err != nil {
		return activity.Match{}, err
	}
	t := Target{Kind: activity.KindEpisode, Slug: showSlug, Season: episode.Season, Episode: episode.Number}
	return activity.Match{
		CatalogID: fmt.Sprintf("%s/seasons/%d/episodes/%d", showSlug, episode.Season, episode.Number),
		TraktID:   episode.IDs.Trakt,
		Kind:      activity.KindEpisode,
		Title:     episode.Title,
		URL:       c.webBaseURL + "/" + t.Path(),
		ShowTitle: show.Title,
		ShowSlug:  showSlug,
		Season:    episode.Season,
		Number:    episode.Number,
		Year:      show.Year,
	}, nil
}

// GetMovie fetches a movie summary by slug.
func (c *Client) GetMovie(ctx context.Context, slug string) (*Movie, error) {
	var movie Movie
	if err := c.get(ctx, "/movies/"+url.PathEscape(slug), &movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

// GetShow fetches a show summary by slug.
func (c *Client) GetShow(ctx context.Context, slug string) (*Show, error) {
	var show Show
	if err := c.get(ctx, "/shows/"+url.PathEscape(slug), &show); err != nil {
		return nil, err
	}
	return &show, nil
}

// GetEpisode fetches a single episode summary.
func (c *Client) GetEpisode(ctx context.Context, showSlug string, season, number int) (*Episode, error) {
	var episode Episode
	path := fmt.Sprintf("/shows/%s/seasons/%d/episodes/%d", url.PathEscape(showSlug), season, number)
	if err := c.get(ctx, path, &episode); err != nil {
		return nil, err
	}
	if episode.Season == 0 && episode.Number == 0 {
		episode.Season, episode.Number = season, number
	}
	return &episode, nil
}

// HealthCheck confirms the API is reachable and accepts the client id.
func (c *Client) HealthCheck(ctx context.Context) error {
	var genres []json.RawMessage
	return c.get(ctx, "/genres/movies", &genres)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("trakt-api-key", c.clientID)
	req.Header.Set("trakt-api-version", apiVersion)

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("trakt request",
		logging.String("path", path),
		logging.Int("status", resp.StatusCode),
		logging.Duration("latency", latency),
	)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w (status %d)", ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("trakt %s returned %d (latency=%v): %s", path, resp.StatusCode, latency, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode trakt response: %w", err)
	}
	return nil
}
