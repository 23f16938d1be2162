package trakt

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"traktflix/internal/activity"
)

// ErrUnrecognizedURL marks input that is not a Trakt movie or episode URL.
var ErrUnrecognizedURL = errors.New("unrecognized trakt url")

// Target identifies the catalog entry a URL points to.
type Target struct {
	Kind    activity.Kind
	Slug    string
	Season  int
	Episode int
}

// Path renders the API path for the target, which is also its web path.
func (t Target) Path() string {
	if t.Kind == activity.KindEpisode {
		return fmt.Sprintf("shows/%s/seasons/%d/episodes/%d", t.Slug, t.Season, t.Episode)
	}
	return "movies/" + t.Slug
}

// ParseURL extracts a Target from raw. allowedHosts lists web hosts accepted
// in addition to trakt.tv and www.trakt.tv, with or without a scheme.
func ParseURL(raw string, allowedHosts ...string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{}, fmt.Errorf("%w: empty", ErrUnrecognizedURL)
	}

	path := raw
	schemeless := !strings.Contains(raw, "://")
	if !schemeless {
		u, err := url.Parse(raw)
		if err != nil {
			return Target{}, fmt.Errorf("%w: %v", ErrUnrecognizedURL, err)
		}
		if !hostAllowed(u.Hostname(), allowedHosts) {
			return Target{}, fmt.Errorf("%w: host %q", ErrUnrecognizedURL, u.Hostname())
		}
		path = u.Path
	} else if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}

	parts := strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
	if schemeless && len(parts) > 0 && strings.Contains(parts[0], ".") {
		host, _, _ := strings.Cut(parts[0], ":")
		if !hostAllowed(host, allowedHosts) {
			return Target{}, fmt.Errorf("%w: host %q", ErrUnrecognizedURL, host)
		}
		parts = parts[1:]
	}
	switch {
	case len(parts) >= 2 && parts[0] == "movies":
		return Target{Kind: activity.KindMovie, Slug: parts[1]}, nil
	case len(parts) >= 6 && parts[0] == "shows" && parts[2] == "seasons" && parts[4] == "episodes":
		season, err := strconv.Atoi(parts[3])
		if err != nil || season < 0 {
			return Target{}, fmt.Errorf("%w: season %q", ErrUnrecognizedURL, parts[3])
		}
		episode, err := strconv.Atoi(parts[5])
		if err != nil || episode <= 0 {
			return Target{}, fmt.Errorf("%w: episode %q", ErrUnrecognizedURL, parts[5])
		}
		return Target{Kind: activity.KindEpisode, Slug: parts[1], Season: season, Episode: episode}, nil
	}
	return Target{}, fmt.Errorf("%w: %q is not a movie or episode page", ErrUnrecognizedURL, raw)
}

func hostAllowed(host string, extra []string) bool {
	host = strings.ToLower(host)
	if host == "trakt.tv" || host == "www.trakt.tv" {
		return true
	}
	for _, h := range extra {
		if strings.EqualFold(strings.TrimSpace(h), host) && host != "" {
			return true
		}
	}
	return false
}
