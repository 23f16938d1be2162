package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTrakt()
	c.normalizeSuggestions()
	c.normalizePermissions()
	if err := c.normalizeMatchCache(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		c.Paths.APIToken = strings.TrimSpace(os.Getenv("TRAKTFLIX_API_TOKEN"))
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeTrakt() {
	c.Trakt.ClientID = strings.TrimSpace(c.Trakt.ClientID)
	if c.Trakt.ClientID == "" {
		if value, ok := os.LookupEnv("TRAKT_CLIENT_ID"); ok {
			c.Trakt.ClientID = strings.TrimSpace(value)
		}
	}
	c.Trakt.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.Trakt.APIBaseURL), "/")
	if c.Trakt.APIBaseURL == "" {
		c.Trakt.APIBaseURL = defaultTraktAPIBaseURL
	}
	c.Trakt.WebBaseURL = strings.TrimRight(strings.TrimSpace(c.Trakt.WebBaseURL), "/")
	if c.Trakt.WebBaseURL == "" {
		c.Trakt.WebBaseURL = defaultTraktWebBaseURL
	}
	if c.Trakt.TimeoutSeconds <= 0 {
		c.Trakt.TimeoutSeconds = defaultTraktTimeoutSeconds
	}
}

func (c *Config) normalizeSuggestions() {
	c.Suggestions.EndpointURL = strings.TrimSpace(c.Suggestions.EndpointURL)
	if c.Suggestions.EndpointURL == "" {
		c.Suggestions.EndpointURL = defaultSuggestionsEndpoint
	}
	if c.Suggestions.TimeoutSeconds <= 0 {
		c.Suggestions.TimeoutSeconds = defaultSuggestionsTimeoutSec
	}
}

func (c *Config) normalizePermissions() {
	seen := make(map[string]struct{}, len(c.Permissions.GrantedOrigins))
	origins := make([]string, 0, len(c.Permissions.GrantedOrigins))
	for _, origin := range c.Permissions.GrantedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if _, ok := seen[origin]; ok {
			continue
		}
		seen[origin] = struct{}{}
		origins = append(origins, origin)
	}
	c.Permissions.GrantedOrigins = origins
}

func (c *Config) normalizeMatchCache() error {
	if strings.TrimSpace(c.MatchCache.Path) == "" {
		c.MatchCache.Path = defaultMatchCachePath()
	}
	var err error
	if c.MatchCache.Path, err = expandPath(c.MatchCache.Path); err != nil {
		return fmt.Errorf("match_cache.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
