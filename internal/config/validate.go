package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTrakt(); err != nil {
		return err
	}
	if err := c.validateSuggestions(); err != nil {
		return err
	}
	if err := c.validatePermissions(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateTrakt() error {
	if c.Trakt.ClientID == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/traktflix/config.toml"
		}
		return fmt.Errorf("trakt.client_id is required. Set TRAKT_CLIENT_ID env var or edit %s (create with 'traktflix config init')", defaultPath)
	}
	if err := validateHTTPURL("trakt.api_base_url", c.Trakt.APIBaseURL); err != nil {
		return err
	}
	return validateHTTPURL("trakt.web_base_url", c.Trakt.WebBaseURL)
}

func (c *Config) validateSuggestions() error {
	return validateHTTPURL("suggestions.endpoint_url", c.Suggestions.EndpointURL)
}

func (c *Config) validatePermissions() error {
	for _, origin := range c.Permissions.GrantedOrigins {
		if origin != "<all_urls>" && !strings.Contains(origin, "://") {
			return fmt.Errorf("permissions.granted_origins: %q is not an origin pattern (expected scheme://host/path)", origin)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (use console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func validateHTTPURL(field, value string) error {
	if value == "" {
		return fmt.Errorf("%s must be set", field)
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errors.New(field + " must use http or https")
	}
	if parsed.Host == "" {
		return errors.New(field + " must include a host")
	}
	return nil
}
