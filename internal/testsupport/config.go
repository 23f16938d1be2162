package testsupport

import (
	"path/filepath"
	"testing"

	"traktflix/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Trakt.ClientID = "test"
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.MatchCache.Path = filepath.Join(base, "cache", "match_cache.json")
	cfgVal.Permissions.GrantedOrigins = nil

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithTraktBaseURLs points the Trakt client at a test server.
func WithTraktBaseURLs(apiBase, webBase string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Trakt.APIBaseURL = apiBase
		if webBase != "" {
			b.cfg.Trakt.WebBaseURL = webBase
		}
	}
}

// WithSuggestionsEndpoint points the crowd-sync client at a test server.
func WithSuggestionsEndpoint(endpoint string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Suggestions.EndpointURL = endpoint
	}
}

// WithSendReceive sets the default send/receive suggestions preference.
func WithSendReceive(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Suggestions.DefaultSendReceive = enabled
	}
}

// WithGrantedOrigins sets the statically granted origin patterns.
func WithGrantedOrigins(origins ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Permissions.GrantedOrigins = append([]string(nil), origins...)
	}
}

// WithMatchCacheDisabled turns the match cache off.
func WithMatchCacheDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.MatchCache.Enabled = false
	}
}

// WithAPIToken requires a bearer token on API requests.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.APIToken = token
	}
}
