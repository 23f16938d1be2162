package config

const (
	defaultDataDir               = "~/.local/share/traktflix"
	defaultLogDir                = "~/.local/share/traktflix/logs"
	defaultAPIBind               = "127.0.0.1:7488"
	defaultTraktAPIBaseURL       = "https://api.trakt.tv"
	defaultTraktWebBaseURL       = "https://trakt.tv"
	defaultTraktTimeoutSeconds   = 15
	defaultSuggestionsEndpoint   = "https://script.google.com/macros/s/AKfycbxaD_VEcZVv9atICZm00TWvF3XqkwykWtlGE8Ne39EMcjW5m3w/exec"
	defaultSuggestionsTimeoutSec = 10
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Trakt: Trakt{
			APIBaseURL:     defaultTraktAPIBaseURL,
			WebBaseURL:     defaultTraktWebBaseURL,
			TimeoutSeconds: defaultTraktTimeoutSeconds,
		},
		Suggestions: Suggestions{
			EndpointURL:    defaultSuggestionsEndpoint,
			TimeoutSeconds: defaultSuggestionsTimeoutSec,
		},
		MatchCache: MatchCache{
			Enabled: true,
			Path:    defaultMatchCachePath(),
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
