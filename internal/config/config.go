package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	// APIToken, when set, is required as a bearer token on every API request.
	APIToken string `toml:"api_token"`
}

// Trakt contains configuration for the Trakt catalog API.
type Trakt struct {
	ClientID       string `toml:"client_id"`
	APIBaseURL     string `toml:"api_base_url"`
	WebBaseURL     string `toml:"web_base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Suggestions contains configuration for the crowd-sourced suggestion service.
type Suggestions struct {
	EndpointURL        string `toml:"endpoint_url"`
	TimeoutSeconds     int    `toml:"timeout_seconds"`
	DefaultSendReceive bool   `toml:"default_send_receive"`
}

// Permissions lists origin patterns the process may contact. Grants added at
// runtime are stored alongside activities; these seed the store.
type Permissions struct {
	GrantedOrigins []string `toml:"granted_origins"`
}

// MatchCache contains configuration for the cache key to catalog match cache.
type MatchCache struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"` // Default: ~/.cache/traktflix/match_cache.json
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for traktflix.
//
// Configuration sections by subsystem:
//   - Paths: data/log directories and API bind address
//   - Trakt: catalog resolution via the Trakt API
//   - Suggestions: crowd-sync endpoint for sending/receiving suggestions
//   - Permissions: origin patterns granted at startup
//   - MatchCache: corrected mappings keyed by activity cache key
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	Trakt       Trakt       `toml:"trakt"`
	Suggestions Suggestions `toml:"suggestions"`
	Permissions Permissions `toml:"permissions"`
	MatchCache  MatchCache  `toml:"match_cache"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/traktflix/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		info, err := os.Stat(expanded)
		if err != nil {
			if os.IsNotExist(err) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		if info.IsDir() {
			return "", false, fmt.Errorf("config path %q is a directory", expanded)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("traktflix.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite file that holds activities, options, and grants.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "traktflix.db")
}

// LockPath returns the lock file guarding single-instance API serving.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "traktflix.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultMatchCachePath() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "traktflix", "match_cache.json")
	}
	return "~/.cache/traktflix/match_cache.json"
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
