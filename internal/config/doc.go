// Package config loads, normalizes, and validates traktflix configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TRAKT_CLIENT_ID. The Config type centralizes every knob the CLI and the HTTP
// API need, so the data directory, Trakt credentials, and the crowd-sourced
// suggestion endpoint are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
