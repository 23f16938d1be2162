// Package app assembles the store, match cache, Trakt resolver, crowd-sync
// publisher and reconciliation service from configuration, and exposes the
// activity-level operations shared by the CLI and the HTTP API.
package app
