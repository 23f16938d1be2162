// Package main hosts the traktflix CLI entrypoint and command graph.
//
// The Cobra command tree opens the local store directly for one-shot
// operations (importing activities, submitting corrections, toggling sync,
// managing grants and the match cache) and runs the HTTP API with `serve`.
// Reconciliation state is per process, so commands that submit a correction
// open the correction form first.
package main
