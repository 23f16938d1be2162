package preflight

import (
	"context"

	"traktflix/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// GateChecker reports whether crowd-sync traffic is currently allowed.
type GateChecker interface {
	Check(ctx context.Context) error
}

// RunAll executes every preflight check for cfg. The crowd-sync check is
// skipped when gate is nil.
func RunAll(ctx context.Context, cfg *config.Config, gate GateChecker) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckTrakt(ctx, cfg.Trakt),
	}
	if gate != nil {
		results = append(results, CheckCrowdSync(ctx, gate))
	}
	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
