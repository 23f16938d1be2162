package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"traktflix/internal/config"
	"traktflix/internal/suggestions"
	"traktflix/internal/trakt"
)

// CheckTrakt verifies that the Trakt API is reachable and the client id is
// accepted. It uses a 10-second timeout and a single attempt.
func CheckTrakt(ctx context.Context, cfg config.Trakt) Result {
	const name = "Trakt API"

	if cfg.ClientID == "" {
		return Result{Name: name, Detail: "client id missing"}
	}
	client, err := trakt.New(cfg.ClientID, cfg.APIBaseURL, cfg.WebBaseURL)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckCrowdSync reports the consent gate for the suggestion service. A
// disabled preference passes; an enabled preference without granted origins
// fails.
func CheckCrowdSync(ctx context.Context, gate GateChecker) Result {
	const name = "Crowd-sync suggestions"

	err := gate.Check(ctx)
	switch {
	case err == nil:
		return Result{Name: name, Passed: true, Detail: "enabled"}
	case errors.Is(err, suggestions.ErrDisabled):
		return Result{Name: name, Passed: true, Detail: "disabled by preference"}
	case errors.Is(err, suggestions.ErrNoPermission):
		return Result{Name: name, Detail: "enabled but origins not granted (traktflix permissions grant ...)"}
	default:
		return Result{Name: name, Detail: err.Error()}
	}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func summarizeError(err error) string {
	if errors.Is(err, trakt.ErrUnauthorized) {
		return "client id rejected"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (API unreachable)"
	}
	return err.Error()
}
