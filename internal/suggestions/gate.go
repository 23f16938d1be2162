package suggestions

import (
	"context"
	"errors"

	"traktflix/internal/services"
	"traktflix/internal/store"
)

// Origins are the hosts the crowd-sync service answers from.
var Origins = []string{"*://script.google.com/*", "*://script.googleusercontent.com/*"}

var (
	// ErrDisabled is wrapped when the user has not opted into suggestions.
	ErrDisabled = errors.New("send/receive suggestions disabled")
	// ErrNoPermission is wrapped when the crowd-sync origins are not granted.
	ErrNoPermission = errors.New("crowd-sync origins not granted")
)

// ConfigStore reads stored option namespaces.
type ConfigStore interface {
	Get(ctx context.Context, namespace string) (store.Namespace, error)
}

// PermissionChecker reports whether origins may be contacted.
type PermissionChecker interface {
	Contains(ctx context.Context, scope string, origins []string) (bool, error)
}

// Gate decides whether crowd-sync traffic is allowed right now.
type Gate struct {
	Config      ConfigStore
	Permissions PermissionChecker
}

// Check returns nil when both the preference and the permission allow
// traffic. Otherwise the error wraps services.ErrPermissionOrConfigUnavailable.
func (g Gate) Check(ctx context.Context) error {
	if g.Config == nil || g.Permissions == nil {
		return unavailable("gate not configured", nil)
	}
	ns, err := g.Config.Get(ctx, store.OptionsNamespace)
	if err != nil {
		return unavailable("read options", err)
	}
	if ns.Options == nil || !ns.Options.SendReceiveSuggestions {
		return unavailable("options", ErrDisabled)
	}
	ok, err := g.Permissions.Contains(ctx, "", Origins)
	if err != nil {
		return unavailable("check permissions", err)
	}
	if !ok {
		return unavailable("permissions", ErrNoPermission)
	}
	return nil
}

func unavailable(message string, err error) error {
	return services.Wrap(services.ErrPermissionOrConfigUnavailable, "suggestions", "gate", message, err)
}
