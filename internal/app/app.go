package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"traktflix/internal/activity"
	"traktflix/internal/config"
	"traktflix/internal/logging"
	"traktflix/internal/matchcache"
	"traktflix/internal/permissions"
	"traktflix/internal/reconcile"
	"traktflix/internal/store"
	"traktflix/internal/suggestions"
	"traktflix/internal/trakt"
	"traktflix/internal/transport"
)

// App holds the wired components for one process.
type App struct {
	Config      *config.Config
	Logger      *slog.Logger
	Store       *store.Store
	Cache       *matchcache.Cache
	Permissions *permissions.Checker
	Gate        suggestions.Gate
	Transport   *transport.HTTP
	Publisher   *suggestions.Publisher
	Suggestions *suggestions.Client
	Trakt       *trakt.Client
	Reconciler  *reconcile.Service
}

type options struct {
	httpClient *http.Client
	resolver   reconcile.CatalogResolver
}

// Option configures Open.
type Option func(*options)

// WithHTTPClient routes every outbound client through client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) { o.httpClient = client }
}

// WithResolver replaces the Trakt resolver.
func WithResolver(r reconcile.CatalogResolver) Option {
	return func(o *options) { o.resolver = r }
}

// Open builds an App from cfg. The caller must Close it.
func Open(cfg *config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	st, err := store.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := st.SeedOptions(context.Background(), store.Options{SendReceiveSuggestions: cfg.Suggestions.DefaultSendReceive}); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("seed options: %w", err)
	}

	a := &App{Config: cfg, Logger: logger, Store: st}

	cachePath := ""
	if cfg.MatchCache.Enabled {
		cachePath = cfg.MatchCache.Path
	}
	a.Cache = matchcache.NewCache(cachePath, logger)
	a.Permissions = permissions.NewChecker(cfg.Permissions.GrantedOrigins, st)

	suggestTimeout := time.Duration(cfg.Suggestions.TimeoutSeconds) * time.Second
	a.Transport = transport.New(suggestTimeout, transport.WithHTTPClient(o.httpClient), transport.WithLogger(logger))
	a.Gate = suggestions.Gate{Config: st, Permissions: a.Permissions}
	a.Publisher = suggestions.NewPublisher(a.Gate, a.Transport, cfg.Suggestions.EndpointURL, logger)
	a.Suggestions = suggestions.NewClient(a.Gate, cfg.Suggestions.EndpointURL, suggestTimeout,
		suggestions.WithHTTPClient(o.httpClient), suggestions.WithLogger(logger))

	resolver := o.resolver
	if resolver == nil {
		traktTimeout := time.Duration(cfg.Trakt.TimeoutSeconds) * time.Second
		httpClient := o.httpClient
		if httpClient == nil {
			httpClient = &http.Client{Timeout: traktTimeout}
		}
		client, err := trakt.New(cfg.Trakt.ClientID, cfg.Trakt.APIBaseURL, cfg.Trakt.WebBaseURL,
			trakt.WithHTTPClient(httpClient), trakt.WithLogger(logger))
		if err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("trakt client: %w", err)
		}
		a.Trakt = client
		resolver = client
	}

	toggleLogger := logging.NewComponentLogger(logger, "activities")
	a.Reconciler = reconcile.New(resolver,
		reconcile.WithPublisher(a.Publisher),
		reconcile.WithMatchCache(a.Cache),
		reconcile.WithActivitySaver(st),
		reconcile.WithToggleEmitter(activity.ToggleEmitterFunc(func(act activity.Activity, enabled bool) {
			toggleLogger.Info("activity sync toggled",
				logging.ActivityID(act.LocalID),
				logging.Bool("enabled", enabled),
			)
		})),
		reconcile.WithLogger(logger),
	)
	return a, nil
}

// Close waits for detached crowd-sync work and closes the store.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	a.Publisher.Wait()
	a.Transport.Wait()
	return a.Store.Close()
}
