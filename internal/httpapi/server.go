package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"traktflix/internal/app"
	"traktflix/internal/config"
	"traktflix/internal/logging"
	"traktflix/internal/reconcile"
	"traktflix/internal/services"
	"traktflix/internal/store"
)

// Backend is the activity surface the API drives.
type Backend interface {
	List(ctx context.Context, filter store.ListFilter) ([]app.ActivityView, error)
	Get(ctx context.Context, localID string) (app.ActivityView, error)
	OpenCorrection(ctx context.Context, localID string) (reconcile.State, error)
	HideCorrection(ctx context.Context, localID string) (reconcile.State, error)
	Submit(ctx context.Context, localID, url string) (app.ActivityView, error)
	AcceptSuggestion(ctx context.Context, localID, url string) (app.ActivityView, error)
	Toggle(ctx context.Context, localID string, enabled bool) (app.ActivityView, error)
	RefreshSuggestions(ctx context.Context) (int, error)
}

// Server is the HTTP API.
type Server struct {
	bind     string
	lockPath string
	backend  Backend
	logger   *slog.Logger
	handler  http.Handler
}

// New builds a Server for backend using the bind address, token and lock path
// from cfg.
func New(cfg *config.Config, backend Backend, logger *slog.Logger) (*Server, error) {
	if cfg == nil || backend == nil {
		return nil, errors.New("httpapi requires config and backend")
	}
	s := &Server{
		bind:     strings.TrimSpace(cfg.Paths.APIBind),
		lockPath: cfg.LockPath(),
		backend:  backend,
		logger:   logging.NewComponentLogger(logger, "api-server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/activities", s.handleList)
	mux.HandleFunc("GET /api/activities/{id}", s.handleGet)
	mux.HandleFunc("POST /api/activities/{id}/correction", s.handleOpenCorrection)
	mux.HandleFunc("DELETE /api/activities/{id}/correction", s.handleHideCorrection)
	mux.HandleFunc("POST /api/activities/{id}/submit", s.handleSubmit)
	mux.HandleFunc("POST /api/activities/{id}/suggestions/accept", s.handleAccept)
	mux.HandleFunc("POST /api/activities/{id}/toggle", s.handleToggle)
	mux.HandleFunc("POST /api/suggestions/refresh", s.handleRefresh)

	root := http.NewServeMux()
	root.Handle("/api/", authMiddleware(cfg.Paths.APIToken, s.withRequestID(mux)))
	root.Handle("GET /metrics", promhttp.Handler())
	s.handler = root
	return s, nil
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run acquires the instance lock, serves until ctx is done, then shuts down.
func (s *Server) Run(ctx context.Context) error {
	lock := flock.New(s.lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another traktflix server is already running (lock %s)", s.lockPath)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			s.logger.Warn("failed to release server lock", logging.Error(err))
		}
	}()

	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("api serve: %w", err)
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api shutdown: %w", err)
	}
	s.logger.Info("api server stopped")
	return nil
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := services.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", logging.Error(err))
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return services.Wrap(services.ErrValidation, "httpapi", "decode body", "", err)
	}
	return nil
}
