package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"traktflix/internal/activity"
	"traktflix/internal/cachekey"
	"traktflix/internal/logging"
	"traktflix/internal/observability"
	"traktflix/internal/services"
)

const component = "reconcile"

// ErrEmptyURL is returned when a submission carries no candidate URL. No
// state transition happens.
var ErrEmptyURL = fmt.Errorf("%w: candidate url is empty", services.ErrValidation)

// CatalogResolver turns a candidate URL into a structured match. It is
// authoritative on whether the URL references a catalog entry.
type CatalogResolver interface {
	ResolveURL(ctx context.Context, a activity.Activity, url string) (activity.Match, error)
}

// Publisher reports confirmed mappings to the crowd-sync service. Publish
// must not block on the remote call and never reports failure.
type Publisher interface {
	Publish(ctx context.Context, a activity.Activity, matchedURL string)
}

// MatchCache records resolved matches under the activity cache key.
type MatchCache interface {
	Store(key string, m activity.Match) error
}

// ActivitySaver persists activities after a successful mutation.
type ActivitySaver interface {
	SaveActivity(ctx context.Context, a activity.Activity) error
}

// Status is a snapshot of one activity's reconciliation state.
type Status struct {
	LocalID   string `json:"local_id"`
	State     State  `json:"state"`
	LastURL   string `json:"last_url,omitempty"`
	LastError string `json:"last_error,omitempty"`
}

type entry struct {
	state   State
	lastURL string
	lastErr string
}

// Service owns the per-activity state table and orchestrates submissions.
type Service struct {
	resolver  CatalogResolver
	publisher Publisher
	cache     MatchCache
	saver     ActivitySaver
	toggles   activity.ToggleEmitter
	logger    *slog.Logger
	now       func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets the crowd-sync publisher.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithMatchCache sets the match cache written after successful submissions.
func WithMatchCache(c MatchCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithActivitySaver sets the store that persists mutated activities.
func WithActivitySaver(saver ActivitySaver) Option {
	return func(s *Service) { s.saver = saver }
}

// WithToggleEmitter sets the listener notified of sync toggles.
func WithToggleEmitter(e activity.ToggleEmitter) Option {
	return func(s *Service) { s.toggles = e }
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithClock overrides the time source used for ResolvedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service around resolver.
func New(resolver CatalogResolver, opts ...Option) *Service {
	s := &Service{
		resolver: resolver,
		now:      time.Now,
		entries:  make(map[string]*entry),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.logger = logging.NewComponentLogger(s.logger, component)
	return s
}

// State returns the current state for the activity, Idle when unseen.
func (s *Service) State(localID string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[localID]; ok {
		return e.state
	}
	return StateIdle
}

// Status returns a snapshot including the last submitted URL and error.
func (s *Service) Status(localID string) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{LocalID: localID, State: StateIdle}
	if e, ok := s.entries[localID]; ok {
		st.State = e.state
		st.LastURL = e.lastURL
		st.LastError = e.lastErr
	}
	return st
}

// OpenCorrection shows the correction form for the activity.
func (s *Service) OpenCorrection(localID string) (State, error) {
	return s.transition(localID, EventOpenCorrection)
}

// HideCorrection abandons the correction and returns to Idle.
func (s *Service) HideCorrection(localID string) (State, error) {
	return s.transition(localID, EventHideCorrection)
}

// Forget drops the state of an activity that left the visible set.
func (s *Service) Forget(localID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, localID)
}

func (s *Service) transition(localID string, ev Event) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entryLocked(localID)
	next, err := e.state.Apply(ev)
	if err != nil {
		return e.state, err
	}
	e.state = next
	if ev == EventHideCorrection || ev == EventOpenCorrection {
		e.lastErr = ""
	}
	return next, nil
}

func (s *Service) entryLocked(localID string) *entry {
	e, ok := s.entries[localID]
	if !ok {
		e = &entry{state: StateIdle}
		s.entries[localID] = e
	}
	return e
}

// Submit resolves candidateURL and, on success, replaces a.Match. The
// correction form must be open (AwaitingCorrection or Error). On failure a is
// left untouched and the returned error wraps services.ErrResolution.
func (s *Service) Submit(ctx context.Context, a *activity.Activity, candidateURL string) (activity.Match, error) {
	return s.submit(ctx, a, candidateURL, false)
}

// AcceptSuggestion submits a suggested URL in one action. From Idle it opens
// the correction form implicitly.
func (s *Service) AcceptSuggestion(ctx context.Context, a *activity.Activity, suggestionURL string) (activity.Match, error) {
	return s.submit(ctx, a, suggestionURL, true)
}

// ListSuggestions returns the activity's suggestions in their stored order.
// The result is a copy and never nil.
func (s *Service) ListSuggestions(a activity.Activity) []activity.Suggestion {
	out := make([]activity.Suggestion, len(a.Suggestions))
	copy(out, a.Suggestions)
	return out
}

// Toggle records the user's sync intent and notifies the toggle emitter.
func (s *Service) Toggle(ctx context.Context, a *activity.Activity, enabled bool) error {
	if a == nil {
		return fmt.Errorf("%w: activity is nil", services.ErrValidation)
	}
	if err := a.SetToggled(enabled); err != nil {
		return err
	}
	if s.toggles != nil {
		s.toggles.ActivityToggled(a.Clone(), enabled)
	}
	s.persist(ctx, *a)
	return nil
}

func (s *Service) submit(ctx context.Context, a *activity.Activity, candidateURL string, viaSuggestion bool) (activity.Match, error) {
	if a == nil {
		return activity.Match{}, fmt.Errorf("%w: activity is nil", services.ErrValidation)
	}
	url := strings.TrimSpace(candidateURL)
	if url == "" {
		return activity.Match{}, ErrEmptyURL
	}
	source := "manual"
	if viaSuggestion {
		source = "suggestion"
	}

	pending, err := s.begin(a.LocalID, url, viaSuggestion)
	if err != nil {
		observability.RecordSubmission(observability.OutcomeRejected, source)
		return activity.Match{}, err
	}

	ctx = logging.WithActivityID(ctx, a.LocalID)
	if _, ok := logging.RequestIDFromContext(ctx); !ok {
		ctx = logging.WithRequestID(ctx, uuid.NewString())
	}
	logger := logging.WithContext(ctx, s.logger)
	logger.Debug("resolving candidate url",
		logging.URL(url),
		logging.String("source", source),
	)

	start := s.now()
	match, err := s.resolve(ctx, a.Clone(), url)
	observability.ObserveResolve(s.now().Sub(start))
	if err != nil {
		s.finish(a.LocalID, pending, EventFailed, err)
		observability.RecordSubmission(observability.OutcomeFailed, source)
		logging.WarnWithContext(logger, "catalog resolution failed", "submit_failed",
			logging.URL(url),
			logging.Error(err),
			logging.Hint("check the trakt url and retry"),
			logging.Impact("activity remains unmatched until a valid url is submitted"),
		)
		return activity.Match{}, services.Wrap(services.ErrResolution, component, "submit", url, err)
	}

	if match.ResolvedAt.IsZero() {
		match.ResolvedAt = s.now()
	}
	if match.URL == "" {
		match.URL = url
	}
	a.ApplyMatch(match)
	s.finish(a.LocalID, pending, EventResolved, nil)
	observability.RecordSubmission(observability.OutcomeResolved, source)

	key := cachekey.Derive(*a)
	logger.Info("activity matched",
		logging.CatalogID(match.CatalogID),
		logging.String("title", match.DisplayTitle()),
		logging.CacheKey(key),
	)

	if s.cache != nil {
		if err := s.cache.Store(key, match); err != nil {
			logging.WarnWithContext(logger, "match cache write failed", "match_cache_write_failed",
				logging.CacheKey(key),
				logging.Error(err),
				logging.Hint("check match_cache.path permissions"),
			)
		}
	}
	s.persist(ctx, *a)
	if s.publisher != nil {
		s.publisher.Publish(ctx, a.Clone(), url)
	}
	return match, nil
}

func (s *Service) resolve(ctx context.Context, a activity.Activity, url string) (match activity.Match, err error) {
	if s.resolver == nil {
		return activity.Match{}, errors.New("catalog resolver not configured")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("catalog resolver panic: %v", r)
		}
	}()
	return s.resolver.ResolveURL(ctx, a, url)
}

func (s *Service) begin(localID, url string, viaSuggestion bool) (*entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entryLocked(localID)
	current := e.state
	if viaSuggestion && current == StateIdle {
		opened, err := current.Apply(EventOpenCorrection)
		if err != nil {
			return nil, err
		}
		current = opened
	}
	next, err := current.Apply(EventSubmit)
	if err != nil {
		return nil, err
	}
	e.state = next
	e.lastURL = url
	return e, nil
}

// finish records the outcome on the entry begin returned. The outcome is
// dropped when Forget removed that entry while the resolver was running.
func (s *Service) finish(localID string, pending *entry, ev Event, cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[localID]
	if !ok || e != pending {
		return
	}
	next, err := e.state.Apply(ev)
	if err != nil {
		next = StateIdle
		if ev == EventFailed {
			next = StateError
		}
	}
	e.state = next
	e.lastErr = ""
	if cause != nil {
		e.lastErr = cause.Error()
	}
}

func (s *Service) persist(ctx context.Context, a activity.Activity) {
	if s.saver == nil {
		return
	}
	if err := s.saver.SaveActivity(ctx, a); err != nil {
		logger := logging.WithContext(logging.WithActivityID(ctx, a.LocalID), s.logger)
		logging.WarnWithContext(logger, "activity save failed", "activity_save_failed",
			logging.Error(err),
			logging.Hint("check the data directory is writable"),
		)
	}
}
