package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"traktflix/internal/activity"
	"traktflix/internal/logging"
	"traktflix/internal/reconcile"
	"traktflix/internal/services"
	"traktflix/internal/store"
	"traktflix/internal/suggestions"
)

// ActivityView pairs an activity with its reconciliation status.
type ActivityView struct {
	activity.Activity
	Status   reconcile.Status `json:"status"`
	WatchURL string           `json:"watch_url"`
}

// Import stores a newly observed activity, applying a cached match when one
// exists for its cache key. Re-importing a known LocalID refreshes the
// observed fields only; match, sync state and suggestions are kept.
func (a *App) Import(ctx context.Context, act activity.Activity) (activity.Activity, error) {
	act.LocalID = strings.TrimSpace(act.LocalID)
	act.Title = strings.TrimSpace(act.Title)
	if act.LocalID == "" || act.Title == "" {
		return activity.Activity{}, services.Wrap(services.ErrValidation, "app", "import", "local id and title are required", nil)
	}
	if act.ObservedAt.IsZero() {
		act.ObservedAt = time.Now().UTC()
	}

	existing, err := a.Store.GetActivity(ctx, act.LocalID)
	switch {
	case err == nil:
		act.Match = existing.Match
		act.AlreadySynced = existing.AlreadySynced
		act.ToggledForSync = existing.ToggledForSync
		act.Suggestions = existing.Suggestions
	case errors.Is(err, services.ErrNotFound):
	default:
		return activity.Activity{}, err
	}

	if act.Match == nil && a.Cache.Apply(&act) {
		a.Logger.Info("applied cached match",
			logging.ActivityID(act.LocalID),
			logging.CatalogID(act.Match.CatalogID),
		)
	}
	if err := a.Store.SaveActivity(ctx, act); err != nil {
		return activity.Activity{}, err
	}
	return a.Store.GetActivity(ctx, act.LocalID)
}

// List returns stored activities with their current status.
func (a *App) List(ctx context.Context, filter store.ListFilter) ([]ActivityView, error) {
	acts, err := a.Store.ListActivities(ctx, filter)
	if err != nil {
		return nil, err
	}
	views := make([]ActivityView, 0, len(acts))
	for _, act := range acts {
		views = append(views, a.view(act))
	}
	return views, nil
}

// Get returns one activity with its status.
func (a *App) Get(ctx context.Context, localID string) (ActivityView, error) {
	act, err := a.Store.GetActivity(ctx, localID)
	if err != nil {
		return ActivityView{}, err
	}
	return a.view(act), nil
}

// OpenCorrection opens the correction form for a stored activity.
func (a *App) OpenCorrection(ctx context.Context, localID string) (reconcile.State, error) {
	if _, err := a.Store.GetActivity(ctx, localID); err != nil {
		return reconcile.StateIdle, err
	}
	return a.Reconciler.OpenCorrection(localID)
}

// HideCorrection abandons the correction for a stored activity.
func (a *App) HideCorrection(ctx context.Context, localID string) (reconcile.State, error) {
	if _, err := a.Store.GetActivity(ctx, localID); err != nil {
		return reconcile.StateIdle, err
	}
	return a.Reconciler.HideCorrection(localID)
}

// Submit resolves url for a stored activity. The correction form must be open.
func (a *App) Submit(ctx context.Context, localID, url string) (ActivityView, error) {
	act, err := a.Store.GetActivity(ctx, localID)
	if err != nil {
		return ActivityView{}, err
	}
	if _, err := a.Reconciler.Submit(ctx, &act, url); err != nil {
		return a.view(act), err
	}
	return a.stored(ctx, act), nil
}

// AcceptSuggestion submits url as a one-step suggestion acceptance.
func (a *App) AcceptSuggestion(ctx context.Context, localID, url string) (ActivityView, error) {
	act, err := a.Store.GetActivity(ctx, localID)
	if err != nil {
		return ActivityView{}, err
	}
	if _, err := a.Reconciler.AcceptSuggestion(ctx, &act, url); err != nil {
		return a.view(act), err
	}
	return a.stored(ctx, act), nil
}

// SuggestionAt returns the n-th (1-based) suggestion of a stored activity.
func (a *App) SuggestionAt(ctx context.Context, localID string, n int) (activity.Suggestion, error) {
	act, err := a.Store.GetActivity(ctx, localID)
	if err != nil {
		return activity.Suggestion{}, err
	}
	list := a.Reconciler.ListSuggestions(act)
	if n < 1 || n > len(list) {
		return activity.Suggestion{}, services.Wrap(services.ErrValidation, "app", "suggestion",
			fmt.Sprintf("activity %s has %d suggestions, requested #%d", localID, len(list), n), nil)
	}
	return list[n-1], nil
}

// Toggle records the sync intent for a stored activity.
func (a *App) Toggle(ctx context.Context, localID string, enabled bool) (ActivityView, error) {
	act, err := a.Store.GetActivity(ctx, localID)
	if err != nil {
		return ActivityView{}, err
	}
	if err := a.Reconciler.Toggle(ctx, &act, enabled); err != nil {
		return a.view(act), services.Wrap(services.ErrIllegalTransition, "app", "toggle", localID, err)
	}
	return a.stored(ctx, act), nil
}

// MarkSynced flags a stored activity as persisted remotely.
func (a *App) MarkSynced(ctx context.Context, localID string) (ActivityView, error) {
	act, err := a.Store.UpdateActivity(ctx, localID, func(cur *activity.Activity) error {
		if err := cur.MarkSynced(); err != nil {
			return services.Wrap(services.ErrIllegalTransition, "app", "mark synced", localID, err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, services.ErrIllegalTransition) {
			if cur, getErr := a.Store.GetActivity(ctx, localID); getErr == nil {
				return a.view(cur), err
			}
		}
		return ActivityView{}, err
	}
	return a.view(act), nil
}

// RefreshSuggestions fetches suggestions for every unmatched activity and
// stores them. A refused gate is not an error; it yields zero. Activities
// matched while the fetch was running keep their match and get no
// suggestions. The result counts activities whose suggestions were stored.
func (a *App) RefreshSuggestions(ctx context.Context) (int, error) {
	acts, err := a.Store.ListActivities(ctx, store.ListFilter{UnmatchedOnly: true})
	if err != nil {
		return 0, err
	}
	if _, err := a.Suggestions.Attach(ctx, acts); err != nil {
		if suggestions.IsSkipped(err) {
			a.Logger.Debug("suggestion refresh skipped", logging.Error(err))
			return 0, nil
		}
		return 0, err
	}

	stored := 0
	for _, act := range acts {
		if len(act.Suggestions) == 0 {
			continue
		}
		fetched := act.Suggestions
		attached := false
		_, err := a.Store.UpdateActivity(ctx, act.LocalID, func(cur *activity.Activity) error {
			attached = false
			if cur.Match != nil {
				return store.ErrNoChange
			}
			cur.Suggestions = append([]activity.Suggestion(nil), fetched...)
			attached = true
			return nil
		})
		switch {
		case errors.Is(err, services.ErrNotFound):
			continue
		case err != nil:
			return stored, err
		}
		if attached {
			stored++
		} else {
			a.Logger.Debug("suggestions dropped for activity matched during refresh", logging.ActivityID(act.LocalID))
		}
	}
	return stored, nil
}

// stored views the persisted record, which may carry state merged in by a
// concurrent writer. It falls back to act when the reload fails.
func (a *App) stored(ctx context.Context, act activity.Activity) ActivityView {
	if cur, err := a.Store.GetActivity(ctx, act.LocalID); err == nil {
		return a.view(cur)
	}
	return a.view(act)
}

func (a *App) view(act activity.Activity) ActivityView {
	return ActivityView{Activity: act, Status: a.Reconciler.Status(act.LocalID), WatchURL: act.WatchURL()}
}
