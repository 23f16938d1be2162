package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"traktflix/internal/activity"
	"traktflix/internal/services"
)

// ErrNoChange, returned from an UpdateActivity callback, leaves the stored
// record untouched without failing the update.
var ErrNoChange = errors.New("no change")

// SaveActivity inserts the activity or merges it into the stored record keyed
// by LocalID. A stored sync flag is never cleared, a stored match is never
// dropped or replaced by an older one, and stored suggestions survive a
// snapshot that carries none.
func (s *Store) SaveActivity(ctx context.Context, a activity.Activity) error {
	_, err := s.modifyActivity(ctx, a.LocalID, func(prev activity.Activity, exists bool) (activity.Activity, error) {
		if exists {
			mergeStored(prev, &a)
		}
		return a, nil
	})
	return err
}

// UpdateActivity applies fn to the stored activity and writes the result in
// one transaction. Missing records wrap services.ErrNotFound.
func (s *Store) UpdateActivity(ctx context.Context, localID string, fn func(*activity.Activity) error) (activity.Activity, error) {
	return s.modifyActivity(ctx, localID, func(prev activity.Activity, exists bool) (activity.Activity, error) {
		if !exists {
			return activity.Activity{}, services.Wrap(services.ErrNotFound, "store", "update activity", localID, nil)
		}
		next := prev.Clone()
		if err := fn(&next); err != nil {
			return activity.Activity{}, err
		}
		return next, nil
	})
}

func (s *Store) modifyActivity(ctx context.Context, localID string, fn func(prev activity.Activity, exists bool) (activity.Activity, error)) (activity.Activity, error) {
	ctx = ensureContext(ctx)
	id := strings.TrimSpace(localID)
	if id == "" {
		return activity.Activity{}, services.Wrap(services.ErrValidation, "store", "save activity", "local id is required", nil)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var out activity.Activity
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin activity tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		var (
			prev    activity.Activity
			payload string
			exists  = true
		)
		err = tx.QueryRowContext(ctx, "SELECT payload FROM activities WHERE local_id = ?", id).Scan(&payload)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			exists = false
		case err != nil:
			return fmt.Errorf("get activity %s: %w", id, err)
		default:
			if prev, err = decodeActivity(payload); err != nil {
				return err
			}
		}

		next, err := fn(prev, exists)
		if errors.Is(err, ErrNoChange) {
			out = prev
			return nil
		}
		if err != nil {
			return err
		}
		next.LocalID = id
		if err := s.writeActivity(ctx, tx, &next); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit activity %s: %w", id, err)
		}
		out = next
		return nil
	})
	return out, err
}

func (s *Store) writeActivity(ctx context.Context, tx *sql.Tx, a *activity.Activity) error {
	if a.AlreadySynced && a.Match == nil {
		return services.Wrap(services.ErrValidation, "store", "save activity", "synced activity must be matched", nil)
	}
	if a.Kind == "" {
		a.Kind = activity.KindMovie
		if a.IsEpisode() {
			a.Kind = activity.KindEpisode
		}
	}
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode activity %s: %w", a.LocalID, err)
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO activities (local_id, kind, title, observed_at, matched, already_synced, payload, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(local_id) DO UPDATE SET
    kind = excluded.kind,
    title = excluded.title,
    observed_at = excluded.observed_at,
    matched = excluded.matched,
    already_synced = MAX(activities.already_synced, excluded.already_synced),
    payload = excluded.payload,
    updated_at = excluded.updated_at`,
		a.LocalID, string(a.Kind), a.Title, a.ObservedAt.UTC().Format(time.RFC3339Nano),
		boolInt(a.Match != nil), boolInt(a.AlreadySynced), string(payload), s.timestamp(),
	)
	if err != nil {
		return fmt.Errorf("save activity %s: %w", a.LocalID, err)
	}
	return nil
}

// mergeStored folds the durable fields of the stored record into a snapshot
// about to be saved.
func mergeStored(prev activity.Activity, next *activity.Activity) {
	if prev.Match != nil && (next.Match == nil || prev.Match.ResolvedAt.After(next.Match.ResolvedAt)) {
		m := *prev.Match
		next.Match = &m
	}
	if prev.AlreadySynced {
		next.AlreadySynced = true
		next.ToggledForSync = false
	}
	if len(next.Suggestions) == 0 && len(prev.Suggestions) > 0 {
		next.Suggestions = append([]activity.Suggestion(nil), prev.Suggestions...)
	}
}

// GetActivity loads one activity. Missing records wrap services.ErrNotFound.
func (s *Store) GetActivity(ctx context.Context, localID string) (activity.Activity, error) {
	ctx = ensureContext(ctx)
	var payload string
	err := s.db.QueryRowContext(ctx, "SELECT payload FROM activities WHERE local_id = ?", strings.TrimSpace(localID)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return activity.Activity{}, services.Wrap(services.ErrNotFound, "store", "get activity", localID, nil)
	}
	if err != nil {
		return activity.Activity{}, fmt.Errorf("get activity %s: %w", localID, err)
	}
	return decodeActivity(payload)
}

// ListFilter narrows ListActivities.
type ListFilter struct {
	UnmatchedOnly bool
	Limit         int
}

// ListActivities returns activities newest first.
func (s *Store) ListActivities(ctx context.Context, filter ListFilter) ([]activity.Activity, error) {
	ctx = ensureContext(ctx)
	query := "SELECT payload FROM activities"
	var args []any
	if filter.UnmatchedOnly {
		query += " WHERE matched = 0"
	}
	query += " ORDER BY observed_at DESC, local_id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	var out []activity.Activity
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		a, err := decodeActivity(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// DeleteActivity removes an activity. Deleting a missing record is not an error.
func (s *Store) DeleteActivity(ctx context.Context, localID string) error {
	if _, err := s.exec(ctx, "DELETE FROM activities WHERE local_id = ?", strings.TrimSpace(localID)); err != nil {
		return fmt.Errorf("delete activity %s: %w", localID, err)
	}
	return nil
}

func decodeActivity(payload string) (activity.Activity, error) {
	var a activity.Activity
	if err := json.Unmarshal([]byte(payload), &a); err != nil {
		return activity.Activity{}, fmt.Errorf("decode activity: %w", err)
	}
	return a, nil
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
