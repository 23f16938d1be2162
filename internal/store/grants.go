package store

import (
	"context"
	"fmt"
	"strings"

	"traktflix/internal/permissions"
)

// ListGrants returns runtime permission grants in insertion order.
func (s *Store) ListGrants(ctx context.Context) ([]string, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT origin FROM grants ORDER BY granted_at, origin")
	if err != nil {
		return nil, fmt.Errorf("list grants: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var origin string
		if err := rows.Scan(&origin); err != nil {
			return nil, fmt.Errorf("scan grant: %w", err)
		}
		out = append(out, origin)
	}
	return out, rows.Err()
}

// Grant records an origin pattern or named scope. Re-granting is a no-op.
func (s *Store) Grant(ctx context.Context, origin string) error {
	origin = strings.TrimSpace(origin)
	if origin == "" {
		return fmt.Errorf("grant: origin is required")
	}
	if strings.Contains(origin, "://") || origin == permissions.AllURLs {
		if _, err := permissions.ParsePattern(origin); err != nil {
			return fmt.Errorf("grant: %w", err)
		}
	}
	if _, err := s.exec(ctx, "INSERT OR IGNORE INTO grants (origin, granted_at) VALUES (?, ?)", origin, s.timestamp()); err != nil {
		return fmt.Errorf("grant %s: %w", origin, err)
	}
	return nil
}

// Revoke removes a grant and reports whether one existed.
func (s *Store) Revoke(ctx context.Context, origin string) (bool, error) {
	res, err := s.exec(ctx, "DELETE FROM grants WHERE origin = ?", strings.TrimSpace(origin))
	if err != nil {
		return false, fmt.Errorf("revoke %s: %w", origin, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("revoke %s: %w", origin, err)
	}
	return n > 0, nil
}
