package permissions

import (
	"context"
	"fmt"
	"strings"
)

// GrantSource lists runtime grants.
type GrantSource interface {
	ListGrants(ctx context.Context) ([]string, error)
}

// Checker evaluates requests against static and runtime grants. Grants are
// re-read on every call.
type Checker struct {
	static []string
	source GrantSource
}

// NewChecker builds a Checker. Either argument may be empty.
func NewChecker(static []string, source GrantSource) *Checker {
	return &Checker{static: append([]string(nil), static...), source: source}
}

// Contains reports whether every requested origin is covered by a grant. A
// non-empty scope names a permission that must itself be granted verbatim.
func (c *Checker) Contains(ctx context.Context, scope string, origins []string) (bool, error) {
	grants, err := c.grants(ctx)
	if err != nil {
		return false, err
	}
	if scope = strings.TrimSpace(scope); scope != "" && !containsString(grants, scope) {
		return false, nil
	}
	patterns := make([]Pattern, 0, len(grants))
	for _, g := range grants {
		p, err := ParsePattern(g)
		if err != nil {
			continue
		}
		patterns = append(patterns, p)
	}
	for _, origin := range origins {
		want, err := ParsePattern(origin)
		if err != nil {
			return false, fmt.Errorf("requested origin: %w", err)
		}
		if !coveredBy(patterns, want) {
			return false, nil
		}
	}
	return true, nil
}

func (c *Checker) grants(ctx context.Context) ([]string, error) {
	out := append([]string(nil), c.static...)
	if c.source == nil {
		return out, nil
	}
	runtime, err := c.source.ListGrants(ctx)
	if err != nil {
		return nil, fmt.Errorf("list grants: %w", err)
	}
	return append(out, runtime...), nil
}

func coveredBy(patterns []Pattern, want Pattern) bool {
	for _, p := range patterns {
		if p.Covers(want) {
			return true
		}
	}
	return false
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == target {
			return true
		}
	}
	return false
}
