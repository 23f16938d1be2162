package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// OptionsNamespace holds user preferences.
const OptionsNamespace = "options"

// Options are the user preferences read by the crowd-sync publisher.
type Options struct {
	SendReceiveSuggestions bool `json:"sendReceiveSuggestions"`
}

// Namespace is one stored key-value record. Options is nil when the
// namespace has never been written.
type Namespace struct {
	Options *Options `json:"options,omitempty"`
}

// Get reads a namespace. A missing namespace yields an empty value.
func (s *Store) Get(ctx context.Context, name string) (Namespace, error) {
	ctx = ensureContext(ctx)
	var payload string
	err := s.db.QueryRowContext(ctx, "SELECT payload FROM namespaces WHERE name = ?", strings.TrimSpace(name)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Namespace{}, nil
	}
	if err != nil {
		return Namespace{}, fmt.Errorf("get namespace %s: %w", name, err)
	}
	var ns Namespace
	if err := json.Unmarshal([]byte(payload), &ns); err != nil {
		return Namespace{}, fmt.Errorf("decode namespace %s: %w", name, err)
	}
	return ns, nil
}

// Put replaces a namespace.
func (s *Store) Put(ctx context.Context, name string, ns Namespace) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("namespace name is required")
	}
	payload, err := json.Marshal(ns)
	if err != nil {
		return fmt.Errorf("encode namespace %s: %w", name, err)
	}
	_, err = s.exec(ctx, `
INSERT INTO namespaces (name, payload, updated_at) VALUES (?, ?, ?)
ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		name, string(payload), s.timestamp())
	if err != nil {
		return fmt.Errorf("put namespace %s: %w", name, err)
	}
	return nil
}

// SetOptions writes the options namespace.
func (s *Store) SetOptions(ctx context.Context, opts Options) error {
	return s.Put(ctx, OptionsNamespace, Namespace{Options: &opts})
}

// SeedOptions writes opts only when the options namespace does not exist yet.
func (s *Store) SeedOptions(ctx context.Context, opts Options) error {
	ns, err := s.Get(ctx, OptionsNamespace)
	if err != nil {
		return err
	}
	if ns.Options != nil {
		return nil
	}
	return s.SetOptions(ctx, opts)
}
