package logging

import (
	"log/slog"
	"time"
)

type Attr = slog.Attr

const (
	// FieldImpact is the standardized key for the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldCatalogID is the standardized key for a resolved Trakt catalog identifier.
	FieldCatalogID = "catalog_id"
	// FieldURL is the standardized key for a submitted or requested URL.
	FieldURL = "url"
)

func Any(key string, value any) Attr { return slog.Any(key, value) }

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// ActivityID tags a line with the local activity identifier. Prefer
// WithActivityID on the context when the whole call chain is about one
// activity.
func ActivityID(id string) Attr { return slog.String(FieldActivityID, id) }

// CacheKey tags a line with a derived activity cache key.
func CacheKey(key string) Attr { return slog.String(FieldCacheKey, key) }

// CatalogID tags a line with the Trakt catalog identifier of a match.
func CatalogID(id string) Attr { return slog.String(FieldCatalogID, id) }

// URL tags a line with a candidate or request URL.
func URL(u string) Attr { return slog.String(FieldURL, u) }

// Hint is the operator action attached to a warning.
func Hint(text string) Attr { return slog.String(FieldErrorHint, text) }

// Impact is the user-facing consequence attached to a warning.
func Impact(text string) Attr { return slog.String(FieldImpact, text) }

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// NewComponentLogger creates a logger with a standardized component attribute.
// If logger is nil, a no-op logger is used as the base.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

var warnDefaults = []Attr{
	Hint("check logs for details"),
	Impact("operation completed with warnings"),
}

// WarnWithContext logs a warning that always carries event_type, error_hint
// and impact. Missing fields get defaults.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	args := make([]any, 0, len(attrs)+1+len(warnDefaults))
	seen := make(map[string]bool, len(attrs))
	for _, a := range attrs {
		seen[a.Key] = true
		args = append(args, a)
	}
	if !seen[FieldEventType] {
		args = append(args, String(FieldEventType, eventType))
	}
	for _, d := range warnDefaults {
		if !seen[d.Key] {
			args = append(args, d)
		}
	}
	logger.Warn(msg, args...)
}
