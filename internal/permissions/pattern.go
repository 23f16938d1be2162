package permissions

import (
	"fmt"
	"regexp"
	"strings"
)

// AllURLs grants every origin.
const AllURLs = "<all_urls>"

// Pattern is a parsed match pattern.
type Pattern struct {
	raw    string
	all    bool
	scheme string
	host   string
	path   string
}

// ParsePattern validates a match pattern of the form scheme://host/path.
func ParsePattern(raw string) (Pattern, error) {
	raw = strings.TrimSpace(raw)
	if raw == AllURLs {
		return Pattern{raw: raw, all: true}, nil
	}
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return Pattern{}, fmt.Errorf("match pattern %q: missing scheme separator", raw)
	}
	scheme = strings.ToLower(scheme)
	switch scheme {
	case "*", "http", "https":
	default:
		return Pattern{}, fmt.Errorf("match pattern %q: unsupported scheme %q", raw, scheme)
	}
	host, path, found := strings.Cut(rest, "/")
	if !found {
		return Pattern{}, fmt.Errorf("match pattern %q: missing path", raw)
	}
	host = strings.ToLower(host)
	if host == "" {
		return Pattern{}, fmt.Errorf("match pattern %q: empty host", raw)
	}
	if strings.Contains(strings.TrimPrefix(host, "*."), "*") && host != "*" {
		return Pattern{}, fmt.Errorf("match pattern %q: wildcard only allowed as leading label", raw)
	}
	return Pattern{raw: raw, scheme: scheme, host: host, path: "/" + path}, nil
}

func (p Pattern) String() string { return p.raw }

// Covers reports whether every URL matched by other is also matched by p.
func (p Pattern) Covers(other Pattern) bool {
	if p.all {
		return true
	}
	if other.all {
		return false
	}
	return p.coversScheme(other.scheme) && p.coversHost(other.host) && globMatch(p.path, other.path)
}

func (p Pattern) coversScheme(s string) bool {
	if p.scheme == s {
		return true
	}
	return p.scheme == "*" && (s == "http" || s == "https")
}

func (p Pattern) coversHost(h string) bool {
	switch {
	case p.host == "*":
		return true
	case p.host == h:
		return true
	case strings.HasPrefix(p.host, "*."):
		base := strings.TrimPrefix(p.host, "*.")
		h = strings.TrimPrefix(h, "*.")
		return h == base || strings.HasSuffix(h, "."+base)
	}
	return false
}

func globMatch(glob, value string) bool {
	if glob == "/*" {
		return true
	}
	expr := "^" + strings.ReplaceAll(regexp.QuoteMeta(glob), `\*`, ".*") + "$"
	re, err := regexp.Compile(expr)
	if err != nil {
		return false
	}
	return re.MatchString(value)
}
