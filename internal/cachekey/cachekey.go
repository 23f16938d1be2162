// Package cachekey derives the stable identifier shared by the match cache and
// the crowd-sourced suggestion service.
//
// Keys are content based rather than account based so that two people who
// watched the same title converge on the same suggestion bucket.
package cachekey

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"traktflix/internal/activity"
)

const fallbackPrefix = "netflix-"

// Derive returns the cache key for a. It is pure: the same identifying fields
// always yield the same key.
//
// Movies:   movie:<title-slug>
// Episodes: episode:<title-slug>:s<season>e<episode>, or
//
//	episode:<title-slug>:<episode-title-slug> when numbers are unknown.
//
// When the title has no usable characters the key falls back to the local ID.
func Derive(a activity.Activity) string {
	title := Slug(a.Title)
	if title == "" {
		return fallbackPrefix + strings.TrimSpace(a.LocalID)
	}

	if !a.IsEpisode() {
		return string(activity.KindMovie) + ":" + title
	}

	var b strings.Builder
	b.WriteString(string(activity.KindEpisode))
	b.WriteByte(':')
	b.WriteString(title)
	b.WriteByte(':')
	if a.Season > 0 || a.Episode > 0 {
		b.WriteByte('s')
		b.WriteString(strconv.Itoa(a.Season))
		b.WriteByte('e')
		b.WriteString(strconv.Itoa(a.Episode))
		return b.String()
	}
	if ep := Slug(a.EpisodeTitle); ep != "" {
		b.WriteString(ep)
		return b.String()
	}
	b.WriteString(fallbackPrefix)
	b.WriteString(strings.TrimSpace(a.LocalID))
	return b.String()
}

// Slug lower-cases value, strips diacritics, and collapses every run of
// non-alphanumeric characters into a single dash.
func Slug(value string) string {
	folded, _, err := transform.String(foldTransformer(), value)
	if err != nil {
		folded = value
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))
	pendingDash := false
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

// foldTransformer is rebuilt per call; transform.Chain values are stateful.
func foldTransformer() transform.Transformer {
	return transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}
