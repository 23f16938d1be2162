// Package trakt resolves trakt.tv URLs into catalog matches using the Trakt
// v2 REST API. Both absolute web URLs and the relative paths returned by the
// suggestion service ("movies/<slug>") are accepted.
package trakt
