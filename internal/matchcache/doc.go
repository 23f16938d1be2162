// Package matchcache keeps corrected activity-to-catalog mappings in a JSON
// file keyed by activity cache key, so a title corrected once resolves
// without user action the next time it is observed.
package matchcache
