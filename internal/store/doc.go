// Package store persists activities, option namespaces, and runtime
// permission grants in a single SQLite database under the data directory.
//
// The schema is created on first open and guarded by a version row; a
// mismatch is reported as ErrSchemaMismatch rather than migrated in place.
package store
