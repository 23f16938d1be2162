// Package activity models locally observed Netflix playback records and the
// Trakt catalog match attached to them.
//
// An Activity is owned by the activity list (see internal/store); the
// reconciliation core mutates only its Match, ToggledForSync, and
// AlreadySynced fields, always through the methods in this package so the
// toggle and sync invariants hold.
package activity
