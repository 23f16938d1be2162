// Package reconcile drives the per-activity correction workflow: opening and
// hiding the correction form, submitting a candidate Trakt URL, accepting a
// crowd-sourced suggestion, and flipping the sync toggle.
//
// Each activity carries an explicit State value. Transitions are computed by
// State.Apply and stored in a mutex-guarded table keyed by local id, so
// independent activities can reconcile concurrently while a single activity
// never has more than one submission in flight.
package reconcile
