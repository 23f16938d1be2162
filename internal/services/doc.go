// Package services defines the error taxonomy shared by the reconciliation
// core and its collaborators.
//
// Key responsibilities:
//   - Sentinel markers that classify failures (resolution, publish gating,
//     publish transport, caller misuse).
//   - The Wrap helper that stamps operation context onto an error while
//     keeping the marker visible to errors.Is.
//   - HTTPStatus, which maps a classified error to the status code the HTTP
//     API reports.
//
// Only ErrResolution is allowed to cross the reconciliation boundary back to
// the caller; publish failures are recorded and discarded where they occur.
package services
