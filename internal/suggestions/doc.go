// Package suggestions exchanges confirmed mappings with the crowd-sync
// service. Publisher reports a mapping after a successful submission and
// Client fetches ranked suggestions for unmatched activities. Both are gated
// on the user's send/receive preference and on permission to contact the
// service, and both re-read those inputs on every call.
package suggestions
