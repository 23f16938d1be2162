// Package preflight provides readiness checks for the directories and remote
// services traktflix depends on.
//
// The `traktflix doctor` command runs RunAll and prints each Result. The
// crowd-sync check only inspects the consent gate; it never contacts the
// suggestion service, so running it cannot leak traffic the user has not
// allowed.
package preflight
