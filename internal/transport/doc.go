// Package transport sends fire-and-forget HTTP requests on behalf of the
// crowd-sync publisher. Send never blocks and reports its outcome only through
// the request's callbacks.
package transport
