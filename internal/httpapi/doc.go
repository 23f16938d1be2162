// Package httpapi serves the activity reconciliation workflow over JSON/HTTP
// and exposes Prometheus metrics. Only one server per data directory may run;
// the lock file under the data directory enforces that.
package httpapi
