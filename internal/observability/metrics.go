// Package observability holds the Prometheus collectors for reconciliation,
// crowd-sync publishing, and suggestion fetching. Collectors register with the
// default registry; the HTTP API exposes them on /metrics.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Submission outcomes.
const (
	OutcomeResolved = "resolved"
	OutcomeFailed   = "failed"
	OutcomeRejected = "rejected"
)

// Publish outcomes.
const (
	PublishSent              = "sent"
	PublishTransportFailed   = "transport_failed"
	PublishSkippedDisabled   = "skipped_disabled"
	PublishSkippedPermission = "skipped_permission"
	PublishSkippedError      = "skipped_error"
)

var (
	submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "traktflix",
		Subsystem: "reconcile",
		Name:      "submissions_total",
		Help:      "Match submissions by outcome.",
	}, []string{"outcome", "source"})
	resolveDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "traktflix",
		Subsystem: "reconcile",
		Name:      "resolve_duration_seconds",
		Help:      "Latency of catalog URL resolution.",
		Buckets:   prometheus.DefBuckets,
	})
	publishTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "traktflix",
		Subsystem: "crowdsync",
		Name:      "publish_total",
		Help:      "Crowd-sync publish attempts by outcome.",
	}, []string{"outcome"})
	suggestionFetchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "traktflix",
		Subsystem: "crowdsync",
		Name:      "suggestion_fetch_total",
		Help:      "Suggestion fetches by outcome.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(submissionsTotal, resolveDuration, publishTotal, suggestionFetchTotal)
}

// RecordSubmission counts one submission. source is "manual" or "suggestion".
func RecordSubmission(outcome, source string) {
	submissionsTotal.WithLabelValues(outcome, source).Inc()
}

// ObserveResolve records how long the resolver took.
func ObserveResolve(d time.Duration) {
	if d < 0 {
		return
	}
	resolveDuration.Observe(d.Seconds())
}

// RecordPublish counts one crowd-sync publish attempt.
func RecordPublish(outcome string) {
	publishTotal.WithLabelValues(outcome).Inc()
}

// RecordSuggestionFetch counts one suggestion fetch.
func RecordSuggestionFetch(outcome string) {
	suggestionFetchTotal.WithLabelValues(outcome).Inc()
}

// SubmissionCount returns the current counter value; used by tests and the
// status endpoint.
func SubmissionCount(outcome, source string) float64 {
	return counterValue(submissionsTotal.WithLabelValues(outcome, source))
}

// PublishCount returns the current publish counter value for outcome.
func PublishCount(outcome string) float64 {
	return counterValue(publishTotal.WithLabelValues(outcome))
}
