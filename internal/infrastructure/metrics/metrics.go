// Package metrics provides the Prometheus collectors exported by the service:
//   - formulary_http_requests_total / formulary_http_request_duration_seconds
//   - formulary_ingredients_resolved_total{outcome}
//   - formulary_dosage_format_total{outcome}
//   - formulary_snapshot_* gauges and refresh counter
//
// All collectors are registered with the default registry at package init.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values
const (
	OutcomeResolved   = "resolved"
	OutcomeUnresolved = "unresolved"
	OutcomeAccepted   = "accepted"
	OutcomeRejected   = "rejected"
	OutcomeSuccess    = "success"
	OutcomeFailure    = "failure"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formulary_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "formulary_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	IngredientsResolved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formulary_ingredients_resolved_total",
			Help: "Ingredient lines resolved against the herb pool, by outcome",
		},
		[]string{"outcome"},
	)

	DosageFormat = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formulary_dosage_format_total",
			Help: "Dosage edits validated, by outcome",
		},
		[]string{"outcome"},
	)

	SnapshotHerbs = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "formulary_snapshot_herbs",
			Help: "Herb records in the current snapshot",
		},
	)

	SnapshotFormulas = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "formulary_snapshot_formulas",
			Help: "Formula records in the current snapshot",
		},
	)

	SnapshotRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formulary_snapshot_refresh_total",
			Help: "Snapshot refresh attempts, by outcome",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(IngredientsResolved)
	prometheus.MustRegister(DosageFormat)
	prometheus.MustRegister(SnapshotHerbs)
	prometheus.MustRegister(SnapshotFormulas)
	prometheus.MustRegister(SnapshotRefreshes)
}

// ObserveHTTPRequest records one served request. path should be the route
// template, not the raw URL, to keep label cardinality bounded.
func ObserveHTTPRequest(method, path string, status int, elapsed time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// ObserveResolution counts resolved and unresolved ingredients.
func ObserveResolution(resolved, unresolved int) {
	if resolved > 0 {
		IngredientsResolved.WithLabelValues(OutcomeResolved).Add(float64(resolved))
	}
	if unresolved > 0 {
		IngredientsResolved.WithLabelValues(OutcomeUnresolved).Add(float64(unresolved))
	}
}

// ObserveDosageFormat counts one dosage validation.
func ObserveDosageFormat(accepted bool) {
	if accepted {
		DosageFormat.WithLabelValues(OutcomeAccepted).Inc()
		return
	}
	DosageFormat.WithLabelValues(OutcomeRejected).Inc()
}

// ObserveSnapshot records the pool sizes of a freshly published snapshot.
func ObserveSnapshot(herbs, formulas int) {
	SnapshotHerbs.Set(float64(herbs))
	SnapshotFormulas.Set(float64(formulas))
	SnapshotRefreshes.WithLabelValues(OutcomeSuccess).Inc()
}

// ObserveSnapshotFailure counts a failed refresh.
func ObserveSnapshotFailure() {
	SnapshotRefreshes.WithLabelValues(OutcomeFailure).Inc()
}
