// Package observability регистрирует метрики Prometheus движка портала.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	sourceFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coach_portal",
		Subsystem: "activity",
		Name:      "source_failures_total",
		Help:      "Number of activity sources skipped because they could not be read.",
	}, []string{"source"})
	aggregations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coach_portal",
		Subsystem: "activity",
		Name:      "aggregations_total",
		Help:      "Number of activity calendars served, by cache outcome.",
	}, []string{"cache"})
	statusRecalculations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coach_portal",
		Subsystem: "status",
		Name:      "recalculations_total",
		Help:      "Number of subscription status recalculations, by resulting status.",
	}, []string{"status"})
	comparisons = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coach_portal",
		Subsystem: "records",
		Name:      "comparisons_total",
		Help:      "Number of personal record comparisons, by kind and outcome.",
	}, []string{"kind", "outcome"})
	peersSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "coach_portal",
		Subsystem: "records",
		Name:      "peers_skipped_total",
		Help:      "Number of peer record documents skipped during comparison.",
	})
)

func init() {
	prometheus.MustRegister(sourceFailures, aggregations, statusRecalculations, comparisons, peersSkipped)
}

// RecordSourceFailure отмечает пропущенный источник активности.
func RecordSourceFailure(source string) {
	sourceFailures.WithLabelValues(source).Inc()
}

// RecordAggregation отмечает выдачу календаря из кэша или после агрегации.
func RecordAggregation(cacheHit bool) {
	outcome := "miss"
	if cacheHit {
		outcome = "hit"
	}
	aggregations.WithLabelValues(outcome).Inc()
}

// RecordStatus отмечает пересчёт статуса.
func RecordStatus(status string) {
	statusRecalculations.WithLabelValues(status).Inc()
}

// RecordComparison отмечает сравнение рекорда. outcome: matched, clear, skipped.
func RecordComparison(kind, outcome string) {
	comparisons.WithLabelValues(kind, outcome).Inc()
}

// RecordPeerSkipped отмечает пропущенного при сравнении клиента.
func RecordPeerSkipped() {
	peersSkipped.Inc()
}
