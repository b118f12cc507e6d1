// Package metrics exposes Prometheus collectors for the task lifecycle, the
// resolution cache and the DNS responder.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing,
// which keeps library code free of nil checks.
type Metrics struct {
	submitAttempts *prometheus.CounterVec
	pollRounds     *prometheus.CounterVec
	invocations    *prometheus.HistogramVec
	cacheLookups   *prometheus.CounterVec
	dnsQueries     *prometheus.CounterVec
}

// MustNewMetrics registers the collectors with reg under namespace.
// Collectors already registered by an earlier call are reused.
func MustNewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		submitAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tasks",
			Name:      "submit_attempts_total",
			Help:      "Task submission attempts by outcome.",
		}, []string{"outcome"}),
		pollRounds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tasks",
			Name:      "poll_rounds_total",
			Help:      "Task status queries issued while waiting for confirmation.",
		}, []string{"outcome"}),
		invocations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "tasks",
			Name:      "invoke_duration_seconds",
			Help:      "Duration of a full submit, confirm and decode cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"function", "outcome"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Resolution cache lookups by result.",
		}, []string{"result"}),
		dnsQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dns",
			Name:      "queries_total",
			Help:      "DNS queries answered by query type and response code.",
		}, []string{"qtype", "rcode"}),
	}

	m.submitAttempts = register(reg, m.submitAttempts)
	m.pollRounds = register(reg, m.pollRounds)
	m.invocations = register(reg, m.invocations)
	m.cacheLookups = register(reg, m.cacheLookups)
	m.dnsQueries = register(reg, m.dnsQueries)
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, collector C) C {
	if err := reg.Register(collector); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return collector
}

func (m *Metrics) SubmitAttempt(outcome string) {
	if m == nil {
		return
	}
	m.submitAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) PollRound(outcome string) {
	if m == nil {
		return
	}
	m.pollRounds.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Invocation(function, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.invocations.WithLabelValues(function, outcome).Observe(took.Seconds())
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) DNSQuery(qtype, rcode string) {
	if m == nil {
		return
	}
	m.dnsQueries.WithLabelValues(qtype, rcode).Inc()
}
