// Package metrics provides Prometheus metrics for the tracker pipeline.
//
// The pipeline is a batch job, so metrics are pushed to a Pushgateway when
// the application stops instead of being scraped.
package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

const defaultJob = "bingo_tracker"

type Manager struct {
	namespace string
	job       string
	registry  *prometheus.Registry

	apiRequests       *prometheus.CounterVec
	snapshotsInserted *prometheus.CounterVec
	fetchFailures     prometheus.Counter
	reportRows        *prometheus.GaugeVec
	buildDuration     *prometheus.HistogramVec
	publishErrors     *prometheus.CounterVec
	lastSuccess       *prometheus.GaugeVec
}

type Option func(*Manager)

func WithNamespace(namespace string) Option {
	return func(m *Manager) { m.namespace = namespace }
}

func WithJob(job string) Option {
	return func(m *Manager) { m.job = job }
}

// WithRegistry registers every metric on r instead of a fresh registry.
func WithRegistry(r *prometheus.Registry) Option {
	return func(m *Manager) { m.registry = r }
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "bingo",
		job:       defaultJob,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.apiRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Stats API requests by endpoint and status code",
	}, []string{"endpoint", "status"})

	m.snapshotsInserted = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "fetch",
		Name:      "snapshots_inserted_total",
		Help:      "Snapshots appended to the store by category",
	}, []string{"category"})

	m.fetchFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "fetch",
		Name:      "player_failures_total",
		Help:      "Participants skipped during a fetch run",
	})

	m.reportRows = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "report",
		Name:      "rows",
		Help:      "Participant rows in the last built report",
	}, []string{"report"})

	m.buildDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "report",
		Name:      "build_duration_seconds",
		Help:      "Time spent building a report from stored snapshots",
		Buckets:   prometheus.DefBuckets,
	}, []string{"report"})

	m.publishErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "report",
		Name:      "publish_errors_total",
		Help:      "Failed report publications",
	}, []string{"report"})

	m.lastSuccess = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "pipeline",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last successful step",
	}, []string{"step"})
}

func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Manager) RecordAPIRequest(endpoint string, status int) {
	m.apiRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
}

func (m *Manager) RecordSnapshots(category string, n int) {
	m.snapshotsInserted.WithLabelValues(category).Add(float64(n))
}

func (m *Manager) RecordFetchFailure() {
	m.fetchFailures.Inc()
}

func (m *Manager) RecordReport(report string, rows int, took time.Duration) {
	m.reportRows.WithLabelValues(report).Set(float64(rows))
	m.buildDuration.WithLabelValues(report).Observe(took.Seconds())
}

func (m *Manager) RecordPublishError(report string) {
	m.publishErrors.WithLabelValues(report).Inc()
}

func (m *Manager) RecordSuccess(step string, at time.Time) {
	m.lastSuccess.WithLabelValues(step).Set(float64(at.Unix()))
}

// Push sends every collected metric to the Pushgateway at url, replacing
// the previous push of the same job.
func (m *Manager) Push(ctx context.Context, url string) error {
	return push.New(url, m.job).Gatherer(m.registry).PushContext(ctx)
}
