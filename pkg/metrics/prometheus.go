// Package metrics provides Prometheus metrics for the PATABOL match service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Session lifecycle
	sessionsCreated prometheus.Counter
	sessionsEnded   prometheus.Counter
	sessionsActive  prometheus.Gauge
	commands        *prometheus.CounterVec
	duplicates      prometheus.Counter

	// Matches
	matchesScheduled  prometheus.Counter
	matchesSimulated  prometheus.Counter
	matchesFailed     *prometheus.CounterVec
	simulationLatency prometheus.Histogram
	goalsPerMatch     prometheus.Histogram
	mvpScore          prometheus.Histogram
	feedDelivered     *prometheus.CounterVec

	// Queue and workers
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge
	queueRejected *prometheus.CounterVec
	workersBusy   prometheus.Gauge
	workerCount   prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	wsWatchers          prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // avoid default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "patabol",
		subsystem:        "match",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	})
}

func (m *Manager) initializeMetrics() {
	m.sessionsCreated = m.counter("sessions_created_total", "Sessions created")
	m.sessionsEnded = m.counter("sessions_ended_total", "Sessions discarded after the last human left")
	m.sessionsActive = m.gauge("sessions_active", "Sessions currently held in the store")
	m.commands = m.counterVec("commands_total", "Commands handled by name and outcome", "command", "outcome")
	m.duplicates = m.counter("duplicate_messages_total", "Inbound messages dropped as redeliveries")

	m.matchesScheduled = m.counter("matches_scheduled_total", "Matches handed to the worker pool")
	m.matchesSimulated = m.counter("matches_simulated_total", "Matches simulated to completion")
	m.matchesFailed = m.counterVec("matches_failed_total", "Matches aborted before simulation", "reason")
	m.simulationLatency = m.histogram("simulation_duration_milliseconds", "Engine run time in milliseconds", m.histogramBuckets)
	m.goalsPerMatch = m.histogram("goals_per_match", "Total goals scored in a match", []float64{0, 1, 2, 3, 4, 5, 6, 8, 10, 15})
	m.mvpScore = m.histogram("mvp_score", "Weighted contribution score of the most valuable player", []float64{1, 2, 4, 6, 8, 10, 15, 20, 30})
	m.feedDelivered = m.counterVec("feed_items_total", "Feed items delivered by notifier sink", "sink")

	m.queueSize = m.gauge("queue_size", "Match jobs waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Match queue capacity")
	m.queueRejected = m.counterVec("queue_rejected_total", "Match jobs rejected by the queue", "reason")
	m.workersBusy = m.gauge("workers_busy", "Workers currently running a match")
	m.workerCount = m.gauge("worker_count", "Configured match workers")

	m.httpRequests = promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "http", Name: "requests_total",
		Help: "HTTP requests by endpoint, method and status", ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: "http", Name: "request_duration_milliseconds",
		Help: "HTTP request duration in milliseconds", ConstLabels: m.constLabels, Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method"})
	m.wsWatchers = promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "http", Name: "feed_watchers",
		Help: "Open WebSocket match feed connections", ConstLabels: m.constLabels,
	})
}

// RecordSessionCreated counts a new session and bumps the active gauge.
func RecordSessionCreated() {
	globalManager.sessionsCreated.Inc()
	globalManager.sessionsActive.Inc()
}

// RecordSessionEnded counts a discarded session.
func RecordSessionEnded() {
	globalManager.sessionsEnded.Inc()
	globalManager.sessionsActive.Dec()
}

// UpdateSessionsActive sets the active sessions gauge.
func UpdateSessionsActive(n int) { globalManager.sessionsActive.Set(float64(n)) }

// RecordCommand counts one handled command. outcome is "ok" or an error kind.
func RecordCommand(command, outcome string) {
	globalManager.commands.WithLabelValues(command, outcome).Inc()
}

// RecordDuplicateMessage counts an inbound redelivery.
func RecordDuplicateMessage() { globalManager.duplicates.Inc() }

// RecordMatchScheduled counts a match handed to the queue.
func RecordMatchScheduled() { globalManager.matchesScheduled.Inc() }

// RecordMatchFailed counts a match that never ran.
func RecordMatchFailed(reason string) { globalManager.matchesFailed.WithLabelValues(reason).Inc() }

// RecordMatchSimulated records the outcome of one engine run.
func RecordMatchSimulated(durationMs float64, goals int, mvpScore int) {
	globalManager.matchesSimulated.Inc()
	globalManager.simulationLatency.Observe(durationMs)
	globalManager.goalsPerMatch.Observe(float64(goals))
	globalManager.mvpScore.Observe(float64(mvpScore))
}

// RecordFeedDelivered counts a feed item handed to a sink.
func RecordFeedDelivered(sink string) { globalManager.feedDelivered.WithLabelValues(sink).Inc() }

// UpdateQueueSize sets the queued jobs gauge.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the queue capacity gauge.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// RecordQueueRejected counts a rejected enqueue.
func RecordQueueRejected(reason string) { globalManager.queueRejected.WithLabelValues(reason).Inc() }

// WorkerBusy moves the busy workers gauge by delta.
func WorkerBusy(delta int) { globalManager.workersBusy.Add(float64(delta)) }

// UpdateWorkerCount sets the configured workers gauge.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method).Observe(durationMs)
}

// FeedWatchers moves the open WebSocket watchers gauge by delta.
func FeedWatchers(delta int) { globalManager.wsWatchers.Add(float64(delta)) }

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
