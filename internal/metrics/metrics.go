// ============================================================================
// Metrics - Prometheus instrumentation
// ============================================================================
//
// Package: internal/metrics
// File: metrics.go
//
// Metric families:
//
//   1. Counters:
//      - basic_background_jobs_started_total: background jobs accepted
//      - basic_background_jobs_completed_total: jobs that emitted Complete
//      - basic_background_jobs_abandoned_total: jobs stopped by a disconnect
//      - basic_background_snapshots_emitted_total: snapshots handed to a stream
//      - basic_hello_requests_total
//      - basic_talk_messages_total
//
//   2. Gauges:
//      - basic_background_jobs_active: jobs currently streaming
//      - basic_background_workers_in_flight: simulated calls not yet returned
//
//   3. Histograms:
//      - basic_background_worker_latency_seconds
//      - basic_background_job_duration_seconds
//
// Example queries:
//
//   # abandon ratio
//   rate(basic_background_jobs_abandoned_total[5m]) / rate(basic_background_jobs_started_total[5m])
//
//   # p95 simulated call latency
//   histogram_quantile(0.95, basic_background_worker_latency_seconds_bucket)
//
// Exposed on /metrics by the ops HTTP server.
//
// A nil *Collector is valid and records nothing.
//
// ============================================================================

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the service's Prometheus metrics.
type Collector struct {
	jobsStarted      prometheus.Counter
	jobsCompleted    prometheus.Counter
	jobsAbandoned    prometheus.Counter
	snapshotsEmitted prometheus.Counter
	helloRequests    prometheus.Counter
	talkMessages     prometheus.Counter

	jobsActive      prometheus.Gauge
	workersInFlight prometheus.Gauge

	workerLatency prometheus.Histogram
	jobDuration   prometheus.Histogram
}

// NewCollector creates the metrics and registers them with
// prometheus.DefaultRegisterer.
func NewCollector() *Collector {
	c := &Collector{
		jobsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "basic_background_jobs_started_total",
			Help: "Total number of background jobs accepted",
		}),
		jobsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "basic_background_jobs_completed_total",
			Help: "Total number of background jobs that emitted their final snapshot",
		}),
		jobsAbandoned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "basic_background_jobs_abandoned_total",
			Help: "Total number of background jobs stopped early by a consumer disconnect",
		}),
		snapshotsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "basic_background_snapshots_emitted_total",
			Help: "Total number of snapshots handed to outbound streams",
		}),
		helloRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "basic_hello_requests_total",
			Help: "Total number of Hello calls",
		}),
		talkMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "basic_talk_messages_total",
			Help: "Total number of Talk messages answered",
		}),
		jobsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "basic_background_jobs_active",
			Help: "Current number of background jobs streaming",
		}),
		workersInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "basic_background_workers_in_flight",
			Help: "Current number of simulated service calls in flight",
		}),
		workerLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "basic_background_worker_latency_seconds",
			Help:    "Simulated service call latency in seconds",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 1.5, 2, 2.5, 3, 5},
		}),
		jobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "basic_background_job_duration_seconds",
			Help:    "Time from job start to final snapshot in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}

	prometheus.MustRegister(c.jobsStarted)
	prometheus.MustRegister(c.jobsCompleted)
	prometheus.MustRegister(c.jobsAbandoned)
	prometheus.MustRegister(c.snapshotsEmitted)
	prometheus.MustRegister(c.helloRequests)
	prometheus.MustRegister(c.talkMessages)
	prometheus.MustRegister(c.jobsActive)
	prometheus.MustRegister(c.workersInFlight)
	prometheus.MustRegister(c.workerLatency)
	prometheus.MustRegister(c.jobDuration)

	return c
}

// JobStarted records an accepted job.
func (c *Collector) JobStarted() {
	if c == nil {
		return
	}
	c.jobsStarted.Inc()
	c.jobsActive.Inc()
}

// JobCompleted records a job that emitted its final snapshot.
func (c *Collector) JobCompleted(d time.Duration) {
	if c == nil {
		return
	}
	c.jobsCompleted.Inc()
	c.jobsActive.Dec()
	c.jobDuration.Observe(d.Seconds())
}

// JobAbandoned records a job stopped by a disconnect.
func (c *Collector) JobAbandoned() {
	if c == nil {
		return
	}
	c.jobsAbandoned.Inc()
	c.jobsActive.Dec()
}

// SnapshotEmitted records one snapshot handed to a stream.
func (c *Collector) SnapshotEmitted() {
	if c == nil {
		return
	}
	c.snapshotsEmitted.Inc()
}

// WorkerStarted records a simulated call starting.
func (c *Collector) WorkerStarted() {
	if c == nil {
		return
	}
	c.workersInFlight.Inc()
}

// WorkerFinished records a simulated call returning after d.
func (c *Collector) WorkerFinished(d time.Duration) {
	if c == nil {
		return
	}
	c.workersInFlight.Dec()
	c.workerLatency.Observe(d.Seconds())
}

// HelloServed records one Hello call.
func (c *Collector) HelloServed() {
	if c == nil {
		return
	}
	c.helloRequests.Inc()
}

// TalkAnswered records one Talk reply.
func (c *Collector) TalkAnswered() {
	if c == nil {
		return
	}
	c.talkMessages.Inc()
}
