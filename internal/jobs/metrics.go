// Package jobmetrics instruments background jobs and the receivables scan.
package jobmetrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for background jobs.
type Metrics struct {
	runs      *prometheus.CounterVec
	failures  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	overdue   prometheus.Gauge
	amount    prometheus.Gauge
	upcoming  prometheus.Gauge
	owners    prometheus.Gauge
	reminders prometheus.Counter
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the job metrics against the provided registerer. When the
// registerer is nil the default Prometheus registerer is used.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		defaultOnce.Do(func() {
			defaultMetrics = buildMetrics(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return buildMetrics(registerer)
}

// Tracker provides lifecycle instrumentation helpers for a single job run.
type Tracker struct {
	metrics *Metrics
	job     string
	start   time.Time
}

// Track spawns a tracker for the given job name.
func (m *Metrics) Track(job string) *Tracker {
	if m == nil {
		return &Tracker{job: job, start: time.Now()}
	}
	return &Tracker{metrics: m, job: job, start: time.Now()}
}

// End finalises the tracker, recording duration, success/failure counts and
// returning the provided error untouched.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil || t.job == "" {
		return err
	}
	status := "success"
	if err != nil {
		status = "failure"
		t.metrics.failures.WithLabelValues(t.job).Inc()
	}
	t.metrics.runs.WithLabelValues(t.job, status).Inc()
	t.metrics.duration.WithLabelValues(t.job).Observe(time.Since(t.start).Seconds())
	return err
}

// ReceivablesScan is the outcome of one scan over every owner.
type ReceivablesScan struct {
	Owners        int
	Overdue       int
	OverdueAmount float64
	Upcoming      int
}

// ObserveScan publishes the totals of a completed receivables scan.
func (m *Metrics) ObserveScan(s ReceivablesScan) {
	if m == nil {
		return
	}
	m.owners.Set(float64(s.Owners))
	m.overdue.Set(float64(s.Overdue))
	m.amount.Set(s.OverdueAmount)
	m.upcoming.Set(float64(s.Upcoming))
}

// AddReminders counts reminder tasks enqueued by a scan.
func (m *Metrics) AddReminders(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.reminders.Add(float64(n))
}

func buildMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bizledger_jobs_total",
			Help: "Total job executions partitioned by job name and status.",
		}, []string{"job", "status"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bizledger_jobs_failures_total",
			Help: "Total failures observed for background jobs.",
		}, []string{"job"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bizledger_job_duration_seconds",
			Help:    "Duration in seconds of background job executions.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
		overdue: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bizledger_receivables_overdue_parcels",
			Help: "Open parcels past their due date at the last scan.",
		}),
		amount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bizledger_receivables_overdue_amount",
			Help: "Sum of overdue parcel values at the last scan.",
		}),
		upcoming: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bizledger_receivables_upcoming_parcels",
			Help: "Open parcels due within the alert window at the last scan.",
		}),
		owners: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bizledger_receivables_scanned_owners",
			Help: "Owners covered by the last receivables scan.",
		}),
		reminders: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bizledger_receivables_reminders_total",
			Help: "Overdue reminder tasks enqueued.",
		}),
	}
	registerer.MustRegister(m.runs, m.failures, m.duration, m.overdue, m.amount, m.upcoming, m.owners, m.reminders)
	return m
}
