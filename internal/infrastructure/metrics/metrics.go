package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "meeting_taskflow"

// Metrics groups the collectors exported on /metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	meetingsSubmitted prometheus.Counter
	attempts          *prometheus.CounterVec
	attemptDuration   prometheus.Histogram
	draftsExtracted   prometheus.Counter
	trackerCalls      *prometheus.CounterVec
	queueDepth        prometheus.Gauge
}

// New registers the collectors on reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		meetingsSubmitted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "meetings_submitted_total",
			Help:      "Meetings accepted for processing.",
		}),
		attempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "meeting_attempts_total",
			Help:      "Finished pipeline attempts by outcome.",
		}, []string{"outcome"}),
		attemptDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "meeting_attempt_duration_seconds",
			Help:      "Wall time of one pipeline attempt.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		draftsExtracted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drafts_extracted_total",
			Help:      "Task drafts returned by extraction.",
		}),
		trackerCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tracker_requests_total",
			Help:      "Issue tracker calls by operation and result.",
		}, []string{"operation", "result"}),
		queueDepth: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_queue_depth",
			Help:      "Attempts waiting for a worker.",
		}),
	}
}

// MeetingSubmitted counts one accepted submission
func (m *Metrics) MeetingSubmitted() {
	if m == nil {
		return
	}
	m.meetingsSubmitted.Inc()
}

// AttemptFinished records the outcome and duration of an attempt
func (m *Metrics) AttemptFinished(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(outcome).Inc()
	m.attemptDuration.Observe(elapsed.Seconds())
}

// DraftsExtracted counts extracted drafts
func (m *Metrics) DraftsExtracted(n int) {
	if m == nil {
		return
	}
	m.draftsExtracted.Add(float64(n))
}

// ObserveTrackerCall counts one tracker call by operation and result ("ok", "unauthorized", "error")
func (m *Metrics) ObserveTrackerCall(operation, result string) {
	if m == nil {
		return
	}
	m.trackerCalls.WithLabelValues(operation, result).Inc()
}

// SetQueueDepth reports the number of queued attempts
func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}
