package engine

import (
	"strconv"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	inferRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inferd",
			Subsystem: "engine",
			Name:      "infer_requests_total",
			Help:      "Total inference requests by terminal outcome",
		},
		[]string{"model", "version", "outcome"},
	)

	inferDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "inferd",
			Subsystem: "engine",
			Name:      "infer_duration_seconds",
			Help:      "End-to-end duration of inference requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"model", "version"},
	)

	inferBatchElements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inferd",
			Subsystem: "engine",
			Name:      "infer_batch_elements_total",
			Help:      "Total batch elements processed",
		},
		[]string{"model", "version"},
	)
)

func init() {
	prometheus.MustRegister(inferRequestsTotal, inferDurationSeconds, inferBatchElements)
}

// MetricReporter records per-request observations under fixed model/version
// labels. One reporter is owned by each backend.
type MetricReporter struct {
	model   string
	version string
}

func newMetricReporter(model string, version int64) *MetricReporter {
	return &MetricReporter{model: model, version: strconv.FormatInt(version, 10)}
}

func (r *MetricReporter) report(dur time.Duration, batch uint32, failed bool) {
	outcome := "success"
	if failed {
		outcome = "failure"
	}
	inferRequestsTotal.WithLabelValues(r.model, r.version, outcome).Inc()
	inferDurationSeconds.WithLabelValues(r.model, r.version).Observe(dur.Seconds())
	if batch > 0 {
		inferBatchElements.WithLabelValues(r.model, r.version).Add(float64(batch))
	}
}

// InferStats is the per-request statistics and timer context. It starts
// marked failed; the mark is cleared only when the request completes, so any
// early abandonment is accounted as a failure. Report fires exactly once no
// matter how many paths reach it.
type InferStats struct {
	requestID        string
	model            string
	requestedVersion int64
	start            time.Time

	mu        sync.Mutex
	failed    bool
	batchSize uint32
	reporter  *MetricReporter

	reportOnce sync.Once
}

// NewInferStats starts the request timer and pre-marks the context failed.
func NewInferStats(model string, requestedVersion int64) *InferStats {
	return &InferStats{
		requestID:        ulid.Make().String(),
		model:            model,
		requestedVersion: requestedVersion,
		start:            time.Now(),
		failed:           true,
	}
}

// RequestID returns the ULID assigned to this request.
func (s *InferStats) RequestID() string { return s.requestID }

// SetMetricReporter attaches the backend's reporter sink.
func (s *InferStats) SetMetricReporter(r *MetricReporter) {
	s.mu.Lock()
	s.reporter = r
	s.mu.Unlock()
}

// SetBatchSize records the request's batch size as stated by the header.
func (s *InferStats) SetBatchSize(n uint32) {
	s.mu.Lock()
	s.batchSize = n
	s.mu.Unlock()
}

// SetFailed sets or clears the failure mark.
func (s *InferStats) SetFailed(failed bool) {
	s.mu.Lock()
	s.failed = failed
	s.mu.Unlock()
}

// Report stops the timer and flushes the observation to the reporter, if one
// was attached. Only the first call has any effect.
func (s *InferStats) Report() {
	s.reportOnce.Do(func() {
		dur := time.Since(s.start)
		s.mu.Lock()
		reporter, batch, failed := s.reporter, s.batchSize, s.failed
		s.mu.Unlock()
		if reporter != nil {
			reporter.report(dur, batch, failed)
		}
	})
}
