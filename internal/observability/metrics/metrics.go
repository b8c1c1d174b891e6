// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ai_travel_planner"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Generation metrics
	GenerationsTotal   *prometheus.CounterVec
	GenerationsActive  prometheus.Gauge
	GenerationDuration prometheus.Histogram
	GenerationChars    prometheus.Histogram
	FramesReceived     *prometheus.CounterVec

	// Transcription metrics
	TranscriptionsTotal  *prometheus.CounterVec
	TranscriptionStep    *prometheus.HistogramVec
	UploadBytes          prometheus.Counter
	CleanupFailures      prometheus.Counter
	EmptyTranscriptTotal prometheus.Counter

	// Event publish metrics
	EventPublishTotal   *prometheus.CounterVec
	EventPublishErrors  *prometheus.CounterVec
	EventPublishLatency *prometheus.HistogramVec

	// gRPC metrics
	GRPCCallsTotal *prometheus.CounterVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		GenerationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Total number of itinerary generations by outcome",
		}, []string{"outcome", "event"}),
		GenerationsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "generations_active",
			Help:      "Number of open generation streams",
		}),
		GenerationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Duration of generation streams in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}),
		GenerationChars: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_chars",
			Help:      "Size of generated itineraries in characters",
			Buckets:   prometheus.ExponentialBuckets(64, 2, 10),
		}),
		FramesReceived: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_frames_total",
			Help:      "Total number of inbound stream frames by kind",
		}, []string{"kind"}),

		TranscriptionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcriptions_total",
			Help:      "Total number of audio transcription jobs by outcome",
		}, []string{"provider", "outcome"}),
		TranscriptionStep: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transcription_step_seconds",
			Help:      "Latency of audio pipeline steps in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"step"}),
		UploadBytes: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_bytes_total",
			Help:      "Total raw audio bytes accepted",
		}),
		CleanupFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cleanup_failures_total",
			Help:      "Temporary files that could not be removed",
		}),
		EmptyTranscriptTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "empty_transcripts_total",
			Help:      "Recognitions that exited cleanly with no text",
		}),

		EventPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_publish_total",
			Help:      "Total number of outcome events published",
		}, []string{"topic", "event_type"}),
		EventPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_publish_errors_total",
			Help:      "Total number of outcome event publish errors",
		}, []string{"topic", "event_type"}),
		EventPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "event_publish_latency_seconds",
			Help:      "Outcome event publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),

		GRPCCallsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grpc_calls_total",
			Help:      "Total number of gRPC calls by method and code",
		}, []string{"method", "code"}),
	}
}

// RecordGenerationStart records a new generation stream opening.
func (m *Metrics) RecordGenerationStart() {
	m.GenerationsActive.Inc()
}

// RecordGenerationEnd records the single outcome of a generation stream.
func (m *Metrics) RecordGenerationEnd(outcome, event string, chars int, durationSeconds float64) {
	m.GenerationsActive.Dec()
	m.GenerationDuration.Observe(durationSeconds)
	m.GenerationsTotal.WithLabelValues(outcome, event).Inc()
	if chars > 0 {
		m.GenerationChars.Observe(float64(chars))
	}
}

// RecordFrame records an inbound frame of the given kind.
func (m *Metrics) RecordFrame(kind string) {
	m.FramesReceived.WithLabelValues(kind).Inc()
}

// RecordTranscription records the outcome of an audio job.
func (m *Metrics) RecordTranscription(provider, outcome string) {
	m.TranscriptionsTotal.WithLabelValues(provider, outcome).Inc()
}

// RecordStep records the latency of one pipeline step.
func (m *Metrics) RecordStep(step string, seconds float64) {
	m.TranscriptionStep.WithLabelValues(step).Observe(seconds)
}

// RecordUpload records accepted upload bytes.
func (m *Metrics) RecordUpload(bytes int64) {
	m.UploadBytes.Add(float64(bytes))
}

// RecordCleanupFailure records a temp file that could not be removed.
func (m *Metrics) RecordCleanupFailure() {
	m.CleanupFailures.Inc()
}

// RecordEmptyTranscript records a recognition that produced no text.
func (m *Metrics) RecordEmptyTranscript() {
	m.EmptyTranscriptTotal.Inc()
}

// RecordEventPublish records an outcome event publish attempt.
func (m *Metrics) RecordEventPublish(topic, eventType string, err error, latencySeconds float64) {
	m.EventPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.EventPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.EventPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}

// RecordGRPCCall records a completed gRPC call.
func (m *Metrics) RecordGRPCCall(method, code string) {
	m.GRPCCallsTotal.WithLabelValues(method, code).Inc()
}
