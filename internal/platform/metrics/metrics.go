package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	DocumentsGenerated prometheus.Counter
	DocumentsSigned    prometheus.Counter
	SignatureConflicts prometheus.Counter
	SignatureRejected  *prometheus.CounterVec
	RenderDuration     *prometheus.HistogramVec
	ArtifactBytes      *prometheus.HistogramVec
	HTTPDuration       *prometheus.HistogramVec
}

// New creates and registers all metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		DocumentsGenerated: f.NewCounter(prometheus.CounterOpts{
			Name: "termo_documents_generated_total",
			Help: "Total number of consent documents generated",
		}),
		DocumentsSigned: f.NewCounter(prometheus.CounterOpts{
			Name: "termo_documents_signed_total",
			Help: "Total number of consent documents signed",
		}),
		SignatureConflicts: f.NewCounter(prometheus.CounterOpts{
			Name: "termo_signature_conflicts_total",
			Help: "Signatures rejected because the document was already signed",
		}),
		SignatureRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "termo_signature_rejected_total",
			Help: "Signatures rejected, by error code",
		}, []string{"code"}),
		RenderDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "termo_document_operation_duration_seconds",
			Help:    "Duration of compose and sign operations",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"operation"}),
		ArtifactBytes: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "termo_artifact_size_bytes",
			Help:    "Size of written artifacts",
			Buckets: prometheus.ExponentialBuckets(4<<10, 2, 8),
		}, []string{"operation"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "termo_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// IncrementDocumentsGenerated records a successful compose.
func (m *Metrics) IncrementDocumentsGenerated() {
	if m != nil {
		m.DocumentsGenerated.Inc()
	}
}

// IncrementDocumentsSigned records a successful signature.
func (m *Metrics) IncrementDocumentsSigned() {
	if m != nil {
		m.DocumentsSigned.Inc()
	}
}

// IncrementSignatureConflicts records a rejected re-sign.
func (m *Metrics) IncrementSignatureConflicts() {
	if m != nil {
		m.SignatureConflicts.Inc()
	}
}

// IncrementSignatureRejected records a failed signature by error code.
func (m *Metrics) IncrementSignatureRejected(code string) {
	if m != nil {
		m.SignatureRejected.WithLabelValues(code).Inc()
	}
}

// ObserveOperation records the duration of operation since start.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	if m != nil {
		m.RenderDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

// ObserveArtifact records the size of an artifact written by operation.
func (m *Metrics) ObserveArtifact(operation string, size int) {
	if m != nil {
		m.ArtifactBytes.WithLabelValues(operation).Observe(float64(size))
	}
}

// ObserveHTTP records one request.
func (m *Metrics) ObserveHTTP(method, route, status string, start time.Time) {
	if m != nil {
		m.HTTPDuration.WithLabelValues(method, route, status).Observe(time.Since(start).Seconds())
	}
}
