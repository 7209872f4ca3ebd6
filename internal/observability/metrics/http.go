package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPServerMetrics instruments the candidate-facing API.
type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	answersSubmittedTotal *prometheus.CounterVec
	uploadBytes           prometheus.Histogram
	finalizeTotal         *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"service": service}

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "hni",
			Subsystem:   "http",
			Name:        "requests_total",
			Help:        "Total HTTP requests processed.",
			ConstLabels: constLabels,
		},
		[]string{"method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   "hni",
			Subsystem:   "http",
			Name:        "request_duration_seconds",
			Help:        "HTTP request duration in seconds.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: constLabels,
		},
		[]string{"method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "hni",
			Subsystem:   "http",
			Name:        "in_flight_requests",
			Help:        "Number of in-flight HTTP requests.",
			ConstLabels: constLabels,
		},
	)
	answersSubmittedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "hni",
			Subsystem:   "interview",
			Name:        "answers_submitted_total",
			Help:        "Total accepted answer uploads by outcome.",
			ConstLabels: constLabels,
		},
		[]string{"outcome"},
	)
	uploadBytes := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   "hni",
			Subsystem:   "interview",
			Name:        "upload_bytes",
			Help:        "Size distribution of accepted answer videos.",
			Buckets:     prometheus.ExponentialBuckets(256*1024, 4, 8),
			ConstLabels: constLabels,
		},
	)
	finalizeTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "hni",
			Subsystem:   "interview",
			Name:        "finalize_total",
			Help:        "Total session finalizations by outcome.",
			ConstLabels: constLabels,
		},
		[]string{"outcome"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		answersSubmittedTotal,
		uploadBytes,
		finalizeTotal,
	)

	return &HTTPServerMetrics{
		registry:              registry,
		requestTotal:          requestTotal,
		requestDuration:       requestDuration,
		requestInFlight:       requestInFlight,
		answersSubmittedTotal: answersSubmittedTotal,
		uploadBytes:           uploadBytes,
		finalizeTotal:         finalizeTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath collapses per-session URLs into one label value so the
// cardinality stays flat.
func normalizePath(path string) string {
	if strings.HasPrefix(path, "/v1/sessions/") {
		rest := strings.TrimPrefix(path, "/v1/sessions/")
		if idx := strings.IndexByte(rest, '/'); idx >= 0 {
			return "/v1/sessions/{session_id}" + rest[idx:]
		}
		return "/v1/sessions/{session_id}"
	}
	return path
}

func (m *HTTPServerMetrics) RecordAnswerSubmission(outcome string, sizeBytes int64) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.answersSubmittedTotal.WithLabelValues(outcome).Inc()
	if outcome == "accepted" && sizeBytes > 0 {
		m.uploadBytes.Observe(float64(sizeBytes))
	}
}

func (m *HTTPServerMetrics) RecordFinalize(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.finalizeTotal.WithLabelValues(outcome).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}
