package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// WorkerMetrics covers the answer-processing side: whole-pipeline counters
// plus per-stage timing. It implements the pipeline's stage observer.
type WorkerMetrics struct {
	registry *prometheus.Registry

	processTotal    *prometheus.CounterVec
	processDuration *prometheus.HistogramVec
	processInFlight prometheus.Gauge
	stageDuration   *prometheus.HistogramVec
	stageErrors     *prometheus.CounterVec
	queueLag        *prometheus.HistogramVec
	poolQueueDepth  prometheus.GaugeFunc
}

func NewWorkerMetrics(service string, queueDepth func() int) *WorkerMetrics {
	registry := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"service": service}

	processTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "hni",
			Subsystem:   "worker",
			Name:        "answer_process_total",
			Help:        "Total processed answers by outcome.",
			ConstLabels: constLabels,
		},
		[]string{"status"},
	)
	processDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   "hni",
			Subsystem:   "worker",
			Name:        "answer_process_duration_seconds",
			Help:        "Whole-pipeline processing duration per answer.",
			Buckets:     []float64{1, 5, 10, 30, 60, 120, 240, 480},
			ConstLabels: constLabels,
		},
		[]string{"status"},
	)
	processInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "hni",
			Subsystem:   "worker",
			Name:        "answer_process_in_flight",
			Help:        "Number of answers currently in the pipeline.",
			ConstLabels: constLabels,
		},
	)
	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   "hni",
			Subsystem:   "worker",
			Name:        "stage_duration_seconds",
			Help:        "Per-stage duration inside the answer pipeline.",
			Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			ConstLabels: constLabels,
		},
		[]string{"stage"},
	)
	stageErrors := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "hni",
			Subsystem:   "worker",
			Name:        "stage_errors_total",
			Help:        "Total stage failures by stage name.",
			ConstLabels: constLabels,
		},
		[]string{"stage"},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   "hni",
			Subsystem:   "worker",
			Name:        "queue_lag_seconds",
			Help:        "Delay between answer upload and processing start.",
			Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
			ConstLabels: constLabels,
		},
		[]string{},
	)
	poolQueueDepth := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace:   "hni",
			Subsystem:   "worker",
			Name:        "pool_queue_depth",
			Help:        "Buffered jobs waiting for a free worker.",
			ConstLabels: constLabels,
		},
		func() float64 {
			if queueDepth == nil {
				return 0
			}
			return float64(queueDepth())
		},
	)

	registry.MustRegister(processTotal, processDuration, processInFlight,
		stageDuration, stageErrors, queueLag, poolQueueDepth)

	return &WorkerMetrics{
		registry:        registry,
		processTotal:    processTotal,
		processDuration: processDuration,
		processInFlight: processInFlight,
		stageDuration:   stageDuration,
		stageErrors:     stageErrors,
		queueLag:        queueLag,
		poolQueueDepth:  poolQueueDepth,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartAnswer() {
	m.processInFlight.Inc()
}

func (m *WorkerMetrics) FinishAnswer(duration time.Duration, err error) {
	m.processInFlight.Dec()

	status := "success"
	if err != nil {
		status = "contained_failure"
	}
	m.processTotal.WithLabelValues(status).Inc()
	m.processDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// ObserveStage satisfies the pipeline stage observer.
func (m *WorkerMetrics) ObserveStage(stage string, duration time.Duration, err error) {
	m.stageDuration.WithLabelValues(stage).Observe(duration.Seconds())
	if err != nil {
		m.stageErrors.WithLabelValues(stage).Inc()
	}
}

func (m *WorkerMetrics) ObserveQueueLag(lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues().Observe(lag.Seconds())
}
