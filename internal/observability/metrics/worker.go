package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ProcessingMetrics struct {
	registry *prometheus.Registry

	processTotal    *prometheus.CounterVec
	processDuration *prometheus.HistogramVec
	processInFlight prometheus.Gauge
}

func NewProcessingMetrics(service string) *ProcessingMetrics {
	registry := prometheus.NewRegistry()

	processTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "doclab",
			Subsystem: "processing",
			Name:      "documents_total",
			Help:      "Total processed documents by outcome.",
		},
		[]string{"service", "outcome"},
	)
	processDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "doclab",
			Subsystem: "processing",
			Name:      "duration_seconds",
			Help:      "Document processing duration in seconds by outcome.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "outcome"},
	)
	processInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "doclab",
			Subsystem: "processing",
			Name:      "in_flight",
			Help:      "Number of documents currently being processed.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(processTotal, processDuration, processInFlight)

	return &ProcessingMetrics{
		registry:        registry,
		processTotal:    processTotal,
		processDuration: processDuration,
		processInFlight: processInFlight,
	}
}

func (m *ProcessingMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *ProcessingMetrics) Start() {
	m.processInFlight.Inc()
}

func (m *ProcessingMetrics) Finish(service string, duration time.Duration, err error) {
	m.processInFlight.Dec()

	outcome := "success"
	if err != nil {
		outcome = "error"
	}

	m.processTotal.WithLabelValues(service, outcome).Inc()
	m.processDuration.WithLabelValues(service, outcome).Observe(duration.Seconds())
}
