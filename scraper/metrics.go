package scraper

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for a snapshot run.
type Metrics struct {
	Registry        *prometheus.Registry
	RequestsTotal   *prometheus.CounterVec
	RequestDuration prometheus.Histogram
	ErrorsTotal     *prometheus.CounterVec
	ImageFound      prometheus.Gauge
	WeekNumber      prometheus.Gauge
	LastSuccess     prometheus.Gauge
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cfm_requests_total",
			Help: "Total manual page requests by HTTP status class.",
		},
		[]string{"status_class"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cfm_request_duration_seconds",
			Help:    "HTTP request latency for manual page requests.",
			Buckets: prometheus.DefBuckets,
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cfm_errors_total",
			Help: "Total number of fetch errors by type.",
		},
		[]string{"error_type"},
	)
	imageFound := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cfm_image_found",
			Help: "1 when the last snapshot carried an image URL, 0 otherwise.",
		},
	)
	weekNumber := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cfm_week_number",
			Help: "Manual week of the last run.",
		},
	)
	lastSuccess := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cfm_last_success_timestamp_seconds",
			Help: "Unix time of the last snapshot written.",
		},
	)

	registry.MustRegister(requests, requestDuration, errorsTotal, imageFound, weekNumber, lastSuccess)

	return &Metrics{
		Registry:        registry,
		RequestsTotal:   requests,
		RequestDuration: requestDuration,
		ErrorsTotal:     errorsTotal,
		ImageFound:      imageFound,
		WeekNumber:      weekNumber,
		LastSuccess:     lastSuccess,
	}
}

// IncRequest counts a completed request under its status class ("2xx", "4xx", ...).
func (m *Metrics) IncRequest(statusCode int) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(statusClass(statusCode)).Inc()
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// SetWeek records the week being scraped.
func (m *Metrics) SetWeek(week int) {
	if m == nil {
		return
	}
	m.WeekNumber.Set(float64(week))
}

// RecordSnapshot marks a written snapshot.
func (m *Metrics) RecordSnapshot(at time.Time, hasImage bool) {
	if m == nil {
		return
	}
	if hasImage {
		m.ImageFound.Set(1)
	} else {
		m.ImageFound.Set(0)
	}
	m.LastSuccess.Set(float64(at.Unix()))
}

// WriteTextfile dumps the registry in the text exposition format, for the
// node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

func statusClass(statusCode int) string {
	if statusCode <= 0 {
		return "none"
	}
	return strconv.Itoa(statusCode/100) + "xx"
}
