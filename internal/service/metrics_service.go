package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/attendance-api/internal/models"
)

// Photo upload outcomes used as metric labels.
const (
	PhotoUploadStored   = "stored"
	PhotoUploadRejected = "rejected"
	PhotoUploadFailed   = "failed"
)

// MetricsService owns the Prometheus registry. A nil *MetricsService is valid
// and records nothing.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	marked          *prometheus.CounterVec
	markConflicts   prometheus.Counter
	photoUploads    *prometheus.CounterVec
	exportRows      *prometheus.HistogramVec
}

// NewMetricsService registers HTTP and attendance collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	marked := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_marked_total",
		Help: "Attendance records created, by status",
	}, []string{"status"})

	markConflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "attendance_mark_conflicts_total",
		Help: "Mark attempts rejected because the student was already marked that day",
	})

	photoUploads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "student_photo_uploads_total",
		Help: "Student photo uploads, by result",
	}, []string{"result"})

	exportRows := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "attendance_export_rows",
		Help:    "Rows written per attendance export",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	}, []string{"format"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, marked, markConflicts, photoUploads, exportRows, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		marked:          marked,
		markConflicts:   markConflicts,
		photoUploads:    photoUploads,
		exportRows:      exportRows,
	}
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "metrics disabled", http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request latency and count.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordMarked counts a stored attendance record.
func (m *MetricsService) RecordMarked(status models.AttendanceStatus) {
	if m == nil {
		return
	}
	m.marked.WithLabelValues(string(status)).Inc()
}

// RecordMarkConflict counts a duplicate mark attempt.
func (m *MetricsService) RecordMarkConflict() {
	if m == nil {
		return
	}
	m.markConflicts.Inc()
}

// RecordPhotoUpload counts an upload attempt by outcome.
func (m *MetricsService) RecordPhotoUpload(result string) {
	if m == nil {
		return
	}
	m.photoUploads.WithLabelValues(result).Inc()
}

// ObserveExport records the size of an export.
func (m *MetricsService) ObserveExport(format string, rows int) {
	if m == nil {
		return
	}
	m.exportRows.WithLabelValues(format).Observe(float64(rows))
}
