package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Business metrics
	complaintsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "complaints_created_total",
			Help: "Total number of complaints created",
		},
		[]string{"area_type"},
	)

	complaintsStatusChanged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "complaints_status_changed_total",
			Help: "Total number of complaint status changes",
		},
		[]string{"from_status", "to_status"},
	)

	complaintsAssigned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "complaints_assigned_total",
			Help: "Total number of complaint assignments",
		},
		[]string{"employee_role"},
	)

	notificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_created_total",
			Help: "Total number of notifications persisted",
		},
		[]string{"type"},
	)

	notificationsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_published_total",
			Help: "Total number of realtime publish attempts",
		},
		[]string{"outcome"},
	)

	attachmentUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attachment_uploads_total",
			Help: "Total number of attachment uploads",
		},
		[]string{"status"},
	)

	attachmentUploadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "attachment_upload_duration_seconds",
			Help:    "Attachment upload duration in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	activityEntriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "activity_entries_total",
			Help: "Total number of activity log entries created",
		},
	)

	// Database metrics
	dbConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)
)

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware creates HTTP metrics middleware
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		// Wrap response writer to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// normalizePath normalizes URL paths for metrics to avoid cardinality explosion
func normalizePath(path string) string {
	if len(path) > 100 {
		return "/api/..."
	}
	return path
}

// --- Business metric helpers ---

// RecordComplaintCreated records a complaint creation
func RecordComplaintCreated(areaType string) {
	complaintsCreated.WithLabelValues(areaType).Inc()
}

// RecordComplaintStatusChange records a complaint status change
func RecordComplaintStatusChange(fromStatus, toStatus string) {
	complaintsStatusChanged.WithLabelValues(fromStatus, toStatus).Inc()
}

// RecordComplaintAssigned records a complaint assignment
func RecordComplaintAssigned(employeeRole string) {
	complaintsAssigned.WithLabelValues(employeeRole).Inc()
}

// RecordNotificationCreated records a persisted notification
func RecordNotificationCreated(notificationType string) {
	notificationsCreated.WithLabelValues(notificationType).Inc()
}

// RecordNotificationPublished records a realtime publish attempt
func RecordNotificationPublished(ok bool) {
	outcome := "error"
	if ok {
		outcome = "ok"
	}
	notificationsPublished.WithLabelValues(outcome).Inc()
}

// RecordAttachmentUpload records an attachment upload attempt
func RecordAttachmentUpload(status string, duration time.Duration) {
	attachmentUploads.WithLabelValues(status).Inc()
	attachmentUploadDuration.Observe(duration.Seconds())
}

// RecordActivityEntry records an activity log entry creation
func RecordActivityEntry() {
	activityEntriesTotal.Inc()
}

// RecordDBConnections records active database connections
func RecordDBConnections(count int) {
	dbConnectionsActive.Set(float64(count))
}

// RecordDBQuery records a database query duration
func RecordDBQuery(operation string, duration time.Duration) {
	dbQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
