package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the request pipeline
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Gate metrics
	AuthFailuresTotal  *prometheus.CounterVec
	GateDenialsTotal   *prometheus.CounterVec
	RateLimitHitsTotal *prometheus.CounterVec
	FeatureChecksTotal *prometheus.CounterVec

	// Audit metrics
	AuditRecordsTotal  *prometheus.CounterVec
	AuditQueueDepth    prometheus.Gauge
	AuditDroppedTotal  prometheus.Counter
	AuditWriteDuration prometheus.Histogram

	// Subscription lookup metrics
	SubscriptionLookups *prometheus.CounterVec
	SubscriptionCache   *prometheus.CounterVec

	// Database metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scolaris_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scolaris_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		AuthFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scolaris_auth_failures_total",
				Help: "Token authentication failures by kind (missing, invalid)",
			},
			[]string{"kind"},
		),
		GateDenialsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scolaris_gate_denials_total",
				Help: "Requests denied by an authorization gate",
			},
			[]string{"gate", "code"},
		),
		RateLimitHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scolaris_rate_limit_hits_total",
				Help: "Requests rejected by the rate limiter",
			},
			[]string{"policy"},
		),
		FeatureChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scolaris_feature_checks_total",
				Help: "Feature gate evaluations by feature and outcome",
			},
			[]string{"feature", "outcome"},
		),
		AuditRecordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scolaris_audit_records_total",
				Help: "Audit records enqueued by outcome class",
			},
			[]string{"class"},
		),
		AuditQueueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "scolaris_audit_queue_depth",
				Help: "Pending audit records in the async write queue",
			},
		),
		AuditDroppedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "scolaris_audit_dropped_total",
				Help: "Audit records dropped because the queue was full",
			},
		),
		AuditWriteDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "scolaris_audit_write_duration_seconds",
				Help:    "Audit record persistence duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		SubscriptionLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scolaris_subscription_lookups_total",
				Help: "Subscription store lookups by status",
			},
			[]string{"status"},
		),
		SubscriptionCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scolaris_subscription_cache_total",
				Help: "Subscription cache hits and misses",
			},
			[]string{"result"},
		),
		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "scolaris_db_connections_active",
				Help: "Active database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "scolaris_db_connections_idle",
				Help: "Idle database connections",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AuthFailuresTotal,
		m.GateDenialsTotal,
		m.RateLimitHitsTotal,
		m.FeatureChecksTotal,
		m.AuditRecordsTotal,
		m.AuditQueueDepth,
		m.AuditDroppedTotal,
		m.AuditWriteDuration,
		m.SubscriptionLookups,
		m.SubscriptionCache,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
	)

	return m
}

// Handler returns the Prometheus scrape handler for a registry
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// statusRecorder captures the response status for metric labels
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// HTTPMetricsMiddleware records request totals and durations
func (m *Metrics) HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		m.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rec.status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}
