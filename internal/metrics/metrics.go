package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Scoring metrics
	AssessmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wardai_assessments_total",
			Help: "Total number of risk assessments produced",
		},
		[]string{"source", "level"}, // api/monitor, low/medium/high/critical
	)

	RiskScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wardai_risk_scores",
			Help:    "Distribution of risk scores (0-100)",
			Buckets: []float64{10, 20, 25, 30, 40, 45, 50, 60, 70, 80, 90, 100},
		},
	)

	ThreatsDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wardai_threats_detected_total",
			Help: "Total number of threat findings by severity",
		},
		[]string{"severity"},
	)

	// Live-alert monitor metrics
	MonitorPolls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wardai_monitor_polls_total",
			Help: "Total number of live-alert monitor polls",
		},
		[]string{"status"}, // success, error
	)

	MonitorPollDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wardai_monitor_poll_duration_seconds",
			Help:    "Duration of live-alert monitor polls",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	TokensEvaluated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wardai_monitor_tokens_total",
			Help: "Tokens considered by the monitor, by outcome",
		},
		[]string{"outcome"}, // alerted, cooldown, no_pairs, error
	)

	// Alert metrics
	AlertsTriggered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wardai_alerts_triggered_total",
			Help: "Total number of feed alerts generated",
		},
		[]string{"type"}, // critical, warning, info, success
	)

	AlertsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wardai_alerts_sent_total",
			Help: "Total number of alerts dispatched",
		},
		[]string{"status"}, // success, error
	)

	AlertsSuppressed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wardai_alerts_suppressed_total",
			Help: "Total number of tokens skipped due to alert cooldown",
		},
	)

	// Upstream API metrics
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wardai_api_requests_total",
			Help: "Total number of upstream API requests",
		},
		[]string{"api", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wardai_api_request_duration_seconds",
			Help:    "Duration of upstream API requests",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"api", "endpoint"},
	)

	// HTTP server metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wardai_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"route", "code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wardai_http_request_duration_seconds",
			Help:    "Duration of HTTP requests served",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	// Database metrics
	DatabaseQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wardai_database_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DatabaseQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wardai_database_query_duration_seconds",
			Help:    "Duration of database queries",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	// System health
	HealthChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wardai_health_checks_total",
			Help: "Total number of health check requests",
		},
		[]string{"status"}, // healthy/unhealthy
	)
)

// RecordAssessment records a produced risk assessment
func RecordAssessment(source, level string, score int, severities []string) {
	AssessmentsTotal.WithLabelValues(source, level).Inc()
	RiskScores.Observe(float64(score))
	for _, s := range severities {
		ThreatsDetected.WithLabelValues(s).Inc()
	}
}

// RecordMonitorPoll records one monitor poll
func RecordMonitorPoll(duration time.Duration, err error) {
	MonitorPolls.WithLabelValues(statusOf(err)).Inc()
	MonitorPollDuration.Observe(duration.Seconds())
}

// RecordAlertSend records an alert dispatch
func RecordAlertSend(err error) {
	AlertsSent.WithLabelValues(statusOf(err)).Inc()
}

// RecordAPIRequest records upstream API request metrics
func RecordAPIRequest(api, endpoint string, duration time.Duration, err error) {
	APIRequests.WithLabelValues(api, endpoint, statusOf(err)).Inc()
	APIRequestDuration.WithLabelValues(api, endpoint).Observe(duration.Seconds())
}

// RecordHTTPRequest records a served HTTP request
func RecordHTTPRequest(route string, code int, duration time.Duration) {
	HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordDatabaseQuery records database query metrics
func RecordDatabaseQuery(operation string, duration time.Duration, err error) {
	DatabaseQueries.WithLabelValues(operation, statusOf(err)).Inc()
	DatabaseQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordHealthCheck records health check status
func RecordHealthCheck(healthy bool) {
	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}
	HealthChecks.WithLabelValues(status).Inc()
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
