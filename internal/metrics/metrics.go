package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Polling metrics
	Polls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dexalert_polls_total",
			Help: "Total number of market data polls",
		},
		[]string{"source", "status"}, // dexscreener/birdeye, success/error
	)

	PollDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dexalert_poll_duration_seconds",
			Help:    "Duration of market data polls",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 15},
		},
		[]string{"source"},
	)

	SnapshotsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dexalert_snapshots_fetched_total",
			Help: "Total number of token snapshots fetched",
		},
		[]string{"source"},
	)

	WebSocketEvents = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dexalert_websocket_events_total",
			Help: "Total number of new-token events received over WebSocket",
		},
	)

	WebSocketReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dexalert_websocket_reconnects_total",
			Help: "Total number of WebSocket reconnect attempts",
		},
	)

	// Filter metrics
	FilterEvaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dexalert_filter_evaluations_total",
			Help: "Total number of snapshots evaluated by the entry filter",
		},
		[]string{"result"}, // passed/rejected
	)

	// Tracker metrics
	PositionsEntered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dexalert_positions_entered_total",
			Help: "Total number of positions opened",
		},
	)

	PositionsExited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dexalert_positions_exited_total",
			Help: "Total number of positions closed",
		},
		[]string{"reason"}, // stop_loss/trailing_stop/rug/evicted
	)

	PositionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dexalert_positions_open",
			Help: "Number of currently tracked positions",
		},
	)

	// Alert metrics
	AlertsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dexalert_alerts_sent_total",
			Help: "Total number of alerts sent",
		},
		[]string{"status", "kind"}, // success/error, entry/growth/stop_loss/...
	)

	// Database metrics
	DatabaseQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dexalert_database_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"}, // insert/delete/load, success/error
	)

	// System health
	HealthChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dexalert_health_checks_total",
			Help: "Total number of health check requests",
		},
		[]string{"status"}, // healthy/unhealthy
	)
)

// RecordPoll records one poll of a market data source
func RecordPoll(source string, duration time.Duration, snapshots int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	Polls.WithLabelValues(source, status).Inc()
	PollDuration.WithLabelValues(source).Observe(duration.Seconds())
	if err == nil {
		SnapshotsFetched.WithLabelValues(source).Add(float64(snapshots))
	}
}

// RecordFilter records one entry-filter evaluation
func RecordFilter(passed bool) {
	result := "rejected"
	if passed {
		result = "passed"
	}
	FilterEvaluations.WithLabelValues(result).Inc()
}

// RecordAlert records the outcome of one alert delivery
func RecordAlert(kind string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	AlertsSent.WithLabelValues(status, kind).Inc()
}

// RecordDatabaseQuery records a storage operation
func RecordDatabaseQuery(operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	DatabaseQueries.WithLabelValues(operation, status).Inc()
}

// RecordHealthCheck records health check status
func RecordHealthCheck(healthy bool) {
	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}
	HealthChecks.WithLabelValues(status).Inc()
}
