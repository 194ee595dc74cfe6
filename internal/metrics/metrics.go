package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	BookingsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookings_created_total",
			Help: "Bookings created, by initial status.",
		},
		[]string{"status"},
	)

	BookingRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_rejections_total",
			Help: "Booking mutations rejected by a business rule, by error kind.",
		},
		[]string{"kind"},
	)

	StockMovements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stock_movements_total",
			Help: "Stock movements written by the ledger, by movement type.",
		},
		[]string{"type"},
	)

	LowStockSignals = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stock_low_signals_total",
			Help: "Ledger operations that left an equipment below its minimum stock level.",
		},
	)

	ActivityDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "activity_entries_dropped_total",
			Help: "Activity entries dropped because the queue was full or retries ran out.",
		},
	)

	IdempotentReplays = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "idempotent_replays_total",
			Help: "Responses served from the idempotency store.",
		},
	)

	JobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduled_job_runs_total",
			Help: "Scheduled job runs by job name and outcome.",
		},
		[]string{"job", "outcome"},
	)
)
