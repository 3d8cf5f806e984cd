package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CyclesTotal counts reconciliation cycles by outcome
	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deposit_monitor_cycles_total",
			Help: "Total number of reconciliation cycles",
		},
		[]string{"trigger", "status"},
	)

	// CycleDuration tracks cycle duration
	CycleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deposit_monitor_cycle_duration_seconds",
			Help:    "Reconciliation cycle duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"trigger"},
	)

	// TransfersObserved counts ledger transfers seen by the poller, by ingest outcome
	TransfersObserved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deposit_monitor_transfers_observed_total",
			Help: "Total number of incoming transfers observed",
		},
		[]string{"outcome"},
	)

	// RefundsTotal counts refund attempts by outcome
	RefundsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deposit_monitor_refunds_total",
			Help: "Total number of refund attempts",
		},
		[]string{"outcome"},
	)

	// RefundDuration tracks claim-to-broadcast latency
	RefundDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "deposit_monitor_refund_duration_seconds",
			Help:    "Refund dispatch duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// DepositsByStatus tracks the number of records in each status
	DepositsByStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "deposit_monitor_deposits",
			Help: "Number of deposit records by status",
		},
		[]string{"status"},
	)

	// LastCheckpoint tracks the last persisted ledger checkpoint
	LastCheckpoint = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "deposit_monitor_last_checkpoint",
			Help: "Last ledger checkpoint fully scanned",
		},
	)

	// Running is 1 while the monitor loop is running
	Running = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "deposit_monitor_running",
			Help: "Whether the monitor loop is running",
		},
	)

	// WebhookDeliveries counts webhook deliveries by event type and outcome
	WebhookDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deposit_monitor_webhook_deliveries_total",
			Help: "Total number of webhook delivery attempts",
		},
		[]string{"event_type", "status"},
	)

	// ErrorsTotal counts errors by component and type
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deposit_monitor_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)
)
