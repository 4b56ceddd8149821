package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ============================================
	// Pool state metrics
	// ============================================
	TreeLeafCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shieldpool_tree_leaf_count",
		Help: "Number of commitments inserted into the tree",
	})

	TreeRootCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shieldpool_tree_root_count",
		Help: "Number of distinct historical tree roots",
	})

	SpentNullifiers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shieldpool_spent_nullifiers",
		Help: "Number of consumed nullifiers",
	})

	ShieldedAssets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shieldpool_shielded_assets",
		Help: "Number of assets currently in the shielded state",
	})

	// ============================================
	// Operation metrics
	// ============================================
	PoolOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shieldpool_operations_total",
			Help: "Total number of pool operations by type and outcome",
		},
		[]string{"operation", "outcome"},
	)

	PoolOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shieldpool_operation_duration_seconds",
			Help:    "Pool operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	RelayedOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shieldpool_relayed_operations_total",
			Help: "Total number of relayed operations by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	RelayFeesPaid = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shieldpool_relay_fees_paid_total",
		Help: "Cumulative relayer fees paid from the pooled balance",
	})

	// ============================================
	// Proof verifier metrics
	// ============================================
	VerifierRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shieldpool_verifier_requests_total",
			Help: "Total number of proof verifier requests by kind and result",
		},
		[]string{"kind", "result"},
	)

	VerifierRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shieldpool_verifier_request_duration_seconds",
			Help:    "Proof verifier request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// ============================================
	// NATS metrics
	// ============================================
	NATSConnectionStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shieldpool_nats_connection_status",
		Help: "NATS connection status (1=connected, 0=disconnected)",
	})

	NATSMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shieldpool_nats_messages_published_total",
			Help: "Total number of NATS messages published",
		},
		[]string{"subject"},
	)

	NATSPublishErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shieldpool_nats_publish_errors_total",
			Help: "Total number of NATS publish failures",
		},
		[]string{"subject"},
	)

	// ============================================
	// WebSocket metrics
	// ============================================
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shieldpool_websocket_connections",
		Help: "Number of active WebSocket subscribers",
	})

	WebSocketPushes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shieldpool_websocket_pushes_total",
			Help: "Total number of WebSocket event pushes",
		},
		[]string{"event_type"},
	)
)
