package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all custom Prometheus metrics for the application
type Metrics struct {
	// WebSocket metrics
	WebSocketConnections prometheus.Gauge
	WebSocketMessages    *prometheus.CounterVec

	// Board metrics
	CardMoves       *prometheus.CounterVec
	MoveLatency     prometheus.Histogram
	MoveConflicts   prometheus.Counter
	BroadcastFanout prometheus.Histogram

	// Chat metrics
	MessagesSent prometheus.Counter

	// Connection manager reference for dynamic metrics
	connManager *ConnectionManager
}

var globalMetrics *Metrics

// InitMetrics initializes the Prometheus metrics
func InitMetrics(connManager *ConnectionManager) *Metrics {
	metrics := &Metrics{
		connManager: connManager,

		// WebSocket active connections (gauge - can go up and down)
		WebSocketConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "taskdeck_websocket_connections_active",
			Help: "Number of active WebSocket connections",
		}),

		// WebSocket messages by type (counter - only goes up)
		WebSocketMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "taskdeck_websocket_messages_total",
			Help: "Total number of WebSocket messages by type",
		}, []string{"type", "direction"}), // direction: "inbound" or "outbound"

		// Card moves by kind (same_list / cross_list)
		CardMoves: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "taskdeck_card_moves_total",
			Help: "Total number of committed card moves by kind",
		}, []string{"kind"}),

		// Move transaction latency
		MoveLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "taskdeck_card_move_duration_seconds",
			Help:    "Card move transaction latency in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		}),

		// Moves rejected with a retryable conflict
		MoveConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "taskdeck_card_move_conflicts_total",
			Help: "Total number of card moves that hit a concurrency conflict",
		}),

		// Recipients per room broadcast
		BroadcastFanout: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "taskdeck_broadcast_fanout_recipients",
			Help:    "Number of local recipients per room broadcast",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
		}),

		// Chat messages stored
		MessagesSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "taskdeck_chat_messages_total",
			Help: "Total number of chat messages stored",
		}),
	}

	// Register a collector that updates WebSocket connections from ConnectionManager
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "taskdeck_websocket_connections_current",
			Help: "Current number of active WebSocket connections (from connection manager)",
		},
		func() float64 {
			if connManager != nil {
				return float64(connManager.Count())
			}
			return 0
		},
	))

	globalMetrics = metrics
	return metrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	return globalMetrics
}

// RecordWebSocketConnect records a new WebSocket connection
func (m *Metrics) RecordWebSocketConnect() {
	m.WebSocketConnections.Inc()
}

// RecordWebSocketDisconnect records a WebSocket disconnection
func (m *Metrics) RecordWebSocketDisconnect() {
	m.WebSocketConnections.Dec()
}

// RecordWebSocketMessage records a WebSocket message
func (m *Metrics) RecordWebSocketMessage(msgType, direction string) {
	m.WebSocketMessages.WithLabelValues(msgType, direction).Inc()
}

// RecordCardMove records a committed card move
func (m *Metrics) RecordCardMove(kind string, seconds float64) {
	m.CardMoves.WithLabelValues(kind).Inc()
	m.MoveLatency.Observe(seconds)
}

// RecordMoveConflict records a move rejected with a concurrency conflict
func (m *Metrics) RecordMoveConflict() {
	m.MoveConflicts.Inc()
}

// RecordBroadcast records the local recipient count of a room broadcast
func (m *Metrics) RecordBroadcast(recipients int) {
	m.BroadcastFanout.Observe(float64(recipients))
}

// RecordMessageSent records a stored chat message
func (m *Metrics) RecordMessageSent() {
	m.MessagesSent.Inc()
}
