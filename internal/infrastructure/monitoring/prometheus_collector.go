package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusCollector exposes hub and settlement activity. It satisfies both
// hub.HubMetrics and services.SettlementMetrics.
type PrometheusCollector struct {
	connectionsActive prometheus.Gauge
	connectionsTotal  prometheus.Counter
	roomMembers       prometheus.Gauge
	messagesReceived  *prometheus.CounterVec
	settlementsTotal  *prometheus.CounterVec
	coinsSettledTotal prometheus.Counter
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		connectionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "streamshare_connections_active",
			Help: "Number of currently open websocket connections",
		}),

		connectionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "streamshare_connections_total",
			Help: "Total number of websocket connections accepted",
		}),

		roomMembers: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "streamshare_room_members",
			Help: "Number of connections currently joined to any stream room",
		}),

		messagesReceived: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "streamshare_hub_messages_total",
			Help: "Inbound hub messages by type",
		}, []string{"type"}),

		settlementsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "streamshare_settlements_total",
			Help: "Paid-join settlement attempts by result",
		}, []string{"result"}),

		coinsSettledTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "streamshare_coins_settled_total",
			Help: "Total coins moved from viewers to creators",
		}),
	}
}

func (c *PrometheusCollector) ConnectionOpened() {
	c.connectionsActive.Inc()
	c.connectionsTotal.Inc()
}

func (c *PrometheusCollector) ConnectionClosed() {
	c.connectionsActive.Dec()
}

func (c *PrometheusCollector) RoomJoined() {
	c.roomMembers.Inc()
}

func (c *PrometheusCollector) RoomLeft() {
	c.roomMembers.Dec()
}

func (c *PrometheusCollector) MessageReceived(msgType string) {
	c.messagesReceived.WithLabelValues(msgType).Inc()
}

func (c *PrometheusCollector) RecordSettlement(result string, coins int) {
	c.settlementsTotal.WithLabelValues(result).Inc()
	if coins > 0 {
		c.coinsSettledTotal.Add(float64(coins))
	}
}
