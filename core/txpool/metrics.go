package txpool

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dominant-strategies/go-layerpool/metrics_config"
)

const metricsNamespace = "txpool"

type poolMetrics struct {
	added        *prometheus.CounterVec // labels: layer, origin
	removed      *prometheus.CounterVec // labels: layer, origin, reason
	rejected     *prometheus.CounterVec // labels: result
	transactions *prometheus.GaugeVec   // labels: layer
	bytes        *prometheus.GaugeVec   // labels: layer
	origins      *prometheus.GaugeVec   // labels: origin
}

func newPoolMetrics(reg prometheus.Registerer) *poolMetrics {
	return &poolMetrics{
		added:        metrics_config.NewCounterVec(reg, metricsNamespace, "added_total", "Transactions accepted into a layer", "layer", "origin"),
		removed:      metrics_config.NewCounterVec(reg, metricsNamespace, "removed_total", "Transactions that left the pool", "layer", "origin", "reason"),
		rejected:     metrics_config.NewCounterVec(reg, metricsNamespace, "rejected_total", "Submissions that were not accepted", "result"),
		transactions: metrics_config.NewGaugeVec(reg, metricsNamespace, "transactions", "Transactions currently held per layer", "layer"),
		bytes:        metrics_config.NewGaugeVec(reg, metricsNamespace, "bytes", "Encoded bytes currently held per layer", "layer"),
		origins:      metrics_config.NewGaugeVec(reg, metricsNamespace, "origin_transactions", "Transactions currently held per origin", "origin"),
	}
}

func origin(local bool) string {
	if local {
		return "local"
	}
	return "remote"
}

func (m *poolMetrics) markAdded(ptx *PendingTx, layer LayerKind) {
	m.added.WithLabelValues(layer.String(), origin(ptx.local)).Inc()
}

func (m *poolMetrics) markRemoved(ptx *PendingTx, layer LayerKind, reason RemovalReason) {
	m.removed.WithLabelValues(layer.String(), origin(ptx.local), reason.String()).Inc()
}

func (m *poolMetrics) markRejected(result AddResult) {
	m.rejected.WithLabelValues(result.String()).Inc()
}

func (m *poolMetrics) update(locals, remotes int, layers ...layer) {
	m.origins.WithLabelValues(origin(true)).Set(float64(locals))
	m.origins.WithLabelValues(origin(false)).Set(float64(remotes))
	for _, l := range layers {
		m.transactions.WithLabelValues(l.Kind().String()).Set(float64(l.Len()))
		m.bytes.WithLabelValues(l.Kind().String()).Set(float64(l.Bytes()))
	}
}
