package metrics_config

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// RegisterRuntimeMetrics exposes garbage collector, heap and goroutine
// statistics of the running process.
func RegisterRuntimeMetrics(reg prometheus.Registerer) {
	register(reg, collectors.NewGoCollector())
	register(reg, collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}
