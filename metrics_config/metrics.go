package metrics_config

import (
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	metrics "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/dominant-strategies/go-layerpool/log"
)

// Enabled is checked by the constructor functions for all of the
// standard metrics. If it is false, the metric returned is not registered
// anywhere and only lives in memory.
//
// This global kill-switch helps quantify the observer effect and makes
// for less cluttered pprof profiles.
var enabled = true

func EnableMetrics() {
	enabled = true
}

func DisableMetrics() {
	enabled = false
}

func MetricsEnabled() bool {
	return enabled
}

// register adds c to reg. A nil registerer or disabled metrics leave the
// collector unregistered, which keeps it usable by its owner.
func register(reg prometheus.Registerer, c prometheus.Collector) {
	if !enabled || reg == nil {
		return
	}
	if err := reg.Register(c); err != nil {
		log.WithField("err", err).Error("Failed to register metric")
	}
}

func NewCounterVec(reg prometheus.Registerer, namespace, name, help string, labels ...string) *prometheus.CounterVec {
	counterVec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, labels)
	register(reg, counterVec)
	return counterVec
}

func NewGaugeVec(reg prometheus.Registerer, namespace, name, help string, labels ...string) *prometheus.GaugeVec {
	gaugeVec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, labels)
	register(reg, gaugeVec)
	return gaugeVec
}

func NewHistogram(reg prometheus.Registerer, namespace, name, help string, buckets []float64) prometheus.Histogram {
	histogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	})
	register(reg, histogram)
	return histogram
}

// StartProcessMetrics registers the system usage gauges on reg and serves
// everything registered on it under /metrics at addr. It blocks until the
// server fails.
func StartProcessMetrics(reg *prometheus.Registry, addr string) error {
	// Short circuit if the metrics system is disabled
	if !enabled {
		return nil
	}

	// System usage metrics.
	gaugesMap := make(map[string]*prometheus.GaugeVec)

	gaugesMap["cpu"] = defineCPUMetrics(reg)
	gaugesMap["mem"] = defineMemMetrics(reg)
	gaugesMap["net"] = defineNetMetrics(reg)
	RegisterRuntimeMetrics(reg)

	return initializeHttpMetrics(reg, addr, gaugesMap)
}

func initializeHttpMetrics(reg *prometheus.Registry, addr string, metricsMap map[string]*prometheus.GaugeVec) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.InstrumentMetricHandler(
		reg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			updateMetrics(metricsMap)
			promhttp.HandlerFor(reg, promhttp.HandlerOpts{}).ServeHTTP(w, r)
		}),
	))
	log.WithField("addr", addr).Info("Serving metrics")
	return http.ListenAndServe(addr, mux)
}

func defineCPUMetrics(reg prometheus.Registerer) *metrics.GaugeVec {
	return NewGaugeVec(reg, "", "cpu_usage", "The average CPU usage over the last second", "cpu_type")
}

func defineMemMetrics(reg prometheus.Registerer) *metrics.GaugeVec {
	return NewGaugeVec(reg, "", "mem_usage", "The current memory usage", "mem_type")
}

func defineNetMetrics(reg prometheus.Registerer) *metrics.GaugeVec {
	return NewGaugeVec(reg, "", "net_usage", "The current network usage", "net_type")
}

func updateMetrics(metricsMap map[string]*prometheus.GaugeVec) {
	pid := os.Getpid()
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		log.WithField("err", err).Error("Failed to get process")
		return
	}

	collectCPUMetrics(metricsMap["cpu"], proc)
	collectMemoryMetrics(metricsMap["mem"], proc)
	collectNetworkingMetrics(metricsMap["net"], proc)
}

func collectCPUMetrics(cpuGaugeVec *metrics.GaugeVec, proc *process.Process) {
	percent, err := proc.CPUPercent()
	if err != nil {
		log.WithField("err", err).Error("Failed to get CPU percent")
	} else {
		cpuGaugeVec.WithLabelValues("Pool").Set(percent)
	}

	usage, err := cpu.Percent(0, false)
	if err != nil || len(usage) == 0 {
		log.WithField("err", err).Error("Failed to get CPU percent")
	} else {
		cpuGaugeVec.WithLabelValues("System").Set(usage[0])
	}

	threads, err := proc.NumThreads()
	if err != nil {
		log.WithField("err", err).Error("Failed to get threads")
	} else {
		cpuGaugeVec.WithLabelValues("Threads").Set(float64(threads))
	}
}

func collectMemoryMetrics(memGaugeVec *metrics.GaugeVec, proc *process.Process) {
	memInfo, err := proc.MemoryInfo()
	if err != nil {
		log.WithField("err", err).Error("Error while getting memory info")
	} else {
		memGaugeVec.WithLabelValues("Used").Set(float64(memInfo.RSS))
		memGaugeVec.WithLabelValues("Swap").Set(float64(memInfo.Swap))
		memGaugeVec.WithLabelValues("Stack").Set(float64(memInfo.Stack))
	}
}

func collectNetworkingMetrics(netGaugeVec *metrics.GaugeVec, proc *process.Process) {
	tcpConnections, err := net.ConnectionsPid("tcp", proc.Pid)
	if err != nil {
		log.WithField("err", err).Error("Error while getting networking info")
	} else {
		netGaugeVec.WithLabelValues("tcp").Set(float64(len(tcpConnections)))
	}
}
