// Package metrics exposes process-wide Prometheus metrics and the optional
// HTTP endpoint serving them.
package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Catalog metrics
	CatalogReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hubbleplay_catalog_reloads_total",
			Help: "Total number of catalog reloads by result",
		},
		[]string{"result"},
	)

	CatalogAPIs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hubbleplay_catalog_apis",
			Help: "Number of APIs in the active catalog",
		},
	)

	// Session metrics
	Selections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hubbleplay_selections_total",
			Help: "Total number of endpoint selections by api and endpoint",
		},
		[]string{"api", "endpoint"},
	)

	// System metrics
	Uptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hubbleplay_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)

	Goroutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hubbleplay_goroutines",
			Help: "Number of active goroutines",
		},
	)

	MemoryUsage = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hubbleplay_memory_usage_bytes",
			Help: "Memory usage statistics",
		},
		[]string{"type"},
	)

	startTime = time.Now()
)

func CatalogReloadInc(ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	CatalogReloads.WithLabelValues(result).Inc()
}

func CatalogAPIsSet(n int) {
	CatalogAPIs.Set(float64(n))
}

func SelectionInc(api, endpoint string) {
	Selections.WithLabelValues(api, endpoint).Inc()
}

// UpdateSystemMetrics updates runtime system metrics.
// This should be called periodically (e.g., every 15 seconds).
func UpdateSystemMetrics() {
	Uptime.Set(time.Since(startTime).Seconds())

	Goroutines.Set(float64(runtime.NumGoroutine()))

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	MemoryUsage.WithLabelValues("alloc").Set(float64(m.Alloc))
	MemoryUsage.WithLabelValues("sys").Set(float64(m.Sys))
	MemoryUsage.WithLabelValues("heap_inuse").Set(float64(m.HeapInuse))
}
