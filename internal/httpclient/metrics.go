package httpclient

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Exchanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hubbleplay_exchanges_total",
			Help: "Total number of exchanges by api, endpoint and response mode",
		},
		[]string{"api", "endpoint", "mode"},
	)

	ExchangeFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hubbleplay_exchange_failures_total",
			Help: "Total number of failed exchanges by api and failure kind",
		},
		[]string{"api", "kind"},
	)

	ExchangeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hubbleplay_exchange_duration_seconds",
			Help:    "Time until response headers arrived",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"api", "endpoint"},
	)

	StreamChunks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hubbleplay_stream_chunks_total",
			Help: "Total number of streamed chunks appended to responses",
		},
		[]string{"api", "endpoint"},
	)

	StreamBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hubbleplay_stream_bytes_total",
			Help: "Total number of decoded bytes received on streams",
		},
		[]string{"api", "endpoint"},
	)

	SupersededExchanges = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hubbleplay_exchanges_superseded_total",
			Help: "Total number of exchanges cancelled by a newer send",
		},
	)
)

func ExchangeInc(api, endpoint, mode string) {
	Exchanges.WithLabelValues(api, endpoint, mode).Inc()
}

func ExchangeFailureInc(api, kind string) {
	ExchangeFailures.WithLabelValues(api, kind).Inc()
}

func ExchangeDurationLog(api, endpoint string, d time.Duration) {
	ExchangeDuration.WithLabelValues(api, endpoint).Observe(d.Seconds())
}

func StreamChunkInc(api, endpoint string, n int) {
	StreamChunks.WithLabelValues(api, endpoint).Inc()
	StreamBytes.WithLabelValues(api, endpoint).Add(float64(n))
}

func SupersededInc() {
	SupersededExchanges.Inc()
}
