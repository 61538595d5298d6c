package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles every Prometheus collector this toolkit exposes. A
// single instance is composed at process start and threaded into the
// transport and index loop through RPCObserver and IndexObserver —
// neither package imports prometheus directly, keeping the metrics
// surface in one place. The batch engine takes no metrics, so
// BatchDecodeChunk is registered but nothing in this module observes it.
type Metrics struct {
	CircuitState     *prometheus.GaugeVec
	RetryAttempts    *prometheus.CounterVec
	RateLimited      *prometheus.CounterVec
	HandlerDispatch  *prometheus.CounterVec
	IndexerLag       *prometheus.GaugeVec
	BatchDecodeChunk prometheus.Histogram
	Registry         *prometheus.Registry
}

// NewMetrics registers and returns the full collector set against a
// fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		CircuitState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "chainkit",
			Subsystem: "rpc",
			Name:      "circuit_state",
			Help:      "Circuit breaker state per provider (0=closed, 1=half_open, 2=open).",
		}, []string{"provider"}),
		RetryAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chainkit",
			Subsystem: "rpc",
			Name:      "retry_attempts_total",
			Help:      "Retry attempts issued per provider and method.",
		}, []string{"provider", "method"}),
		RateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chainkit",
			Subsystem: "rpc",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the token bucket per provider.",
		}, []string{"provider"}),
		HandlerDispatch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chainkit",
			Subsystem: "index",
			Name:      "handler_dispatch_total",
			Help:      "Handler invocations per event fingerprint and outcome.",
		}, []string{"fingerprint", "outcome"}),
		IndexerLag: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "chainkit",
			Subsystem: "index",
			Name:      "lag_blocks",
			Help:      "Blocks between the indexer's cursor and the confirmed chain head.",
		}, []string{"indexer_id"}),
		BatchDecodeChunk: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "chainkit",
			Subsystem: "codec",
			Name:      "batch_decode_chunk_seconds",
			Help:      "Wall-clock duration of one batch decode chunk.",
			Buckets:   prometheus.DefBuckets,
		}),
		Registry: reg,
	}

	reg.MustRegister(m.CircuitState, m.RetryAttempts, m.RateLimited, m.HandlerDispatch, m.IndexerLag, m.BatchDecodeChunk)
	return m
}

// CircuitStateValue maps a breaker state name to the gauge value this
// package publishes for it.
func CircuitStateValue(state string) float64 {
	switch state {
	case "closed":
		return 0
	case "half_open":
		return 1
	case "open":
		return 2
	default:
		return -1
	}
}
