package observability

// RPCObserver implements chainrpc.MetricsObserver against a Metrics set,
// keeping prometheus out of pkg/chainrpc entirely.
type RPCObserver struct {
	m *Metrics
}

// NewRPCObserver binds m for use as a chainrpc.MetricsObserver.
func NewRPCObserver(m *Metrics) *RPCObserver {
	return &RPCObserver{m: m}
}

func (o *RPCObserver) ObserveRetry(provider, method string) {
	o.m.RetryAttempts.WithLabelValues(provider, method).Inc()
}

func (o *RPCObserver) ObserveRateLimited(provider string) {
	o.m.RateLimited.WithLabelValues(provider).Inc()
}

func (o *RPCObserver) ObserveCircuitState(provider, state string) {
	o.m.CircuitState.WithLabelValues(provider).Set(CircuitStateValue(mapCircuitStateName(state)))
}

// mapCircuitStateName normalizes policy.CircuitState.String()'s
// capitalized form ("Closed"/"Open"/"HalfOpen") to the lowercase,
// underscored names CircuitStateValue expects.
func mapCircuitStateName(state string) string {
	switch state {
	case "Open":
		return "open"
	case "HalfOpen":
		return "half_open"
	default:
		return "closed"
	}
}
