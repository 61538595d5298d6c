package observability

// IndexObserver implements chainindex.Metrics against a Metrics set,
// keeping prometheus out of pkg/chainindex entirely.
type IndexObserver struct {
	m *Metrics
}

// NewIndexObserver binds m for use as a chainindex.Metrics.
func NewIndexObserver(m *Metrics) *IndexObserver {
	return &IndexObserver{m: m}
}

func (o *IndexObserver) ObserveLag(indexerId string, blocks uint64) {
	o.m.IndexerLag.WithLabelValues(indexerId).Set(float64(blocks))
}

func (o *IndexObserver) ObserveDispatch(fingerprint, outcome string) {
	o.m.HandlerDispatch.WithLabelValues(fingerprint, outcome).Inc()
}
