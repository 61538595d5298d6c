package chainrpc

import (
	"context"
	"log"
	"sync"
	"time"
)

// providerHealth tracks consecutive probe outcomes for one pooled
// transport, independent of that transport's own circuit-breaker-derived
// Health(), per spec §4.8's two-consecutive-probes rule.
type providerHealth struct {
	mu                  sync.Mutex
	status              HealthStatus
	consecutiveSuccess  int
	consecutiveFailure  int
}

func (h *providerHealth) recordProbe(ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ok {
		h.consecutiveSuccess++
		h.consecutiveFailure = 0
	} else {
		h.consecutiveFailure++
		h.consecutiveSuccess = 0
	}
	switch {
	case h.consecutiveFailure >= 2:
		h.status = HealthUnhealthy
	case h.consecutiveSuccess >= 2:
		h.status = HealthHealthy
	default:
		h.status = HealthDegraded
	}
}

func (h *providerHealth) get() HealthStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.status == HealthUnknown {
		return HealthUnknown
	}
	return h.status
}

// Pool is a multi-provider failover pool: an ordered list of transports,
// each with independently tracked health, probed periodically in the
// background.
type Pool struct {
	mu        sync.RWMutex
	providers []Transport
	health    []*providerHealth
	probeMethod string
	logger    *log.Logger

	cancel context.CancelFunc
}

// NewPool builds a pool over providers, probed with probeMethod (typically
// a lightweight block-number query) at the given interval.
func NewPool(providers []Transport, probeMethod string, probeInterval time.Duration, logger *log.Logger) *Pool {
	p := &Pool{
		providers:   providers,
		health:      make([]*providerHealth, len(providers)),
		probeMethod: probeMethod,
		logger:      logger,
	}
	for i := range p.health {
		p.health[i] = &providerHealth{status: HealthUnknown}
	}
	if probeInterval > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		p.cancel = cancel
		go p.probeLoop(ctx, probeInterval)
	}
	return p
}

// Close stops the background probe loop.
func (p *Pool) Close() {
	if p.cancel != nil {
		p.cancel()
	}
}

func (p *Pool) probeLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.probeOnce(ctx)
		}
	}
}

func (p *Pool) probeOnce(ctx context.Context) {
	p.mu.RLock()
	providers := append([]Transport(nil), p.providers...)
	healths := append([]*providerHealth(nil), p.health...)
	p.mu.RUnlock()

	for i, t := range providers {
		_, err := t.Send(ctx, NewRequest(NewIntId(0), p.probeMethod))
		healths[i].recordProbe(err == nil)
		if err != nil {
			p.logger.Printf("probe failed for %s: %v", t.Url(), err)
		}
	}
}

// Send picks the first provider whose health is not Unhealthy and sends
// through it; on CircuitOpen or RateLimited it falls through to the next
// provider, per spec §4.8.
func (p *Pool) Send(ctx context.Context, req Request) (*Response, error) {
	p.mu.RLock()
	providers := append([]Transport(nil), p.providers...)
	healths := append([]*providerHealth(nil), p.health...)
	p.mu.RUnlock()

	var lastErr error
	tried := 0
	for i, t := range providers {
		if healths[i].get() == HealthUnhealthy {
			continue
		}
		tried++
		resp, err := t.Send(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if te, ok := err.(*TransportError); ok && (te.Kind == KindCircuitOpen || te.Kind == KindRateLimited) {
			continue
		}
		return nil, err
	}
	if tried == 0 {
		return nil, &TransportError{Kind: KindAllProvidersDown, Message: "every provider is unhealthy"}
	}
	if lastErr != nil {
		return nil, &TransportError{Kind: KindAllProvidersDown, Message: "all providers exhausted", Cause: lastErr}
	}
	return nil, &TransportError{Kind: KindAllProvidersDown, Message: "no providers configured"}
}
