package chainrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/chainkit/chainkit/pkg/chainrpc/policy"
)

// HealthStatus is the closed tag set HttpTransport.Health inhabits.
type HealthStatus int

const (
	HealthUnknown HealthStatus = iota
	HealthHealthy
	HealthDegraded
	HealthUnhealthy
)

func (h HealthStatus) String() string {
	switch h {
	case HealthHealthy:
		return "Healthy"
	case HealthDegraded:
		return "Degraded"
	case HealthUnhealthy:
		return "Unhealthy"
	default:
		return "Unknown"
	}
}

// Transport is the capability a provider pool dispatches through.
type Transport interface {
	Send(ctx context.Context, req Request) (*Response, error)
	SendBatch(ctx context.Context, reqs []Request) ([]*Response, error)
	Health() HealthStatus
	Url() string
}

// MetricsObserver receives policy-stack events for external metrics
// wiring (see pkg/observability), so this package never imports a
// metrics library directly.
type MetricsObserver interface {
	ObserveRetry(provider, method string)
	ObserveRateLimited(provider string)
	ObserveCircuitState(provider, state string)
}

// HttpTransportConfig parameterizes one HttpTransport instance.
type HttpTransportConfig struct {
	Url            string
	RequestTimeout time.Duration
	Retry          policy.RetryConfig
	Circuit        policy.CircuitConfig
	// RateCapacity/RateRefillPerSecond size the token bucket; MethodCosts
	// overrides the default weight-1 cost per spec §4.6 step 1.
	RateCapacity        int
	RateRefillPerSecond float64
	MethodCosts         policy.MethodCostTable
	// Metrics is optional; when set, the transport reports retries, rate
	// limiting, and circuit state transitions through it.
	Metrics MetricsObserver
}

// HttpTransport is a single-endpoint JSON-RPC client wrapping the policy
// stack: rate limit → circuit breaker → retry, per spec §4.6.
type HttpTransport struct {
	cfg     HttpTransportConfig
	client  *http.Client
	limiter *policy.TokenBucket
	breaker *policy.CircuitBreaker
	retry   *policy.Retry
	logger  *log.Logger

	nextId int64
}

// NewHttpTransport builds a transport for one RPC endpoint.
func NewHttpTransport(cfg HttpTransportConfig, logger *log.Logger) *HttpTransport {
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.RateCapacity == 0 {
		cfg.RateCapacity = 20
	}
	if cfg.RateRefillPerSecond == 0 {
		cfg.RateRefillPerSecond = 10
	}
	return &HttpTransport{
		cfg:     cfg,
		client:  &http.Client{},
		limiter: policy.NewTokenBucket(cfg.RateCapacity, cfg.RateRefillPerSecond),
		breaker: policy.NewCircuitBreaker(cfg.Circuit),
		retry:   policy.NewRetry(cfg.Retry),
		logger:  logger,
	}
}

// Url returns the endpoint URL.
func (t *HttpTransport) Url() string { return t.cfg.Url }

// Health reports coarse health derived from circuit state. A finer-grained
// health state (Degraded between consecutive probe outcomes) is maintained
// by the owning Pool, not by an individual transport.
func (t *HttpTransport) Health() HealthStatus {
	switch t.breaker.State() {
	case policy.Open:
		return HealthUnhealthy
	case policy.HalfOpen:
		return HealthDegraded
	default:
		return HealthHealthy
	}
}

// Send executes one JSON-RPC request through the full policy stack.
func (t *HttpTransport) Send(ctx context.Context, req Request) (*Response, error) {
	cost := t.cfg.MethodCosts.CostOf(req.Method)
	if !t.limiter.TryAcquire(cost) {
		if t.cfg.Metrics != nil {
			t.cfg.Metrics.ObserveRateLimited(t.cfg.Url)
		}
		return nil, &TransportError{Kind: KindRateLimited, Provider: t.cfg.Url, Message: "token bucket exhausted"}
	}

	allowed, isProbe := t.breaker.AllowRequest()
	if t.cfg.Metrics != nil {
		t.cfg.Metrics.ObserveCircuitState(t.cfg.Url, t.breaker.State().String())
	}
	if !allowed {
		return nil, &TransportError{Kind: KindCircuitOpen, Provider: t.cfg.Url, Message: "circuit open"}
	}

	var lastErr error
	attempt := 1
	for {
		resp, err := t.attempt(ctx, req)
		if err == nil {
			t.breaker.RecordSuccess(isProbe)
			return resp, nil
		}

		var terr *TransportError
		if te, ok := err.(*TransportError); ok {
			terr = te
		} else {
			terr = &TransportError{Kind: KindHttp, Provider: t.cfg.Url, Message: err.Error(), Cause: err}
		}

		if terr.IsExecutionError() {
			// Execution errors surface immediately; no retry, no breaker trip.
			return nil, terr
		}

		lastErr = terr
		if !terr.IsRetryable() {
			t.breaker.RecordFailure(isProbe)
			return nil, terr
		}

		delay, ok := t.retry.NextDelay(attempt)
		if !ok {
			t.breaker.RecordFailure(isProbe)
			return nil, lastErr
		}
		t.logger.Printf("retrying %s after %v (attempt %d): %v", req.Method, delay, attempt, terr)
		if t.cfg.Metrics != nil {
			t.cfg.Metrics.ObserveRetry(t.cfg.Url, req.Method)
		}

		select {
		case <-ctx.Done():
			t.breaker.RecordFailure(isProbe)
			return nil, &TransportError{Kind: KindTimeout, Provider: t.cfg.Url, Message: "cancelled during retry wait", Cause: ctx.Err()}
		case <-time.After(delay):
		}
		attempt++
	}
}

func (t *HttpTransport) attempt(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &TransportError{Kind: KindDeserialization, Provider: t.cfg.Url, Message: "request marshal failed", Cause: err}
	}

	reqCtx, cancel := context.WithTimeout(ctx, t.cfg.RequestTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, t.cfg.Url, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Kind: KindHttp, Provider: t.cfg.Url, Message: "request construction failed", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		if reqCtx.Err() != nil {
			return nil, &TransportError{Kind: KindTimeout, Provider: t.cfg.Url, Message: "request timed out", Cause: err}
		}
		return nil, &TransportError{Kind: KindHttp, Provider: t.cfg.Url, Message: "http request failed", Cause: err}
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &TransportError{Kind: KindHttp, Provider: t.cfg.Url, Message: "body read failed", Cause: err}
	}
	if httpResp.StatusCode >= 500 {
		return nil, &TransportError{Kind: KindHttp, Provider: t.cfg.Url, Message: fmt.Sprintf("server error %d", httpResp.StatusCode)}
	}
	if httpResp.StatusCode >= 400 {
		return nil, &TransportError{Kind: KindHttp, Provider: t.cfg.Url, Message: fmt.Sprintf("client error %d", httpResp.StatusCode)}
	}

	var rpcResp Response
	if err := json.Unmarshal(raw, &rpcResp); err != nil {
		return nil, &TransportError{Kind: KindDeserialization, Provider: t.cfg.Url, Message: "response unmarshal failed", Cause: err}
	}
	if rpcResp.Error != nil {
		return nil, &TransportError{Kind: KindRpc, Provider: t.cfg.Url, Code: rpcResp.Error.Code, Message: rpcResp.Error.Message}
	}
	return &rpcResp, nil
}

// SendBatch sends requests sequentially, per spec §4.6's stated default.
func (t *HttpTransport) SendBatch(ctx context.Context, reqs []Request) ([]*Response, error) {
	out := make([]*Response, 0, len(reqs))
	for _, req := range reqs {
		resp, err := t.Send(ctx, req)
		if err != nil {
			return out, err
		}
		out = append(out, resp)
	}
	return out, nil
}

// Call issues id:method(params...) and unmarshals the result into a value
// of type T, which it returns. The caller supplies id so it can correlate the
// request with its response (e.g. across a Pool fanning out to several
// providers under distinct ids).
func Call[T any](ctx context.Context, t Transport, id Id, method string, params ...interface{}) (T, error) {
	var zero T
	resp, err := t.Send(ctx, NewRequest(id, method, params...))
	if err != nil {
		return zero, err
	}
	var out T
	if err := json.Unmarshal(resp.Result, &out); err != nil {
		return zero, &TransportError{Kind: KindDeserialization, Provider: t.Url(), Message: "result unmarshal failed", Cause: err}
	}
	return out, nil
}
