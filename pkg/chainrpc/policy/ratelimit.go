package policy

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// TokenBucket is a continuously-refilling, CU-weighted rate limiter built
// on golang.org/x/time/rate.Limiter, which already implements exactly the
// "continuous by elapsed time, not periodic" refill semantics spec §4.7
// requires.
type TokenBucket struct {
	limiter *rate.Limiter
}

// NewTokenBucket builds a bucket with the given capacity (burst) and
// refill rate in tokens per second.
func NewTokenBucket(capacity int, refillPerSecond float64) *TokenBucket {
	return &TokenBucket{limiter: rate.NewLimiter(rate.Limit(refillPerSecond), capacity)}
}

// TryAcquire attempts to take cost tokens without blocking. It is
// non-blocking and atomic.
func (b *TokenBucket) TryAcquire(cost int) bool {
	return b.limiter.AllowN(time.Now(), cost)
}

// Acquire suspends until cost tokens are available or ctx is done.
func (b *TokenBucket) Acquire(ctx context.Context, cost int) error {
	return b.limiter.WaitN(ctx, cost)
}

// MethodCostTable maps a JSON-RPC method name to its CU cost; methods not
// present default to weight 1, per spec §4.6 step 1.
type MethodCostTable map[string]int

// CostOf returns the configured cost for method, or 1 if unconfigured.
func (t MethodCostTable) CostOf(method string) int {
	if t == nil {
		return 1
	}
	if c, ok := t[method]; ok {
		return c
	}
	return 1
}
