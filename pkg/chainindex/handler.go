package chainindex

import (
	"sort"
	"sync"

	"github.com/chainkit/chainkit/pkg/chaincodec/chain"
	"github.com/chainkit/chainkit/pkg/chaincodec/evm"
)

// IndexContext is what a Handler receives: the chain identity, a summary
// of the block the event was found in, and the decoded event itself —
// spec §4.10's IndexContext{chain, block_summary, decoded_event}.
type IndexContext struct {
	Chain chain.Id
	Block BlockInfo
	Event *evm.DecodedEvent
}

// Handler processes one decoded event dispatched by the index loop.
type Handler func(ctx IndexContext) error

// HandlerErrorPolicy selects what the loop does when a Handler returns an
// error, per spec §4.10: continue running remaining handlers, skip the
// rest of the current block, or abort the tick entirely.
type HandlerErrorPolicy int

const (
	HandlerPolicyContinue HandlerErrorPolicy = iota
	HandlerPolicySkipBlock
	HandlerPolicyAbort
)

const wildcardFingerprint = "*"

type registeredHandler struct {
	name string
	fn   Handler
}

// HandlerRegistry maps event fingerprints (or the wildcard "*") to
// handlers. It is append-only once the indexer has started. The Loop
// takes a Snapshot before dispatching each block, so a registration made
// while a block is being dispatched never affects that block; it is not
// held for a whole tick, so later blocks of the same tick do see it.
type HandlerRegistry struct {
	mu       sync.RWMutex
	byFp     map[string][]registeredHandler
	wildcard []registeredHandler
}

// NewHandlerRegistry builds an empty registry.
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{byFp: make(map[string][]registeredHandler)}
}

// Register appends handler, named name for error reporting, for
// fingerprint, or for every event when fingerprint is "*".
func (r *HandlerRegistry) Register(fingerprint, name string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rh := registeredHandler{name: name, fn: handler}
	if fingerprint == wildcardFingerprint {
		r.wildcard = append(r.wildcard, rh)
		return
	}
	r.byFp[fingerprint] = append(r.byFp[fingerprint], rh)
}

// HandlerSnapshot is an immutable view of the registry, taken by the Loop
// before it dispatches a block.
type HandlerSnapshot struct {
	byFp     map[string][]registeredHandler
	wildcard []registeredHandler
}

// Snapshot copies the current registration set for use over one tick.
func (r *HandlerRegistry) Snapshot() *HandlerSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap := &HandlerSnapshot{byFp: make(map[string][]registeredHandler, len(r.byFp))}
	for fp, hs := range r.byFp {
		cp := make([]registeredHandler, len(hs))
		copy(cp, hs)
		snap.byFp[fp] = cp
	}
	snap.wildcard = make([]registeredHandler, len(r.wildcard))
	copy(snap.wildcard, r.wildcard)
	return snap
}

// For returns the handlers that apply to an event with the given
// fingerprint: its specific handlers first (registration order), then the
// wildcard handlers.
func (s *HandlerSnapshot) For(fingerprint string) []registeredHandler {
	out := make([]registeredHandler, 0, len(s.byFp[fingerprint])+len(s.wildcard))
	out = append(out, s.byFp[fingerprint]...)
	out = append(out, s.wildcard...)
	return out
}

// Fingerprints lists every fingerprint with at least one specific
// handler, sorted for deterministic iteration in logs and metrics.
func (s *HandlerSnapshot) Fingerprints() []string {
	out := make([]string, 0, len(s.byFp))
	for fp := range s.byFp {
		out = append(out, fp)
	}
	sort.Strings(out)
	return out
}

// HandlerOutcome is one failed handler invocation, named for error
// reporting per spec §7's Handler{name,reason} error variant.
type HandlerOutcome struct {
	Name string
	Err  error
}

// Dispatch runs every applicable handler for ctx in registration order,
// applying policy on failure: Continue runs every handler regardless,
// recording each failure; SkipBlock stops at the first failure and
// reports it without aborting the tick; Abort stops at the first failure
// and signals the caller to abort the tick.
func (s *HandlerSnapshot) Dispatch(fingerprint string, ctx IndexContext, policy HandlerErrorPolicy) (failures []HandlerOutcome, abort bool) {
	for _, rh := range s.For(fingerprint) {
		if err := rh.fn(ctx); err != nil {
			failures = append(failures, HandlerOutcome{Name: rh.name, Err: err})
			switch policy {
			case HandlerPolicyAbort:
				return failures, true
			case HandlerPolicySkipBlock:
				return failures, false
			case HandlerPolicyContinue:
				// keep invoking the remaining handlers
			}
		}
	}
	return failures, false
}
