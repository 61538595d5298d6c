package chainindex

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chainkit/chainkit/pkg/chaincodec/chain"
	"github.com/chainkit/chainkit/pkg/chaincodec/evm"
	"github.com/chainkit/chainkit/pkg/chainindex/storage"
)

// ChainSource is the chain-facing read capability the Loop needs: the
// latest head (the Loop subtracts the confirmation depth itself) and, for
// any block number, its header and raw logs.
// Implementations typically wrap a chainrpc.Transport or chainrpc.Pool.
type ChainSource interface {
	HeadNumber(ctx context.Context) (uint64, error)
	BlockByNumber(ctx context.Context, number uint64) (BlockInfo, error)
	LogsForBlock(ctx context.Context, number uint64) ([]evm.RawLog, error)
}

// ItemDecoder mirrors batch.ItemDecoder so this package does not need to
// import the batch engine just for the capability shape.
type ItemDecoder interface {
	DecodeItem(raw evm.RawLog) (*evm.DecodedEvent, error)
}

// Metrics receives index-loop events for external metrics wiring (see
// pkg/observability), so this package never imports a metrics library
// directly.
type Metrics interface {
	ObserveLag(indexerId string, blocks uint64)
	ObserveDispatch(fingerprint, outcome string)
}

// Config bundles the tunables for one Loop.
type Config struct {
	IndexerId         string
	Chain             chain.Id
	ConfirmationDepth uint64
	TrackerCapacity   int
	// BatchSize caps how many blocks one Tick fetches and processes; <= 0
	// means 1 (the minimal per-tick contract from spec §4.10).
	BatchSize uint64
	// ToBlock optionally bounds backfilling: when set, the loop never
	// advances the cursor past it regardless of chain head. nil means
	// unbounded (follow the live head forever).
	ToBlock *uint64
	// CheckpointEvery checkpoints after this many block advances; 0 means
	// after every block.
	CheckpointEvery uint64
	// HandlerErrorPolicy governs what happens when a registered Handler
	// returns an error; see HandlerErrorPolicy.
	HandlerErrorPolicy HandlerErrorPolicy
	Logger             *log.Logger
	Metrics            Metrics
}

// Loop drives the per-tick body from spec §4.10: fetch head, compute
// target, compare to cursor, fetch + decode + dispatch a capped batch of
// blocks, advance cursor, conditionally checkpoint.
type Loop struct {
	cfg     Config
	source  ChainSource
	decoder ItemDecoder
	reg     *HandlerRegistry
	store   storage.Store

	mu         sync.Mutex
	state      State
	tracker    *Tracker
	detector   *Detector
	cursor     Cursor
	sinceCheck uint64
	logger     *log.Logger
	runId      string
}

// NewLoop builds a Loop. The caller should call Resume (or leave the
// cursor zero-valued to backfill from genesis) before the first Run.
func NewLoop(cfg Config, source ChainSource, decoder ItemDecoder, reg *HandlerRegistry, store storage.Store) *Loop {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, fmt.Sprintf("[chainindex:%s] ", cfg.IndexerId), log.LstdFlags)
	}
	capacity := cfg.TrackerCapacity
	if capacity <= 0 {
		capacity = int(cfg.ConfirmationDepth) + 32
		if capacity < 32 {
			capacity = 32
		}
	}
	l := &Loop{
		cfg:     cfg,
		source:  source,
		decoder: decoder,
		reg:     reg,
		store:   store,
		state:   StateIdle,
		tracker: NewTracker(capacity),
		cursor:  Cursor{ConfirmationDepth: cfg.ConfirmationDepth},
		logger:  logger,
	}
	l.detector = NewDetector(func(number uint64) (BlockInfo, error) {
		return l.source.BlockByNumber(context.Background(), number)
	})
	return l
}

// Resume loads a previously persisted checkpoint, if any, and seeds the
// cursor from it.
func (l *Loop) Resume(ctx context.Context) error {
	cp, ok, err := l.store.LoadCheckpoint(ctx, l.cfg.IndexerId)
	if err != nil {
		return &Error{Kind: KindStorage, Cause: fmt.Errorf("resume: %w", err)}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if ok {
		l.cursor = cp.Cursor
	}
	return nil
}

// State returns the loop's current lifecycle state.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Loop) transition(to State) error {
	next, err := Transition(l.state, to)
	if err != nil {
		return err
	}
	l.state = next
	return nil
}

// Run drives Tick in a loop at the given interval until ctx is
// cancelled or Tick returns a fatal error.
func (l *Loop) Run(ctx context.Context, interval time.Duration) error {
	l.mu.Lock()
	l.runId = uuid.NewString()
	l.logger.Printf("run %s starting", l.runId)
	if err := l.transition(StateBackfilling); err != nil {
		l.mu.Unlock()
		return err
	}
	l.mu.Unlock()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.mu.Lock()
			_ = l.transition(StateStopping)
			_ = l.transition(StateStopped)
			l.mu.Unlock()
			return nil
		case <-ticker.C:
			if err := l.Tick(ctx); err != nil {
				l.mu.Lock()
				_ = l.transition(StateError)
				l.mu.Unlock()
				return &Error{Kind: KindAborted, Reason: "tick failed", Cause: err}
			}
		}
	}
}

// Tick runs one iteration of the index loop body: it fetches the
// latest head, computes target = min(head - confirmation_depth,
// ToBlock or unbounded), and — if the cursor is behind target — fetches,
// decodes, and dispatches a batch of up to BatchSize blocks capped at
// target, per spec §4.10.
func (l *Loop) Tick(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	head, err := l.source.HeadNumber(ctx)
	if err != nil {
		return &Error{Kind: KindRpc, Cause: fmt.Errorf("fetch head: %w", err)}
	}
	if head < l.cfg.ConfirmationDepth {
		return nil
	}
	target := head - l.cfg.ConfirmationDepth
	if l.cfg.ToBlock != nil && *l.cfg.ToBlock < target {
		target = *l.cfg.ToBlock
	}

	if l.cfg.Metrics != nil && target >= l.cursor.BlockNumber {
		l.cfg.Metrics.ObserveLag(l.cfg.IndexerId, target-l.cursor.BlockNumber)
	}

	if l.cursor.BlockNumber >= target && l.cursor.BlockHash != "" {
		if l.state != StateLive {
			if err := l.transition(StateLive); err != nil {
				return err
			}
		}
		return nil
	}

	batchSize := l.cfg.BatchSize
	if batchSize == 0 {
		batchSize = 1
	}
	start := l.cursor.BlockNumber + 1
	end := start + batchSize - 1
	if end > target {
		end = target
	}

	for number := start; number <= end; number++ {
		if err := l.processBlock(ctx, number); err != nil {
			return err
		}
	}

	return nil
}

// processBlock fetches block `number`, runs it through reorg detection,
// dispatches its logs, advances the cursor, and conditionally
// checkpoints.
func (l *Loop) processBlock(ctx context.Context, number uint64) error {
	block, err := l.source.BlockByNumber(ctx, number)
	if err != nil {
		return &Error{Kind: KindRpc, Cause: fmt.Errorf("fetch block %d: %w", number, err)}
	}

	checkpointedAt := uint64(0)
	if l.cfg.CheckpointEvery > 0 {
		checkpointedAt = l.cursor.BlockNumber
	}

	reorg, replay, err := l.detector.Observe(l.tracker, checkpointedAt, block)
	if err != nil {
		if ierr, fatal := err.(*Error); fatal && ierr.Kind == KindCheckpointMismatch {
			_ = l.transition(StateError)
		}
		return err
	}

	if reorg != nil {
		if err := l.transition(StateReorgRecovery); err != nil {
			return err
		}
		l.logger.Printf("reorg detected: depth=%d common_ancestor=%d", reorg.Depth, reorg.CommonAncestor)
		ancestor, _ := l.tracker.At(reorg.CommonAncestor)
		l.cursor = l.cursor.Rewind(ancestor.Number, ancestor.Hash)
		for _, b := range replay {
			if err := l.dispatchBlock(ctx, b); err != nil {
				return err
			}
			l.cursor, err = l.cursor.Advance(b.Number, b.Hash)
			if err != nil {
				return err
			}
			if err := l.checkpointIfDue(ctx, b); err != nil {
				return err
			}
		}
		if err := l.transition(StateBackfilling); err != nil {
			return err
		}
		return nil
	}

	if err := l.dispatchBlock(ctx, block); err != nil {
		return err
	}
	l.cursor, err = l.cursor.Advance(block.Number, block.Hash)
	if err != nil {
		return err
	}
	return l.checkpointIfDue(ctx, block)
}

func (l *Loop) checkpointIfDue(ctx context.Context, block BlockInfo) error {
	l.sinceCheck++
	if l.cfg.CheckpointEvery != 0 && l.sinceCheck < l.cfg.CheckpointEvery {
		return nil
	}
	cp := NewCheckpoint(l.cfg.IndexerId, l.cursor, time.Unix(int64(block.Timestamp), 0))
	if err := l.store.SaveCheckpoint(ctx, cp); err != nil {
		return &Error{Kind: KindStorage, Cause: fmt.Errorf("save checkpoint: %w", err)}
	}
	l.sinceCheck = 0
	return nil
}

func (l *Loop) dispatchBlock(ctx context.Context, block BlockInfo) error {
	logs, err := l.source.LogsForBlock(ctx, block.Number)
	if err != nil {
		return &Error{Kind: KindRpc, Cause: fmt.Errorf("fetch logs for block %d: %w", block.Number, err)}
	}
	snap := l.reg.Snapshot()
	decoded := make([]*evm.DecodedEvent, 0, len(logs))
	for _, raw := range logs {
		event, err := l.decoder.DecodeItem(raw)
		if err != nil {
			l.logger.Printf("decode failed at block %d log %d: %v", block.Number, raw.LogIndex, err)
			continue
		}
		fp, _ := evm.Fingerprint(raw)
		idxCtx := IndexContext{Chain: l.cfg.Chain, Block: block, Event: event}

		failures, abort := snap.Dispatch(fp, idxCtx, l.cfg.HandlerErrorPolicy)
		for _, f := range failures {
			l.logger.Printf("handler %q failed at block %d log %d: %v", f.Name, block.Number, raw.LogIndex, f.Err)
			if l.cfg.Metrics != nil {
				l.cfg.Metrics.ObserveDispatch(fp, "error")
			}
		}
		if abort {
			last := failures[len(failures)-1]
			return &Error{Kind: KindHandler, HandlerName: last.Name, Reason: last.Err.Error(), Cause: last.Err}
		}
		if len(failures) == 0 {
			if l.cfg.Metrics != nil {
				l.cfg.Metrics.ObserveDispatch(fp, "ok")
			}
			decoded = append(decoded, event)
		}
		if len(failures) > 0 && l.cfg.HandlerErrorPolicy == HandlerPolicySkipBlock {
			break
		}
	}
	if len(decoded) > 0 {
		if err := l.store.PutEvents(ctx, decoded); err != nil {
			return &Error{Kind: KindStorage, Cause: fmt.Errorf("persist events for block %d: %w", block.Number, err)}
		}
	}
	return nil
}
