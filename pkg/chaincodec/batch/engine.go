// Package batch implements the chunked, parallel decode engine: the single
// authoritative entry point for batch decoding (spec §9 Open Question 1),
// dispatching per-chain through a registered decoder table.
package batch

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	cerrors "github.com/chainkit/chainkit/pkg/chaincodec/errors"
	"github.com/chainkit/chainkit/pkg/chaincodec/evm"
)

// ErrorMode selects how item-level decode failures are handled.
type ErrorMode int

const (
	Skip ErrorMode = iota
	Collect
	Throw
)

// IndexedError pairs a DecodeError with its position in the original input.
type IndexedError struct {
	Index int
	Err   error
}

// Result is the batch engine's output.
type Result struct {
	Events     []*evm.DecodedEvent
	Errors     []IndexedError
	TotalInput int
}

// ItemDecoder is the capability the engine dispatches to per chain slug.
type ItemDecoder interface {
	DecodeItem(raw evm.RawLog) (*evm.DecodedEvent, error)
}

// Engine is the chunked, parallel batch decode engine. Workers within a
// chunk run unordered; chunks are strictly sequential, bounding memory and
// keeping progress monotone, per spec §4.4/§5.
type Engine struct {
	mu         sync.RWMutex
	decoders   map[string]ItemDecoder
	maxWorkers int
}

// NewEngine builds an Engine whose CPU pool is bounded to
// min(runtime.NumCPU(), maxWorkers). maxWorkers <= 0 means "no extra cap
// beyond NumCPU".
func NewEngine(maxWorkers int) *Engine {
	workers := runtime.NumCPU()
	if maxWorkers > 0 && maxWorkers < workers {
		workers = maxWorkers
	}
	return &Engine{decoders: make(map[string]ItemDecoder), maxWorkers: workers}
}

// RegisterDecoder adds chainSlug's decoder to the dispatch table.
func (e *Engine) RegisterDecoder(chainSlug string, d ItemDecoder) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.decoders[chainSlug] = d
}

// Decode runs the batch contract from spec §4.4 over logs.
func (e *Engine) Decode(
	ctx context.Context,
	logs []evm.RawLog,
	chainSlug string,
	chunkSize int,
	mode ErrorMode,
	onProgress func(decodedSoFar, totalInput int),
) (*Result, error) {
	if chunkSize <= 0 {
		chunkSize = 100
	}

	e.mu.RLock()
	decoder, ok := e.decoders[chainSlug]
	e.mu.RUnlock()
	if !ok {
		return nil, &cerrors.BatchDecodeError{Kind: cerrors.Other, Detail: fmt.Sprintf("no decoder registered for chain %q", chainSlug)}
	}

	result := &Result{TotalInput: len(logs)}
	sem := semaphore.NewWeighted(int64(e.maxWorkers))

	for chunkOffset := 0; chunkOffset < len(logs); chunkOffset += chunkSize {
		end := chunkOffset + chunkSize
		if end > len(logs) {
			end = len(logs)
		}
		chunk := logs[chunkOffset:end]

		type outcome struct {
			localIndex int
			event      *evm.DecodedEvent
			err        error
		}
		outcomes := make([]outcome, len(chunk))

		g, gctx := errgroup.WithContext(ctx)
		for localIndex, item := range chunk {
			localIndex, item := localIndex, item
			g.Go(func() error {
				if err := sem.Acquire(gctx, 1); err != nil {
					return err
				}
				defer sem.Release(1)

				ev, err := decoder.DecodeItem(item)
				outcomes[localIndex] = outcome{localIndex: localIndex, event: ev, err: err}

				if mode == Throw && err != nil {
					return &cerrors.BatchDecodeError{Kind: cerrors.ItemFailed, Index: chunkOffset + localIndex, Source: err}
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return result, err
		}

		for _, o := range outcomes {
			globalIndex := chunkOffset + o.localIndex
			if o.err != nil {
				switch mode {
				case Collect:
					result.Errors = append(result.Errors, IndexedError{Index: globalIndex, Err: o.err})
				case Skip:
					// dropped silently; never aborts.
				}
				continue
			}
			result.Events = append(result.Events, o.event)
		}

		if onProgress != nil {
			onProgress(len(result.Events)+len(result.Errors), result.TotalInput)
		}
	}

	return result, nil
}
