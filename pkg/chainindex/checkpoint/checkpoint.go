// Package checkpoint defines the cursor and checkpoint value types shared
// by pkg/chainindex and pkg/chainindex/storage. It is a leaf package with
// no dependency on either, so both sides can import it without forming a
// cycle.
package checkpoint

import (
	"fmt"
	"time"
)

// Cursor is the indexer's position: the last confirmed block and the
// confirmation depth it was indexed at. Invariant: every Advance
// monotonically increases BlockNumber by exactly 1 unless driven by an
// explicit Rewind from reorg recovery.
type Cursor struct {
	BlockNumber       uint64
	BlockHash         string
	ConfirmationDepth uint64
}

// Advance moves the cursor forward by exactly one block. A zero-valued
// cursor (block 0, empty hash) accepts any nextNumber as its first block.
func (c Cursor) Advance(nextNumber uint64, nextHash string) (Cursor, error) {
	if c.BlockNumber != 0 || c.BlockHash != "" {
		if nextNumber != c.BlockNumber+1 {
			return c, fmt.Errorf("checkpoint: cursor advance must increase block_number by exactly 1, have %d want %d", nextNumber, c.BlockNumber+1)
		}
	}
	return Cursor{BlockNumber: nextNumber, BlockHash: nextHash, ConfirmationDepth: c.ConfirmationDepth}, nil
}

// Rewind resets the cursor to an earlier block, the only path by which
// BlockNumber may decrease, used exclusively by reorg recovery.
func (c Cursor) Rewind(toNumber uint64, toHash string) Cursor {
	return Cursor{BlockNumber: toNumber, BlockHash: toHash, ConfirmationDepth: c.ConfirmationDepth}
}

// Checkpoint is a durable snapshot of one indexer's cursor, written
// idempotently (same indexer id + cursor always produces the same
// checkpoint record).
type Checkpoint struct {
	IndexerId string
	Cursor    Cursor
	Timestamp time.Time
}

// New builds a Checkpoint for indexerId at cursor, stamped at ts. The
// caller supplies ts since this package never calls time.Now() directly,
// keeping checkpoint construction deterministic for callers that need it
// (the index loop stamps it from its own clock source).
func New(indexerId string, cursor Cursor, ts time.Time) Checkpoint {
	return Checkpoint{IndexerId: indexerId, Cursor: cursor, Timestamp: ts}
}
