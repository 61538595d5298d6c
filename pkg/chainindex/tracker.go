// Package chainindex implements the reorg-safe index loop: block tracker,
// reorg detector, cursor/checkpoint persistence, handler dispatch, and the
// Idle→Backfilling→Live→ReorgRecovery state machine.
package chainindex

import "fmt"

// BlockInfo is one tracked block header, enough to validate the
// parent-hash chain.
type BlockInfo struct {
	Number     uint64
	Hash       string
	ParentHash string
	Timestamp  uint64
}

// Tracker holds a bounded ordered sequence of recent BlockInfo, oldest
// first, and rejects any append whose parent hash doesn't match the
// current head's hash.
type Tracker struct {
	capacity int
	blocks   []BlockInfo
}

// NewTracker builds a Tracker with the given capacity, which must be at
// least confirmationDepth + safety margin (recommended margin 32) per
// spec §4.9.
func NewTracker(capacity int) *Tracker {
	if capacity < 1 {
		capacity = 1
	}
	return &Tracker{capacity: capacity}
}

// Head returns the most recently appended block.
func (t *Tracker) Head() (BlockInfo, bool) {
	if len(t.blocks) == 0 {
		return BlockInfo{}, false
	}
	return t.blocks[len(t.blocks)-1], true
}

// At returns the tracked block with the given number, if still within the
// window.
func (t *Tracker) At(number uint64) (BlockInfo, bool) {
	for _, b := range t.blocks {
		if b.Number == number {
			return b, true
		}
	}
	return BlockInfo{}, false
}

// OldestNumber returns the number of the oldest tracked block.
func (t *Tracker) OldestNumber() (uint64, bool) {
	if len(t.blocks) == 0 {
		return 0, false
	}
	return t.blocks[0].Number, true
}

// Append adds block to the tracker. It is rejected with a
// *Error{Kind: KindReorgDetected} when block.ParentHash does not equal
// the current head's hash (and the tracker is non-empty).
func (t *Tracker) Append(block BlockInfo) error {
	if head, ok := t.Head(); ok && block.ParentHash != head.Hash {
		return &Error{Kind: KindReorgDetected, AtBlock: block.Number, ExpectedParent: head.Hash, GotParent: block.ParentHash}
	}
	t.blocks = append(t.blocks, block)
	if len(t.blocks) > t.capacity {
		t.blocks = t.blocks[len(t.blocks)-t.capacity:]
	}
	return nil
}

// ReplaceHead overwrites the current head in place, for the zero-
// confirmation fork scenario where no handler dispatch has occurred yet.
func (t *Tracker) ReplaceHead(block BlockInfo) {
	if len(t.blocks) == 0 {
		t.blocks = append(t.blocks, block)
		return
	}
	t.blocks[len(t.blocks)-1] = block
}

// RewindTo truncates the tracker to the prefix ending at (and including)
// blockNumber. It errors if blockNumber is not currently tracked.
func (t *Tracker) RewindTo(blockNumber uint64) error {
	for i, b := range t.blocks {
		if b.Number == blockNumber {
			t.blocks = t.blocks[:i+1]
			return nil
		}
	}
	return fmt.Errorf("chainindex: cannot rewind to untracked block %d", blockNumber)
}

// Len returns the number of currently tracked blocks.
func (t *Tracker) Len() int { return len(t.blocks) }
