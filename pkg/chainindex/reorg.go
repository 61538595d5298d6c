package chainindex

import "fmt"

// BlockFetcher refetches the canonical block at number from the chain,
// used by the reorg detector to walk back and find the common ancestor.
type BlockFetcher func(number uint64) (BlockInfo, error)

// ReorgEvent describes a detected reorg: Depth is how many blocks were
// refetched while walking back to the common ancestor (0 for a
// zero-confirmation fork, where the head is replaced in place), and
// CommonAncestor is where the chains diverged.
type ReorgEvent struct {
	Depth          int
	CommonAncestor uint64
}

// Detector classifies and resolves the four reorg scenarios from spec
// §4.9: simple single-block reorg, deep reorg, ancestor rewrite behind the
// checkpointed confirmation depth (fatal), and zero-confirmation fork.
type Detector struct {
	Fetch BlockFetcher
}

// NewDetector builds a Detector that refetches ancestors via fetch.
func NewDetector(fetch BlockFetcher) *Detector {
	return &Detector{Fetch: fetch}
}

// Observe processes the next block against tracker's current head. On no
// reorg it appends next and returns (nil, nil, nil). On a resolvable
// reorg it rewinds and replays the tracker, returning the replayed blocks
// (common ancestor exclusive) for the caller to re-dispatch handlers over.
// On an unresolvable rewrite behind checkpointedAt it returns a
// *Error{Kind: KindCheckpointMismatch} without mutating tracker.
func (d *Detector) Observe(tracker *Tracker, checkpointedAt uint64, next BlockInfo) (*ReorgEvent, []BlockInfo, error) {
	head, ok := tracker.Head()
	if !ok {
		return nil, nil, tracker.Append(next)
	}

	if next.ParentHash == head.Hash {
		return nil, nil, tracker.Append(next)
	}

	// Zero-confirmation fork: chain replaced the tip before it was ever
	// confirmed past depth 0 — same height, different hash, nothing has
	// been dispatched for it yet.
	if next.Number == head.Number {
		tracker.ReplaceHead(next)
		return &ReorgEvent{Depth: 0, CommonAncestor: head.Number - 1}, nil, nil
	}

	return d.walkBack(tracker, checkpointedAt, head, next)
}

func (d *Detector) walkBack(tracker *Tracker, checkpointedAt uint64, head, next BlockInfo) (*ReorgEvent, []BlockInfo, error) {
	oldest, hasOldest := tracker.OldestNumber()

	var replay []BlockInfo
	candidateNumber := head.Number
	expectedHash := next.ParentHash
	depth := 0

	for {
		depth++
		if hasOldest && candidateNumber < oldest {
			return nil, nil, fmt.Errorf("chainindex: no common ancestor found within tracked window (back to block %d)", oldest)
		}

		refetched, err := d.Fetch(candidateNumber)
		if err != nil {
			return nil, nil, fmt.Errorf("chainindex: refetch block %d during reorg detection: %w", candidateNumber, err)
		}
		if refetched.Hash != expectedHash {
			return nil, nil, fmt.Errorf("chainindex: refetched block %d hash %s does not match expected %s", candidateNumber, refetched.Hash, expectedHash)
		}
		replay = append([]BlockInfo{refetched}, replay...)

		ancestorNumber := candidateNumber - 1
		if tracked, ok := tracker.At(ancestorNumber); ok && tracked.Hash == refetched.ParentHash {
			if checkpointedAt > 0 && ancestorNumber <= checkpointedAt {
				return nil, nil, &Error{Kind: KindCheckpointMismatch, CheckpointedAt: checkpointedAt, AncestorFound: ancestorNumber}
			}
			if err := tracker.RewindTo(ancestorNumber); err != nil {
				return nil, nil, err
			}
			replay = append(replay, next)
			for _, b := range replay {
				if err := tracker.Append(b); err != nil {
					return nil, nil, err
				}
			}
			return &ReorgEvent{Depth: depth, CommonAncestor: ancestorNumber}, replay, nil
		}

		expectedHash = refetched.ParentHash
		candidateNumber--
		if candidateNumber == 0 {
			return nil, nil, fmt.Errorf("chainindex: no common ancestor found back to genesis")
		}
	}
}
