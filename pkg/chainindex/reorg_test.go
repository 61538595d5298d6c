package chainindex

import "testing"

// TestDetector_SimpleOneBlockReorg exercises S6: tracker head {100,A}; next
// block 101 arrives with parent B != A. Walking back, refetched block 100
// has hash B and agrees with tracked block 99, so the common ancestor is
// 99: rewind to 99, replay 100' and 101.
func TestDetector_SimpleOneBlockReorg(t *testing.T) {
	tr := NewTracker(10)
	must(t, tr.Append(BlockInfo{Number: 98, Hash: "h98", ParentHash: "h97"}))
	must(t, tr.Append(BlockInfo{Number: 99, Hash: "h99", ParentHash: "h98"}))
	must(t, tr.Append(BlockInfo{Number: 100, Hash: "A", ParentHash: "h99"}))

	fetched100 := BlockInfo{Number: 100, Hash: "B", ParentHash: "h99"}
	d := NewDetector(func(number uint64) (BlockInfo, error) {
		if number == 100 {
			return fetched100, nil
		}
		t.Fatalf("unexpected fetch for block %d", number)
		return BlockInfo{}, nil
	})

	next := BlockInfo{Number: 101, Hash: "h101", ParentHash: "B"}
	event, replay, err := d.Observe(tr, 0, next)
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if event == nil {
		t.Fatal("expected a reorg event")
	}
	if event.Depth != 1 || event.CommonAncestor != 99 {
		t.Errorf("event = %+v, want depth=1 ancestor=99", event)
	}
	if len(replay) != 2 || replay[0].Hash != "B" || replay[1].Hash != "h101" {
		t.Errorf("replay = %+v, want [B, h101]", replay)
	}
	head, _ := tr.Head()
	if head.Number != 101 || head.Hash != "h101" {
		t.Errorf("final head = %+v, want {101 h101}", head)
	}
}

// TestDetector_NoReorgAppendsCleanly covers the common case: parent hash
// matches, no walk-back needed.
func TestDetector_NoReorgAppendsCleanly(t *testing.T) {
	tr := NewTracker(10)
	must(t, tr.Append(BlockInfo{Number: 100, Hash: "A"}))
	d := NewDetector(func(number uint64) (BlockInfo, error) {
		t.Fatalf("fetch should not be called when parent hash matches")
		return BlockInfo{}, nil
	})
	event, replay, err := d.Observe(tr, 0, BlockInfo{Number: 101, Hash: "B", ParentHash: "A"})
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if event != nil || replay != nil {
		t.Errorf("expected no reorg, got event=%+v replay=%v", event, replay)
	}
}

// TestDetector_ZeroConfirmationFork covers the fork-at-the-tip case: next
// has the same number as head but a different hash, and nothing has been
// dispatched for the old tip yet.
func TestDetector_ZeroConfirmationFork(t *testing.T) {
	tr := NewTracker(10)
	must(t, tr.Append(BlockInfo{Number: 100, Hash: "A"}))
	d := NewDetector(func(number uint64) (BlockInfo, error) {
		t.Fatalf("zero-confirmation fork should not need a refetch")
		return BlockInfo{}, nil
	})
	event, _, err := d.Observe(tr, 0, BlockInfo{Number: 100, Hash: "A2"})
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if event == nil || event.Depth != 0 {
		t.Errorf("event = %+v, want depth 0 fork", event)
	}
	head, _ := tr.Head()
	if head.Hash != "A2" {
		t.Errorf("head.Hash = %q, want A2 (in-place replace)", head.Hash)
	}
}

// TestDetector_CheckpointMismatchIsFatal covers scenario 3: the common
// ancestor found during walk-back lies at or before the already
// checkpointed block, so recovery cannot proceed.
func TestDetector_CheckpointMismatchIsFatal(t *testing.T) {
	tr := NewTracker(10)
	must(t, tr.Append(BlockInfo{Number: 98, Hash: "h98", ParentHash: "h97"}))
	must(t, tr.Append(BlockInfo{Number: 99, Hash: "h99", ParentHash: "h98"}))
	must(t, tr.Append(BlockInfo{Number: 100, Hash: "A", ParentHash: "h99"}))

	fetched100 := BlockInfo{Number: 100, Hash: "B", ParentHash: "h99"}
	d := NewDetector(func(number uint64) (BlockInfo, error) {
		return fetched100, nil
	})

	next := BlockInfo{Number: 101, Hash: "h101", ParentHash: "B"}
	// checkpointedAt=99 means block 99 is already durably checkpointed;
	// the detected ancestor is also 99, so recovery is fatal.
	_, _, err := d.Observe(tr, 99, next)
	ierr, ok := err.(*Error)
	if !ok || ierr.Kind != KindCheckpointMismatch {
		t.Fatalf("expected *Error{Kind: KindCheckpointMismatch}, got %v", err)
	}
}
