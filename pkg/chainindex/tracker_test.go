package chainindex

import "testing"

func TestTracker_AppendRejectsBrokenChain(t *testing.T) {
	tr := NewTracker(10)
	must(t, tr.Append(BlockInfo{Number: 100, Hash: "A"}))
	err := tr.Append(BlockInfo{Number: 101, Hash: "C", ParentHash: "B"})
	ierr, ok := err.(*Error)
	if !ok || ierr.Kind != KindReorgDetected {
		t.Fatalf("expected *Error{Kind: KindReorgDetected}, got %v", err)
	}
}

func TestTracker_AppendAcceptsChainedBlock(t *testing.T) {
	tr := NewTracker(10)
	must(t, tr.Append(BlockInfo{Number: 100, Hash: "A"}))
	must(t, tr.Append(BlockInfo{Number: 101, Hash: "B", ParentHash: "A"}))
	head, ok := tr.Head()
	if !ok || head.Number != 101 {
		t.Fatalf("head = %+v, ok=%v", head, ok)
	}
}

func TestTracker_CapacityTrimsOldest(t *testing.T) {
	tr := NewTracker(2)
	must(t, tr.Append(BlockInfo{Number: 1, Hash: "a"}))
	must(t, tr.Append(BlockInfo{Number: 2, Hash: "b", ParentHash: "a"}))
	must(t, tr.Append(BlockInfo{Number: 3, Hash: "c", ParentHash: "b"}))
	if tr.Len() != 2 {
		t.Fatalf("len = %d, want 2", tr.Len())
	}
	if _, ok := tr.At(1); ok {
		t.Fatalf("block 1 should have been trimmed")
	}
}

func TestTracker_RewindTo(t *testing.T) {
	tr := NewTracker(10)
	must(t, tr.Append(BlockInfo{Number: 1, Hash: "a"}))
	must(t, tr.Append(BlockInfo{Number: 2, Hash: "b", ParentHash: "a"}))
	must(t, tr.Append(BlockInfo{Number: 3, Hash: "c", ParentHash: "b"}))
	must(t, tr.RewindTo(1))
	head, _ := tr.Head()
	if head.Number != 1 {
		t.Fatalf("head.Number = %d, want 1", head.Number)
	}
	if err := tr.RewindTo(99); err == nil {
		t.Fatal("expected error rewinding to untracked block")
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
