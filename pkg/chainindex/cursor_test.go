package chainindex

import "testing"

func TestCursor_AdvanceRequiresExactlyOne(t *testing.T) {
	c := Cursor{BlockNumber: 10, BlockHash: "a"}
	next, err := c.Advance(11, "b")
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if next.BlockNumber != 11 || next.BlockHash != "b" {
		t.Errorf("next = %+v", next)
	}

	if _, err := c.Advance(13, "z"); err == nil {
		t.Fatal("expected error advancing by more than one block")
	}
}

func TestCursor_RewindBypassesMonotonicCheck(t *testing.T) {
	c := Cursor{BlockNumber: 100, BlockHash: "a"}
	rewound := c.Rewind(90, "z")
	if rewound.BlockNumber != 90 {
		t.Errorf("BlockNumber = %d, want 90", rewound.BlockNumber)
	}
}
