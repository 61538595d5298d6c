package chainindex

import "testing"

func TestTransition_ValidPath(t *testing.T) {
	s := StateIdle
	var err error
	for _, to := range []State{StateBackfilling, StateLive, StateReorgRecovery, StateLive, StateStopping, StateStopped} {
		s, err = Transition(s, to)
		if err != nil {
			t.Fatalf("transition to %s: %v", to, err)
		}
	}
	if s != StateStopped {
		t.Fatalf("final state = %s, want stopped", s)
	}
}

func TestTransition_RejectsInvalid(t *testing.T) {
	if _, err := Transition(StateIdle, StateLive); err == nil {
		t.Fatal("expected idle->live to be rejected")
	}
	if _, err := Transition(StateStopped, StateLive); err == nil {
		t.Fatal("expected stopped->live to be rejected")
	}
}
