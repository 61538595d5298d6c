package chainindex

import "fmt"

// State is a position in the indexer's lifecycle state machine (spec
// §4.10): Idle→Backfilling→Live→ReorgRecovery→Stopping→Stopped, with
// Error reachable from any running state.
type State int

const (
	StateIdle State = iota
	StateBackfilling
	StateLive
	StateReorgRecovery
	StateStopping
	StateStopped
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBackfilling:
		return "backfilling"
	case StateLive:
		return "live"
	case StateReorgRecovery:
		return "reorg_recovery"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

var validTransitions = map[State]map[State]bool{
	StateIdle:         {StateBackfilling: true, StateStopping: true},
	StateBackfilling:  {StateLive: true, StateReorgRecovery: true, StateStopping: true, StateError: true},
	StateLive:         {StateReorgRecovery: true, StateStopping: true, StateError: true},
	StateReorgRecovery: {StateLive: true, StateBackfilling: true, StateStopping: true, StateError: true},
	StateStopping:     {StateStopped: true},
	StateStopped:      {},
	StateError:        {StateStopping: true},
}

// InvalidTransitionError reports an attempted state machine transition
// that the table in spec §4.10 does not allow.
type InvalidTransitionError struct {
	From, To State
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("chainindex: invalid state transition %s -> %s", e.From, e.To)
}

// Transition moves from to, validating against the table. It is a pure
// function over State: the caller (Loop) owns persisting/publishing it.
func Transition(from, to State) (State, error) {
	if allowed, ok := validTransitions[from]; !ok || !allowed[to] {
		return from, &InvalidTransitionError{From: from, To: to}
	}
	return to, nil
}
