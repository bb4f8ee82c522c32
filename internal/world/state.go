package world

import (
	"errors"
	"fmt"
)

// State is a chunk's position in the build pipeline.
type State uint8

const (
	StateNone State = iota
	StateNoiseGenerated
	StateDecorated
	StateMeshConstructing
	StateMeshConstructed
	StateDone
)

func (s State) String() string {
	switch s {
	case StateNone:
		return "none"
	case StateNoiseGenerated:
		return "noise_generated"
	case StateDecorated:
		return "decorated"
	case StateMeshConstructing:
		return "mesh_constructing"
	case StateMeshConstructed:
		return "mesh_constructed"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Trigger is an event that moves a chunk between states.
type Trigger uint8

const (
	TriggerNoiseGenerated Trigger = iota + 1
	TriggerDecorated
	TriggerMeshStart
	TriggerMeshConstructed
	TriggerBatched
	// TriggerRollback is the only regression allowed outside pooling.
	TriggerRollback
	TriggerReset
)

func (t Trigger) String() string {
	switch t {
	case TriggerNoiseGenerated:
		return "noise_generated"
	case TriggerDecorated:
		return "decorated"
	case TriggerMeshStart:
		return "mesh_start"
	case TriggerMeshConstructed:
		return "mesh_constructed"
	case TriggerBatched:
		return "batched"
	case TriggerRollback:
		return "rollback"
	case TriggerReset:
		return "reset"
	default:
		return fmt.Sprintf("trigger(%d)", uint8(t))
	}
}

// ErrInvalidTransition is wrapped by every rejected transition.
var ErrInvalidTransition = errors.New("invalid chunk state transition")

// TransitionError describes a rejected transition.
type TransitionError struct {
	From    State
	Trigger Trigger
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid chunk state transition: %s on %s", e.Trigger, e.From)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

var transitions = map[Trigger]struct{ from, to State }{
	TriggerNoiseGenerated:  {StateNone, StateNoiseGenerated},
	TriggerDecorated:       {StateNoiseGenerated, StateDecorated},
	TriggerMeshStart:       {StateDecorated, StateMeshConstructing},
	TriggerMeshConstructed: {StateMeshConstructing, StateMeshConstructed},
	TriggerBatched:         {StateMeshConstructed, StateDone},
	TriggerRollback:        {StateDone, StateDecorated},
}

// Advance is the single transition function shared by every stage driver.
// Reset is accepted from any state; everything else must match the table.
func Advance(from State, t Trigger) (State, error) {
	if t == TriggerReset {
		return StateNone, nil
	}
	tr, ok := transitions[t]
	if !ok || tr.from != from {
		return from, &TransitionError{From: from, Trigger: t}
	}
	return tr.to, nil
}
