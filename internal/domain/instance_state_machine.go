package domain

import (
	"fmt"
)

// InstanceState represents the current state of a workflow instance
type InstanceState string

const (
	// InstanceStateRunning indicates the instance is awaiting step actions
	InstanceStateRunning InstanceState = "RUNNING"
	// InstanceStateCompleted indicates the instance reached an end node or dead end
	InstanceStateCompleted InstanceState = "COMPLETED"
	// InstanceStateRejected indicates a step action rejected the instance
	InstanceStateRejected InstanceState = "REJECTED"
)

// InstanceTransition represents an action that can change instance state
type InstanceTransition string

const (
	// TransitionAdvance moves the instance to the next node, staying RUNNING
	TransitionAdvance InstanceTransition = "Advance"
	// TransitionComplete marks the instance as completed
	TransitionComplete InstanceTransition = "Complete"
	// TransitionReject marks the instance as rejected
	TransitionReject InstanceTransition = "Reject"
)

// InstanceStateMachine enforces valid state transitions for workflow
// instances. RUNNING is the only initial state; COMPLETED and REJECTED are
// terminal and have no outgoing transitions.
//
//	        Advance
//	          ┌──┐
//	          │  ▼
//	       [RUNNING]
//	        │      \
//	     Reject   Complete
//	        │        \
//	        ▼         ▼
//	  [REJECTED]  [COMPLETED]
type InstanceStateMachine struct {
	transitions map[stateTransitionKey]InstanceState
}

type stateTransitionKey struct {
	state      InstanceState
	transition InstanceTransition
}

// NewInstanceStateMachine creates a state machine with the instance
// lifecycle rules.
func NewInstanceStateMachine() *InstanceStateMachine {
	sm := &InstanceStateMachine{
		transitions: make(map[stateTransitionKey]InstanceState),
	}

	sm.addTransition(InstanceStateRunning, TransitionAdvance, InstanceStateRunning)
	sm.addTransition(InstanceStateRunning, TransitionComplete, InstanceStateCompleted)
	sm.addTransition(InstanceStateRunning, TransitionReject, InstanceStateRejected)

	return sm
}

func (sm *InstanceStateMachine) addTransition(from InstanceState, via InstanceTransition, to InstanceState) {
	key := stateTransitionKey{state: from, transition: via}
	sm.transitions[key] = to
}

// Transition attempts to transition from the current state using the given
// action. Returns the new state or an error if the transition is invalid.
func (sm *InstanceStateMachine) Transition(current InstanceState, action InstanceTransition) (InstanceState, error) {
	key := stateTransitionKey{state: current, transition: action}
	next, ok := sm.transitions[key]
	if !ok {
		return current, fmt.Errorf("invalid state transition: cannot %s from %s", action, current)
	}
	return next, nil
}

// CanTransition checks if a transition is valid without performing it.
func (sm *InstanceStateMachine) CanTransition(current InstanceState, action InstanceTransition) bool {
	key := stateTransitionKey{state: current, transition: action}
	_, ok := sm.transitions[key]
	return ok
}

// IsTerminal returns true if the state has no outgoing transitions.
func (sm *InstanceStateMachine) IsTerminal(state InstanceState) bool {
	return state == InstanceStateCompleted || state == InstanceStateRejected
}
