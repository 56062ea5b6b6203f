// Package fsm defines the recorder lifecycle as a pure transition table.
package fsm

import (
	"errors"
	"fmt"
)

type State string

type Event string

const (
	StateIdle         State = "idle"
	StateRecording    State = "recording"
	StateTranscribing State = "transcribing"
)

const (
	EventPress    Event = "press"
	EventDispatch Event = "dispatch"
	EventDiscard  Event = "discard"
	EventComplete Event = "complete"
	EventFail     Event = "fail"
)

var ErrInvalidTransition = errors.New("invalid transition")

type edge struct {
	from State
	on   Event
}

// transcribing is only entered from recording; every other edge returns to idle.
var table = map[edge]State{
	{StateIdle, EventPress}:            StateRecording,
	{StateRecording, EventDispatch}:    StateTranscribing,
	{StateRecording, EventDiscard}:     StateIdle,
	{StateRecording, EventFail}:        StateIdle,
	{StateTranscribing, EventComplete}: StateIdle,
	{StateTranscribing, EventFail}:     StateIdle,
}

// Transition returns the next state for event, or the current state and an
// error wrapping ErrInvalidTransition. Callers serialize calls under their own lock.
func Transition(current State, event Event) (State, error) {
	if !current.known() {
		return current, fmt.Errorf("unknown state %q", current)
	}
	next, ok := table[edge{current, event}]
	if !ok {
		return current, fmt.Errorf("%w: %s --(%s)--> ?", ErrInvalidTransition, current, event)
	}
	return next, nil
}

// Busy reports whether a capture session currently owns the recorder.
func Busy(state State) bool {
	return state == StateRecording || state == StateTranscribing
}

func (s State) known() bool {
	switch s {
	case StateIdle, StateRecording, StateTranscribing:
		return true
	}
	return false
}
