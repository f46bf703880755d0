package pipeline

import (
	"errors"
	"fmt"
)

var ErrInvalidTransition = errors.New("pipeline: invalid state transition")

// State is the position of the current frame in the pass order.
type State int

const (
	Idle State = iota
	UniformsBound
	KernelExecuted
	BlurredHorizontal
	BlurredVertical
	Composited
	Presented
)

var stateNames = [...]string{
	Idle:              "Idle",
	UniformsBound:     "UniformsBound",
	KernelExecuted:    "KernelExecuted",
	BlurredHorizontal: "BlurredHorizontal",
	BlurredVertical:   "BlurredVertical",
	Composited:        "Composited",
	Presented:         "Presented",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Tracker enforces the per-frame order
// Idle -> UniformsBound -> KernelExecuted -> Blurred(x2) -> Composited -> Presented.
// Any state may jump straight to Presented when the overlay is dropped.
type Tracker struct {
	state State
}

func (t *Tracker) State() State { return t.state }

// Begin starts a new frame. The previous one must have been presented.
func (t *Tracker) Begin() error {
	if t.state != Idle && t.state != Presented {
		return fmt.Errorf("%w: begin frame in %s", ErrInvalidTransition, t.state)
	}
	t.state = Idle
	return nil
}

func (t *Tracker) Advance(next State) error {
	if next == t.state+1 || (next == Presented && t.state != Presented) {
		t.state = next
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.state, next)
}

// Abort returns to Idle after a frame failed to present.
func (t *Tracker) Abort() {
	t.state = Idle
}
