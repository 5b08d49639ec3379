// pkg/ingest/state.go
package ingest

import (
	"fmt"
	"sync"
)

// State is a stage of an ingestion batch
type State string

const (
	StateIdle         State = "IDLE"
	StateLoading      State = "LOADING"
	StateNormalizing  State = "NORMALIZING"
	StateTransforming State = "TRANSFORMING"
	StateDeduping     State = "DEDUPING"
	StatePersisting   State = "PERSISTING"
	StateDone         State = "DONE"
	StateFailed       State = "FAILED"
)

// Terminal reports whether no further transition is allowed
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

var transitions = map[State]State{
	StateIdle:         StateLoading,
	StateLoading:      StateNormalizing,
	StateNormalizing:  StateTransforming,
	StateTransforming: StateDeduping,
	StateDeduping:     StatePersisting,
	StatePersisting:   StateDone,
}

// TransitionError reports an illegal state change
type TransitionError struct {
	From, To State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal batch transition %s -> %s", e.From, e.To)
}

// stateMachine tracks the stage of a single batch. Stages advance strictly
// in order; FAILED is reachable from any non-terminal stage.
type stateMachine struct {
	mu      sync.RWMutex
	current State
	history []State
}

func newStateMachine() *stateMachine {
	return &stateMachine{current: StateIdle, history: []State{StateIdle}}
}

func (m *stateMachine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

func (m *stateMachine) History() []State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]State, len(m.history))
	copy(out, m.history)
	return out
}

func (m *stateMachine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	legal := transitions[m.current] == to || (to == StateFailed && !m.current.Terminal())
	if !legal {
		return &TransitionError{From: m.current, To: to}
	}
	m.current = to
	m.history = append(m.history, to)
	return nil
}
