package pipeline

import (
	"fmt"
	"sync"
)

// State is one step of an import action
type State string

const (
	StateIdle        State = "idle"
	StateParsing     State = "parsing"
	StateMapping     State = "mapping"
	StateNormalizing State = "normalizing"
	StateValidating  State = "validating"
	StateImporting   State = "importing"
	StateReconciling State = "reconciling"
	StateAssociating State = "associating"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// transitions lists the allowed next states. mapping -> mapping is the user
// editing the mapping; mapping -> parsing is the user picking another file.
var transitions = map[State][]State{
	StateIdle:        {StateParsing},
	StateParsing:     {StateMapping, StateFailed},
	StateMapping:     {StateMapping, StateParsing, StateNormalizing},
	StateNormalizing: {StateValidating, StateFailed},
	StateValidating:  {StateImporting},
	StateImporting:   {StateReconciling, StateFailed},
	StateReconciling: {StateAssociating},
	StateAssociating: {StateDone, StateFailed},
}

// Terminal reports whether no further transition is possible
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// CanTransition reports whether from -> to is an allowed edge
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Machine tracks the state of one import action
type Machine struct {
	mu      sync.Mutex
	state   State
	history []State
	onEnter func(from, to State)
}

// NewMachine starts in idle
func NewMachine() *Machine {
	return ResumeMachine(StateIdle)
}

// ResumeMachine starts at an intermediate state, used when the earlier stages
// ran in a previous request (a draft that was validated before submission)
func ResumeMachine(at State) *Machine {
	return &Machine{state: at, history: []State{at}}
}

// OnEnter registers a hook called after every successful transition
func (m *Machine) OnEnter(fn func(from, to State)) {
	m.mu.Lock()
	m.onEnter = fn
	m.mu.Unlock()
}

// State returns the current state
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// History returns every state entered, starting with the initial one
func (m *Machine) History() []State {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]State, len(m.history))
	copy(out, m.history)
	return out
}

// Transition moves to the next state or returns an error for an illegal edge
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	from := m.state
	if !CanTransition(from, to) {
		m.mu.Unlock()
		return fmt.Errorf("illegal pipeline transition %s -> %s", from, to)
	}
	m.state = to
	m.history = append(m.history, to)
	hook := m.onEnter
	m.mu.Unlock()

	if hook != nil {
		hook(from, to)
	}
	return nil
}

// Fail moves to failed when the current state allows it
func (m *Machine) Fail() error {
	return m.Transition(StateFailed)
}
