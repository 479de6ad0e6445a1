package compiled

import (
	"GoFST/internal/automaton"
)

// State is a state of a byte-level matcher.
type State uint32

// DeadState is the sink state from which no accepting state is reachable.
const DeadState State = 0

// Matcher runs a deterministic automaton one byte at a time. All term
// expansion (prefix, wildcard, fuzzy) is executed as Matcher ∩ FST.
//
// Properties:
//   - Deterministic: single transition per (state, input)
//   - Finite: bounded state count
//   - No ε-transitions
type Matcher interface {
	// Start returns the initial state.
	Start() State

	// Step returns the next state for the given input byte.
	// Returns DeadState if no transition exists.
	Step(state State, b byte) State

	// IsAccept returns true if the state is an accepting state.
	IsAccept(state State) bool

	// CanMatch returns true if any accepting state is reachable from this state.
	// Used for pruning during FST intersection.
	CanMatch(state State) bool
}

// ByteRunAutomaton is a table-driven Matcher over a byte automaton.
//
// State s of the underlying DFA is exposed as State(s+1) so that 0 stays
// the dead state.
type ByteRunAutomaton struct {
	dfa    *automaton.Automaton
	table  []State // table[state*256+b] = next state
	accept []bool
	live   []bool
}

var _ Matcher = (*ByteRunAutomaton)(nil)

// NewByteRunAutomaton compiles a into a transition table. Labels above 0xFF
// are dropped, then the automaton is determinized and its dead states
// removed.
func NewByteRunAutomaton(a *automaton.Automaton) *ByteRunAutomaton {
	dfa := automaton.RemoveDeadStates(automaton.Determinize(clipBytes(a)))
	n := dfa.NumStates()
	r := &ByteRunAutomaton{
		dfa:    dfa,
		table:  make([]State, (n+1)*256),
		accept: make([]bool, n+1),
		live:   make([]bool, n+1),
	}
	for s := 0; s < n; s++ {
		ts := dfa.Transitions(s)
		r.accept[s+1] = dfa.IsAccept(s)
		// Transitions into dead states were removed, so any state that can
		// still move is live.
		r.live[s+1] = r.accept[s+1] || len(ts) > 0
		row := r.table[(s+1)*256 : (s+2)*256]
		for _, t := range ts {
			for b := t.Min; b <= t.Max; b++ {
				row[b] = State(t.To + 1)
			}
		}
	}
	return r
}

// clipBytes restricts every transition of a to [0, MaxByteLabel].
func clipBytes(a *automaton.Automaton) *automaton.Automaton {
	n := a.NumStates()
	clip := false
	for s := 0; s < n && !clip; s++ {
		for _, t := range a.Transitions(s) {
			if t.Max > automaton.MaxByteLabel {
				clip = true
				break
			}
		}
	}
	if !clip {
		return a
	}
	r := automaton.New()
	for s := 1; s < n; s++ {
		r.AddState()
	}
	for s := 0; s < n; s++ {
		r.SetAccept(s, a.IsAccept(s))
		for _, t := range a.Transitions(s) {
			if t.Min > automaton.MaxByteLabel {
				continue
			}
			r.AddTransition(s, t.To, t.Min, min(t.Max, automaton.MaxByteLabel))
		}
	}
	return r
}

func (r *ByteRunAutomaton) Start() State { return 1 }

func (r *ByteRunAutomaton) Step(state State, b byte) State {
	if state == DeadState || int(state) >= len(r.accept) {
		return DeadState
	}
	return r.table[int(state)*256+int(b)]
}

func (r *ByteRunAutomaton) IsAccept(state State) bool {
	if int(state) >= len(r.accept) {
		return false
	}
	return r.accept[state]
}

func (r *ByteRunAutomaton) CanMatch(state State) bool {
	if int(state) >= len(r.live) {
		return false
	}
	return r.live[state]
}

// NumStates returns the number of DFA states, not counting DeadState.
func (r *ByteRunAutomaton) NumStates() int { return len(r.accept) - 1 }

// Run reports whether the automaton accepts input.
func (r *ByteRunAutomaton) Run(input []byte) bool {
	s := r.Start()
	for _, b := range input {
		s = r.Step(s, b)
		if s == DeadState {
			return false
		}
	}
	return r.IsAccept(s)
}
