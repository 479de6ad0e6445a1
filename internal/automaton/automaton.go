package automaton

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// MaxLabel is the largest transition label (the last Unicode code point).
const MaxLabel int32 = 0x10FFFF

// MaxByteLabel is the largest label of a byte-level automaton.
const MaxByteLabel int32 = 0xFF

var (
	ErrInvalidLabel          = errors.New("label outside automaton alphabet")
	ErrDFAStateLimitExceeded = errors.New("DFA state limit exceeded during construction")
	ErrInfiniteLanguage      = errors.New("automaton accepts an infinite language")
)

// Transition moves from a state to To on any label in [Min, Max].
type Transition struct {
	Min int32
	Max int32
	To  int
}

type state struct {
	accept      bool
	transitions []Transition
}

// Automaton is a finite state automaton over int32 labels.
//
// States are indices into an arena; state 0 is the initial state. An
// automaton built from a single string may be held in singleton form, which
// is expanded on Clone. Automata returned by the operations in this package
// are never mutated afterwards, so they may be shared by concurrent readers.
type Automaton struct {
	states        []state
	deterministic bool

	singleton   []int32
	isSingleton bool
}

// New returns an automaton with a single non-accepting initial state.
func New() *Automaton {
	return &Automaton{states: []state{{}}, deterministic: true}
}

// AddState appends a new state and returns its id.
func (a *Automaton) AddState() int {
	a.expandSingleton()
	a.states = append(a.states, state{})
	return len(a.states) - 1
}

// SetAccept marks s as accepting or not.
func (a *Automaton) SetAccept(s int, accept bool) {
	a.expandSingleton()
	a.states[s].accept = accept
}

// AddTransition adds a transition from -> to over [min, max].
// The automaton is flagged non-deterministic; call Determinize to restore
// the sorted, non-overlapping invariant.
func (a *Automaton) AddTransition(from, to int, min, max int32) {
	a.expandSingleton()
	if min > max {
		return
	}
	a.states[from].transitions = append(a.states[from].transitions, Transition{Min: min, Max: max, To: to})
	a.deterministic = false
}

// AddEpsilon copies the accept flag and the transitions of to into from.
func (a *Automaton) AddEpsilon(from, to int) {
	a.expandSingleton()
	if a.states[to].accept {
		a.states[from].accept = true
	}
	// Copy first: from and to may be the same state.
	ts := slices.Clone(a.states[to].transitions)
	a.states[from].transitions = append(a.states[from].transitions, ts...)
	a.deterministic = false
}

// NumStates returns the number of states.
func (a *Automaton) NumStates() int {
	if a.isSingleton {
		return len(a.singleton) + 1
	}
	return len(a.stateList())
}

// NumTransitions returns the total number of transitions.
func (a *Automaton) NumTransitions() int {
	if a.isSingleton {
		return len(a.singleton)
	}
	n := 0
	for i := range a.states {
		n += len(a.states[i].transitions)
	}
	return n
}

// IsAccept reports whether s is an accepting state.
func (a *Automaton) IsAccept(s int) bool {
	if a.isSingleton {
		return s == len(a.singleton)
	}
	if s < 0 || s >= len(a.states) {
		return false
	}
	return a.states[s].accept
}

// Transitions returns the transitions leaving s. The slice must not be
// modified.
func (a *Automaton) Transitions(s int) []Transition {
	if a.isSingleton {
		if s < 0 || s >= len(a.singleton) {
			return nil
		}
		c := a.singleton[s]
		return []Transition{{Min: c, Max: c, To: s + 1}}
	}
	if s < 0 || s >= len(a.states) {
		return nil
	}
	return a.states[s].transitions
}

// IsDeterministic reports whether the transition invariant holds.
func (a *Automaton) IsDeterministic() bool {
	return a.isSingleton || a.deterministic
}

// Singleton returns the accepted string when the automaton is held in
// singleton form.
func (a *Automaton) Singleton() ([]int32, bool) {
	if !a.isSingleton {
		return nil, false
	}
	return a.singleton, true
}

// Step returns the destination of s on label, or -1. Only meaningful for
// deterministic automata; on an NFA it returns the first match.
func (a *Automaton) Step(s int, label int32) int {
	if a.isSingleton {
		if s >= 0 && s < len(a.singleton) && a.singleton[s] == label {
			return s + 1
		}
		return -1
	}
	if s < 0 || s >= len(a.states) {
		return -1
	}
	ts := a.states[s].transitions
	if a.deterministic {
		lo, hi := 0, len(ts)-1
		for lo <= hi {
			mid := int(uint(lo+hi) >> 1)
			switch {
			case ts[mid].Max < label:
				lo = mid + 1
			case ts[mid].Min > label:
				hi = mid - 1
			default:
				return ts[mid].To
			}
		}
		return -1
	}
	for _, t := range ts {
		if t.Min <= label && label <= t.Max {
			return t.To
		}
	}
	return -1
}

// Clone returns a deep copy with any singleton form expanded.
func (a *Automaton) Clone() *Automaton {
	c := &Automaton{
		states:        make([]state, 0, a.NumStates()),
		deterministic: a.deterministic,
	}
	if a.isSingleton {
		c.states = singletonStates(a.singleton)
		c.deterministic = true
		return c
	}
	for _, s := range a.states {
		c.states = append(c.states, state{accept: s.accept, transitions: slices.Clone(s.transitions)})
	}
	if len(c.states) == 0 {
		c.states = []state{{}}
		c.deterministic = true
	}
	return c
}

// stateList returns the explicit states without mutating a.
func (a *Automaton) stateList() []state {
	if a.isSingleton {
		return singletonStates(a.singleton)
	}
	if len(a.states) == 0 {
		return []state{{}}
	}
	return a.states
}

func (a *Automaton) expandSingleton() {
	if !a.isSingleton {
		if len(a.states) == 0 {
			a.states = []state{{}}
			a.deterministic = true
		}
		return
	}
	a.states = singletonStates(a.singleton)
	a.deterministic = true
	a.isSingleton = false
	a.singleton = nil
}

func singletonStates(s []int32) []state {
	states := make([]state, len(s)+1)
	for i, c := range s {
		states[i].transitions = []Transition{{Min: c, Max: c, To: i + 1}}
	}
	states[len(s)].accept = true
	return states
}

// StartPoints returns the sorted set of interval start points over all
// transitions, always including 0.
func (a *Automaton) StartPoints() []int32 {
	seen := map[int32]struct{}{0: {}}
	states := a.stateList()
	for i := range states {
		for _, t := range states[i].transitions {
			seen[t.Min] = struct{}{}
			if t.Max < MaxLabel {
				seen[t.Max+1] = struct{}{}
			}
		}
	}
	points := make([]int32, 0, len(seen))
	for p := range seen {
		points = append(points, p)
	}
	slices.Sort(points)
	return points
}

// AcceptStates returns the ids of all accepting states.
func (a *Automaton) AcceptStates() []int {
	var out []int
	states := a.stateList()
	for i := range states {
		if states[i].accept {
			out = append(out, i)
		}
	}
	return out
}

func (a *Automaton) sortTransitions() {
	for i := range a.states {
		slices.SortFunc(a.states[i].transitions, compareTransitions)
	}
}

func compareTransitions(x, y Transition) int {
	switch {
	case x.Min != y.Min:
		return int(x.Min) - int(y.Min)
	case x.Max != y.Max:
		return int(x.Max) - int(y.Max)
	default:
		return x.To - y.To
	}
}

// String renders the automaton for debugging.
func (a *Automaton) String() string {
	if a.isSingleton {
		return fmt.Sprintf("singleton: %q", string(runes(a.singleton)))
	}
	var b strings.Builder
	for i, s := range a.states {
		fmt.Fprintf(&b, "state %d", i)
		if s.accept {
			b.WriteString(" [accept]")
		}
		b.WriteString(":\n")
		for _, t := range s.transitions {
			if t.Min == t.Max {
				fmt.Fprintf(&b, "  %s -> %d\n", labelString(t.Min), t.To)
			} else {
				fmt.Fprintf(&b, "  %s-%s -> %d\n", labelString(t.Min), labelString(t.Max), t.To)
			}
		}
	}
	return b.String()
}

func labelString(c int32) string {
	if c >= 0x21 && c <= 0x7e && c != '\\' {
		return string(rune(c))
	}
	return fmt.Sprintf("\\U+%04X", c)
}

func runes(s []int32) []rune {
	out := make([]rune, len(s))
	for i, c := range s {
		out[i] = rune(c)
	}
	return out
}

// ToLabels converts a string to its code point labels.
func ToLabels(s string) []int32 {
	out := make([]int32, 0, len(s))
	for _, r := range s {
		out = append(out, r)
	}
	return out
}

// BytesToLabels converts raw bytes to labels in [0, 255].
func BytesToLabels(b []byte) []int32 {
	out := make([]int32, len(b))
	for i, c := range b {
		out[i] = int32(c)
	}
	return out
}

func validLabels(s []int32) bool {
	for _, c := range s {
		if c < 0 || c > MaxLabel {
			return false
		}
	}
	return true
}
