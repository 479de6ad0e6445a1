package automaton

import "slices"

// appendStates copies the states of src into dst and returns the id that
// src's initial state received.
func appendStates(dst, src *Automaton) int {
	off := len(dst.states)
	for _, s := range src.stateList() {
		ts := make([]Transition, len(s.transitions))
		for i, t := range s.transitions {
			ts[i] = Transition{Min: t.Min, Max: t.Max, To: t.To + off}
		}
		dst.states = append(dst.states, state{accept: s.accept, transitions: ts})
	}
	return off
}

// Concatenate returns an automaton accepting the concatenation of the
// languages of as, in order. With no operands it accepts the empty string.
func Concatenate(as ...*Automaton) *Automaton {
	if len(as) == 0 {
		return MakeEmptyString()
	}
	if allSingletons(as) {
		var s []int32
		for _, a := range as {
			s = append(s, a.singleton...)
		}
		return &Automaton{singleton: s, isSingleton: true}
	}

	r := &Automaton{}
	appendStates(r, as[0])
	deterministic := as[0].IsDeterministic()
	for _, a := range as[1:] {
		prevAccept := r.AcceptStates()
		off := appendStates(r, a)
		for _, q := range prevAccept {
			r.states[q].accept = false
			r.AddEpsilon(q, off)
		}
		deterministic = deterministic && len(prevAccept) == 0
	}
	r.deterministic = deterministic
	return r
}

// Union returns an automaton accepting the union of the languages of as.
// With no operands it accepts nothing. When every operand is a singleton
// the result is the minimal string-union DFA.
func Union(as ...*Automaton) *Automaton {
	if len(as) == 0 {
		return MakeEmpty()
	}
	if len(as) == 1 {
		return as[0]
	}
	if allSingletons(as) {
		strs := make([][]int32, len(as))
		for i, a := range as {
			strs[i] = a.singleton
		}
		return MakeStringUnion(strs)
	}

	r := New()
	for _, a := range as {
		off := appendStates(r, a)
		r.AddEpsilon(0, off)
	}
	r.deterministic = false
	return r
}

// Optional returns an automaton accepting the language of a plus the
// empty string.
func Optional(a *Automaton) *Automaton {
	return Union(a, MakeEmptyString())
}

// Repeat returns the Kleene star of a.
func Repeat(a *Automaton) *Automaton {
	r := New()
	r.states[0].accept = true
	off := appendStates(r, a)
	accepts := r.AcceptStates()
	r.AddEpsilon(0, off)
	for _, q := range accepts {
		if q != 0 {
			r.AddEpsilon(q, 0)
		}
	}
	r.deterministic = false
	return r
}

// RepeatMin returns an automaton accepting min or more concatenated
// repetitions of a.
func RepeatMin(a *Automaton, min int) *Automaton {
	if min <= 0 {
		return Repeat(a)
	}
	parts := make([]*Automaton, 0, min+1)
	for i := 0; i < min; i++ {
		parts = append(parts, a)
	}
	parts = append(parts, Repeat(a))
	return Concatenate(parts...)
}

// RepeatRange returns an automaton accepting between min and max
// (inclusive) concatenated repetitions of a.
func RepeatRange(a *Automaton, min, max int) *Automaton {
	if min < 0 {
		min = 0
	}
	if min > max {
		return MakeEmpty()
	}
	parts := make([]*Automaton, 0, max)
	for i := 0; i < min; i++ {
		parts = append(parts, a)
	}
	if max > min {
		opt := Optional(a)
		for i := min; i < max; i++ {
			parts = append(parts, opt)
		}
	}
	return Concatenate(parts...)
}

// Intersection returns an automaton accepting the strings accepted by both
// a and b.
func Intersection(a, b *Automaton) *Automaton {
	if a.isSingleton {
		if Run(b, a.singleton) {
			return a
		}
		return MakeEmpty()
	}
	if b.isSingleton {
		if Run(a, b.singleton) {
			return b
		}
		return MakeEmpty()
	}

	sa, sb := a.stateList(), b.stateList()
	r := &Automaton{}
	type pair struct{ p, q int }
	ids := map[pair]int{{0, 0}: 0}
	queue := []pair{{0, 0}}
	r.states = append(r.states, state{})
	for i := 0; i < len(queue); i++ {
		cur := queue[i]
		r.states[i].accept = sa[cur.p].accept && sb[cur.q].accept
		for _, t1 := range sa[cur.p].transitions {
			for _, t2 := range sb[cur.q].transitions {
				lo, hi := max(t1.Min, t2.Min), min(t1.Max, t2.Max)
				if lo > hi {
					continue
				}
				dest := pair{t1.To, t2.To}
				id, ok := ids[dest]
				if !ok {
					id = len(queue)
					ids[dest] = id
					queue = append(queue, dest)
					r.states = append(r.states, state{})
				}
				r.states[i].transitions = append(r.states[i].transitions, Transition{Min: lo, Max: hi, To: id})
			}
		}
	}
	r.deterministic = a.IsDeterministic() && b.IsDeterministic()
	if r.deterministic {
		r.sortTransitions()
	}
	return RemoveDeadStates(r)
}

// Complement returns a deterministic automaton accepting every string over
// [0, MaxLabel] that a rejects.
func Complement(a *Automaton) *Automaton {
	t := Totalize(Determinize(a))
	for i := range t.states {
		t.states[i].accept = !t.states[i].accept
	}
	return RemoveDeadStates(t)
}

// Minus returns an automaton accepting the strings of a that b rejects.
func Minus(a, b *Automaton) *Automaton {
	if IsEmpty(a) || a == b {
		return MakeEmpty()
	}
	if IsEmpty(b) {
		return a
	}
	if a.isSingleton {
		if Run(b, a.singleton) {
			return MakeEmpty()
		}
		return a
	}
	return Intersection(a, Complement(b))
}

// SubsetOf reports whether the language of a is a subset of that of b.
func SubsetOf(a, b *Automaton) bool {
	if a == b {
		return true
	}
	if a.isSingleton {
		if b.isSingleton {
			return slices.Equal(a.singleton, b.singleton)
		}
		return Run(b, a.singleton)
	}
	return IsEmpty(Minus(a, b))
}

// SameLanguage reports whether a and b accept the same language, by
// checking that their symmetric difference is empty.
func SameLanguage(a, b *Automaton) bool {
	if a == b {
		return true
	}
	if a.isSingleton && b.isSingleton {
		return slices.Equal(a.singleton, b.singleton)
	}
	return IsEmpty(Union(Minus(a, b), Minus(b, a)))
}

// Reverse returns an automaton accepting the reversal of every string that
// a accepts. The result is generally non-deterministic.
func Reverse(a *Automaton) *Automaton {
	rev, initial := reverse(a)
	r := &Automaton{states: make([]state, len(rev.states)+1)}
	for p, s := range rev.states {
		ts := make([]Transition, len(s.transitions))
		for i, t := range s.transitions {
			ts[i] = Transition{Min: t.Min, Max: t.Max, To: t.To + 1}
		}
		r.states[p+1] = state{accept: s.accept, transitions: ts}
	}
	for _, f := range initial {
		r.AddEpsilon(0, f+1)
	}
	r.deterministic = false
	return r
}

// reverse flips every transition of a in place of a fresh start state. The
// accepting state is a's initial state and the returned set, a's accepting
// states in ascending order, is where the reversed language starts.
func reverse(a *Automaton) (*Automaton, []int) {
	src := a.stateList()
	r := &Automaton{states: make([]state, len(src))}
	r.states[0].accept = true
	var initial []int
	for p, s := range src {
		for _, t := range s.transitions {
			r.states[t.To].transitions = append(r.states[t.To].transitions, Transition{Min: t.Min, Max: t.Max, To: p})
		}
		if s.accept {
			initial = append(initial, p)
		}
	}
	return r, initial
}

// Run reports whether a accepts s. Labels outside [0, MaxLabel] are
// rejected.
func Run(a *Automaton, s []int32) bool {
	if a.isSingleton {
		return slices.Equal(a.singleton, s)
	}
	if !validLabels(s) {
		return false
	}
	if a.IsDeterministic() {
		p := 0
		for _, c := range s {
			if p = a.Step(p, c); p < 0 {
				return false
			}
		}
		return a.IsAccept(p)
	}

	states := a.stateList()
	seen := make([]int, len(states))
	gen := 1
	cur := []int{0}
	var next []int
	for _, c := range s {
		gen++
		next = next[:0]
		for _, p := range cur {
			for _, t := range states[p].transitions {
				if t.Min <= c && c <= t.Max && seen[t.To] != gen {
					seen[t.To] = gen
					next = append(next, t.To)
				}
			}
		}
		if len(next) == 0 {
			return false
		}
		cur, next = next, cur
	}
	for _, p := range cur {
		if states[p].accept {
			return true
		}
	}
	return false
}

// RunString is Run over the code points of s.
func RunString(a *Automaton, s string) bool {
	return Run(a, ToLabels(s))
}

// IsEmpty reports whether a accepts no strings.
func IsEmpty(a *Automaton) bool {
	if a.isSingleton {
		return false
	}
	states := a.stateList()
	visited := make([]bool, len(states))
	visited[0] = true
	stack := []int{0}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if states[p].accept {
			return false
		}
		for _, t := range states[p].transitions {
			if !visited[t.To] {
				visited[t.To] = true
				stack = append(stack, t.To)
			}
		}
	}
	return true
}

// IsEmptyString reports whether a accepts only the empty string.
func IsEmptyString(a *Automaton) bool {
	if a.isSingleton {
		return len(a.singleton) == 0
	}
	r := RemoveDeadStates(a)
	return r.states[0].accept && len(r.states[0].transitions) == 0
}

// IsTotal reports whether a accepts every string over [0, MaxLabel].
func IsTotal(a *Automaton) bool {
	if a.isSingleton {
		return false
	}
	m := Minimize(a)
	if len(m.states) != 1 || !m.states[0].accept {
		return false
	}
	ts := m.states[0].transitions
	return len(ts) == 1 && ts[0].Min == 0 && ts[0].Max == MaxLabel && ts[0].To == 0
}

// Totalize returns a copy of the deterministic automaton a in which every
// state has a transition for every label, adding a dead sink state.
func Totalize(a *Automaton) *Automaton {
	r := a.Clone()
	n := len(r.states)
	sink := r.AddState()
	r.states[sink].transitions = []Transition{{Min: 0, Max: MaxLabel, To: sink}}
	for p := 0; p < n; p++ {
		ts := slices.Clone(r.states[p].transitions)
		slices.SortFunc(ts, compareTransitions)
		var filled []Transition
		next := int32(0)
		for _, t := range ts {
			if t.Min > next {
				filled = append(filled, Transition{Min: next, Max: t.Min - 1, To: sink})
			}
			filled = append(filled, t)
			if t.Max+1 > next {
				next = t.Max + 1
			}
		}
		if next <= MaxLabel {
			filled = append(filled, Transition{Min: next, Max: MaxLabel, To: sink})
		}
		r.states[p].transitions = filled
	}
	r.deterministic = true
	return r
}

// Reduce returns a copy of a in which adjacent or overlapping transitions
// to the same destination are merged.
func Reduce(a *Automaton) *Automaton {
	r := a.Clone()
	r.reduce()
	return r
}

func (a *Automaton) reduce() {
	for i := range a.states {
		ts := a.states[i].transitions
		if len(ts) < 2 {
			continue
		}
		slices.SortFunc(ts, func(x, y Transition) int {
			if x.To != y.To {
				return x.To - y.To
			}
			return compareTransitions(x, y)
		})
		merged := ts[:1]
		for _, t := range ts[1:] {
			last := &merged[len(merged)-1]
			if t.To == last.To && int64(t.Min) <= int64(last.Max)+1 {
				if t.Max > last.Max {
					last.Max = t.Max
				}
				continue
			}
			merged = append(merged, t)
		}
		slices.SortFunc(merged, compareTransitions)
		a.states[i].transitions = merged
	}
}

// RemoveDeadStates returns a copy of a restricted to states that are both
// reachable from the initial state and able to reach an accepting state.
// The initial state keeps id 0; if it is dead the result is MakeEmpty.
func RemoveDeadStates(a *Automaton) *Automaton {
	if a.isSingleton {
		return a
	}
	states := a.stateList()
	n := len(states)

	reach := make([]bool, n)
	reach[0] = true
	stack := []int{0}
	rev := make([][]int, n)
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, t := range states[p].transitions {
			rev[t.To] = append(rev[t.To], p)
			if !reach[t.To] {
				reach[t.To] = true
				stack = append(stack, t.To)
			}
		}
	}

	live := make([]bool, n)
	for p := 0; p < n; p++ {
		if reach[p] && states[p].accept {
			live[p] = true
			stack = append(stack, p)
		}
	}
	for len(stack) > 0 {
		q := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range rev[q] {
			if !live[p] {
				live[p] = true
				stack = append(stack, p)
			}
		}
	}
	if !live[0] {
		return MakeEmpty()
	}

	ids := make([]int, n)
	next := 0
	for p := 0; p < n; p++ {
		if live[p] {
			ids[p] = next
			next++
		}
	}
	r := &Automaton{states: make([]state, 0, next), deterministic: a.IsDeterministic()}
	for p := 0; p < n; p++ {
		if !live[p] {
			continue
		}
		s := state{accept: states[p].accept}
		for _, t := range states[p].transitions {
			if live[t.To] {
				s.transitions = append(s.transitions, Transition{Min: t.Min, Max: t.Max, To: ids[t.To]})
			}
		}
		r.states = append(r.states, s)
	}
	return r
}

func allSingletons(as []*Automaton) bool {
	for _, a := range as {
		if !a.isSingleton {
			return false
		}
	}
	return true
}
