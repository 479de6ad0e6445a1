package automaton

import (
	"errors"
	"slices"
)

var ErrTooManyStrings = errors.New("automaton accepts more strings than the limit")

// IsFinite reports whether a accepts a finite language. Only live states
// are considered, so cycles through dead states do not count.
func IsFinite(a *Automaton) bool {
	if a.isSingleton {
		return true
	}
	r := RemoveDeadStates(a)
	const (
		white = iota
		grey
		black
	)
	color := make([]uint8, len(r.states))
	type frame struct{ state, next int }
	stack := []frame{{0, 0}}
	color[0] = grey
	for len(stack) > 0 {
		f := &stack[len(stack)-1]
		ts := r.states[f.state].transitions
		if f.next == len(ts) {
			color[f.state] = black
			stack = stack[:len(stack)-1]
			continue
		}
		to := ts[f.next].To
		f.next++
		switch color[to] {
		case grey:
			return false
		case white:
			color[to] = grey
			stack = append(stack, frame{to, 0})
		}
	}
	return true
}

// FiniteStringsIterator lazily enumerates the strings accepted by an
// automaton in lexicographic label order. It is not restartable; build a
// new iterator to enumerate again.
type FiniteStringsIterator struct {
	a       *Automaton
	stack   []finiteFrame
	path    []int32
	onPath  []bool
	started bool
	err     error
}

type finiteFrame struct {
	state int
	trans int
	label int32
}

// NewFiniteStringsIterator returns an iterator over the language of a.
func NewFiniteStringsIterator(a *Automaton) *FiniteStringsIterator {
	d := RemoveDeadStates(Determinize(a))
	if d.isSingleton {
		d = d.Clone()
	}
	return &FiniteStringsIterator{a: d, onPath: make([]bool, len(d.states))}
}

func (it *FiniteStringsIterator) push(s int) {
	f := finiteFrame{state: s}
	if ts := it.a.states[s].transitions; len(ts) > 0 {
		f.label = ts[0].Min
	}
	it.stack = append(it.stack, f)
	it.onPath[s] = true
}

// Next advances to the next accepted string. It returns false when the
// language is exhausted or an error occurred; see Err.
func (it *FiniteStringsIterator) Next() bool {
	if it.err != nil {
		return false
	}
	if !it.started {
		it.started = true
		if IsEmpty(it.a) {
			return false
		}
		it.push(0)
		if it.a.states[0].accept {
			return true
		}
	}
	for len(it.stack) > 0 {
		f := &it.stack[len(it.stack)-1]
		ts := it.a.states[f.state].transitions
		if f.trans >= len(ts) {
			it.onPath[f.state] = false
			it.stack = it.stack[:len(it.stack)-1]
			if len(it.path) > 0 {
				it.path = it.path[:len(it.path)-1]
			}
			continue
		}
		t := ts[f.trans]
		label := f.label
		if label == t.Max {
			f.trans++
			if f.trans < len(ts) {
				f.label = ts[f.trans].Min
			}
		} else {
			f.label++
		}
		if it.onPath[t.To] {
			it.err = ErrInfiniteLanguage
			return false
		}
		it.path = append(it.path[:len(it.stack)-1], label)
		it.push(t.To)
		if it.a.states[t.To].accept {
			return true
		}
	}
	return false
}

// String returns a copy of the current string.
func (it *FiniteStringsIterator) String() []int32 {
	return append([]int32{}, it.path...)
}

// Err returns ErrInfiniteLanguage if iteration reached a cycle.
func (it *FiniteStringsIterator) Err() error {
	return it.err
}

// GetFiniteStrings returns every string accepted by a in lexicographic
// order. A negative limit means no limit; otherwise ErrTooManyStrings is
// returned once more than limit strings are found.
func GetFiniteStrings(a *Automaton, limit int) ([][]int32, error) {
	if s, ok := a.Singleton(); ok {
		return [][]int32{slices.Clone(s)}, nil
	}
	if !IsFinite(a) {
		return nil, ErrInfiniteLanguage
	}
	var out [][]int32
	it := NewFiniteStringsIterator(a)
	for it.Next() {
		if limit >= 0 && len(out) >= limit {
			return nil, ErrTooManyStrings
		}
		out = append(out, it.String())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CommonPrefix returns the longest string that is a prefix of every string
// a accepts.
func CommonPrefix(a *Automaton) []int32 {
	if s, ok := a.Singleton(); ok {
		return slices.Clone(s)
	}
	d := RemoveDeadStates(Determinize(a))
	if IsEmpty(d) {
		return nil
	}
	var prefix []int32
	visited := make([]bool, len(d.states))
	p := 0
	for !visited[p] && !d.states[p].accept {
		visited[p] = true
		ts := d.states[p].transitions
		if len(ts) != 1 || ts[0].Min != ts[0].Max {
			break
		}
		prefix = append(prefix, ts[0].Min)
		p = ts[0].To
	}
	return prefix
}
