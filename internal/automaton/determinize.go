package automaton

import (
	"encoding/binary"
	"fmt"
	"slices"
)

// Determinize returns a deterministic automaton accepting the same language
// as a, built by subset construction over label intervals. Transitions in
// the result are sorted, non-overlapping and reduced.
func Determinize(a *Automaton) *Automaton {
	r, _ := determinize(a, 0)
	return r
}

// DeterminizeLimit is Determinize but fails with ErrDFAStateLimitExceeded
// once the result would exceed maxStates states.
func DeterminizeLimit(a *Automaton, maxStates int) (*Automaton, error) {
	return determinize(a, maxStates)
}

func determinize(a *Automaton, limit int) (*Automaton, error) {
	if a.isSingleton {
		return a, nil
	}
	if a.deterministic {
		r := a.Clone()
		r.sortTransitions()
		r.reduce()
		return r, nil
	}
	return determinizeFrom(a, []int{0}, limit)
}

// determinizeFrom runs the subset construction starting from the sorted
// state set initial, which becomes state 0 of the result.
func determinizeFrom(a *Automaton, initial []int, limit int) (*Automaton, error) {
	states := a.stateList()
	r := &Automaton{deterministic: true}
	sets := [][]int{initial}
	ids := map[string]int{string(setKey(nil, initial)): 0}
	r.states = append(r.states, state{})

	seen := make([]int, len(states))
	gen := 0
	var key []byte
	var points []int32
	for i := 0; i < len(sets); i++ {
		set := sets[i]

		points = points[:0]
		for _, p := range set {
			if states[p].accept {
				r.states[i].accept = true
			}
			for _, t := range states[p].transitions {
				points = append(points, t.Min)
				if t.Max < MaxLabel {
					points = append(points, t.Max+1)
				}
			}
		}
		slices.Sort(points)
		points = slices.Compact(points)

		for j, lo := range points {
			hi := MaxLabel
			if j+1 < len(points) {
				hi = points[j+1] - 1
			}
			gen++
			var dest []int
			for _, p := range set {
				for _, t := range states[p].transitions {
					if t.Min <= lo && lo <= t.Max && seen[t.To] != gen {
						seen[t.To] = gen
						dest = append(dest, t.To)
					}
				}
			}
			if len(dest) == 0 {
				continue
			}
			slices.Sort(dest)
			key = setKey(key[:0], dest)
			id, ok := ids[string(key)]
			if !ok {
				if limit > 0 && len(sets) >= limit {
					return nil, fmt.Errorf("determinize: %w (limit %d)", ErrDFAStateLimitExceeded, limit)
				}
				id = len(sets)
				ids[string(key)] = id
				sets = append(sets, dest)
				r.states = append(r.states, state{})
			}
			r.states[i].transitions = append(r.states[i].transitions, Transition{Min: lo, Max: hi, To: id})
		}
	}
	r.reduce()
	return r, nil
}

func setKey(dst []byte, set []int) []byte {
	for _, p := range set {
		dst = binary.AppendUvarint(dst, uint64(p))
	}
	return dst
}
