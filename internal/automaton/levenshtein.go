package automaton

import (
	"errors"
	"fmt"
	"slices"
)

// MaxEditDistance is the largest edit distance with a parametric table.
const MaxEditDistance = 2

var ErrEditDistanceTooLarge = errors.New("edit distance exceeds maximum")

// LevenshteinAutomata builds DFAs accepting every string within a bounded
// edit distance of a fixed reference string. Construction walks the shared
// parametric tables, so it is linear in the length of the reference.
type LevenshteinAutomata struct {
	word           []int32
	alphabetMax    int32
	transpositions bool
}

// NewLevenshteinAutomata prepares automata for s over labels in
// [0, alphabetMax]. With transpositions, swapping two adjacent characters
// costs one edit (optimal string alignment distance).
func NewLevenshteinAutomata(s []int32, alphabetMax int32, withTranspositions bool) (*LevenshteinAutomata, error) {
	if alphabetMax < 0 || alphabetMax > MaxLabel {
		return nil, fmt.Errorf("levenshtein: alphabet max %d: %w", alphabetMax, ErrInvalidLabel)
	}
	for i, c := range s {
		if c < 0 || c > alphabetMax {
			return nil, fmt.Errorf("levenshtein: label %d at %d: %w", c, i, ErrInvalidLabel)
		}
	}
	return &LevenshteinAutomata{
		word:           slices.Clone(s),
		alphabetMax:    alphabetMax,
		transpositions: withTranspositions,
	}, nil
}

// ToAutomaton returns a deterministic automaton accepting the strings
// within distance n of the reference string.
func (l *LevenshteinAutomata) ToAutomaton(n int) (*Automaton, error) {
	if n < 0 || n > MaxEditDistance {
		return nil, fmt.Errorf("levenshtein: distance %d: %w", n, ErrEditDistanceTooLarge)
	}
	table := parametricTable(n, l.transpositions)
	word := l.word
	length := len(word)

	type key struct{ param, offset int32 }
	a := &Automaton{deterministic: true}
	ids := map[key]int{{0, 0}: 0}
	queue := []key{{0, 0}}
	a.states = append(a.states, state{})

	var chars []int32
	for i := 0; i < len(queue); i++ {
		cur := queue[i]
		b := int(cur.offset)
		positions := table.states[cur.param]
		remaining := length - b
		for _, p := range positions {
			if !p.transposed && remaining-p.i <= n-p.e {
				a.states[i].accept = true
				break
			}
		}

		w := min(table.window, remaining)
		chars = append(chars[:0], word[b:b+w]...)
		slices.Sort(chars)
		chars = slices.Compact(chars)

		target := func(vec uint32) int {
			e := table.next[cur.param][vectorIndex(w, vec)]
			if e.next < 0 {
				return -1
			}
			k := key{e.next, cur.offset + e.delta}
			id, ok := ids[k]
			if !ok {
				id = len(queue)
				ids[k] = id
				queue = append(queue, k)
				a.states = append(a.states, state{})
			}
			return id
		}

		for _, c := range chars {
			var vec uint32
			for k := 0; k < w; k++ {
				if word[b+k] == c {
					vec |= 1 << k
				}
			}
			if to := target(vec); to >= 0 {
				a.states[i].transitions = append(a.states[i].transitions, Transition{Min: c, Max: c, To: to})
			}
		}
		if to := target(0); to >= 0 {
			lo := int32(0)
			for _, c := range chars {
				if c > lo {
					a.states[i].transitions = append(a.states[i].transitions, Transition{Min: lo, Max: c - 1, To: to})
				}
				lo = c + 1
			}
			if lo <= l.alphabetMax {
				a.states[i].transitions = append(a.states[i].transitions, Transition{Min: lo, Max: l.alphabetMax, To: to})
			}
		}
	}
	a.reduce()
	return a, nil
}

// ToAutomatonPrefix is ToAutomaton with prefix required verbatim before the
// fuzzy part.
func (l *LevenshteinAutomata) ToAutomatonPrefix(n int, prefix []int32) (*Automaton, error) {
	lev, err := l.ToAutomaton(n)
	if err != nil {
		return nil, err
	}
	if len(prefix) == 0 {
		return lev, nil
	}
	if !validLabels(prefix) {
		return nil, fmt.Errorf("levenshtein: prefix: %w", ErrInvalidLabel)
	}
	return Determinize(Concatenate(MakeString(prefix), lev)), nil
}

// Levenshtein returns the edit-distance automaton for the code points of s.
func Levenshtein(s string, n int, transpositions bool) (*Automaton, error) {
	l, err := NewLevenshteinAutomata(ToLabels(s), MaxLabel, transpositions)
	if err != nil {
		return nil, err
	}
	return l.ToAutomaton(n)
}

// LevenshteinBytes returns the edit-distance automaton for the bytes of s
// over the byte alphabet.
func LevenshteinBytes(s []byte, n int, transpositions bool) (*Automaton, error) {
	l, err := NewLevenshteinAutomata(BytesToLabels(s), MaxByteLabel, transpositions)
	if err != nil {
		return nil, err
	}
	return l.ToAutomaton(n)
}
