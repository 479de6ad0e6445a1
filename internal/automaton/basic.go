package automaton

import "slices"

// MakeEmpty returns an automaton accepting no strings.
func MakeEmpty() *Automaton {
	return New()
}

// MakeEmptyString returns an automaton accepting only the empty string.
func MakeEmptyString() *Automaton {
	return &Automaton{singleton: []int32{}, isSingleton: true}
}

// MakeAnyString returns an automaton accepting every string.
func MakeAnyString() *Automaton {
	a := New()
	a.SetAccept(0, true)
	a.AddTransition(0, 0, 0, MaxLabel)
	a.deterministic = true
	return a
}

// MakeAnyChar returns an automaton accepting any single label.
func MakeAnyChar() *Automaton {
	return MakeCharRange(0, MaxLabel)
}

// MakeChar returns an automaton accepting the single label c. An invalid
// label yields the empty language.
func MakeChar(c int32) *Automaton {
	if c < 0 || c > MaxLabel {
		return MakeEmpty()
	}
	return &Automaton{singleton: []int32{c}, isSingleton: true}
}

// MakeCharRange returns an automaton accepting any single label in
// [min, max]. An empty or out-of-alphabet range yields the empty language.
func MakeCharRange(min, max int32) *Automaton {
	if min < 0 {
		min = 0
	}
	if max > MaxLabel {
		max = MaxLabel
	}
	if min > max {
		return MakeEmpty()
	}
	if min == max {
		return MakeChar(min)
	}
	a := New()
	s := a.AddState()
	a.SetAccept(s, true)
	a.AddTransition(0, s, min, max)
	a.deterministic = true
	return a
}

// MakeString returns an automaton accepting exactly s. Any invalid label
// yields the empty language.
func MakeString(s []int32) *Automaton {
	if !validLabels(s) {
		return MakeEmpty()
	}
	return &Automaton{singleton: slices.Clone(s), isSingleton: true}
}

// MakeStringFromString is MakeString over the code points of s.
func MakeStringFromString(s string) *Automaton {
	return MakeString(ToLabels(s))
}
