package automaton

// MakePrefix returns a deterministic automaton accepting all strings that
// start with prefix.
//
// States: 0..len(prefix), where state len(prefix) is the accepting state
// that loops on any label.
func MakePrefix(prefix []int32) *Automaton {
	if !validLabels(prefix) {
		return MakeEmpty()
	}
	a := New()
	cur := 0
	for _, c := range prefix {
		next := a.AddState()
		a.AddTransition(cur, next, c, c)
		cur = next
	}
	// Past prefix: accept any label, stay in accepting state.
	a.SetAccept(cur, true)
	a.AddTransition(cur, cur, 0, MaxLabel)
	a.deterministic = true
	return a
}
