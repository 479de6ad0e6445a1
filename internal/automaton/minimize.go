package automaton

// Minimize returns the minimal deterministic automaton accepting the same
// language as a, using Hopcroft's partition refinement. The result has no
// dead states and reduced transitions.
func Minimize(a *Automaton) *Automaton {
	if a.isSingleton {
		return a
	}
	t := Totalize(Determinize(a))
	n := len(t.states)
	sigma := t.StartPoints()
	k := len(sigma)

	// reverse[x][q] lists the states p with delta(p, sigma[x]) = q.
	reverse := make([][][]int, k)
	for x := range reverse {
		reverse[x] = make([][]int, n)
	}
	for p := 0; p < n; p++ {
		for x, c := range sigma {
			q := t.Step(p, c)
			reverse[x][q] = append(reverse[x][q], p)
		}
	}

	blockOf := make([]int, n)
	var blocks [][]int
	var accept, reject []int
	for p := 0; p < n; p++ {
		if t.states[p].accept {
			accept = append(accept, p)
		} else {
			reject = append(reject, p)
		}
	}
	for _, b := range [][]int{accept, reject} {
		if len(b) == 0 {
			continue
		}
		id := len(blocks)
		for _, p := range b {
			blockOf[p] = id
		}
		blocks = append(blocks, b)
	}

	type splitter struct{ block, symbol int }
	var pending []splitter
	inPending := make([][]bool, 0, n)
	push := func(b, x int) {
		if !inPending[b][x] {
			inPending[b][x] = true
			pending = append(pending, splitter{b, x})
		}
	}
	for range blocks {
		inPending = append(inPending, make([]bool, k))
	}
	smallest := 0
	if len(blocks) == 2 && len(blocks[1]) < len(blocks[0]) {
		smallest = 1
	}
	for x := 0; x < k; x++ {
		push(smallest, x)
	}

	marked := make([]bool, n)
	markedCount := make([]int, n)
	var touched, markedStates []int
	for len(pending) > 0 {
		sp := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		inPending[sp.block][sp.symbol] = false

		touched = touched[:0]
		markedStates = markedStates[:0]
		for _, q := range blocks[sp.block] {
			for _, p := range reverse[sp.symbol][q] {
				if marked[p] {
					continue
				}
				marked[p] = true
				markedStates = append(markedStates, p)
				b := blockOf[p]
				if markedCount[b] == 0 {
					touched = append(touched, b)
				}
				markedCount[b]++
			}
		}

		for _, b := range touched {
			if markedCount[b] < len(blocks[b]) {
				var in, out []int
				for _, p := range blocks[b] {
					if marked[p] {
						in = append(in, p)
					} else {
						out = append(out, p)
					}
				}
				nb := len(blocks)
				blocks[b] = out
				blocks = append(blocks, in)
				inPending = append(inPending, make([]bool, k))
				for _, p := range in {
					blockOf[p] = nb
				}
				for x := 0; x < k; x++ {
					switch {
					case inPending[b][x]:
						push(nb, x)
					case len(in) <= len(out):
						push(nb, x)
					default:
						push(b, x)
					}
				}
			}
			markedCount[b] = 0
		}
		for _, p := range markedStates {
			marked[p] = false
		}
	}

	// Block of the initial state becomes state 0.
	newID := make([]int, len(blocks))
	for i := range newID {
		newID[i] = -1
	}
	newID[blockOf[0]] = 0
	next := 1
	for b := range blocks {
		if newID[b] < 0 {
			newID[b] = next
			next++
		}
	}

	r := &Automaton{states: make([]state, len(blocks)), deterministic: true}
	for b, members := range blocks {
		rep := members[0]
		s := &r.states[newID[b]]
		s.accept = t.states[rep].accept
		for _, tr := range t.states[rep].transitions {
			s.transitions = append(s.transitions, Transition{Min: tr.Min, Max: tr.Max, To: newID[blockOf[tr.To]]})
		}
	}
	r.reduce()
	return RemoveDeadStates(r)
}

// MinimizeBrzozowski minimizes a by double reversal and determinization.
// It is much slower than Minimize and serves as a reference.
func MinimizeBrzozowski(a *Automaton) *Automaton {
	if a.isSingleton {
		return a
	}
	return RemoveDeadStates(reverseDeterminize(reverseDeterminize(a)))
}

// reverseDeterminize determinizes the reversal of a, starting the subset
// construction from a's accepting states rather than from a fresh state
// linked to them, so the result is minimal when a is deterministic and
// every state is reachable.
func reverseDeterminize(a *Automaton) *Automaton {
	rev, initial := reverse(a)
	r, _ := determinizeFrom(rev, initial, 0)
	return r
}
