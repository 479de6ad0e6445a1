package automaton

import (
	"encoding/binary"
	"slices"
)

// MakeStringUnion returns the minimal deterministic automaton accepting
// exactly the given strings, built incrementally (Daciuk-Mihov) from the
// sorted, de-duplicated input. Strings with invalid labels are dropped.
func MakeStringUnion(strs [][]int32) *Automaton {
	sorted := make([][]int32, 0, len(strs))
	for _, s := range strs {
		if validLabels(s) {
			sorted = append(sorted, s)
		}
	}
	if len(sorted) == 0 {
		return MakeEmpty()
	}
	slices.SortFunc(sorted, slices.Compare[[]int32])
	sorted = slices.CompactFunc(sorted, slices.Equal[[]int32])
	if len(sorted) == 1 {
		return MakeString(sorted[0])
	}

	b := &unionBuilder{root: &unionNode{}, register: make(map[string]*unionNode)}
	for _, s := range sorted {
		b.add(s)
	}
	if len(b.root.children) > 0 {
		b.replaceOrRegister(b.root)
	}
	return b.automaton()
}

type unionNode struct {
	final    bool
	labels   []int32
	children []*unionNode
	id       int
}

type unionBuilder struct {
	root     *unionNode
	register map[string]*unionNode
	nextID   int
	key      []byte
}

func (b *unionBuilder) add(s []int32) {
	n, pos := b.root, 0
	for pos < len(s) {
		last := len(n.labels) - 1
		if last < 0 || n.labels[last] != s[pos] {
			break
		}
		n = n.children[last]
		pos++
	}
	if len(n.children) > 0 {
		b.replaceOrRegister(n)
	}
	for _, c := range s[pos:] {
		child := &unionNode{}
		n.labels = append(n.labels, c)
		n.children = append(n.children, child)
		n = child
	}
	n.final = true
}

// replaceOrRegister freezes the path of last children below n, bottom up,
// replacing each node with an equivalent registered node when one exists.
func (b *unionBuilder) replaceOrRegister(n *unionNode) {
	path := []*unionNode{n}
	for p := n; len(p.children) > 0; {
		p = p.children[len(p.children)-1]
		path = append(path, p)
	}
	for i := len(path) - 2; i >= 0; i-- {
		parent := path[i]
		last := len(parent.children) - 1
		child := parent.children[last]
		b.key = b.key[:0]
		if child.final {
			b.key = append(b.key, 1)
		} else {
			b.key = append(b.key, 0)
		}
		for j, c := range child.labels {
			b.key = binary.AppendUvarint(b.key, uint64(c))
			b.key = binary.AppendUvarint(b.key, uint64(child.children[j].id))
		}
		if reg, ok := b.register[string(b.key)]; ok {
			parent.children[last] = reg
			continue
		}
		b.nextID++
		child.id = b.nextID
		b.register[string(b.key)] = child
	}
}

func (b *unionBuilder) automaton() *Automaton {
	a := &Automaton{deterministic: true}
	ids := make(map[*unionNode]int)
	ids[b.root] = 0
	a.states = append(a.states, state{})
	queue := []*unionNode{b.root}
	for i := 0; i < len(queue); i++ {
		n := queue[i]
		s := &a.states[ids[n]]
		s.accept = n.final
		for j, c := range n.labels {
			child := n.children[j]
			id, ok := ids[child]
			if !ok {
				id = len(a.states)
				ids[child] = id
				a.states = append(a.states, state{})
				s = &a.states[ids[n]]
				queue = append(queue, child)
			}
			s.transitions = append(s.transitions, Transition{Min: c, Max: c, To: id})
		}
	}
	a.reduce()
	return a
}
