package fst

// nodeHash deduplicates frozen nodes: two nodes with identical arcs (same
// labels, outputs, finality and target addresses) are written once.
type nodeHash[T any] struct {
	fst     *FST[T]
	table   map[string]int64
	scratch []byte
}

func newNodeHash[T any](f *FST[T]) *nodeHash[T] {
	return &nodeHash[T]{fst: f, table: make(map[string]int64)}
}

// add returns the address of a node equal to n, writing n if no such node
// exists yet.
func (h *nodeHash[T]) add(n *uncompiledNode[T], allowArrayArcs bool) int64 {
	h.scratch = h.fst.appendArcs(h.scratch[:0], n)
	if addr, ok := h.table[string(h.scratch)]; ok {
		return addr
	}
	addr := h.fst.addNode(n, h.scratch, allowArrayArcs)
	h.table[string(h.scratch)] = addr
	return addr
}

func (h *nodeHash[T]) len() int { return len(h.table) }
