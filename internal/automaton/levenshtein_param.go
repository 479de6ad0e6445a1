package automaton

import (
	"encoding/binary"
	"slices"
	"sync"
)

// levPosition is a position of the nondeterministic Levenshtein automaton
// relative to the current offset into the reference string: i characters
// of the window consumed with e edits spent. A transposed position has
// seen s[i+1] and is waiting for s[i].
type levPosition struct {
	i, e       int
	transposed bool
}

func comparePositions(a, b levPosition) int {
	switch {
	case a.i != b.i:
		return a.i - b.i
	case a.e != b.e:
		return a.e - b.e
	case a.transposed == b.transposed:
		return 0
	case a.transposed:
		return 1
	default:
		return -1
	}
}

type levEntry struct {
	next  int32 // -1 when the position set dies
	delta int32
}

// levTable is the parametric transition table for one edit distance. It
// maps (parametric state, window width, characteristic vector) to the next
// parametric state and the offset shift; it depends only on n, never on
// the reference string or its alphabet.
type levTable struct {
	n              int
	transpositions bool
	window         int
	states         [][]levPosition
	next           [][]levEntry
}

var levTables [MaxEditDistance + 1][2]struct {
	once  sync.Once
	table *levTable
}

func parametricTable(n int, transpositions bool) *levTable {
	t := 0
	if transpositions {
		t = 1
	}
	slot := &levTables[n][t]
	slot.once.Do(func() {
		slot.table = buildLevTable(n, transpositions)
	})
	return slot.table
}

// vectorIndex flattens (w, vec) with vec < 1<<w.
func vectorIndex(w int, vec uint32) int {
	return (1 << w) - 1 + int(vec)
}

func buildLevTable(n int, transpositions bool) *levTable {
	t := &levTable{n: n, transpositions: transpositions, window: 2*n + 1}
	ids := make(map[string]int32)
	var key []byte
	intern := func(ps []levPosition) int32 {
		key = positionsKey(key[:0], ps)
		if id, ok := ids[string(key)]; ok {
			return id
		}
		id := int32(len(t.states))
		ids[string(key)] = id
		t.states = append(t.states, ps)
		return id
	}
	intern([]levPosition{{i: 0, e: 0}})

	width := vectorIndex(t.window+1, 0)
	for p := 0; p < len(t.states); p++ {
		row := make([]levEntry, width)
		for w := 0; w <= t.window; w++ {
			for vec := uint32(0); vec < 1<<w; vec++ {
				ps, delta := t.step(t.states[p], w, vec)
				e := levEntry{next: -1}
				if len(ps) > 0 {
					e = levEntry{next: intern(ps), delta: int32(delta)}
				}
				row[vectorIndex(w, vec)] = e
			}
		}
		t.next = append(t.next, row)
	}
	return t
}

// step applies the elementary transitions of every position for an input
// whose characteristic vector over the next w characters is vec, then
// reduces and normalizes the result.
func (t *levTable) step(ps []levPosition, w int, vec uint32) ([]levPosition, int) {
	match := func(k int) bool { return k < w && vec&(1<<k) != 0 }
	var out []levPosition
	for _, p := range ps {
		if p.transposed {
			if match(p.i) {
				out = append(out, levPosition{i: p.i + 2, e: p.e})
			}
			continue
		}
		if match(p.i) {
			out = append(out, levPosition{i: p.i + 1, e: p.e})
		}
		if p.e == t.n {
			continue
		}
		out = append(out, levPosition{i: p.i, e: p.e + 1})
		if p.i < w {
			out = append(out, levPosition{i: p.i + 1, e: p.e + 1})
		}
		for j := 1; j <= t.n-p.e; j++ {
			if match(p.i + j) {
				out = append(out, levPosition{i: p.i + j + 1, e: p.e + j})
			}
		}
		if t.transpositions && match(p.i+1) {
			out = append(out, levPosition{i: p.i, e: p.e + 1, transposed: true})
		}
	}
	return normalize(out)
}

// normalize drops duplicate and subsumed positions, then shifts the set so
// its smallest index is zero. It returns the shift.
func normalize(ps []levPosition) ([]levPosition, int) {
	if len(ps) == 0 {
		return nil, 0
	}
	slices.SortFunc(ps, comparePositions)
	ps = slices.Compact(ps)
	out := ps[:0:0]
	for _, q := range ps {
		if !q.transposed && subsumed(q, ps) {
			continue
		}
		out = append(out, q)
	}
	shift := out[0].i
	for _, q := range out {
		shift = min(shift, q.i)
	}
	for k := range out {
		out[k].i -= shift
	}
	return out, shift
}

func subsumed(q levPosition, ps []levPosition) bool {
	for _, p := range ps {
		if p.transposed || p.e >= q.e {
			continue
		}
		d := p.i - q.i
		if d < 0 {
			d = -d
		}
		if d <= q.e-p.e {
			return true
		}
	}
	return false
}

func positionsKey(dst []byte, ps []levPosition) []byte {
	for _, p := range ps {
		dst = binary.AppendUvarint(dst, uint64(p.i))
		dst = binary.AppendUvarint(dst, uint64(p.e))
		if p.transposed {
			dst = append(dst, 1)
		} else {
			dst = append(dst, 0)
		}
	}
	return dst
}
