package compiled

import (
	"bytes"
	"slices"

	"GoFST/internal/fst"
)

// IntersectFST visits, in key order, every key of f that m accepts along
// with its output. Subtrees whose matcher state cannot reach an accepting
// state are skipped. Labels above 0xFF never match. Returning false from
// visit stops the walk.
func IntersectFST[T any](f *fst.FST[T], m Matcher, visit func(key []byte, output T) bool) {
	start := m.Start()
	if f.Empty() || !m.CanMatch(start) {
		return
	}
	outputs := f.Outputs()
	r := f.BytesReader()

	var root fst.Arc[T]
	f.GetFirstArc(&root)
	if root.IsFinal() && m.IsAccept(start) {
		if !visit([]byte{}, outputs.Add(root.Output, root.NextFinalOutput)) {
			return
		}
	}
	if !fst.TargetHasArcs(&root) {
		return
	}

	// stack[i] scans the arcs leaving the node reached by key[:i].
	var key []byte
	stack := []intersectFrame[T]{{state: start, output: root.Output}}
	f.ReadFirstTargetArc(&root, &stack[0].arc, r)
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.advance {
			if top.arc.IsLast() {
				stack = stack[:len(stack)-1]
				if len(stack) > 0 {
					key = key[:len(key)-1]
				}
				continue
			}
			f.ReadNextArc(&top.arc, r)
		}
		top.advance = true

		arc := top.arc
		if arc.Label == fst.EndLabel || arc.Label > 0xFF {
			continue
		}
		next := m.Step(top.state, byte(arc.Label))
		if !m.CanMatch(next) {
			continue
		}
		output := outputs.Add(top.output, arc.Output)
		key = append(key, byte(arc.Label))
		if arc.IsFinal() && m.IsAccept(next) {
			if !visit(bytes.Clone(key), outputs.Add(output, arc.NextFinalOutput)) {
				return
			}
		}
		if !fst.TargetHasArcs(&arc) {
			key = key[:len(key)-1]
			continue
		}
		stack = append(stack, intersectFrame[T]{state: next, output: output})
		f.ReadFirstTargetArc(&arc, &stack[len(stack)-1].arc, r)
	}
}

type intersectFrame[T any] struct {
	arc     fst.Arc[T]
	state   State
	output  T
	advance bool
}

// Intersect visits the keys of f accepted by c, in key order. Single terms
// are looked up directly and prefixes are enumerated from a seek; other
// languages walk the run automaton over the FST.
func Intersect[T any](c *Automaton, f *fst.FST[T], visit func(key []byte, output T) bool) {
	switch c.Type {
	case TypeNone:
	case TypeAll:
		e := fst.NewEnum(f)
		for io, ok := e.Next(); ok; io, ok = e.Next() {
			if byteLabels(io.Input) && !visit(labelsToBytes(io.Input), io.Output) {
				return
			}
		}
	case TypeSingle:
		if out, ok := fst.Get(f, bytesToLabels(c.Term)); ok {
			visit(bytes.Clone(c.Term), out)
		}
	case TypePrefix:
		e := fst.NewEnum(f)
		prefix := bytesToLabels(c.Term)
		for io, ok := e.SeekCeil(prefix); ok; io, ok = e.Next() {
			if len(io.Input) < len(prefix) || !slices.Equal(io.Input[:len(prefix)], prefix) {
				return
			}
			if !byteLabels(io.Input) {
				continue
			}
			if !visit(labelsToBytes(io.Input), io.Output) {
				return
			}
		}
	default:
		IntersectFST(f, c.run, visit)
	}
}

func bytesToLabels(b []byte) []int32 {
	out := make([]int32, len(b))
	for i, c := range b {
		out[i] = int32(c)
	}
	return out
}

func byteLabels(labels []int32) bool {
	for _, l := range labels {
		if l > 0xFF {
			return false
		}
	}
	return true
}
