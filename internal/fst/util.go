package fst

import (
	"bufio"
	"container/heap"
	"fmt"
	"io"
	"slices"
	"strconv"
)

// Get returns the output of input, and whether input is a key. Inputs with
// labels outside the input type's range are never keys.
func Get[T any](f *FST[T], input []int32) (T, bool) {
	no := f.outputs.NoOutput()
	if f.Empty() || !f.inputType.ValidKey(input) {
		return no, false
	}
	r := f.BytesReader()
	arc := f.GetFirstArc(new(Arc[T]))
	output := no
	for _, l := range input {
		if f.FindTargetArc(l, arc, arc, r) == nil {
			return no, false
		}
		output = f.outputs.Add(output, arc.Output)
	}
	if !arc.IsFinal() {
		return no, false
	}
	return f.outputs.Add(output, arc.NextFinalOutput), true
}

// GetByOutput returns the key whose output is target. Outputs must be
// ordinals that grow with the key order, as when keys are added with
// output 0, 1, 2 and so on.
func GetByOutput(f *FST[int64], target int64) ([]int32, bool) {
	if f.Empty() {
		return nil, false
	}
	r := f.BytesReader()
	arc := f.GetFirstArc(new(Arc[int64]))
	var prev Arc[int64]
	output := arc.Output
	result := []int32{}
	for {
		if arc.IsFinal() {
			final := output + arc.NextFinalOutput
			if final == target {
				return result, true
			}
			if final > target {
				return nil, false
			}
		}
		if !TargetHasArcs(arc) {
			return nil, false
		}
		f.readFirstRealTargetArc(arc.Target, arc, r)

		if arc.bytesPerArc != 0 {
			lo, hi := 0, arc.numArcs-1
			found := -1
			for lo <= hi {
				mid := int(uint(lo+hi) >> 1)
				f.readArrayArc(arc, mid, r)
				switch o := output + arc.Output; {
				case o < target:
					lo = mid + 1
				case o > target:
					hi = mid - 1
				default:
					found = mid
				}
				if found >= 0 {
					break
				}
			}
			switch {
			case found >= 0:
				f.readArrayArc(arc, found, r)
			case hi == -1:
				return nil, false
			default:
				f.readArrayArc(arc, hi, r)
			}
			result = append(result, arc.Label)
			output += arc.Output
			continue
		}

		havePrev := false
		for {
			o := output + arc.Output
			if o > target {
				if !havePrev {
					return nil, false
				}
				arc.CopyFrom(&prev)
				break
			}
			if o == target || arc.IsLast() {
				break
			}
			prev.CopyFrom(arc)
			havePrev = true
			f.readNextRealArc(arc, r)
		}
		result = append(result, arc.Label)
		output += arc.Output
	}
}

// Path is one result of TopN.
type Path[T any] struct {
	Input  []int32
	Output T
}

type pathEntry[T any] struct {
	input  []int32
	output T
	arc    Arc[T]
}

type pathQueue[T any] struct {
	items []*pathEntry[T]
	cmp   func(a, b T) int
}

func (q *pathQueue[T]) Len() int { return len(q.items) }

func (q *pathQueue[T]) Less(i, j int) bool {
	if c := q.cmp(q.items[i].output, q.items[j].output); c != 0 {
		return c < 0
	}
	return compareLabels(q.items[i].input, q.items[j].input) < 0
}

func (q *pathQueue[T]) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }
func (q *pathQueue[T]) Push(x any)    { q.items = append(q.items, x.(*pathEntry[T])) }

func (q *pathQueue[T]) Pop() any {
	old := q.items
	n := len(old)
	x := old[n-1]
	q.items = old[:n-1]
	return x
}

// TopN returns up to n keys with the smallest outputs under cmp, ordered by
// output and then by key. Outputs must never decrease along a path, which
// holds for PositiveIntOutputs with cmp.Compare.
func TopN[T any](f *FST[T], n int, cmp func(a, b T) int) []Path[T] {
	if f.Empty() || n <= 0 {
		return nil
	}
	r := f.BytesReader()
	q := &pathQueue[T]{cmp: cmp}

	var root Arc[T]
	f.GetFirstArc(&root)
	push := func(prefix []int32, output T, follow *Arc[T]) {
		var a Arc[T]
		f.ReadFirstTargetArc(follow, &a, r)
		for {
			e := &pathEntry[T]{output: f.outputs.Add(output, a.Output)}
			e.arc.CopyFrom(&a)
			if a.Label == EndLabel {
				e.input = prefix
			} else {
				e.input = append(slices.Clip(prefix), a.Label)
			}
			heap.Push(q, e)
			if a.IsLast() {
				return
			}
			f.ReadNextArc(&a, r)
		}
	}
	push([]int32{}, root.Output, &root)

	var out []Path[T]
	for q.Len() > 0 && len(out) < n {
		e := heap.Pop(q).(*pathEntry[T])
		if e.arc.Label == EndLabel {
			out = append(out, Path[T]{Input: e.input, Output: e.output})
			continue
		}
		push(e.input, e.output, &e.arc)
	}
	return out
}

// ToDot writes the FST as a Graphviz digraph. Arcs are labeled with their
// label and, when present, their output and final output.
//
//	fsttool dot words.fst | dot -Tpng > words.png
func ToDot[T any](f *FST[T], w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "digraph FST {\n")
	fmt.Fprintf(bw, "  rankdir = LR;\n  splines = true;\n  concentrate = false;\n  ordering = out;\n  ranksep = 0.2;\n")
	fmt.Fprintf(bw, "  node [shape=circle, width=.2, height=.2, style=filled]\n")
	fmt.Fprintf(bw, "  initial [shape=point, color=white, label=\"\"];\n")

	if f.Empty() {
		fmt.Fprintf(bw, "}\n")
		return bw.Flush()
	}

	var first Arc[T]
	f.GetFirstArc(&first)
	startColor := "white"
	if first.IsFinal() {
		startColor = "yellow"
	}
	fmt.Fprintf(bw, "  initial -> %s\n", dotNodeName(f.root))
	fmt.Fprintf(bw, "  %s [label=\"\", shape=circle, fillcolor=%s];\n", dotNodeName(f.root), startColor)
	if first.IsFinal() && !f.outputs.Equal(f.emptyOutput, f.outputs.NoOutput()) {
		fmt.Fprintf(bw, "  %s [xlabel=%q];\n", dotNodeName(f.root), f.outputs.String(f.emptyOutput))
	}

	r := f.BytesReader()
	seen := map[int64]bool{f.root: true}
	queue := []int64{f.root}
	var a Arc[T]
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		if node <= 0 {
			continue
		}
		f.readFirstRealTargetArc(node, &a, r)
		for {
			if !seen[a.Target] {
				seen[a.Target] = true
				queue = append(queue, a.Target)
				shape, fill := "circle", "white"
				if a.Target == FinalEndNode {
					shape, fill = "doublecircle", "white"
				}
				fmt.Fprintf(bw, "  %s [label=\"\", shape=%s, fillcolor=%s];\n", dotNodeName(a.Target), shape, fill)
			}
			label := f.dotLabel(a.Label)
			if !f.outputs.Equal(a.Output, f.outputs.NoOutput()) {
				label += "/" + f.outputs.String(a.Output)
			}
			if a.IsFinal() && !f.outputs.Equal(a.NextFinalOutput, f.outputs.NoOutput()) {
				label += " F:" + f.outputs.String(a.NextFinalOutput)
			}
			style := "solid"
			if a.IsFinal() {
				style = "bold"
			}
			fmt.Fprintf(bw, "  %s -> %s [label=%q, style=%s];\n", dotNodeName(node), dotNodeName(a.Target), label, style)
			if a.IsLast() {
				break
			}
			f.readNextRealArc(&a, r)
		}
	}
	fmt.Fprintf(bw, "}\n")
	return bw.Flush()
}

func dotNodeName(addr int64) string {
	switch addr {
	case FinalEndNode:
		return "final"
	case NonFinalEndNode:
		return "dead"
	}
	return strconv.FormatInt(addr, 10)
}

func (f *FST[T]) dotLabel(l int32) string {
	if f.inputType == InputByte1 && l > ' ' && l < 0x7f {
		return string(rune(l))
	}
	return fmt.Sprintf("0x%x", l)
}
