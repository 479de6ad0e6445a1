package fst

import "fmt"

// builderArc is an arc of a node still on the builder's frontier. Its
// target is either another frontier node or, once compiled, an address.
type builderArc[T any] struct {
	label           int32
	target          *uncompiledNode[T]
	address         int64
	isFinal         bool
	output          T
	nextFinalOutput T
}

// uncompiledNode is a node whose arc list may still grow.
type uncompiledNode[T any] struct {
	outputs Outputs[T]

	arcs []builderArc[T]
	// output is the node's final output, meaningful when isFinal.
	output     T
	isFinal    bool
	inputCount int64
	depth      int
}

func newUncompiledNode[T any](outputs Outputs[T], depth int) *uncompiledNode[T] {
	return &uncompiledNode[T]{outputs: outputs, output: outputs.NoOutput(), depth: depth}
}

func (n *uncompiledNode[T]) clear() {
	n.arcs = n.arcs[:0]
	n.isFinal = false
	n.output = n.outputs.NoOutput()
	n.inputCount = 0
}

func (n *uncompiledNode[T]) last(label int32) *builderArc[T] {
	a := &n.arcs[len(n.arcs)-1]
	if a.label != label {
		panic(fmt.Sprintf("fst: last arc label %d, want %d", a.label, label))
	}
	return a
}

func (n *uncompiledNode[T]) addArc(label int32, target *uncompiledNode[T]) {
	if k := len(n.arcs); k > 0 && n.arcs[k-1].label >= label {
		panic(fmt.Sprintf("fst: arc %d added after %d", label, n.arcs[k-1].label))
	}
	no := n.outputs.NoOutput()
	n.arcs = append(n.arcs, builderArc[T]{label: label, target: target, output: no, nextFinalOutput: no})
}

func (n *uncompiledNode[T]) replaceLast(label int32, target *uncompiledNode[T], address int64, nextFinalOutput T, isFinal bool) {
	a := n.last(label)
	a.target = target
	a.address = address
	a.nextFinalOutput = nextFinalOutput
	a.isFinal = isFinal
}

func (n *uncompiledNode[T]) deleteLast(label int32) {
	n.last(label)
	n.arcs = n.arcs[:len(n.arcs)-1]
}

func (n *uncompiledNode[T]) lastOutput(label int32) T {
	return n.last(label).output
}

func (n *uncompiledNode[T]) setLastOutput(label int32, output T) {
	n.last(label).output = output
}

// prependOutput pushes prefix onto every arc and the final output.
func (n *uncompiledNode[T]) prependOutput(prefix T) {
	for i := range n.arcs {
		n.arcs[i].output = n.outputs.Add(prefix, n.arcs[i].output)
	}
	if n.isFinal {
		n.output = n.outputs.Add(prefix, n.output)
	}
}

// appendArcs appends the linear encoding of n's arcs to dst. Every target
// must already be compiled. The encoding doubles as the node's identity in
// the suffix-sharing hash.
func (f *FST[T]) appendArcs(dst []byte, n *uncompiledNode[T]) []byte {
	for i := range n.arcs {
		dst = f.appendArc(dst, &n.arcs[i], i == len(n.arcs)-1)
	}
	return dst
}

func (f *FST[T]) appendArc(dst []byte, a *builderArc[T], last bool) []byte {
	if a.target != nil {
		panic("fst: writing an arc whose target is not compiled")
	}
	no := f.outputs.NoOutput()
	var flags byte
	if last {
		flags |= flagLast
	}
	if a.isFinal {
		flags |= flagFinal
		if !f.outputs.Equal(a.nextFinalOutput, no) {
			flags |= flagHasFinalOutput
		}
	} else if !f.outputs.Equal(a.nextFinalOutput, no) {
		panic("fst: non-final arc with a final output")
	}
	if a.address <= 0 {
		flags |= flagStop
	}
	hasOutput := !f.outputs.Equal(a.output, no)
	if hasOutput {
		flags |= flagHasOutput
	}

	dst = append(dst, flags)
	dst = f.appendLabel(dst, a.label)
	if hasOutput {
		dst = f.outputs.Write(dst, a.output)
	}
	if flags&flagHasFinalOutput != 0 {
		dst = f.outputs.Write(dst, a.nextFinalOutput)
	}
	if a.address > 0 {
		dst = appendAddress(dst, a.address)
	}
	return dst
}

// addNode writes n to the arena and returns its address. linear, if
// non-nil, is the precomputed output of appendArcs.
func (f *FST[T]) addNode(n *uncompiledNode[T], linear []byte, allowArrayArcs bool) int64 {
	if len(n.arcs) == 0 {
		if n.isFinal {
			return FinalEndNode
		}
		return NonFinalEndNode
	}
	addr := int64(len(f.bytes))
	if allowArrayArcs && shouldExpand(n) {
		slots := make([][]byte, len(n.arcs))
		width := 0
		for i := range n.arcs {
			slots[i] = f.appendArc(nil, &n.arcs[i], i == len(n.arcs)-1)
			width = max(width, len(slots[i]))
		}
		f.bytes = append(f.bytes, arcsAsArray)
		f.bytes = appendAddress(f.bytes, int64(len(n.arcs)))
		f.bytes = appendAddress(f.bytes, int64(width))
		for _, s := range slots {
			f.bytes = append(f.bytes, s...)
			for pad := len(s); pad < width; pad++ {
				f.bytes = append(f.bytes, 0)
			}
		}
	} else if linear != nil {
		f.bytes = append(f.bytes, linear...)
	} else {
		f.bytes = f.appendArcs(f.bytes, n)
	}
	f.nodeCount++
	f.arcCount += int64(len(n.arcs))
	return addr
}

func shouldExpand[T any](n *uncompiledNode[T]) bool {
	return (n.depth <= fixedArrayShallowDistance && len(n.arcs) >= fixedArrayNumArcsShallow) ||
		len(n.arcs) >= fixedArrayNumArcsDeep
}
