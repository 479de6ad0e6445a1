package fst

import (
	"fmt"
	"log/slog"
)

// Builder constructs an FST from keys added in sorted order. Nodes on the
// frontier (the path of the last key) stay mutable; once a later key
// diverges from that path the tail is frozen into the byte arena, sharing
// any identical suffix already written.
//
// A Builder is not safe for concurrent use.
type Builder[T any] struct {
	opts    BuilderOptions
	logger  *slog.Logger
	outputs Outputs[T]
	fst     *FST[T]
	dedup   *nodeHash[T]

	frontier  []*uncompiledNode[T]
	lastInput []int32
	started   bool
	finished  bool

	termCount int64
}

// NewBuilder returns a Builder for the given label width and output algebra.
func NewBuilder[T any](inputType InputType, outputs Outputs[T], opts BuilderOptions) (*Builder[T], error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	b := &Builder[T]{
		opts:     opts,
		logger:   logger,
		outputs:  outputs,
		fst:      newFST(inputType, outputs),
		frontier: make([]*uncompiledNode[T], 10),
	}
	if opts.ShareSuffix {
		b.dedup = newNodeHash(b.fst)
	}
	for i := range b.frontier {
		b.frontier[i] = newUncompiledNode(outputs, i)
	}
	return b, nil
}

// TermCount returns the number of keys added so far.
func (b *Builder[T]) TermCount() int64 { return b.termCount }

// NodeCount returns the number of nodes written to the arena so far.
func (b *Builder[T]) NodeCount() int64 { return b.fst.nodeCount }

// ArcCount returns the number of arcs written to the arena so far.
func (b *Builder[T]) ArcCount() int64 { return b.fst.arcCount }

// SizeInBytes returns the current size of the arena.
func (b *Builder[T]) SizeInBytes() int64 { return b.fst.SizeInBytes() }

// Add appends a key and its output. Keys must be strictly increasing.
func (b *Builder[T]) Add(input []int32, output T) error {
	if b.finished {
		return ErrFinished
	}
	maxLabel := b.fst.inputType.MaxLabel()
	for i, l := range input {
		if l < 0 || l > maxLabel {
			return fmt.Errorf("fst: label %d at %d for %s: %w", l, i, b.fst.inputType, ErrInvalidLabel)
		}
	}
	if b.started && compareLabels(input, b.lastInput) <= 0 {
		return fmt.Errorf("fst: %v after %v: %w", input, b.lastInput, ErrOutOfOrder)
	}
	if v, ok := b.outputs.(OutputValidator[T]); ok {
		if err := v.Validate(output); err != nil {
			return err
		}
	}
	no := b.outputs.NoOutput()
	if b.outputs.Equal(output, no) {
		output = no
	}
	b.started = true
	b.termCount++

	if len(input) == 0 {
		b.frontier[0].inputCount++
		b.frontier[0].isFinal = true
		b.fst.emptyOutput = output
		b.fst.hasEmpty = true
		return nil
	}

	// Count the key on every shared prefix node and the first divergent one.
	pos := 0
	stop := min(len(b.lastInput), len(input))
	for {
		b.frontier[pos].inputCount++
		if pos >= stop || b.lastInput[pos] != input[pos] {
			break
		}
		pos++
	}
	prefixLenPlus1 := pos + 1

	for len(b.frontier) < len(input)+1 {
		b.frontier = append(b.frontier, newUncompiledNode(b.outputs, len(b.frontier)))
	}

	b.freezeTail(prefixLenPlus1)

	for idx := prefixLenPlus1; idx <= len(input); idx++ {
		b.frontier[idx-1].addArc(input[idx-1], b.frontier[idx])
		b.frontier[idx].inputCount++
	}

	lastNode := b.frontier[len(input)]
	lastNode.isFinal = true
	lastNode.output = no

	// Push outputs that conflict with the previous key's towards the tail,
	// only as far as needed.
	for idx := 1; idx < prefixLenPlus1; idx++ {
		node := b.frontier[idx]
		parent := b.frontier[idx-1]
		label := input[idx-1]

		lastOutput := parent.lastOutput(label)
		common := no
		if !b.outputs.Equal(lastOutput, no) {
			common = b.outputs.Common(output, lastOutput)
			suffix := b.outputs.Subtract(lastOutput, common)
			parent.setLastOutput(label, common)
			node.prependOutput(suffix)
		}
		output = b.outputs.Subtract(output, common)
	}
	b.frontier[prefixLenPlus1-1].setLastOutput(input[prefixLenPlus1-1], output)

	b.lastInput = append(b.lastInput[:0], input...)
	return nil
}

// freezeTail compiles, or prunes, the frontier nodes past the prefix the
// next key shares with the last one.
func (b *Builder[T]) freezeTail(prefixLenPlus1 int) {
	min1, min2 := b.opts.MinSuffixCount1, b.opts.MinSuffixCount2
	downTo := max(1, prefixLenPlus1)
	for idx := len(b.lastInput); idx >= downTo; idx-- {
		node := b.frontier[idx]
		parent := b.frontier[idx-1]
		label := b.lastInput[idx-1]

		var doPrune, doCompile bool
		switch {
		case node.inputCount < int64(min1):
			doPrune, doCompile = true, true
		case idx > prefixLenPlus1:
			// The parent is about to be compiled too; if it misses the cut
			// so does this node. With min2 == 1 only the part of the key up
			// to the distinguishing arc is kept.
			doPrune = parent.inputCount < int64(min2) || (min2 == 1 && parent.inputCount == 1 && idx > 1)
			doCompile = true
		default:
			doCompile = min2 == 0
		}

		if node.inputCount < int64(min2) || (min2 == 1 && node.inputCount == 1 && idx > 1) {
			for i := range node.arcs {
				if t := node.arcs[i].target; t != nil {
					t.clear()
				}
			}
			node.arcs = node.arcs[:0]
		}

		if doPrune {
			node.clear()
			parent.deleteLast(label)
			continue
		}

		if min2 != 0 {
			b.compileAllTargets(node, len(b.lastInput)-idx)
		}
		nextFinalOutput := node.output
		isFinal := node.isFinal || len(node.arcs) == 0

		if doCompile {
			addr := b.compileNode(node, 1+len(b.lastInput)-idx)
			parent.replaceLast(label, nil, addr, nextFinalOutput, isFinal)
		} else {
			parent.replaceLast(label, node, 0, nextFinalOutput, isFinal)
			b.frontier[idx] = newUncompiledNode(b.outputs, idx)
		}
	}
}

// compileNode writes n to the arena, reusing an identical node when suffix
// sharing allows it, and resets n.
func (b *Builder[T]) compileNode(n *uncompiledNode[T], tailLength int) int64 {
	var addr int64
	if b.dedup != nil && len(n.arcs) > 0 &&
		(b.opts.ShareNonSingletonNodes || len(n.arcs) <= 1) &&
		tailLength <= b.opts.ShareMaxTailLength {
		addr = b.dedup.add(n, b.opts.AllowArrayArcs)
	} else {
		addr = b.fst.addNode(n, nil, b.opts.AllowArrayArcs)
	}
	n.clear()
	return addr
}

// compileAllTargets compiles the still-open targets of n's arcs; a target
// without arcs becomes a final leaf.
func (b *Builder[T]) compileAllTargets(n *uncompiledNode[T], tailLength int) {
	for i := range n.arcs {
		a := &n.arcs[i]
		t := a.target
		if t == nil {
			continue
		}
		if len(t.arcs) == 0 {
			a.isFinal = true
			t.isFinal = true
		}
		a.address = b.compileNode(t, tailLength-1)
		a.target = nil
	}
}

// Finish freezes the remaining frontier and returns the FST. A builder that
// received no keys, or whose keys were all pruned, yields an FST for which
// Empty reports true.
func (b *Builder[T]) Finish() (*FST[T], error) {
	if b.finished {
		return nil, ErrFinished
	}
	b.finished = true

	root := b.frontier[0]
	b.freezeTail(0)

	min1, min2 := int64(b.opts.MinSuffixCount1), int64(b.opts.MinSuffixCount2)
	if root.inputCount < min1 || root.inputCount < min2 || len(root.arcs) == 0 {
		if !b.fst.hasEmpty || b.opts.Pruning() {
			b.logger.Debug("fst build finished empty", "terms", b.termCount)
			return newFST(b.fst.inputType, b.outputs), nil
		}
	} else if min2 != 0 {
		b.compileAllTargets(root, len(b.lastInput))
	}
	b.fst.root = b.compileNode(root, len(b.lastInput))

	uniq := 0
	if b.dedup != nil {
		uniq = b.dedup.len()
	}
	b.logger.Debug("fst build finished",
		"terms", b.termCount,
		"nodes", b.fst.nodeCount,
		"arcs", b.fst.arcCount,
		"bytes", b.fst.SizeInBytes(),
		"shared_nodes", uniq,
		"input_type", b.fst.inputType.String(),
	)
	return b.fst, nil
}

func compareLabels(a, b []int32) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return len(a) - len(b)
}
