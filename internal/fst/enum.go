package fst

import "slices"

// InputOutput is one key of an FST with its output.
type InputOutput[T any] struct {
	Input  []int32
	Output T
}

// Enum iterates the keys of an FST in sorted order and seeks within them.
// Arcs along the current key are kept on a stack so a seek only re-reads
// the part of the path that differs from the current key.
//
// An Enum is not safe for concurrent use; create one per goroutine.
type Enum[T any] struct {
	fst *FST[T]
	r   *BytesReader

	// arcs[i] is the arc taken at depth i; arcs[0] is the virtual root arc.
	arcs []*Arc[T]
	// outputs[i] is the accumulated output through arcs[i].
	outputs []T
	// labels[i] is the label of arcs[i]; labels[0] is unused.
	labels []int32
	upto   int

	target    []int32
	exhausted bool
	current   InputOutput[T]
}

// NewEnum returns an Enum positioned before the first key.
func NewEnum[T any](f *FST[T]) *Enum[T] {
	e := &Enum[T]{
		fst:     f,
		r:       f.BytesReader(),
		arcs:    []*Arc[T]{new(Arc[T])},
		outputs: []T{f.outputs.NoOutput()},
		labels:  []int32{0},
	}
	f.GetFirstArc(e.arcs[0])
	return e
}

// Current returns the key the enum is positioned on.
func (e *Enum[T]) Current() InputOutput[T] { return e.current }

// Next advances to the next key. It returns false once the keys are
// exhausted or after a SeekCeil that found nothing.
func (e *Enum[T]) Next() (InputOutput[T], bool) {
	if e.fst.Empty() || e.exhausted {
		return InputOutput[T]{}, false
	}
	e.doNext()
	return e.result()
}

// SeekCeil positions the enum on the smallest key >= target. When there is
// none, or target has a label outside the input type's range, the enum is
// exhausted.
func (e *Enum[T]) SeekCeil(target []int32) (InputOutput[T], bool) {
	if e.fst.Empty() {
		return InputOutput[T]{}, false
	}
	if !e.fst.inputType.ValidKey(target) {
		e.exhausted = true
		return InputOutput[T]{}, false
	}
	e.target = target
	e.exhausted = false
	e.doSeekCeil()
	io, ok := e.result()
	e.exhausted = !ok
	return io, ok
}

// SeekFloor positions the enum on the largest key <= target. When there is
// none, or target has a label outside the input type's range, the enum is
// rewound, so Next yields the first key.
func (e *Enum[T]) SeekFloor(target []int32) (InputOutput[T], bool) {
	if e.fst.Empty() {
		return InputOutput[T]{}, false
	}
	if !e.fst.inputType.ValidKey(target) {
		return e.rewind()
	}
	e.target = target
	e.exhausted = false
	e.doSeekFloor()
	return e.result()
}

// SeekExact positions the enum on target if it is a key. When it is not,
// the enum is rewound, so Next yields the first key.
func (e *Enum[T]) SeekExact(target []int32) (InputOutput[T], bool) {
	if e.fst.Empty() {
		return InputOutput[T]{}, false
	}
	if !e.fst.inputType.ValidKey(target) {
		return e.rewind()
	}
	e.target = target
	e.exhausted = false
	if !e.doSeekExact() {
		return e.rewind()
	}
	return e.result()
}

func (e *Enum[T]) rewind() (InputOutput[T], bool) {
	e.exhausted = false
	e.upto = 0
	e.current = InputOutput[T]{}
	return e.current, false
}

func (e *Enum[T]) result() (InputOutput[T], bool) {
	if e.upto == 0 {
		e.current = InputOutput[T]{}
		return e.current, false
	}
	e.current = InputOutput[T]{
		Input:  slices.Clone(e.labels[1:e.upto]),
		Output: e.outputs[e.upto],
	}
	if e.current.Input == nil {
		e.current.Input = []int32{}
	}
	return e.current, true
}

func (e *Enum[T]) targetLabel() int32 {
	if e.upto-1 == len(e.target) {
		return EndLabel
	}
	return e.target[e.upto-1]
}

// grow makes the stacks at least n+1 deep.
func (e *Enum[T]) grow(n int) {
	for len(e.arcs) <= n {
		e.arcs = append(e.arcs, new(Arc[T]))
		e.outputs = append(e.outputs, e.fst.outputs.NoOutput())
		e.labels = append(e.labels, 0)
	}
}

func (e *Enum[T]) incr() {
	e.upto++
	e.grow(e.upto)
}

// first positions the stack on the first arc leaving the root.
func (e *Enum[T]) first() {
	e.upto = 1
	e.grow(1)
	e.fst.ReadFirstTargetArc(e.arcs[0], e.arcs[1], e.r)
}

func (e *Enum[T]) accumulate(a *Arc[T]) {
	e.outputs[e.upto] = e.fst.outputs.Add(e.outputs[e.upto-1], a.Output)
}

func (e *Enum[T]) doNext() {
	if e.upto == 0 {
		e.first()
	} else {
		for e.arcs[e.upto].IsLast() {
			e.upto--
			if e.upto == 0 {
				e.exhausted = true
				return
			}
		}
		e.fst.ReadNextArc(e.arcs[e.upto], e.r)
	}
	e.pushFirst()
}

// pushFirst descends from the current arc along first arcs to the
// smallest key below it.
func (e *Enum[T]) pushFirst() {
	a := e.arcs[e.upto]
	for {
		e.accumulate(a)
		if a.Label == EndLabel {
			return
		}
		e.labels[e.upto] = a.Label
		e.incr()
		next := e.arcs[e.upto]
		e.fst.ReadFirstTargetArc(a, next, e.r)
		a = next
	}
}

// pushLast descends from the current arc along last arcs to the largest
// key below it.
func (e *Enum[T]) pushLast() {
	a := e.arcs[e.upto]
	for {
		e.labels[e.upto] = a.Label
		e.accumulate(a)
		if a.Label == EndLabel {
			return
		}
		e.incr()
		a = e.fst.ReadLastTargetArc(a, e.arcs[e.upto], e.r)
	}
}

// rewindPrefix keeps the part of the current path shared with the target
// and leaves upto on the first arc that must be re-read.
func (e *Enum[T]) rewindPrefix() {
	if e.upto == 0 {
		e.first()
		return
	}
	limit := e.upto
	e.upto = 1
	for e.upto < limit && e.upto <= len(e.target)+1 {
		cur, tgt := e.labels[e.upto], e.targetLabel()
		if cur < tgt {
			return
		}
		if cur > tgt {
			e.fst.ReadFirstTargetArc(e.arcs[e.upto-1], e.arcs[e.upto], e.r)
			return
		}
		e.upto++
	}
}

// rollForward backs up from a dead end to the nearest arc with a next
// sibling and descends to the first key after it.
func (e *Enum[T]) rollForward() {
	e.upto--
	for e.upto > 0 {
		prev := e.arcs[e.upto]
		if !prev.IsLast() {
			e.fst.ReadNextArc(prev, e.r)
			e.pushFirst()
			return
		}
		e.upto--
	}
}

func (e *Enum[T]) doSeekCeil() {
	e.rewindPrefix()
	a := e.arcs[e.upto]
	target := e.targetLabel()
	for {
		if a.bytesPerArc != 0 && a.Label != EndLabel {
			idx, found := e.fst.searchArray(a, target, e.r)
			switch {
			case found:
				e.fst.readArrayArc(a, idx, e.r)
			case idx == a.numArcs:
				e.fst.readArrayArc(a, a.numArcs-1, e.r)
				e.rollForward()
				return
			default:
				e.fst.readArrayArc(a, idx, e.r)
				e.pushFirst()
				return
			}
		}

		switch {
		case a.Label == target:
			e.accumulate(a)
			if target == EndLabel {
				return
			}
			e.labels[e.upto] = a.Label
			e.incr()
			a = e.fst.ReadFirstTargetArc(a, e.arcs[e.upto], e.r)
			target = e.targetLabel()
		case a.Label > target:
			e.pushFirst()
			return
		case a.IsLast():
			e.rollForward()
			return
		default:
			e.fst.ReadNextArc(a, e.r)
		}
	}
}

func (e *Enum[T]) doSeekFloor() {
	e.rewindPrefix()
	a := e.arcs[e.upto]
	target := e.targetLabel()
	for {
		if a.bytesPerArc != 0 && a.Label != EndLabel {
			idx, found := e.fst.searchArray(a, target, e.r)
			switch {
			case found:
				e.fst.readArrayArc(a, idx, e.r)
			case idx == 0:
				e.backtrackFloor()
				return
			default:
				e.fst.readArrayArc(a, idx-1, e.r)
				e.pushLast()
				return
			}
		}

		switch {
		case a.Label == target:
			e.accumulate(a)
			if target == EndLabel {
				return
			}
			e.labels[e.upto] = a.Label
			e.incr()
			a = e.fst.ReadFirstTargetArc(a, e.arcs[e.upto], e.r)
			target = e.targetLabel()
		case a.Label > target:
			e.backtrackFloor()
			return
		case !a.IsLast():
			if e.fst.peekNextLabel(a, e.r) > target {
				e.pushLast()
				return
			}
			e.fst.ReadNextArc(a, e.r)
		default:
			e.pushLast()
			return
		}
	}
}

// backtrackFloor handles a node whose first arc is already past the
// target: walk up until some node has an arc before the target label,
// then descend to the largest key below that arc. upto ends at 0 when no
// such node exists.
func (e *Enum[T]) backtrackFloor() {
	target := e.targetLabel()
	for {
		a := e.fst.ReadFirstTargetArc(e.arcs[e.upto-1], e.arcs[e.upto], e.r)
		if a.Label < target {
			for !a.IsLast() && e.fst.peekNextLabel(a, e.r) < target {
				e.fst.ReadNextArc(a, e.r)
			}
			e.pushLast()
			return
		}
		e.upto--
		if e.upto == 0 {
			return
		}
		target = e.targetLabel()
	}
}

func (e *Enum[T]) doSeekExact() bool {
	e.rewindPrefix()
	a := e.arcs[e.upto-1]
	target := e.targetLabel()
	for {
		next := e.fst.FindTargetArc(target, a, e.arcs[e.upto], e.r)
		if next == nil {
			return false
		}
		e.accumulate(next)
		if target == EndLabel {
			return true
		}
		e.labels[e.upto] = target
		e.incr()
		target = e.targetLabel()
		a = next
	}
}
