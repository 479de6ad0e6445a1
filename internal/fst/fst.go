// Package fst implements finite state transducers: compact, immutable,
// ordered maps from label sequences to outputs, built incrementally from
// sorted keys with shared suffixes and prefix-pushed outputs.
//
// The byte arena is written forward. Byte 0 is reserved so that address 0
// can denote the non-final end node. Each node is either a linear list of
// variable-width arcs or, for wide nodes, a fixed-width arc array that is
// binary searched by label.
package fst

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// InputType is the width of labels stored in the FST.
type InputType uint8

const (
	InputByte1 InputType = iota + 1 // labels in [0, 255]
	InputByte2                      // labels in [0, 65535]
	InputByte4                      // labels in [0, MaxInt32]
)

func (t InputType) String() string {
	switch t {
	case InputByte1:
		return "byte1"
	case InputByte2:
		return "byte2"
	case InputByte4:
		return "byte4"
	default:
		return fmt.Sprintf("InputType(%d)", uint8(t))
	}
}

// MaxLabel returns the largest label the input type can store.
func (t InputType) MaxLabel() int32 {
	switch t {
	case InputByte1:
		return math.MaxUint8
	case InputByte2:
		return math.MaxUint16
	default:
		return math.MaxInt32
	}
}

// ValidKey reports whether every label of key lies in [0, t.MaxLabel()].
func (t InputType) ValidKey(key []int32) bool {
	max := t.MaxLabel()
	for _, l := range key {
		if l < 0 || l > max {
			return false
		}
	}
	return true
}

// ParseInputType parses the String form of an InputType.
func ParseInputType(s string) (InputType, error) {
	switch s {
	case "byte1":
		return InputByte1, nil
	case "byte2":
		return InputByte2, nil
	case "byte4":
		return InputByte4, nil
	}
	return 0, fmt.Errorf("fst: unknown input type %q", s)
}

// EndLabel labels the pseudo-arc that marks the end of an accepted key.
const EndLabel int32 = -1

// Addresses of nodes without arcs.
const (
	FinalEndNode    int64 = -1
	NonFinalEndNode int64 = 0
)

const (
	flagFinal          byte = 1 << 0
	flagLast           byte = 1 << 1
	flagStop           byte = 1 << 3
	flagHasOutput      byte = 1 << 4
	flagHasFinalOutput byte = 1 << 5

	// arcsAsArray starts a node whose arcs are fixed width.
	arcsAsArray byte = 0x80
)

// Fixed-array layout thresholds.
const (
	fixedArrayShallowDistance = 3
	fixedArrayNumArcsShallow  = 5
	fixedArrayNumArcsDeep     = 10
)

var (
	ErrOutOfOrder   = errors.New("input added out of order or duplicated")
	ErrInvalidLabel = errors.New("label outside input type range")
	ErrFinished     = errors.New("builder already finished")
)

// Arc is a reusable cursor over one arc of an FST. The zero value is ready
// to be filled by GetFirstArc or the Read* methods.
type Arc[T any] struct {
	Label           int32
	Output          T
	NextFinalOutput T
	// Target is the address of the destination node, or FinalEndNode /
	// NonFinalEndNode when it has no arcs.
	Target int64

	flags   byte
	nextArc int64

	// Fixed-array bookkeeping; bytesPerArc is 0 for linear nodes.
	posArcsStart int64
	bytesPerArc  int64
	arcIdx       int
	numArcs      int
}

func (a *Arc[T]) flag(f byte) bool { return a.flags&f != 0 }

// IsFinal reports whether the key ending with this arc is accepted.
func (a *Arc[T]) IsFinal() bool { return a.flag(flagFinal) }

// IsLast reports whether this is the last arc leaving its node.
func (a *Arc[T]) IsLast() bool { return a.flag(flagLast) }

// CopyFrom makes a a copy of other.
func (a *Arc[T]) CopyFrom(other *Arc[T]) *Arc[T] {
	*a = *other
	return a
}

// FST is an immutable finite state transducer. Traversal state lives in
// Arc and BytesReader values owned by the caller, so one FST may be read by
// many goroutines.
type FST[T any] struct {
	inputType InputType
	outputs   Outputs[T]

	bytes []byte
	root  int64

	emptyOutput T
	hasEmpty    bool

	nodeCount int64
	arcCount  int64
}

func newFST[T any](inputType InputType, outputs Outputs[T]) *FST[T] {
	return &FST[T]{
		inputType:   inputType,
		outputs:     outputs,
		bytes:       []byte{0},
		root:        NonFinalEndNode,
		emptyOutput: outputs.NoOutput(),
	}
}

func (f *FST[T]) InputType() InputType      { return f.inputType }
func (f *FST[T]) Outputs() Outputs[T]       { return f.outputs }
func (f *FST[T]) NodeCount() int64          { return f.nodeCount }
func (f *FST[T]) ArcCount() int64           { return f.arcCount }
func (f *FST[T]) SizeInBytes() int64        { return int64(len(f.bytes)) }
func (f *FST[T]) BytesReader() *BytesReader { return &BytesReader{buf: f.bytes} }

// Empty reports whether the FST accepts no keys.
func (f *FST[T]) Empty() bool {
	return !f.hasEmpty && f.root <= 0
}

// EmptyOutput returns the output of the empty key, if it is accepted.
func (f *FST[T]) EmptyOutput() (T, bool) {
	return f.emptyOutput, f.hasEmpty
}

// GetFirstArc fills arc with the virtual arc leading into the root node.
func (f *FST[T]) GetFirstArc(arc *Arc[T]) *Arc[T] {
	no := f.outputs.NoOutput()
	arc.Label = 0
	arc.Output = no
	arc.bytesPerArc = 0
	if f.hasEmpty {
		arc.flags = flagFinal | flagLast
		arc.NextFinalOutput = f.emptyOutput
		if !f.outputs.Equal(f.emptyOutput, no) {
			arc.flags |= flagHasFinalOutput
		}
	} else {
		arc.flags = flagLast
		arc.NextFinalOutput = no
	}
	arc.Target = f.root
	return arc
}

// TargetHasArcs reports whether arc leads to a node with outgoing arcs.
func TargetHasArcs[T any](arc *Arc[T]) bool {
	return arc.Target > 0
}

// ReadFirstTargetArc fills arc with the first arc leaving follow's target.
// When follow is final that is the EndLabel pseudo-arc, which sorts before
// every real label.
func (f *FST[T]) ReadFirstTargetArc(follow, arc *Arc[T], r *BytesReader) *Arc[T] {
	if follow.IsFinal() {
		target := follow.Target
		arc.Label = EndLabel
		arc.Target = FinalEndNode
		arc.Output = follow.NextFinalOutput
		arc.NextFinalOutput = f.outputs.NoOutput()
		arc.flags = flagFinal
		arc.bytesPerArc = 0
		if target <= 0 {
			arc.flags |= flagLast
		} else {
			arc.nextArc = target
		}
		return arc
	}
	if follow.Target <= 0 {
		panic("fst: read arcs of a node without arcs")
	}
	return f.readFirstRealTargetArc(follow.Target, arc, r)
}

func (f *FST[T]) readFirstRealTargetArc(node int64, arc *Arc[T], r *BytesReader) *Arc[T] {
	r.SetPosition(node)
	if r.buf[node] == arcsAsArray {
		r.SkipBytes(1)
		arc.numArcs = int(r.ReadUvarint())
		arc.bytesPerArc = int64(r.ReadUvarint())
		arc.arcIdx = -1
		arc.posArcsStart = r.Position()
	} else {
		arc.nextArc = node
		arc.bytesPerArc = 0
	}
	return f.readNextRealArc(arc, r)
}

// ReadLastTargetArc fills arc with the last arc leaving follow's target.
func (f *FST[T]) ReadLastTargetArc(follow, arc *Arc[T], r *BytesReader) *Arc[T] {
	if !TargetHasArcs(follow) {
		if !follow.IsFinal() {
			panic("fst: read arcs of a non-final node without arcs")
		}
		arc.Label = EndLabel
		arc.Target = FinalEndNode
		arc.Output = follow.NextFinalOutput
		arc.NextFinalOutput = f.outputs.NoOutput()
		arc.flags = flagFinal | flagLast
		arc.bytesPerArc = 0
		return arc
	}
	f.readFirstRealTargetArc(follow.Target, arc, r)
	if arc.bytesPerArc != 0 {
		arc.arcIdx = arc.numArcs - 2
		return f.readNextRealArc(arc, r)
	}
	for !arc.IsLast() {
		f.readNextRealArc(arc, r)
	}
	return arc
}

// ReadNextArc advances arc to its next sibling. The caller must check
// IsLast first.
func (f *FST[T]) ReadNextArc(arc *Arc[T], r *BytesReader) *Arc[T] {
	if arc.Label == EndLabel {
		if arc.nextArc <= 0 {
			panic("fst: read past the last arc")
		}
		return f.readFirstRealTargetArc(arc.nextArc, arc, r)
	}
	return f.readNextRealArc(arc, r)
}

// peekNextLabel returns the label ReadNextArc would produce.
func (f *FST[T]) peekNextLabel(arc *Arc[T], r *BytesReader) int32 {
	var next Arc[T]
	next.CopyFrom(arc)
	return f.ReadNextArc(&next, r).Label
}

func (f *FST[T]) readNextRealArc(arc *Arc[T], r *BytesReader) *Arc[T] {
	if arc.bytesPerArc != 0 {
		arc.arcIdx++
		r.SetPosition(arc.posArcsStart + int64(arc.arcIdx)*arc.bytesPerArc)
	} else {
		r.SetPosition(arc.nextArc)
	}
	arc.flags = r.NextByte()
	arc.Label = f.readLabel(r)
	if arc.flag(flagHasOutput) {
		arc.Output = f.outputs.Read(r)
	} else {
		arc.Output = f.outputs.NoOutput()
	}
	if arc.flag(flagHasFinalOutput) {
		arc.NextFinalOutput = f.outputs.Read(r)
	} else {
		arc.NextFinalOutput = f.outputs.NoOutput()
	}
	switch {
	case !arc.flag(flagStop):
		arc.Target = int64(r.ReadUvarint())
	case arc.IsFinal():
		arc.Target = FinalEndNode
	default:
		arc.Target = NonFinalEndNode
	}
	arc.nextArc = r.Position()
	return arc
}

func (f *FST[T]) readLabel(r *BytesReader) int32 {
	switch f.inputType {
	case InputByte1:
		return int32(r.NextByte())
	case InputByte2:
		b := r.ReadBytes(2)
		return int32(binary.BigEndian.Uint16(b))
	default:
		return int32(r.ReadUvarint())
	}
}

func (f *FST[T]) appendLabel(dst []byte, label int32) []byte {
	switch f.inputType {
	case InputByte1:
		return append(dst, byte(label))
	case InputByte2:
		return binary.BigEndian.AppendUint16(dst, uint16(label))
	default:
		return binary.AppendUvarint(dst, uint64(label))
	}
}

// FindTargetArc fills arc with the arc labeled label leaving follow's
// target and returns it, or returns nil when there is none. Passing
// EndLabel asks whether follow ends an accepted key. follow and arc may
// be the same value.
func (f *FST[T]) FindTargetArc(label int32, follow, arc *Arc[T], r *BytesReader) *Arc[T] {
	if label == EndLabel {
		if !follow.IsFinal() {
			return nil
		}
		target := follow.Target
		arc.Output = follow.NextFinalOutput
		arc.NextFinalOutput = f.outputs.NoOutput()
		arc.Label = EndLabel
		arc.Target = FinalEndNode
		arc.bytesPerArc = 0
		arc.flags = flagFinal
		if target <= 0 {
			arc.flags |= flagLast
		} else {
			arc.nextArc = target
		}
		return arc
	}
	if !TargetHasArcs(follow) {
		return nil
	}

	node := follow.Target
	r.SetPosition(node)
	if r.buf[node] == arcsAsArray {
		r.SkipBytes(1)
		numArcs := int(r.ReadUvarint())
		bytesPerArc := int64(r.ReadUvarint())
		start := r.Position()
		lo, hi := 0, numArcs-1
		for lo <= hi {
			mid := int(uint(lo+hi) >> 1)
			r.SetPosition(start + int64(mid)*bytesPerArc + 1)
			switch l := f.readLabel(r); {
			case l < label:
				lo = mid + 1
			case l > label:
				hi = mid - 1
			default:
				arc.numArcs = numArcs
				arc.bytesPerArc = bytesPerArc
				arc.posArcsStart = start
				arc.arcIdx = mid - 1
				return f.readNextRealArc(arc, r)
			}
		}
		return nil
	}

	f.readFirstRealTargetArc(node, arc, r)
	for {
		switch {
		case arc.Label == label:
			return arc
		case arc.Label > label || arc.IsLast():
			return nil
		}
		f.readNextRealArc(arc, r)
	}
}

// arrayLabel reads the label of slot idx of the fixed-array node arc is in.
func (f *FST[T]) arrayLabel(arc *Arc[T], idx int, r *BytesReader) int32 {
	r.SetPosition(arc.posArcsStart + int64(idx)*arc.bytesPerArc + 1)
	return f.readLabel(r)
}

// searchArray binary searches the fixed-array node of arc for label. It
// returns the slot of label when found, otherwise the insertion point.
func (f *FST[T]) searchArray(arc *Arc[T], label int32, r *BytesReader) (int, bool) {
	lo, hi := 0, arc.numArcs-1
	for lo <= hi {
		mid := int(uint(lo+hi) >> 1)
		switch l := f.arrayLabel(arc, mid, r); {
		case l < label:
			lo = mid + 1
		case l > label:
			hi = mid - 1
		default:
			return mid, true
		}
	}
	return lo, false
}

// readArrayArc positions arc on slot idx of its fixed-array node.
func (f *FST[T]) readArrayArc(arc *Arc[T], idx int, r *BytesReader) *Arc[T] {
	arc.arcIdx = idx - 1
	return f.readNextRealArc(arc, r)
}
