package fst

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

var ErrInvalidOutput = errors.New("output not representable by this output algebra")

// Outputs is the algebra of values carried on FST arcs. Outputs along a
// path are combined with Add; the builder factors shared prefixes out of
// sibling arcs with Common and Subtract.
type Outputs[T any] interface {
	// Common returns the longest shared prefix of a and b.
	Common(a, b T) T
	// Subtract removes prefix inc from output.
	Subtract(output, inc T) T
	// Add appends output to prefix.
	Add(prefix, output T) T
	// NoOutput is the identity of Add.
	NoOutput() T
	Equal(a, b T) bool
	// Write appends the encoding of v to dst.
	Write(dst []byte, v T) []byte
	Read(r *BytesReader) T
	String(v T) string
}

// OutputValidator is implemented by output algebras that cannot represent
// every value of their type.
type OutputValidator[T any] interface {
	Validate(v T) error
}

// PositiveIntOutputs maps keys to non-negative integers; the common prefix
// of two outputs is their minimum.
type PositiveIntOutputs struct{}

func (PositiveIntOutputs) Common(a, b int64) int64 { return min(a, b) }

func (PositiveIntOutputs) Subtract(output, inc int64) int64 {
	if inc > output {
		panic(fmt.Sprintf("fst: subtract %d from %d", inc, output))
	}
	return output - inc
}

func (PositiveIntOutputs) Add(prefix, output int64) int64 { return prefix + output }
func (PositiveIntOutputs) NoOutput() int64                { return 0 }
func (PositiveIntOutputs) Equal(a, b int64) bool          { return a == b }

func (PositiveIntOutputs) Write(dst []byte, v int64) []byte {
	return binary.AppendUvarint(dst, uint64(v))
}

func (PositiveIntOutputs) Read(r *BytesReader) int64 { return int64(r.ReadUvarint()) }
func (PositiveIntOutputs) String(v int64) string     { return strconv.FormatInt(v, 10) }

func (PositiveIntOutputs) Validate(v int64) error {
	if v < 0 {
		return fmt.Errorf("fst: output %d: %w", v, ErrInvalidOutput)
	}
	return nil
}

// ByteSequenceOutputs maps keys to byte strings.
type ByteSequenceOutputs struct{}

func (ByteSequenceOutputs) Common(a, b []byte) []byte {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	if n == 0 {
		return nil
	}
	return a[:n:n]
}

func (ByteSequenceOutputs) Subtract(output, inc []byte) []byte {
	if !bytes.HasPrefix(output, inc) {
		panic(fmt.Sprintf("fst: %q is not a prefix of %q", inc, output))
	}
	if len(inc) == len(output) {
		return nil
	}
	return output[len(inc):]
}

func (ByteSequenceOutputs) Add(prefix, output []byte) []byte {
	switch {
	case len(prefix) == 0:
		return output
	case len(output) == 0:
		return prefix
	}
	out := make([]byte, 0, len(prefix)+len(output))
	return append(append(out, prefix...), output...)
}

func (ByteSequenceOutputs) NoOutput() []byte       { return nil }
func (ByteSequenceOutputs) Equal(a, b []byte) bool { return bytes.Equal(a, b) }

func (ByteSequenceOutputs) Write(dst []byte, v []byte) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(v)))
	return append(dst, v...)
}

func (ByteSequenceOutputs) Read(r *BytesReader) []byte {
	n := int(r.ReadUvarint())
	if n == 0 {
		return nil
	}
	return slices.Clone(r.ReadBytes(n))
}

func (ByteSequenceOutputs) String(v []byte) string { return fmt.Sprintf("%q", v) }

// IntSequenceOutputs maps keys to integer sequences.
type IntSequenceOutputs struct{}

func (IntSequenceOutputs) Common(a, b []int32) []int32 {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	if n == 0 {
		return nil
	}
	return a[:n:n]
}

func (IntSequenceOutputs) Subtract(output, inc []int32) []int32 {
	if len(inc) > len(output) || !slices.Equal(output[:len(inc)], inc) {
		panic(fmt.Sprintf("fst: %v is not a prefix of %v", inc, output))
	}
	if len(inc) == len(output) {
		return nil
	}
	return output[len(inc):]
}

func (IntSequenceOutputs) Add(prefix, output []int32) []int32 {
	switch {
	case len(prefix) == 0:
		return output
	case len(output) == 0:
		return prefix
	}
	out := make([]int32, 0, len(prefix)+len(output))
	return append(append(out, prefix...), output...)
}

func (IntSequenceOutputs) NoOutput() []int32       { return nil }
func (IntSequenceOutputs) Equal(a, b []int32) bool { return slices.Equal(a, b) }

func (IntSequenceOutputs) Write(dst []byte, v []int32) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(v)))
	for _, x := range v {
		dst = binary.AppendVarint(dst, int64(x))
	}
	return dst
}

func (IntSequenceOutputs) Read(r *BytesReader) []int32 {
	n := int(r.ReadUvarint())
	if n == 0 {
		return nil
	}
	out := make([]int32, n)
	for i := range out {
		out[i] = int32(r.ReadVarint())
	}
	return out
}

func (IntSequenceOutputs) String(v []int32) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.Itoa(int(x))
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// NoOutputs turns the FST into an acceptor: a set of keys with no values.
type NoOutputs struct{}

func (NoOutputs) Common(a, b struct{}) struct{}       { return struct{}{} }
func (NoOutputs) Subtract(a, b struct{}) struct{}     { return struct{}{} }
func (NoOutputs) Add(a, b struct{}) struct{}          { return struct{}{} }
func (NoOutputs) NoOutput() struct{}                  { return struct{}{} }
func (NoOutputs) Equal(a, b struct{}) bool            { return true }
func (NoOutputs) Write(dst []byte, _ struct{}) []byte { return dst }
func (NoOutputs) Read(*BytesReader) struct{}          { return struct{}{} }
func (NoOutputs) String(struct{}) string              { return "" }

// Pair holds one output from each side of a PairOutputs.
type Pair[A, B any] struct {
	Output1 A
	Output2 B
}

// PairOutputs combines two output algebras component-wise.
type PairOutputs[A, B any] struct {
	First  Outputs[A]
	Second Outputs[B]
}

// NewPairOutputs returns the product of two output algebras.
func NewPairOutputs[A, B any](first Outputs[A], second Outputs[B]) PairOutputs[A, B] {
	return PairOutputs[A, B]{First: first, Second: second}
}

func (p PairOutputs[A, B]) Common(a, b Pair[A, B]) Pair[A, B] {
	return Pair[A, B]{p.First.Common(a.Output1, b.Output1), p.Second.Common(a.Output2, b.Output2)}
}

func (p PairOutputs[A, B]) Subtract(output, inc Pair[A, B]) Pair[A, B] {
	return Pair[A, B]{p.First.Subtract(output.Output1, inc.Output1), p.Second.Subtract(output.Output2, inc.Output2)}
}

func (p PairOutputs[A, B]) Add(prefix, output Pair[A, B]) Pair[A, B] {
	return Pair[A, B]{p.First.Add(prefix.Output1, output.Output1), p.Second.Add(prefix.Output2, output.Output2)}
}

func (p PairOutputs[A, B]) NoOutput() Pair[A, B] {
	return Pair[A, B]{p.First.NoOutput(), p.Second.NoOutput()}
}

func (p PairOutputs[A, B]) Equal(a, b Pair[A, B]) bool {
	return p.First.Equal(a.Output1, b.Output1) && p.Second.Equal(a.Output2, b.Output2)
}

func (p PairOutputs[A, B]) Write(dst []byte, v Pair[A, B]) []byte {
	return p.Second.Write(p.First.Write(dst, v.Output1), v.Output2)
}

func (p PairOutputs[A, B]) Read(r *BytesReader) Pair[A, B] {
	a := p.First.Read(r)
	return Pair[A, B]{a, p.Second.Read(r)}
}

func (p PairOutputs[A, B]) String(v Pair[A, B]) string {
	return "<" + p.First.String(v.Output1) + "," + p.Second.String(v.Output2) + ">"
}

func (p PairOutputs[A, B]) Validate(v Pair[A, B]) error {
	if val, ok := p.First.(OutputValidator[A]); ok {
		if err := val.Validate(v.Output1); err != nil {
			return err
		}
	}
	if val, ok := p.Second.(OutputValidator[B]); ok {
		return val.Validate(v.Output2)
	}
	return nil
}
