package fst

import (
	"encoding/binary"
	"fmt"
)

// BytesReader is a positioned reader over an FST's byte arena. Readers are
// cheap; each goroutine traversing an FST needs its own.
type BytesReader struct {
	buf []byte
	pos int64
}

func (r *BytesReader) Position() int64 { return r.pos }

func (r *BytesReader) SetPosition(pos int64) { r.pos = pos }

func (r *BytesReader) SkipBytes(n int64) { r.pos += n }

// NextByte returns the byte at the current position and advances past it.
func (r *BytesReader) NextByte() byte {
	b := r.buf[r.pos]
	r.pos++
	return b
}

// ReadBytes returns the next n bytes without copying.
func (r *BytesReader) ReadBytes(n int) []byte {
	b := r.buf[r.pos : r.pos+int64(n)]
	r.pos += int64(n)
	return b
}

func (r *BytesReader) ReadUvarint() uint64 {
	v, n := binary.Uvarint(r.buf[r.pos:])
	if n <= 0 {
		panic(fmt.Sprintf("fst: malformed uvarint at %d", r.pos))
	}
	r.pos += int64(n)
	return v
}

func (r *BytesReader) ReadVarint() int64 {
	v, n := binary.Varint(r.buf[r.pos:])
	if n <= 0 {
		panic(fmt.Sprintf("fst: malformed varint at %d", r.pos))
	}
	r.pos += int64(n)
	return v
}

func appendAddress(dst []byte, v int64) []byte {
	return binary.AppendUvarint(dst, uint64(v))
}
