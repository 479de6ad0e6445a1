package compiled

import (
	"GoFST/internal/automaton"
)

// byteRange is an inclusive range of byte values at one position of a
// UTF-8 sequence.
type byteRange struct {
	min, max int32
}

// ConvertUTF8 returns an automaton over UTF-8 bytes accepting the encodings
// of the code point strings a accepts. The result is non-deterministic.
//
// Surrogate code points are encoded like any other three byte sequence.
func ConvertUTF8(a *automaton.Automaton) *automaton.Automaton {
	n := a.NumStates()
	r := automaton.New()
	for s := 1; s < n; s++ {
		r.AddState()
	}
	for s := 0; s < n; s++ {
		r.SetAccept(s, a.IsAccept(s))
		for _, t := range a.Transitions(s) {
			for _, seq := range utf8Sequences(t.Min, t.Max) {
				from := s
				for _, br := range seq[:len(seq)-1] {
					next := r.AddState()
					r.AddTransition(from, next, br.min, br.max)
					from = next
				}
				last := seq[len(seq)-1]
				r.AddTransition(from, t.To, last.min, last.max)
			}
		}
	}
	return r
}

// utf8Sequences splits the code point range [lo, hi] into ranges whose
// encodings share a length and differ only in a suffix of continuation
// bytes, so each one is a sequence of per-byte ranges. The result is in
// ascending order.
func utf8Sequences(lo, hi int32) [][]byteRange {
	var out [][]byteRange
	type span struct{ lo, hi int32 }
	stack := []span{{lo, hi}}
	for len(stack) > 0 {
		s, e := stack[len(stack)-1].lo, stack[len(stack)-1].hi
		stack = stack[:len(stack)-1]
	split:
		for {
			for _, limit := range [...]int32{0x7F, 0x7FF, 0xFFFF} {
				if s <= limit && limit < e {
					stack = append(stack, span{limit + 1, e})
					e = limit
					continue split
				}
			}
			if e <= 0x7F {
				out = append(out, []byteRange{{s, e}})
				break
			}
			for i := uint(1); i < 4; i++ {
				m := int32(1)<<(6*i) - 1
				if s&^m != e&^m {
					if s&m != 0 {
						stack = append(stack, span{(s | m) + 1, e})
						e = s | m
						continue split
					}
					if e&m != m {
						stack = append(stack, span{e &^ m, e})
						e = e&^m - 1
						continue split
					}
				}
			}
			var sb, eb [4]byte
			n := encodeUTF8(sb[:], s)
			encodeUTF8(eb[:], e)
			seq := make([]byteRange, n)
			for i := range seq {
				seq[i] = byteRange{int32(sb[i]), int32(eb[i])}
			}
			out = append(out, seq)
			break
		}
	}
	return out
}

// encodeUTF8 writes the encoding of c into dst and returns its length.
// Unlike utf8.EncodeRune it encodes surrogates instead of replacing them.
func encodeUTF8(dst []byte, c int32) int {
	switch {
	case c < 0x80:
		dst[0] = byte(c)
		return 1
	case c < 0x800:
		dst[0] = 0xC0 | byte(c>>6)
		dst[1] = 0x80 | byte(c)&0x3F
		return 2
	case c < 0x10000:
		dst[0] = 0xE0 | byte(c>>12)
		dst[1] = 0x80 | byte(c>>6)&0x3F
		dst[2] = 0x80 | byte(c)&0x3F
		return 3
	default:
		dst[0] = 0xF0 | byte(c>>18)
		dst[1] = 0x80 | byte(c>>12)&0x3F
		dst[2] = 0x80 | byte(c>>6)&0x3F
		dst[3] = 0x80 | byte(c)&0x3F
		return 4
	}
}

// labelsToUTF8 encodes a code point string.
func labelsToUTF8(labels []int32) []byte {
	out := make([]byte, 0, len(labels))
	var buf [4]byte
	for _, c := range labels {
		n := encodeUTF8(buf[:], c)
		out = append(out, buf[:n]...)
	}
	return out
}

// labelsToBytes narrows a byte label string.
func labelsToBytes(labels []int32) []byte {
	out := make([]byte, len(labels))
	for i, c := range labels {
		out[i] = byte(c)
	}
	return out
}
