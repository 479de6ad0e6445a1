// Package compiled turns automata into byte-level matchers for driving
// ordered term enumeration: a transition table for stepping, a
// classification that lets callers skip the table for trivial languages,
// and Floor seeking over finite languages.
package compiled

import (
	"errors"
	"fmt"
	"slices"

	"GoFST/internal/automaton"
)

// Type classifies the language of a compiled automaton.
type Type uint8

const (
	TypeNone   Type = iota // accepts nothing
	TypeAll                // accepts every string
	TypeSingle             // accepts exactly Term
	TypePrefix             // accepts every string starting with Term
	TypeNormal             // anything else; use the run automaton
)

func (t Type) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeAll:
		return "all"
	case TypeSingle:
		return "single"
	case TypePrefix:
		return "prefix"
	case TypeNormal:
		return "normal"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

var ErrNotFinite = errors.New("automaton accepts an infinite language")

// Automaton is an automaton compiled for byte-level matching.
type Automaton struct {
	// Type is the language class. Term is set for TypeSingle and
	// TypePrefix.
	Type Type
	Term []byte

	run          *ByteRunAutomaton
	finite       bool
	commonSuffix []byte
}

// Compile compiles a, an automaton over code points, to match the UTF-8
// encoding of its strings. With finite set, the language must be finite
// and Floor is available.
func Compile(a *automaton.Automaton, finite bool) (*Automaton, error) {
	anyString := automaton.MakeAnyString()
	return compile(a, ConvertUTF8(a), anyString, labelsToUTF8, finite)
}

// CompileBytes compiles a, an automaton whose labels are bytes. Labels above
// 0xFF are dropped before classification.
func CompileBytes(a *automaton.Automaton, finite bool) (*Automaton, error) {
	anyBytes := automaton.Repeat(automaton.MakeCharRange(0, automaton.MaxByteLabel))
	b := clipBytes(a)
	return compile(b, b, anyBytes, labelsToBytes, finite)
}

// compile classifies src against its own alphabet and builds the run
// automaton from enc, the byte form of src.
func compile(src, enc, anyString *automaton.Automaton, encode func([]int32) []byte, finite bool) (*Automaton, error) {
	c := &Automaton{
		run:    NewByteRunAutomaton(enc),
		finite: finite,
	}
	dfa := c.run.dfa
	if finite && !automaton.IsFinite(dfa) {
		return nil, fmt.Errorf("compile: %w", ErrNotFinite)
	}

	switch {
	case automaton.IsEmpty(dfa):
		c.Type = TypeNone
		return c, nil
	case automaton.SameLanguage(src, anyString):
		c.Type = TypeAll
		return c, nil
	}

	prefix := automaton.CommonPrefix(src)
	switch {
	case isSingleton(src) || automaton.SameLanguage(src, automaton.MakeString(prefix)):
		c.Type = TypeSingle
		c.Term = encode(prefix)
	case automaton.SameLanguage(src, automaton.Concatenate(automaton.MakeString(prefix), anyString)):
		c.Type = TypePrefix
		c.Term = encode(prefix)
	default:
		c.Type = TypeNormal
	}
	if !finite {
		c.commonSuffix = commonSuffix(dfa)
	}
	return c, nil
}

func isSingleton(a *automaton.Automaton) bool {
	_, ok := a.Singleton()
	return ok
}

// commonSuffix returns the longest byte string every accepted string ends
// with.
func commonSuffix(dfa *automaton.Automaton) []byte {
	rev := automaton.CommonPrefix(automaton.Reverse(dfa))
	out := labelsToBytes(rev)
	slices.Reverse(out)
	return out
}

// RunAutomaton returns the table-driven matcher.
func (c *Automaton) RunAutomaton() *ByteRunAutomaton { return c.run }

// Finite reports whether the automaton was compiled as finite.
func (c *Automaton) Finite() bool { return c.finite }

// CommonSuffix returns the byte suffix shared by every accepted string. It
// is only computed for automata compiled without finite.
func (c *Automaton) CommonSuffix() []byte { return c.commonSuffix }

// Run reports whether the automaton accepts input.
func (c *Automaton) Run(input []byte) bool {
	return c.run.Run(input)
}

// Floor returns the greatest accepted byte string that is less than or
// equal to input. It requires an automaton compiled as finite and returns
// false otherwise.
func (c *Automaton) Floor(input []byte) ([]byte, bool) {
	if !c.finite || c.Type == TypeNone {
		return nil, false
	}
	dfa := c.run.dfa
	state := 0
	if len(input) == 0 {
		if dfa.IsAccept(state) {
			return []byte{}, true
		}
		return nil, false
	}

	out := make([]byte, 0, len(input))
	var stack []int
	idx := 0
	for {
		label := int32(input[idx])
		next := dfa.Step(state, label)
		if idx == len(input)-1 {
			if next != -1 && dfa.IsAccept(next) {
				return append(out, input[idx]), true
			}
			// Strings extending input are greater than it.
			next = -1
		}
		if next != -1 {
			out = append(out, input[idx])
			stack = append(stack, state)
			state = next
			idx++
			continue
		}

		// Pop back to a state with a transition below the input label, or
		// an accepting state on the path.
		for {
			ts := dfa.Transitions(state)
			if len(ts) == 0 {
				return out[:idx], true
			}
			if label-1 >= ts[0].Min {
				break
			}
			if dfa.IsAccept(state) {
				return out[:idx], true
			}
			if len(stack) == 0 {
				return nil, false
			}
			state = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			idx--
			label = int32(input[idx])
		}
		return c.addTail(state, out[:idx], label), true
	}
}

// addTail appends the greatest accepted suffix from state that starts with
// a label below lead.
func (c *Automaton) addTail(state int, out []byte, lead int32) []byte {
	dfa := c.run.dfa
	var best automaton.Transition
	for _, t := range dfa.Transitions(state) {
		if t.Min < lead {
			best = t
		}
	}
	out = append(out, byte(min(best.Max, lead-1)))
	state = best.To

	// Follow the last transition down to a terminal state.
	for {
		ts := dfa.Transitions(state)
		if len(ts) == 0 {
			return out
		}
		last := ts[len(ts)-1]
		out = append(out, byte(last.Max))
		state = last.To
	}
}
