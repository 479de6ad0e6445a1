package automaton

import "errors"

// Wildcard pattern limits.
const (
	MaxWildcardPatternLength = 256
	MaxDFAStates             = 10000
)

const (
	WildcardString = '*'
	WildcardChar   = '?'
	WildcardEscape = '\\'
)

var ErrWildcardPatternTooLong = errors.New("wildcard pattern exceeds maximum length")

// MakeWildcard compiles a wildcard pattern into a minimal DFA.
// Supports '*' (zero or more labels), '?' (exactly one label) and '\' to
// escape the next label.
//
// Construction concatenates one automaton per pattern element, then
// determinizes under MaxDFAStates and minimizes.
func MakeWildcard(pattern []int32) (*Automaton, error) {
	if len(pattern) > MaxWildcardPatternLength {
		return nil, ErrWildcardPatternTooLong
	}
	if !validLabels(pattern) {
		return nil, ErrInvalidLabel
	}

	parts := make([]*Automaton, 0, len(pattern))
	for i := 0; i < len(pattern); i++ {
		switch c := pattern[i]; c {
		case WildcardString:
			parts = append(parts, MakeAnyString())
		case WildcardChar:
			parts = append(parts, MakeAnyChar())
		case WildcardEscape:
			// A trailing escape matches itself.
			if i+1 < len(pattern) {
				i++
				parts = append(parts, MakeChar(pattern[i]))
			} else {
				parts = append(parts, MakeChar(c))
			}
		default:
			parts = append(parts, MakeChar(c))
		}
	}

	a := Concatenate(parts...)
	d, err := DeterminizeLimit(a, MaxDFAStates)
	if err != nil {
		return nil, err
	}
	return Minimize(d), nil
}

// MakeWildcardFromString is MakeWildcard over the code points of pattern.
func MakeWildcardFromString(pattern string) (*Automaton, error) {
	return MakeWildcard(ToLabels(pattern))
}
