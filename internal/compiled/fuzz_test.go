package compiled

import (
	"testing"
	"unicode/utf8"

	"GoFST/internal/automaton"
)

func FuzzCompiledWildcard(f *testing.F) {
	f.Add("hel*", "hello")
	f.Add("*orld", "world")
	f.Add("h?llo", "hällo")
	f.Add("*", "anything")
	f.Add("", "")
	f.Add("a*b*c", "abc")

	f.Fuzz(func(t *testing.T, pattern, input string) {
		if len(pattern) > 32 || !utf8.ValidString(pattern) || !utf8.ValidString(input) {
			return
		}
		a, err := automaton.MakeWildcardFromString(pattern)
		if err != nil {
			return
		}
		c, err := Compile(a, false)
		if err != nil {
			t.Fatal(err)
		}
		if got, want := c.Run([]byte(input)), automaton.RunString(a, input); got != want {
			t.Fatalf("Run(%q) on %q = %v, want %v", input, pattern, got, want)
		}

		m := c.RunAutomaton()
		state := m.Start()
		for i := 0; i < len(input); i++ {
			state = m.Step(state, input[i])
			if state == DeadState {
				break
			}
		}
		_ = m.IsAccept(state)
		_ = m.CanMatch(state)
	})
}
