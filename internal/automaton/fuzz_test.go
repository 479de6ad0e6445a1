package automaton

import (
	"slices"
	"testing"
)

func FuzzWildcardAutomaton(f *testing.F) {
	f.Add("hel*", "hello")
	f.Add("*orld", "world")
	f.Add("h?llo", "hello")
	f.Add("*", "anything")
	f.Add("", "")
	f.Add("a*b*c", "abc")
	f.Add("???", "abc")

	f.Fuzz(func(t *testing.T, pattern, input string) {
		if len(pattern) > 32 {
			return
		}

		auto, err := MakeWildcardFromString(pattern)
		if err != nil {
			return // Invalid pattern is acceptable.
		}

		// Run should not panic, and the minimal DFA agrees with the NFA
		// built from the same pieces.
		got := RunString(auto, input)
		if got != RunString(MinimizeBrzozowski(auto), input) {
			t.Fatalf("pattern %q input %q: Minimize and Brzozowski disagree", pattern, input)
		}
	})
}

func FuzzLevenshteinAutomaton(f *testing.F) {
	f.Add("hello", 1, "hallo")
	f.Add("cat", 0, "cat")
	f.Add("test", 2, "tset")
	f.Add("", 1, "a")

	f.Fuzz(func(t *testing.T, target string, maxDist int, input string) {
		if maxDist < 0 || maxDist > MaxEditDistance {
			return
		}
		if len(target) > 16 || len(input) > 24 {
			return
		}

		for _, tr := range []bool{false, true} {
			auto, err := Levenshtein(target, maxDist, tr)
			if err != nil {
				t.Fatalf("Levenshtein(%q, %d): %v", target, maxDist, err)
			}
			want := editDistance(target, input, tr) <= maxDist
			if got := RunString(auto, input); got != want {
				t.Fatalf("Levenshtein(%q, %d, %v) on %q = %v, want %v", target, maxDist, tr, input, got, want)
			}
		}
	})
}

func FuzzStringUnion(f *testing.F) {
	f.Add("car,care,cat", "car")
	f.Add("", "")
	f.Add("a,b,a", "c")

	f.Fuzz(func(t *testing.T, list, probe string) {
		if len(list) > 64 {
			return
		}
		var strs [][]int32
		want := false
		start := 0
		for i := 0; i <= len(list); i++ {
			if i == len(list) || list[i] == ',' {
				w := list[start:i]
				strs = append(strs, ToLabels(w))
				want = want || slices.Equal(ToLabels(w), ToLabels(probe))
				start = i + 1
			}
		}
		if got := RunString(MakeStringUnion(strs), probe); got != want {
			t.Fatalf("union of %q on %q = %v, want %v", list, probe, got, want)
		}
	})
}
