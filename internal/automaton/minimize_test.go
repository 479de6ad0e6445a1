package automaton

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// randomAutomaton builds a random NFA over labels 'a'..'e'.
func randomAutomaton(r *rand.Rand) *Automaton {
	a := New()
	n := 1 + r.Intn(8)
	for i := 1; i < n; i++ {
		a.AddState()
	}
	for s := 0; s < n; s++ {
		a.SetAccept(s, r.Intn(3) == 0)
		for k := r.Intn(4); k > 0; k-- {
			lo := 'a' + int32(r.Intn(5))
			hi := lo + int32(r.Intn(int('e'-lo)+1))
			a.AddTransition(s, r.Intn(n), lo, hi)
		}
	}
	return a
}

func TestMinimize_MatchesBrzozowski(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 300; i++ {
		a := randomAutomaton(r)

		hop := Minimize(a)
		brz := MinimizeBrzozowski(a)

		require.True(t, SameLanguage(a, hop), "iteration %d: Hopcroft changed the language\n%s", i, a)
		require.True(t, SameLanguage(hop, brz), "iteration %d", i)
		require.Equal(t, brz.NumStates(), hop.NumStates(), "iteration %d: state count\n%s", i, a)
		require.Equal(t, brz.NumTransitions(), hop.NumTransitions(), "iteration %d: transition count\n%s", i, a)
		require.True(t, hop.IsDeterministic())
	}
}

func TestMinimizeBrzozowski_KeepsMinimalSize(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 300; i++ {
		m := Minimize(randomAutomaton(r))
		again := MinimizeBrzozowski(m)
		require.Equal(t, m.NumStates(), again.NumStates(), "iteration %d\n%s", i, m)
		require.Equal(t, m.NumTransitions(), again.NumTransitions(), "iteration %d\n%s", i, m)
	}
}

func TestMinimizeBrzozowski_StartMergesWithAcceptSet(t *testing.T) {
	// The reversal of a* starts from the set of accepting states, which is
	// also where every a-transition leads.
	m := MinimizeBrzozowski(Repeat(MakeChar('a')))
	assert.Equal(t, 1, m.NumStates())
	assert.Equal(t, 1, m.NumTransitions())
	assert.True(t, RunString(m, ""))
	assert.True(t, RunString(m, "aaa"))
	assert.False(t, RunString(m, "ab"))
}

func TestMinimize_Idempotent(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 100; i++ {
		m := Minimize(randomAutomaton(r))
		again := Minimize(m)
		assert.Equal(t, m.NumStates(), again.NumStates())
		assert.Equal(t, m.NumTransitions(), again.NumTransitions())
	}
}

func TestMinimize_CollapsesEquivalentStates(t *testing.T) {
	// "ab" | "bb" shares the b-suffix and merges [a-b] in the minimal DFA.
	a := Union(MakeStringFromString("ab").Clone(), MakeStringFromString("bb").Clone())
	m := Minimize(a)
	assert.Equal(t, 3, m.NumStates())
	assert.Equal(t, 2, m.NumTransitions())
}

func TestMinimize_EmptyLanguage(t *testing.T) {
	a := New()
	a.AddTransition(0, 0, 'a', 'z')
	m := Minimize(a)
	assert.Equal(t, 1, m.NumStates())
	assert.Equal(t, 0, m.NumTransitions())
	assert.True(t, IsEmpty(m))
}

func TestSameLanguage_RandomAgreesWithRun(t *testing.T) {
	r := rand.New(rand.NewSource(99))
	probes := allStrings("abcde", 3)
	for i := 0; i < 50; i++ {
		a, b := randomAutomaton(r), randomAutomaton(r)
		same := true
		for _, p := range probes {
			if RunString(a, p) != RunString(b, p) {
				same = false
				break
			}
		}
		// Probing only short strings: a difference proves inequality.
		if !same {
			assert.False(t, SameLanguage(a, b), "iteration %d", i)
		}
		assert.True(t, SameLanguage(a, Determinize(a)))
	}
}

// allStrings returns every string over alphabet up to length maxLen.
func allStrings(alphabet string, maxLen int) []string {
	out := []string{""}
	level := []string{""}
	for l := 0; l < maxLen; l++ {
		var next []string
		for _, p := range level {
			for _, c := range alphabet {
				next = append(next, p+string(c))
			}
		}
		out = append(out, next...)
		level = next
	}
	return out
}
