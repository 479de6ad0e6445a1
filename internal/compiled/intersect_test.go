package compiled

import (
	"math/rand"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GoFST/internal/automaton"
	"GoFST/internal/fst"
	"GoFST/internal/testutil"
)

type hit struct {
	key string
	out int64
}

func buildFST(t *testing.T, terms []string) *fst.FST[int64] {
	t.Helper()
	b, err := fst.NewBuilder[int64](fst.InputByte1, fst.PositiveIntOutputs{}, fst.DefaultBuilderOptions())
	require.NoError(t, err)
	for i, term := range terms {
		require.NoError(t, b.Add(testutil.Labels(term), int64(i)))
	}
	f, err := b.Finish()
	require.NoError(t, err)
	return f
}

func bruteForce(a *automaton.Automaton, terms []string) []hit {
	var out []hit
	for i, term := range terms {
		if automaton.Run(a, testutil.Labels(term)) {
			out = append(out, hit{term, int64(i)})
		}
	}
	return out
}

func collect(run func(visit func([]byte, int64) bool)) []hit {
	var out []hit
	run(func(key []byte, output int64) bool {
		out = append(out, hit{string(key), output})
		return true
	})
	return out
}

func TestIntersectAgainstBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(77))
	terms := testutil.RandomTerms(rng, 400, "abcd", 0, 6)
	f := buildFST(t, terms)

	lev, err := automaton.LevenshteinBytes([]byte("abca"), 1, true)
	require.NoError(t, err)
	automata := map[string]*automaton.Automaton{
		"empty":       automaton.MakeEmpty(),
		"all":         automaton.Repeat(automaton.MakeCharRange(0, 0xFF)),
		"single":      automaton.MakeStringFromString(terms[len(terms)/2]),
		"missing":     automaton.MakeStringFromString("zzz"),
		"prefix":      automaton.MakePrefix(testutil.Labels("ab")),
		"wildcard":    mustWildcard(t, "a*c"),
		"levenshtein": lev,
		"union": automaton.Union(
			automaton.MakeStringFromString("abc"),
			automaton.MakePrefix(testutil.Labels("dd")),
			automaton.MakeEmptyString(),
		),
	}

	for name, a := range automata {
		t.Run(name, func(t *testing.T) {
			want := bruteForce(a, terms)

			c, err := CompileBytes(a, false)
			require.NoError(t, err)
			got := collect(func(visit func([]byte, int64) bool) { Intersect(c, f, visit) })
			assert.Equal(t, want, got, "type %s", c.Type)

			got = collect(func(visit func([]byte, int64) bool) { IntersectFST(f, c.RunAutomaton(), visit) })
			assert.Equal(t, want, got)
		})
	}
}

func TestIntersectStopsEarly(t *testing.T) {
	terms := testutil.SampleTerms()
	f := buildFST(t, terms)

	for _, a := range []*automaton.Automaton{
		automaton.MakePrefix(testutil.Labels("s")),
		mustWildcard(t, "*e*"),
		automaton.Repeat(automaton.MakeCharRange(0, 0xFF)),
	} {
		c, err := CompileBytes(a, false)
		require.NoError(t, err)
		n := 0
		Intersect(c, f, func([]byte, int64) bool {
			n++
			return n < 2
		})
		assert.Equal(t, 2, n, "type %s", c.Type)
	}
}

func TestIntersectEmptyFST(t *testing.T) {
	f := buildFST(t, nil)
	c, err := CompileBytes(automaton.MakeAnyString(), false)
	require.NoError(t, err)
	assert.Empty(t, collect(func(visit func([]byte, int64) bool) { Intersect(c, f, visit) }))
	assert.Empty(t, collect(func(visit func([]byte, int64) bool) { IntersectFST(f, c.RunAutomaton(), visit) }))
}

func TestIntersectLongKeys(t *testing.T) {
	long := strings.Repeat("a", 50000)
	terms := []string{"a", long, long + "b", long + "c"}
	f := buildFST(t, terms)

	a, err := automaton.MakeWildcardFromString("a*b")
	require.NoError(t, err)
	c, err := Compile(a, false)
	require.NoError(t, err)
	require.Equal(t, TypeNormal, c.Type)

	got := collect(func(visit func([]byte, int64) bool) { Intersect(c, f, visit) })
	assert.Equal(t, []hit{{long + "b", 2}}, got)
}

func TestIntersectUnicode(t *testing.T) {
	terms := []string{"naïve", "naive", "nave", "über", "uber"}
	slices.Sort(terms)
	f := buildFST(t, terms)

	lev, err := automaton.Levenshtein("naïve", 1, false)
	require.NoError(t, err)
	c, err := Compile(lev, true)
	require.NoError(t, err)

	var keys []string
	Intersect(c, f, func(key []byte, _ int64) bool {
		keys = append(keys, string(key))
		return true
	})
	assert.Equal(t, []string{"naive", "nave", "naïve"}, keys)
}
