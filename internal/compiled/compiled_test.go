package compiled

import (
	"math/rand"
	"sort"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GoFST/internal/automaton"
	"GoFST/internal/testutil"
)

func TestUTF8SequencesCoverRange(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	ranges := [][2]int32{
		{0, 0x7F}, {0, automaton.MaxLabel}, {0x7F, 0x80}, {0x7FF, 0x800},
		{0xFFFF, 0x10000}, {0xD7FF, 0xE000}, {'a', 'z'}, {0x3B1, 0x3C9},
	}
	for i := 0; i < 30; i++ {
		lo := rng.Int31n(automaton.MaxLabel + 1)
		hi := lo + rng.Int31n(5000)
		ranges = append(ranges, [2]int32{lo, min(hi, automaton.MaxLabel)})
	}

	for _, rg := range ranges {
		seqs := utf8Sequences(rg[0], rg[1])
		require.NotEmpty(t, seqs)

		var total int64
		for _, seq := range seqs {
			n := int64(1)
			for _, br := range seq {
				require.LessOrEqual(t, br.min, br.max)
				n *= int64(br.max - br.min + 1)
			}
			total += n
		}
		assert.Equal(t, int64(rg[1]-rg[0]+1), total, "range %x-%x", rg[0], rg[1])

		for _, c := range []int32{rg[0], rg[1], rg[0] + (rg[1]-rg[0])/2} {
			var buf [4]byte
			n := encodeUTF8(buf[:], c)
			matches := 0
			for _, seq := range seqs {
				if len(seq) != n {
					continue
				}
				in := true
				for i, br := range seq {
					in = in && br.min <= int32(buf[i]) && int32(buf[i]) <= br.max
				}
				if in {
					matches++
				}
			}
			assert.Equal(t, 1, matches, "code point %x in range %x-%x", c, rg[0], rg[1])
		}
	}
}

func TestEncodeUTF8MatchesStdlib(t *testing.T) {
	for _, r := range []rune{0, 'a', 0x7F, 0x80, 0x7FF, 0x800, 0xFFFD, 0xFFFF, 0x10000, 0x10FFFF} {
		var buf [4]byte
		n := encodeUTF8(buf[:], r)
		assert.Equal(t, string(r), string(buf[:n]))
	}
	var buf [4]byte
	assert.Equal(t, 3, encodeUTF8(buf[:], 0xD800))
}

func TestCompileUnicodeRun(t *testing.T) {
	words := []string{"héllo", "日本", "a𝄞", "zebra"}
	strs := make([][]int32, len(words))
	for i, w := range words {
		strs[i] = automaton.ToLabels(w)
	}
	c, err := Compile(automaton.MakeStringUnion(strs), true)
	require.NoError(t, err)
	assert.Equal(t, TypeNormal, c.Type)

	for _, w := range words {
		assert.True(t, c.Run([]byte(w)), w)
	}
	for _, w := range []string{"", "hello", "日", "a", "zebras", "héll"} {
		assert.False(t, c.Run([]byte(w)), w)
	}
}

func TestCompileLevenshteinAgreesWithCodePoints(t *testing.T) {
	lev, err := automaton.Levenshtein("café", 1, true)
	require.NoError(t, err)
	c, err := Compile(lev, true)
	require.NoError(t, err)

	for _, p := range []string{"café", "cafe", "caf", "cafés", "cfaé", "xafé", "cafè", "ca", "écaf", "café!"} {
		require.True(t, utf8.ValidString(p))
		assert.Equal(t, automaton.RunString(lev, p), c.Run([]byte(p)), p)
	}
}

func TestClassification(t *testing.T) {
	tests := []struct {
		name string
		a    *automaton.Automaton
		typ  Type
		term string
	}{
		{"empty", automaton.MakeEmpty(), TypeNone, ""},
		{"all", automaton.MakeAnyString(), TypeAll, ""},
		{"singleton", automaton.MakeStringFromString("foo"), TypeSingle, "foo"},
		{"single via union", automaton.Union(automaton.MakeStringFromString("foo"), automaton.MakeStringFromString("foo")), TypeSingle, "foo"},
		{"prefix", automaton.MakePrefix(automaton.ToLabels("ab")), TypePrefix, "ab"},
		{"unicode prefix", automaton.MakePrefix(automaton.ToLabels("ü")), TypePrefix, "ü"},
		{"normal", mustWildcard(t, "a*b"), TypeNormal, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, err := Compile(tc.a, false)
			require.NoError(t, err)
			assert.Equal(t, tc.typ, c.Type)
			if tc.typ == TypeSingle || tc.typ == TypePrefix {
				assert.Equal(t, tc.term, string(c.Term))
			}
		})
	}
}

func TestCompileBytesClassification(t *testing.T) {
	anyBytes := automaton.Repeat(automaton.MakeCharRange(0, 0xFF))
	c, err := CompileBytes(anyBytes, false)
	require.NoError(t, err)
	assert.Equal(t, TypeAll, c.Type)

	c, err = CompileBytes(automaton.Concatenate(automaton.MakeStringFromString("ab"), anyBytes), false)
	require.NoError(t, err)
	assert.Equal(t, TypePrefix, c.Type)
	assert.Equal(t, []byte("ab"), c.Term)

	// Over bytes, the unicode prefix automaton is just a prefix as well.
	c, err = CompileBytes(automaton.MakePrefix(automaton.ToLabels("ab")), false)
	require.NoError(t, err)
	assert.Equal(t, TypePrefix, c.Type)
}

func TestCompileFiniteRejectsInfinite(t *testing.T) {
	_, err := Compile(automaton.MakePrefix(automaton.ToLabels("ab")), true)
	assert.ErrorIs(t, err, ErrNotFinite)

	_, err = CompileBytes(mustWildcard(t, "a*"), true)
	assert.ErrorIs(t, err, ErrNotFinite)
}

func TestCommonSuffix(t *testing.T) {
	a := automaton.Concatenate(automaton.MakeAnyString(), automaton.MakeStringFromString("ing"))
	c, err := Compile(a, false)
	require.NoError(t, err)
	assert.Equal(t, TypeNormal, c.Type)
	assert.Equal(t, []byte("ing"), c.CommonSuffix())

	c, err = Compile(mustWildcard(t, "a*b"), false)
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), c.CommonSuffix())

	c, err = Compile(automaton.MakeStringFromString("ing"), true)
	require.NoError(t, err)
	assert.Nil(t, c.CommonSuffix())
}

func TestByteRunAutomaton(t *testing.T) {
	r := NewByteRunAutomaton(automaton.MakeStringFromString("hi"))
	assert.Equal(t, 3, r.NumStates())

	s := r.Start()
	assert.True(t, r.CanMatch(s))
	assert.False(t, r.IsAccept(s))
	s = r.Step(s, 'h')
	s = r.Step(s, 'i')
	assert.True(t, r.IsAccept(s))
	assert.Equal(t, DeadState, r.Step(s, 'x'))
	assert.Equal(t, DeadState, r.Step(DeadState, 'h'))
	assert.False(t, r.CanMatch(DeadState))
	assert.False(t, r.IsAccept(State(1000)))

	empty := NewByteRunAutomaton(automaton.MakeEmpty())
	assert.False(t, empty.CanMatch(empty.Start()))
	assert.False(t, empty.Run(nil))

	// Labels above 0xFF are dropped.
	wide := NewByteRunAutomaton(automaton.MakeCharRange(0xF0, 0x1FF))
	assert.True(t, wide.Run([]byte{0xFF}))
	assert.False(t, wide.Run([]byte{0xEF}))
}

func floorRef(terms []string, probe string) (string, bool) {
	i := sort.SearchStrings(terms, probe)
	if i < len(terms) && terms[i] == probe {
		return probe, true
	}
	if i == 0 {
		return "", false
	}
	return terms[i-1], true
}

func checkFloor(t *testing.T, c *Automaton, terms []string, probe string) {
	t.Helper()
	want, wantOK := floorRef(terms, probe)
	got, ok := c.Floor([]byte(probe))
	require.Equal(t, wantOK, ok, "Floor(%q)", probe)
	if ok {
		require.Equal(t, want, string(got), "Floor(%q)", probe)
	}
}

func TestFloorAgainstSortedList(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	for iter := 0; iter < 30; iter++ {
		terms := testutil.RandomTerms(rng, 1+rng.Intn(60), "abc", 0, 5)
		strs := make([][]int32, len(terms))
		for i, s := range terms {
			strs[i] = testutil.Labels(s)
		}
		c, err := CompileBytes(automaton.MakeStringUnion(strs), true)
		require.NoError(t, err)

		probes := append([]string{""}, terms...)
		probes = append(probes, testutil.RandomTerms(rng, 100, "abcd", 0, 6)...)
		for _, p := range probes {
			checkFloor(t, c, terms, p)
		}
	}
}

func TestFloorLevenshtein(t *testing.T) {
	lev, err := automaton.LevenshteinBytes([]byte("abc"), 1, false)
	require.NoError(t, err)
	strs, err := automaton.GetFiniteStrings(lev, -1)
	require.NoError(t, err)
	terms := make([]string, len(strs))
	for i, s := range strs {
		terms[i] = testutil.String(s)
	}
	require.True(t, sort.StringsAreSorted(terms))

	c, err := CompileBytes(lev, true)
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(8))
	for _, p := range testutil.RandomTerms(rng, 200, "abcd\x00\xff", 0, 5) {
		checkFloor(t, c, terms, p)
	}
}

func TestFloorRequiresFinite(t *testing.T) {
	c, err := Compile(automaton.MakeAnyString(), false)
	require.NoError(t, err)
	_, ok := c.Floor([]byte("x"))
	assert.False(t, ok)

	c, err = CompileBytes(automaton.MakeEmpty(), true)
	require.NoError(t, err)
	_, ok = c.Floor([]byte("x"))
	assert.False(t, ok)
}

func mustWildcard(t *testing.T, pattern string) *automaton.Automaton {
	t.Helper()
	a, err := automaton.MakeWildcardFromString(pattern)
	require.NoError(t, err)
	return a
}
