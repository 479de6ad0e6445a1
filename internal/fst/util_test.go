package fst

import (
	"bytes"
	"cmp"
	"math/rand"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GoFST/internal/testutil"
)

func TestGetByOutputOrdinals(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	for _, alphabet := range []string{"ab", "abcdefghijklmnopqrstuvwxyz"} {
		terms := testutil.RandomTerms(rng, 500, alphabet, 0, 8)
		ords := make([]int64, len(terms))
		for i := range ords {
			ords[i] = int64(i)
		}
		f := buildStrings(t, terms, ords)

		for i, term := range terms {
			got, ok := GetByOutput(f, int64(i))
			require.True(t, ok, "ord %d", i)
			require.Equal(t, term, testutil.String(got), "ord %d", i)
		}
		_, ok := GetByOutput(f, int64(len(terms)))
		assert.False(t, ok)
		_, ok = GetByOutput(f, -1)
		assert.False(t, ok)
	}
}

func TestGetByOutputGaps(t *testing.T) {
	terms := []string{"alpha", "beta", "delta", "gamma"}
	f := buildStrings(t, terms, []int64{10, 20, 30, 40})

	for i, term := range terms {
		got, ok := GetByOutput(f, int64(10*(i+1)))
		require.True(t, ok)
		assert.Equal(t, term, testutil.String(got))
	}
	for _, missing := range []int64{0, 5, 15, 35, 41} {
		_, ok := GetByOutput(f, missing)
		assert.False(t, ok, "output %d", missing)
	}
}

func TestTopN(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	terms := testutil.RandomTerms(rng, 300, "abcdef", 1, 6)
	vals := make([]int64, len(terms))
	for i := range vals {
		vals[i] = rng.Int63n(50)
	}
	f := buildStrings(t, terms, vals)

	type kv struct {
		key string
		out int64
	}
	want := make([]kv, len(terms))
	for i := range terms {
		want[i] = kv{terms[i], vals[i]}
	}
	slices.SortFunc(want, func(a, b kv) int {
		if c := cmp.Compare(a.out, b.out); c != 0 {
			return c
		}
		return strings.Compare(a.key, b.key)
	})

	for _, n := range []int{1, 5, 37, len(terms), len(terms) + 10} {
		got := TopN(f, n, cmp.Compare[int64])
		require.Len(t, got, min(n, len(terms)))
		for i, p := range got {
			assert.Equal(t, want[i].key, testutil.String(p.Input), "n=%d rank %d", n, i)
			assert.Equal(t, want[i].out, p.Output, "n=%d rank %d", n, i)
		}
	}
	assert.Empty(t, TopN(f, 0, cmp.Compare[int64]))
}

func TestTopNIncludesEmptyKey(t *testing.T) {
	f := buildStrings(t, []string{"", "a", "b"}, []int64{3, 1, 2})
	got := TopN(f, 3, cmp.Compare[int64])
	require.Len(t, got, 3)
	assert.Equal(t, "a", testutil.String(got[0].Input))
	assert.Equal(t, "b", testutil.String(got[1].Input))
	assert.Equal(t, []int32{}, got[2].Input)
	assert.Equal(t, int64(3), got[2].Output)
}

func TestToDot(t *testing.T) {
	f := buildStrings(t, []string{"car", "care", "cat"}, []int64{2, 3, 1})
	var buf bytes.Buffer
	require.NoError(t, ToDot(f, &buf))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "digraph FST {"))
	assert.True(t, strings.HasSuffix(out, "}\n"))
	assert.Contains(t, out, "doublecircle")
	assert.Contains(t, out, `label="c`)
	// One edge per arc plus the edge into the root.
	assert.Equal(t, int(f.ArcCount())+1, strings.Count(out, "->"))

	buf.Reset()
	empty := buildStrings(t, nil, nil)
	require.NoError(t, ToDot(empty, &buf))
	assert.Equal(t, 0, strings.Count(buf.String(), "->"))
}
