package fst

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"GoFST/internal/testutil"
)

// prefixTally is the brute-force summary of every key sharing a prefix.
type prefixTally[T any] struct {
	count       int
	output      T
	isFinal     bool
	finalOutput T
	isLeaf      bool
}

// tallyPrefixes counts, for every prefix of every key, how many keys pass
// through it and the common output of those keys.
func tallyPrefixes[T any](outputs Outputs[T], terms []string, vals []T) map[string]*prefixTally[T] {
	prefixes := make(map[string]*prefixTally[T])
	for i, term := range terms {
		for l := 0; l <= len(term); l++ {
			p := term[:l]
			c, ok := prefixes[p]
			if !ok {
				c = &prefixTally[T]{count: 1, output: vals[i], isLeaf: true}
				prefixes[p] = c
			} else {
				c.count++
				c.output = outputs.Common(c.output, vals[i])
			}
			if l == len(term) {
				c.isFinal = true
				c.finalOutput = c.output
			}
		}
	}
	return prefixes
}

// keepPrefix decides whether a pruned build retains prefix.
func keepPrefix[T any](prefixes map[string]*prefixTally[T], prefix string, prune1, prune2 int) bool {
	c := prefixes[prefix]
	if prune1 > 0 {
		return c.count >= prune1
	}
	if prune2 > 1 && c.count >= prune2 {
		return true
	}
	if len(prefix) > 0 {
		parent, ok := prefixes[prefix[:len(prefix)-1]]
		return ok && ((prune2 > 1 && parent.count >= prune2) ||
			(prune2 == 1 && (parent.count >= 2 || len(prefix) <= 1)))
	}
	return c.count >= prune2
}

// walk follows prefix from the root, taking the end-of-key arc when there
// is one, and returns the accumulated output and how many labels matched.
func walk[T any](f *FST[T], prefix []int32) (T, int) {
	r := f.BytesReader()
	arc := f.GetFirstArc(new(Arc[T]))
	output := f.outputs.NoOutput()
	for i := 0; i <= len(prefix); i++ {
		label := EndLabel
		if i < len(prefix) {
			label = prefix[i]
		}
		if f.FindTargetArc(label, arc, arc, r) == nil {
			return output, i
		}
		output = f.outputs.Add(output, arc.Output)
	}
	return output, len(prefix)
}

func verifyPruned[T any](t *testing.T, outputs Outputs[T], terms []string, vals []T, prune1, prune2 int) {
	t.Helper()
	keys := make([][]int32, len(terms))
	for i, s := range terms {
		keys[i] = testutil.Labels(s)
	}
	opts := BuilderOptions{
		MinSuffixCount1:    prune1,
		MinSuffixCount2:    prune2,
		ShareMaxTailLength: 1 << 30,
		AllowArrayArcs:     true,
	}
	f := build(t, InputByte1, outputs, opts, keys, vals)

	all := tallyPrefixes(outputs, terms, vals)
	kept := make(map[string]*prefixTally[T])
	for p := range all {
		if keepPrefix(all, p, prune1, prune2) {
			kept[p] = all[p]
		}
	}
	for p := range kept {
		for l := len(p) - 1; l >= 0; l-- {
			if anc, ok := all[p[:l]]; ok {
				anc.isLeaf = false
			}
		}
	}

	if len(kept) <= 1 {
		require.True(t, f.Empty(), "everything pruned, yet the FST has keys")
		return
	}
	require.False(t, f.Empty())

	for _, io := range enumAll(f) {
		key := testutil.String(io.Input)
		c, ok := kept[key]
		require.True(t, ok, "enumerated pruned prefix %q", key)
		require.True(t, c.isLeaf || c.isFinal, "enumerated internal prefix %q", key)
		want := c.output
		if c.isFinal {
			want = c.finalOutput
		}
		require.True(t, outputs.Equal(want, io.Output), "prefix %q: got %s want %s",
			key, outputs.String(io.Output), outputs.String(want))
	}

	for p, c := range kept {
		if p == "" {
			continue
		}
		got, n := walk(f, testutil.Labels(p))
		require.Equal(t, len(p), n, "prefix %q stops early", p)
		want := c.output
		if c.isFinal {
			want = c.finalOutput
		}
		require.True(t, outputs.Equal(want, got), "prefix %q: got %s want %s",
			p, outputs.String(got), outputs.String(want))
	}
}

func TestPrunedAgainstPrefixTally(t *testing.T) {
	rng := rand.New(rand.NewSource(1234))
	for iter := 0; iter < 20; iter++ {
		alphabet := "abcd"[:2+rng.Intn(3)]
		terms := testutil.RandomTerms(rng, 10+rng.Intn(150), alphabet, 1, 7)

		ints := make([]int64, len(terms))
		none := make([]struct{}, len(terms))
		for i := range ints {
			ints[i] = rng.Int63n(20)
		}

		for _, prune := range [][2]int{
			{1, 0}, {2, 0}, {3, 0}, {1 + rng.Intn(len(terms)+1), 0},
			{0, 1}, {0, 2}, {0, 3}, {0, 1 + rng.Intn(len(terms)+1)},
		} {
			name := fmt.Sprintf("%d/%d-%d", iter, prune[0], prune[1])
			t.Run(name+"/ints", func(t *testing.T) {
				verifyPruned[int64](t, PositiveIntOutputs{}, terms, ints, prune[0], prune[1])
			})
			t.Run(name+"/none", func(t *testing.T) {
				verifyPruned[struct{}](t, NoOutputs{}, terms, none, prune[0], prune[1])
			})
		}
	}
}

func TestPruneDropsRareSuffixes(t *testing.T) {
	terms := []string{"aab", "aac", "aad", "bxyz"}
	vals := []int64{1, 2, 3, 4}
	keys := make([][]int32, len(terms))
	for i, s := range terms {
		keys[i] = L(s)
	}
	opts := DefaultBuilderOptions()
	opts.ShareSuffix = false
	opts.MinSuffixCount1 = 2
	f := build[int64](t, InputByte1, PositiveIntOutputs{}, opts, keys, vals)

	got := enumAll(f)
	require.Len(t, got, 1)
	require.Equal(t, "aa", testutil.String(got[0].Input))
	require.Equal(t, int64(1), got[0].Output)

	opts.MinSuffixCount1 = 5
	f = build[int64](t, InputByte1, PositiveIntOutputs{}, opts, keys, vals)
	require.True(t, f.Empty())
}
