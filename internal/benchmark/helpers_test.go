package benchmark

import (
	"math/rand"
	"testing"

	"GoFST/internal/fst"
	"GoFST/internal/testutil"
)

const alphabet = "abcdefghijklmnopqrstuvwxyz"

func benchTerms(n int) []string {
	return testutil.RandomTerms(rand.New(rand.NewSource(42)), n, alphabet, 3, 12)
}

func buildFST(b *testing.B, terms []string, opts fst.BuilderOptions) *fst.FST[int64] {
	b.Helper()
	bld, err := fst.NewBuilder[int64](fst.InputByte1, fst.PositiveIntOutputs{}, opts)
	if err != nil {
		b.Fatal(err)
	}
	for i, term := range terms {
		if err := bld.Add(testutil.Labels(term), int64(i)); err != nil {
			b.Fatal(err)
		}
	}
	f, err := bld.Finish()
	if err != nil {
		b.Fatal(err)
	}
	return f
}
