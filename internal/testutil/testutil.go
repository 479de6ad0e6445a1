// Package testutil provides shared fixtures for tests and benchmarks.
package testutil

import (
	"math/rand"
	"os"
	"slices"
	"testing"
)

// WithTempDir creates a temporary directory, calls fn with its path,
// and cleans up afterwards.
func WithTempDir(t testing.TB, fn func(dir string)) {
	t.Helper()
	dir := t.TempDir()
	fn(dir)
}

// Labels returns the bytes of s as labels.
func Labels(s string) []int32 {
	out := make([]int32, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = int32(s[i])
	}
	return out
}

// String is the inverse of Labels for labels in [0, 255].
func String(labels []int32) string {
	b := make([]byte, len(labels))
	for i, l := range labels {
		b[i] = byte(l)
	}
	return string(b)
}

// RandomTerms returns up to n distinct sorted terms over alphabet with
// lengths in [minLen, maxLen].
func RandomTerms(rng *rand.Rand, n int, alphabet string, minLen, maxLen int) []string {
	seen := make(map[string]bool, n)
	terms := make([]string, 0, n)
	for attempts := 0; len(terms) < n && attempts < n*20; attempts++ {
		l := minLen + rng.Intn(maxLen-minLen+1)
		b := make([]byte, l)
		for i := range b {
			b[i] = alphabet[rng.Intn(len(alphabet))]
		}
		if s := string(b); !seen[s] {
			seen[s] = true
			terms = append(terms, s)
		}
	}
	slices.Sort(terms)
	return terms
}

// SampleTerms is a small sorted vocabulary.
func SampleTerms() []string {
	return []string{
		"automata", "automaton", "search", "searcher", "searching",
		"segment", "stop", "stopped", "term", "terms", "token", "tokens",
	}
}

// AssertFileExists checks that a file exists at the given path.
func AssertFileExists(t testing.TB, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("expected file to exist: %s", path)
	}
}
