package fst

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
)

var ErrInvalidOptions = errors.New("invalid builder options")

// BuilderOptions configures an FST Builder.
type BuilderOptions struct {
	// MinSuffixCount1 prunes a node, and everything below it, when fewer
	// than this many keys pass through it. 0 disables.
	MinSuffixCount1 int `yaml:"min_suffix_count1"`

	// MinSuffixCount2 prunes a node when fewer than this many keys pass
	// through its parent. 1 keeps only the part of each key up to where it
	// stops sharing a prefix with its neighbors. 0 disables.
	MinSuffixCount2 int `yaml:"min_suffix_count2"`

	// ShareSuffix enables the node hash that merges identical suffixes.
	// Without it the result is a prefix trie.
	ShareSuffix bool `yaml:"share_suffix"`

	// ShareNonSingletonNodes allows nodes with more than one arc to be
	// shared.
	ShareNonSingletonNodes bool `yaml:"share_non_singleton_nodes"`

	// ShareMaxTailLength bounds the length of suffixes considered for
	// sharing.
	ShareMaxTailLength int `yaml:"share_max_tail_length"`

	// AllowArrayArcs lets wide nodes use fixed-width arcs.
	AllowArrayArcs bool `yaml:"allow_array_arcs"`

	// Logger for build statistics. If nil, slog.Default() is used.
	Logger *slog.Logger `yaml:"-"`
}

// DefaultBuilderOptions returns options that build a minimal, unpruned FST.
func DefaultBuilderOptions() BuilderOptions {
	return BuilderOptions{
		ShareSuffix:            true,
		ShareNonSingletonNodes: true,
		ShareMaxTailLength:     math.MaxInt32,
		AllowArrayArcs:         true,
	}
}

// Pruning reports whether either suffix count is set.
func (o BuilderOptions) Pruning() bool {
	return o.MinSuffixCount1 > 0 || o.MinSuffixCount2 > 0
}

// Validate checks that counts and lengths are non-negative.
func (o BuilderOptions) Validate() error {
	switch {
	case o.MinSuffixCount1 < 0:
		return fmt.Errorf("fst: min_suffix_count1 %d: %w", o.MinSuffixCount1, ErrInvalidOptions)
	case o.MinSuffixCount2 < 0:
		return fmt.Errorf("fst: min_suffix_count2 %d: %w", o.MinSuffixCount2, ErrInvalidOptions)
	case o.ShareMaxTailLength < 0:
		return fmt.Errorf("fst: share_max_tail_length %d: %w", o.ShareMaxTailLength, ErrInvalidOptions)
	}
	return nil
}
