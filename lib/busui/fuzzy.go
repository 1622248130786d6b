// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package busui

import (
	"sync"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

// Slab sizes match fzf's own defaults. One slab is reused across all
// matches in a render pass; the matcher scratch space never escapes.
const (
	slab16Size = 100 * 1024
	slab32Size = 2048
)

var fuzzyInitOnce sync.Once

// NewSlab allocates matcher scratch space. Not safe for concurrent
// use; the viewer owns one slab on its single update goroutine.
func NewSlab() *util.Slab {
	return util.MakeSlab(slab16Size, slab32Size)
}

// FuzzyResult reports one fuzzy match attempt.
type FuzzyResult struct {
	// Matched is true when every pattern rune was found in order.
	Matched bool

	// Score ranks match quality (fzf v2 scoring). Only meaningful
	// when Matched is true.
	Score int
}

// FuzzyMatch runs fzf's V2 fuzzy matcher over text. The pattern must
// be lowercase for case-insensitive matching; an empty pattern matches
// everything.
func FuzzyMatch(text string, pattern []rune, slab *util.Slab) FuzzyResult {
	fuzzyInitOnce.Do(func() { algo.Init("default") })
	if len(pattern) == 0 {
		return FuzzyResult{Matched: true}
	}
	chars := util.ToChars([]byte(text))
	result, _ := algo.FuzzyMatchV2(false, true, true, &chars, pattern, false, slab)
	return FuzzyResult{Matched: result.Start >= 0, Score: result.Score}
}
