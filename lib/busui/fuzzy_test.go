// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package busui

import "testing"

func TestFuzzyMatchSubsequence(t *testing.T) {
	slab := NewSlab()
	result := FuzzyMatch("write deployment manifest", []rune("wdm"), slab)
	if !result.Matched {
		t.Fatal("expected subsequence wdm to match")
	}
	if result.Score <= 0 {
		t.Fatalf("expected positive score, got %d", result.Score)
	}
}

func TestFuzzyMatchNoMatch(t *testing.T) {
	slab := NewSlab()
	result := FuzzyMatch("abc", []rune("xyz"), slab)
	if result.Matched {
		t.Fatal("expected xyz not to match abc")
	}
}

func TestFuzzyMatchEmptyPattern(t *testing.T) {
	slab := NewSlab()
	if !FuzzyMatch("anything", nil, slab).Matched {
		t.Fatal("empty pattern must match everything")
	}
	if !FuzzyMatch("", nil, slab).Matched {
		t.Fatal("empty pattern must match empty text")
	}
}

func TestFuzzyMatchCaseInsensitive(t *testing.T) {
	slab := NewSlab()
	// Lowercase pattern against mixed-case text.
	if !FuzzyMatch("Deploy To Production", []rune("deploy"), slab).Matched {
		t.Fatal("expected case-insensitive match")
	}
}

func TestFuzzyMatchOrderMatters(t *testing.T) {
	slab := NewSlab()
	if FuzzyMatch("ab", []rune("ba"), slab).Matched {
		t.Fatal("pattern runes must match in order")
	}
}

func TestFuzzyMatchContiguousScoresHigher(t *testing.T) {
	slab := NewSlab()
	contiguous := FuzzyMatch("deploy manifest", []rune("deploy"), slab)
	scattered := FuzzyMatch("data export plan low order yield", []rune("deploy"), slab)
	if !contiguous.Matched || !scattered.Matched {
		t.Fatal("expected both to match")
	}
	if contiguous.Score <= scattered.Score {
		t.Fatalf("contiguous score %d should beat scattered %d",
			contiguous.Score, scattered.Score)
	}
}
