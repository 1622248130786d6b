// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"

	"github.com/spf13/pflag"
)

// suggestThreshold bounds how far a typo may be from a real name
// before we stop guessing. Distance 3 covers transposed, dropped, and
// doubled characters without matching unrelated words.
const suggestThreshold = 3

// suggestCommand picks the subcommand name nearest to the unknown
// input, or "" when nothing falls within the threshold.
func suggestCommand(unknown string, commands []*Command) string {
	best := ""
	bestDistance := suggestThreshold + 1
	for _, command := range commands {
		if d := editDistance(unknown, command.Name); d < bestDistance {
			bestDistance = d
			best = command.Name
		}
	}
	return best
}

// suggestFlag finds the first flag-looking argument that the flag set
// does not define and returns the nearest defined name with its dash
// prefix, or "" when nothing is close.
func suggestFlag(args []string, flagSet *pflag.FlagSet) string {
	defined := make(map[string]bool)
	var names []string
	flagSet.VisitAll(func(f *pflag.Flag) {
		names = append(names, f.Name)
		defined[f.Name] = true
		if f.Shorthand != "" {
			defined[f.Shorthand] = true
		}
	})

	for _, arg := range args {
		if !strings.HasPrefix(arg, "-") {
			continue
		}
		name := strings.TrimLeft(arg, "-")
		if equals := strings.IndexByte(name, '='); equals >= 0 {
			name = name[:equals]
		}
		if defined[name] {
			continue
		}

		best := ""
		bestDistance := suggestThreshold + 1
		for _, candidate := range names {
			if d := editDistance(name, candidate); d < bestDistance {
				bestDistance = d
				best = candidate
			}
		}
		if best == "" {
			return ""
		}
		if len(best) == 1 {
			return "-" + best
		}
		return "--" + best
	}
	return ""
}

// editDistance is the Levenshtein distance between a and b, computed
// with two rolling rows so space stays linear in the shorter string.
func editDistance(a, b string) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	if len(a) == 0 {
		return len(b)
	}

	previous := make([]int, len(a)+1)
	current := make([]int, len(a)+1)
	for i := range previous {
		previous[i] = i
	}

	for j := 1; j <= len(b); j++ {
		current[0] = j
		for i := 1; i <= len(a); i++ {
			replace := previous[i-1]
			if a[i-1] != b[j-1] {
				replace++
			}
			current[i] = min(replace, min(previous[i]+1, current[i-1]+1))
		}
		previous, current = current, previous
	}

	return previous[len(a)]
}
