// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package cli

// closestName returns the subcommand name closest to the unknown input,
// or "" when nothing is within edit distance 3 (the threshold that
// catches transpositions, dropped characters, and extra characters
// without suggesting unrelated commands).
func closestName(unknown string, commands []*Command) string {
	bestName := ""
	bestDistance := 4

	for _, command := range commands {
		distance := editDistance(unknown, command.Name)
		if distance < bestDistance {
			bestDistance = distance
			bestName = command.Name
		}
	}
	return bestName
}

// editDistance computes the Levenshtein distance between two strings
// using a single rolling row, O(min(m,n)) space.
func editDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	if len(a) > len(b) {
		a, b = b, a
	}

	row := make([]int, len(a)+1)
	for i := range row {
		row[i] = i
	}

	for j := 1; j <= len(b); j++ {
		previousDiagonal := row[0]
		row[0] = j
		for i := 1; i <= len(a); i++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			current := min(row[i]+1, min(row[i-1]+1, previousDiagonal+cost))
			previousDiagonal = row[i]
			row[i] = current
		}
	}
	return row[len(a)]
}
