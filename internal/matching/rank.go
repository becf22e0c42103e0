// Package matching implements the quest–adventurer fit scoring and
// recommendation engine. Scoring is pure: profiles, quests, and completion
// history are injected as already-fetched snapshots and no I/O happens inside
// the score computations.
package matching

import (
	"strings"
)

// RankOrder lists the guild ranks from lowest to highest proficiency.
// Every rank comparison in the engine is an integer comparison of positions
// in this table.
var RankOrder = []string{"F", "E", "D", "C", "B", "A", "S"}

// rankIndex maps each rank letter to its ordinal position.
var rankIndex = func() map[string]int {
	m := make(map[string]int, len(RankOrder))
	for i, r := range RankOrder {
		m[r] = i
	}
	return m
}()

// RankIndex returns the ordinal position (0-6) of a rank letter.
// Unknown or malformed ranks map to 0, the lowest rank. This is a deliberate
// silent default: rank values come from free-form store columns and a bad
// value must degrade that quest's or profile's rank component, not fail the
// whole ranked list.
func RankIndex(rank string) int {
	if idx, ok := rankIndex[strings.ToUpper(strings.TrimSpace(rank))]; ok {
		return idx
	}
	return 0
}

// rankGap returns how many ranks above the required rank the user sits.
// Negative means under-qualified.
func rankGap(userRank, questRank string) int {
	return RankIndex(userRank) - RankIndex(questRank)
}
