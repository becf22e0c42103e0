package matching

import (
	"strings"
)

// skillMatches reports whether a candidate skill satisfies a required skill.
// Matching is case-insensitive substring containment in both directions, so
// "React" satisfies "react hooks" and "postgresql" satisfies "sql". This is
// deliberately loose: skill names are free text entered by different people,
// and exact-set intersection would miss most real overlaps.
func skillMatches(candidate, required string) bool {
	c := strings.ToLower(strings.TrimSpace(candidate))
	r := strings.ToLower(strings.TrimSpace(required))
	if c == "" || r == "" {
		return false
	}
	return strings.Contains(c, r) || strings.Contains(r, c)
}

// SkillOverlap returns the number of required skills that have at least one
// match in the candidate list.
func SkillOverlap(candidateSkills, requiredSkills []string) int {
	matched := 0
	for _, required := range requiredSkills {
		for _, candidate := range candidateSkills {
			if skillMatches(candidate, required) {
				matched++
				break
			}
		}
	}
	return matched
}

// SkillOverlapFraction returns the fraction of required skills matched by the
// candidate list. A quest with no required skills imposes no skill barrier
// and scores a full 1.0.
func SkillOverlapFraction(candidateSkills, requiredSkills []string) float64 {
	if len(requiredSkills) == 0 {
		return 1.0
	}
	return float64(SkillOverlap(candidateSkills, requiredSkills)) / float64(len(requiredSkills))
}
