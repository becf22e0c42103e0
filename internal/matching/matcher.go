package matching

import (
	"math"
	"sort"
	"strings"

	"github.com/adventurers-guild/questboard/internal/guild"
	"github.com/adventurers-guild/questboard/internal/quest"
)

// MatchedQuest is a candidate quest annotated with its fit score.
type MatchedQuest struct {
	quest.Quest
	MatchScore int `json:"match_score"`
}

// Matcher computes bounded fit scores between one adventurer and a set of
// available quests.
type Matcher struct {
	weights MatchWeights
}

// NewMatcher creates a matcher with the given weights.
func NewMatcher(weights MatchWeights) *Matcher {
	return &Matcher{weights: weights}
}

// ComputeMatchScore returns the 0-100 fit score for one profile/quest pair.
// Each component is clamped to its own band before summing, so the total is
// bounded by construction. Malformed or missing optional fields degrade that
// component to zero rather than failing the computation.
func (m *Matcher) ComputeMatchScore(profile *guild.UserProfile, q *quest.Quest) int {
	score := m.rankScore(profile, q) +
		m.skillScore(profile, q) +
		m.categoryScore(profile, q) +
		m.completionScore(profile) +
		m.rewardScore(q)
	return int(math.Round(score))
}

// rankScore awards the full rank weight for an exact difficulty match.
// Over-qualification costs RankGapPenalty per rank above the quest, floored
// at zero; under-qualification scores zero outright.
func (m *Matcher) rankScore(profile *guild.UserProfile, q *quest.Quest) float64 {
	gap := rankGap(profile.Rank, q.Difficulty)
	if gap == 0 {
		return m.weights.Rank
	}
	if gap < 0 {
		return 0
	}
	return math.Max(0, m.weights.Rank-m.weights.RankGapPenalty*float64(gap))
}

func (m *Matcher) skillScore(profile *guild.UserProfile, q *quest.Quest) float64 {
	return SkillOverlapFraction(profile.SkillNames(), q.RequiredSkills) * m.weights.Skill
}

// categoryScore awards the full category weight for an exact case-insensitive
// specialization match, the reduced weight for an adjacent category, and zero
// otherwise. A profile with no specialization scores zero here.
func (m *Matcher) categoryScore(profile *guild.UserProfile, q *quest.Quest) float64 {
	spec := strings.ToLower(strings.TrimSpace(profile.Specialization()))
	category := strings.ToLower(strings.TrimSpace(q.QuestCategory))
	if spec == "" || category == "" {
		return 0
	}
	if spec == category {
		return m.weights.Category
	}
	if categoryAdjacent(spec, category) {
		return m.weights.CategoryNear
	}
	return 0
}

func (m *Matcher) completionScore(profile *guild.UserProfile) float64 {
	rate := profile.CompletionRate()
	if rate < 0 {
		return 0
	}
	if rate > 100 {
		rate = 100
	}
	return rate / 100 * m.weights.Completion
}

// rewardScore converts monetary reward to XP-equivalents, averages it with
// the raw XP reward, and scales by the reward divisor, capped at the reward
// weight.
func (m *Matcher) rewardScore(q *quest.Quest) float64 {
	avgReward := (float64(q.XPReward) + q.MonetaryValue()*MonetaryXPRate) / 2
	return math.Min(m.weights.Reward, avgReward/m.weights.RewardDivisor)
}

// RankQuests scores every candidate against the profile and returns the top
// results sorted by score descending, quest ID ascending on ties, truncated
// to limit. The secondary key makes rankings reproducible; the store returns
// candidates in no particular order.
func (m *Matcher) RankQuests(profile *guild.UserProfile, candidates []*quest.Quest, limit int) []MatchedQuest {
	matched := make([]MatchedQuest, 0, len(candidates))
	for _, q := range candidates {
		if q == nil {
			continue
		}
		matched = append(matched, MatchedQuest{
			Quest:      *q,
			MatchScore: m.ComputeMatchScore(profile, q),
		})
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].MatchScore != matched[j].MatchScore {
			return matched[i].MatchScore > matched[j].MatchScore
		}
		return matched[i].ID < matched[j].ID
	})

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}
