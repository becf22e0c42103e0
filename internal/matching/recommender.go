package matching

import (
	"sort"
	"strings"

	"github.com/adventurers-guild/questboard/internal/guild"
	"github.com/adventurers-guild/questboard/internal/quest"
)

// RecommendedQuest is a candidate quest annotated with its preference score.
type RecommendedQuest struct {
	quest.Quest
	RecommendationScore float64 `json:"recommendation_score"`
}

// Recommender computes unbounded preference scores from an adventurer's
// completion history. Scores are only meaningful relative to each other
// within one ranked list.
type Recommender struct {
	weights RecommendWeights
}

// NewRecommender creates a recommender with the given weights.
func NewRecommender(weights RecommendWeights) *Recommender {
	return &Recommender{weights: weights}
}

// categoryFrequencies counts completed quests per category, lowercased.
func categoryFrequencies(history []*quest.Completion) map[string]int {
	counts := make(map[string]int, len(history))
	for _, c := range history {
		if c == nil {
			continue
		}
		category := strings.ToLower(strings.TrimSpace(c.QuestCategory))
		if category == "" {
			continue
		}
		counts[category]++
	}
	return counts
}

// ComputeRecommendationScore returns the preference score for one candidate
// quest given the user's per-category completion counts.
func (r *Recommender) ComputeRecommendationScore(profile *guild.UserProfile, categoryCounts map[string]int, q *quest.Quest) float64 {
	score := 0.0

	category := strings.ToLower(strings.TrimSpace(q.QuestCategory))
	if count := categoryCounts[category]; count > 0 {
		score += r.weights.CategoryFrequency * float64(count)
	}

	score += r.weights.SkillMatch * float64(SkillOverlap(profile.SkillNames(), q.RequiredSkills))

	if gap := rankGap(profile.Rank, q.Difficulty); gap >= 0 {
		score += r.weights.RankBase - r.weights.RankGapPenalty*float64(gap)
	}

	score += float64(q.XPReward) / r.weights.XPDivisor
	score += q.MonetaryValue() / r.weights.MonetaryDivisor

	return score
}

// Recommend scores every candidate against the profile and its completion
// history and returns the top n, sorted by score descending with quest ID
// ascending on ties.
func (r *Recommender) Recommend(profile *guild.UserProfile, history []*quest.Completion, candidates []*quest.Quest, n int) []RecommendedQuest {
	categoryCounts := categoryFrequencies(history)

	recommended := make([]RecommendedQuest, 0, len(candidates))
	for _, q := range candidates {
		if q == nil {
			continue
		}
		recommended = append(recommended, RecommendedQuest{
			Quest:               *q,
			RecommendationScore: r.ComputeRecommendationScore(profile, categoryCounts, q),
		})
	}

	sort.Slice(recommended, func(i, j int) bool {
		if recommended[i].RecommendationScore != recommended[j].RecommendationScore {
			return recommended[i].RecommendationScore > recommended[j].RecommendationScore
		}
		return recommended[i].ID < recommended[j].ID
	})

	if n > 0 && len(recommended) > n {
		recommended = recommended[:n]
	}
	return recommended
}
