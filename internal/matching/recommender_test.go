package matching

import (
	"testing"

	"github.com/adventurers-guild/questboard/internal/quest"
)

func TestComputeRecommendationScoreRewardTerms(t *testing.T) {
	// Reward terms alone: 10000/100 + 5000/10 = 600. The profile is
	// under-qualified and has no history or skills, so nothing else
	// contributes. Recommendation scores are unbounded.
	profile := adventurer("F", "", nil, nil)
	q := &quest.Quest{
		ID:             "q1",
		Difficulty:     "S",
		RequiredSkills: []string{"nonexistent"},
		XPReward:       10000,
		MonetaryReward: floatPtr(5000),
	}

	r := NewRecommender(DefaultWeights().Recommend)
	got := r.ComputeRecommendationScore(profile, nil, q)
	if got < 600 {
		t.Errorf("ComputeRecommendationScore() = %v, want at least 600 from rewards", got)
	}
	if got != 600 {
		t.Errorf("ComputeRecommendationScore() = %v, want exactly 600", got)
	}
}

func TestComputeRecommendationScoreCategoryFrequency(t *testing.T) {
	profile := adventurer("F", "", nil, nil)
	history := []*quest.Completion{
		{QuestID: "c1", QuestCategory: "backend"},
		{QuestID: "c2", QuestCategory: "Backend"}, // counted case-insensitively
		{QuestID: "c3", QuestCategory: "frontend"},
	}
	counts := categoryFrequencies(history)

	r := NewRecommender(DefaultWeights().Recommend)

	backendQuest := &quest.Quest{Difficulty: "S", QuestCategory: "backend"}
	if got := r.ComputeRecommendationScore(profile, counts, backendQuest); got != 20 {
		t.Errorf("two backend completions = %v, want 20", got)
	}

	frontendQuest := &quest.Quest{Difficulty: "S", QuestCategory: "frontend"}
	if got := r.ComputeRecommendationScore(profile, counts, frontendQuest); got != 10 {
		t.Errorf("one frontend completion = %v, want 10", got)
	}

	newCategory := &quest.Quest{Difficulty: "S", QuestCategory: "devops"}
	if got := r.ComputeRecommendationScore(profile, counts, newCategory); got != 0 {
		t.Errorf("unvisited category = %v, want 0", got)
	}
}

func TestComputeRecommendationScoreSkillTerm(t *testing.T) {
	profile := adventurer("F", "", []string{"React", "Go"}, nil)
	q := &quest.Quest{
		Difficulty:     "S",
		RequiredSkills: []string{"react", "golang", "python"},
	}

	r := NewRecommender(DefaultWeights().Recommend)
	// react and golang match, python does not: 2 * 5 = 10.
	if got := r.ComputeRecommendationScore(profile, nil, q); got != 10 {
		t.Errorf("ComputeRecommendationScore() = %v, want 10", got)
	}
}

func TestComputeRecommendationScoreRankTerm(t *testing.T) {
	r := NewRecommender(DefaultWeights().Recommend)

	score := func(userRank, difficulty string) float64 {
		profile := adventurer(userRank, "", nil, nil)
		return r.ComputeRecommendationScore(profile, nil, &quest.Quest{Difficulty: difficulty})
	}

	if got := score("C", "C"); got != 20 {
		t.Errorf("equal ranks = %v, want 20", got)
	}
	if got := score("B", "C"); got != 17 {
		t.Errorf("one rank over = %v, want 17 (20-3)", got)
	}
	// Widest possible gap still contributes: 20 - 3*6 = 2.
	if got := score("S", "F"); got != 2 {
		t.Errorf("maximum gap = %v, want 2", got)
	}
	if got := score("F", "S"); got != 0 {
		t.Errorf("under-qualified = %v, want 0", got)
	}
}

func TestRecommendOrderingAndTruncation(t *testing.T) {
	profile := adventurer("C", "", []string{"go"}, nil)
	history := []*quest.Completion{
		{QuestID: "done-1", QuestCategory: "backend"},
		{QuestID: "done-2", QuestCategory: "backend"},
	}

	candidates := []*quest.Quest{
		{ID: "q-plain", Difficulty: "C"},
		{ID: "q-backend", Difficulty: "C", QuestCategory: "backend", RequiredSkills: []string{"go"}},
		{ID: "q-rich", Difficulty: "C", QuestCategory: "backend", XPReward: 5000, MonetaryReward: floatPtr(1000)},
	}

	r := NewRecommender(DefaultWeights().Recommend)
	got := r.Recommend(profile, history, candidates, 5)

	if len(got) != 3 {
		t.Fatalf("got %d results, want 3", len(got))
	}
	// q-rich: 20 + 20 + 50 + 100 = 190; q-backend: 20 + 5 + 20 = 45; q-plain: 20.
	if got[0].ID != "q-rich" || got[1].ID != "q-backend" || got[2].ID != "q-plain" {
		t.Errorf("order = [%s %s %s], want [q-rich q-backend q-plain]", got[0].ID, got[1].ID, got[2].ID)
	}
	for i := 1; i < len(got); i++ {
		if got[i].RecommendationScore > got[i-1].RecommendationScore {
			t.Errorf("results not sorted descending at index %d", i)
		}
	}

	truncated := r.Recommend(profile, history, candidates, 1)
	if len(truncated) != 1 || truncated[0].ID != "q-rich" {
		t.Errorf("n=1 should return only the top result")
	}
}

func TestRecommendTieBreakByID(t *testing.T) {
	profile := adventurer("C", "", nil, nil)
	candidates := []*quest.Quest{
		{ID: "q-b", Difficulty: "C"},
		{ID: "q-a", Difficulty: "C"},
	}

	r := NewRecommender(DefaultWeights().Recommend)
	got := r.Recommend(profile, nil, candidates, 5)
	if got[0].ID != "q-a" || got[1].ID != "q-b" {
		t.Errorf("ties should order by quest ID ascending, got [%s %s]", got[0].ID, got[1].ID)
	}
}

func TestCategoryFrequenciesSkipsEmpty(t *testing.T) {
	history := []*quest.Completion{
		{QuestID: "c1", QuestCategory: ""},
		{QuestID: "c2", QuestCategory: "  "},
		nil,
		{QuestID: "c3", QuestCategory: "qa"},
	}
	counts := categoryFrequencies(history)
	if len(counts) != 1 || counts["qa"] != 1 {
		t.Errorf("counts = %v, want only qa:1", counts)
	}
}
