package matching

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// MatchWeights caps each fit-score component. The caps sum to 100 so the
// total match score is a percentage.
type MatchWeights struct {
	Rank           float64 `json:"rank"`             // Rank compatibility cap (default: 25)
	RankGapPenalty float64 `json:"rank_gap_penalty"` // Points lost per rank of over-qualification (default: 5)
	Skill          float64 `json:"skill"`            // Skill compatibility cap (default: 35)
	Category       float64 `json:"category"`         // Exact category alignment (default: 20)
	CategoryNear   float64 `json:"category_near"`    // Adjacent category alignment (default: 10)
	Completion     float64 `json:"completion"`       // Completion-rate bonus cap (default: 20)
	Reward         float64 `json:"reward"`           // Reward attractiveness cap (default: 10)
	RewardDivisor  float64 `json:"reward_divisor"`   // XP-equivalent units per reward point (default: 250)
}

// RecommendWeights drives the unbounded preference score. Unlike match
// weights these are multipliers, not caps; recommendation scores are only
// meaningful relative to each other.
type RecommendWeights struct {
	CategoryFrequency float64 `json:"category_frequency"` // Per completed quest in the same category (default: 10)
	SkillMatch        float64 `json:"skill_match"`        // Per matched required skill (default: 5)
	RankBase          float64 `json:"rank_base"`          // Base rank term when qualified (default: 20)
	RankGapPenalty    float64 `json:"rank_gap_penalty"`   // Subtracted per rank of distance (default: 3)
	XPDivisor         float64 `json:"xp_divisor"`         // XP units per score point (default: 100)
	MonetaryDivisor   float64 `json:"monetary_divisor"`   // Currency units per score point (default: 10)
}

// Weights holds the full scoring calibration for both pipelines.
type Weights struct {
	Match     MatchWeights     `json:"match"`
	Recommend RecommendWeights `json:"recommend"`
}

// MonetaryXPRate converts currency units to XP-equivalents when averaging a
// quest's rewards: one currency unit counts as 100 XP.
const MonetaryXPRate = 100

// DefaultWeights returns the default scoring calibration.
//
// Match formula (each component clamped to its cap before summing):
//
//	rank (0-25) + skill (0-35) + category (0-20) + completion (0-20) + reward (0-10)
//
// Recommend formula (unbounded):
//
//	10*category_count + 5*matched_skills + rank_term + xp/100 + monetary/10
func DefaultWeights() *Weights {
	return &Weights{
		Match: MatchWeights{
			Rank:           25,
			RankGapPenalty: 5,
			Skill:          35,
			Category:       20,
			CategoryNear:   10,
			Completion:     20,
			Reward:         10,
			RewardDivisor:  250,
		},
		Recommend: RecommendWeights{
			CategoryFrequency: 10,
			SkillMatch:        5,
			RankBase:          20,
			RankGapPenalty:    3,
			XPDivisor:         100,
			MonetaryDivisor:   10,
		},
	}
}

// categoryAdjacency maps a specialization to the quest categories considered
// near it. Exact matches score the full category weight; adjacent ones score
// the reduced weight; everything else scores zero. Kept as data rather than
// branches so the table is testable and adjustable in isolation.
var categoryAdjacency = map[string][]string{
	"frontend":  {"fullstack", "design"},
	"backend":   {"fullstack", "devops"},
	"fullstack": {"frontend", "backend"},
	"mobile":    {"frontend"},
	"devops":    {"backend"},
	"qa":        {"backend", "frontend"},
}

// categoryAdjacent reports whether a quest category is adjacent to the
// adventurer's specialization.
func categoryAdjacent(specialization, category string) bool {
	for _, near := range categoryAdjacency[specialization] {
		if near == category {
			return true
		}
	}
	return false
}

// CalibrationConfig is the JSON structure of the weights calibration file.
type CalibrationConfig struct {
	Version string  `json:"version"`
	Weights Weights `json:"weights"`
}

// LoadCalibration loads scoring weights from a JSON calibration file.
// Partial configurations are merged over the defaults so a file can override
// a single weight. On any error the defaults are returned alongside the
// error so callers can degrade gracefully.
func LoadCalibration(filePath string) (*Weights, error) {
	if filePath == "" {
		return DefaultWeights(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("failed to read calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to read calibration file: %w", err)
	}

	var config CalibrationConfig
	if err := json.Unmarshal(data, &config); err != nil {
		slog.Warn("failed to parse calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to parse calibration file: %w", err)
	}

	merged := MergeCalibration(DefaultWeights(), &config.Weights)
	slog.Info("loaded scoring calibration", "path", filePath)
	return merged, nil
}

// MergeCalibration merges override weights over base weights. Only non-zero
// override values are applied, which allows partial calibration files.
func MergeCalibration(base *Weights, override *Weights) *Weights {
	if base == nil {
		return DefaultWeights()
	}
	if override == nil {
		result := *base
		return &result
	}

	result := *base

	mergeFloat(&result.Match.Rank, override.Match.Rank)
	mergeFloat(&result.Match.RankGapPenalty, override.Match.RankGapPenalty)
	mergeFloat(&result.Match.Skill, override.Match.Skill)
	mergeFloat(&result.Match.Category, override.Match.Category)
	mergeFloat(&result.Match.CategoryNear, override.Match.CategoryNear)
	mergeFloat(&result.Match.Completion, override.Match.Completion)
	mergeFloat(&result.Match.Reward, override.Match.Reward)
	mergeFloat(&result.Match.RewardDivisor, override.Match.RewardDivisor)

	mergeFloat(&result.Recommend.CategoryFrequency, override.Recommend.CategoryFrequency)
	mergeFloat(&result.Recommend.SkillMatch, override.Recommend.SkillMatch)
	mergeFloat(&result.Recommend.RankBase, override.Recommend.RankBase)
	mergeFloat(&result.Recommend.RankGapPenalty, override.Recommend.RankGapPenalty)
	mergeFloat(&result.Recommend.XPDivisor, override.Recommend.XPDivisor)
	mergeFloat(&result.Recommend.MonetaryDivisor, override.Recommend.MonetaryDivisor)

	return &result
}

// mergeFloat applies an override value when it is non-zero.
func mergeFloat(dst *float64, override float64) {
	if override != 0 {
		*dst = override
	}
}
