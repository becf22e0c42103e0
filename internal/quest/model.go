// Package quest provides models and repositories for company-posted quests
// and adventurer completion history.
package quest

import (
	"time"
)

// Status identifies where a quest is in its lifecycle. Only available quests
// are candidates for matching and recommendations.
type Status string

// Known quest statuses.
const (
	StatusAvailable  Status = "available"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Quest is a company-posted task with a reward and a difficulty rank.
type Quest struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	QuestType   string `json:"quest_type"`
	Status      Status `json:"status"`

	// Difficulty uses the same F-S rank scale as adventurer ranks.
	Difficulty string `json:"difficulty"`

	XPReward          int `json:"xp_reward"`
	SkillPointsReward int `json:"skill_points_reward"`

	// MonetaryReward is in currency units. Nil when the quest pays XP only.
	MonetaryReward *float64 `json:"monetary_reward,omitempty"`

	// RequiredSkills is free-text; an empty list imposes no skill barrier.
	RequiredSkills []string `json:"required_skills,omitempty"`

	// RequiredRank is an optional rank floor for accepting the quest.
	RequiredRank *string `json:"required_rank,omitempty"`

	MaxParticipants int    `json:"max_participants"`
	QuestCategory   string `json:"quest_category"`
	CompanyID       string `json:"company_id"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Deadline  *time.Time `json:"deadline,omitempty"`
}

// MonetaryValue returns the monetary reward, or 0 when absent.
func (q *Quest) MonetaryValue() float64 {
	if q.MonetaryReward == nil {
		return 0
	}
	return *q.MonetaryReward
}

// Completion records that an adventurer finished a quest. The quest's
// category and required skills are captured at fetch time so the recommender
// can aggregate them without re-reading quests.
type Completion struct {
	QuestID     string    `json:"quest_id"`
	UserID      string    `json:"user_id"`
	CompletedAt time.Time `json:"completed_at"`

	QuestCategory  string   `json:"quest_category"`
	RequiredSkills []string `json:"required_skills,omitempty"`
}
