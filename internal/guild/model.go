// Package guild provides user profile models and repositories for guild
// members: the adventurers who take quests and the companies that post them.
package guild

import (
	"time"
)

// Role identifies what kind of guild member a profile belongs to.
type Role string

// Known member roles. Only adventurers are eligible for quest matching.
const (
	RoleAdventurer Role = "adventurer"
	RoleCompany    Role = "company"
	RoleAdmin      Role = "admin"
)

// SkillProgress tracks an adventurer's progression in a single skill.
type SkillProgress struct {
	SkillID          string `json:"skill_id"`
	Level            int    `json:"level"`
	ExperiencePoints int    `json:"experience_points"`
}

// AdventurerProfile holds the adventurer-specific portion of a user profile.
// All fields are optional in the store; missing values degrade the matching
// components that depend on them rather than failing the computation.
type AdventurerProfile struct {
	// Specialization is a self-declared primary category (e.g. "frontend").
	Specialization string `json:"specialization,omitempty"`

	// PrimarySkills is a free-text list of the adventurer's headline skills.
	PrimarySkills []string `json:"primary_skills,omitempty"`

	// QuestCompletionRate is the percentage (0-100) of accepted quests the
	// adventurer has completed. Nil when no quests have been accepted yet.
	QuestCompletionRate *float64 `json:"quest_completion_rate,omitempty"`
}

// UserProfile is a read-only snapshot of a guild member.
type UserProfile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role"`

	// Rank is one of F, E, D, C, B, A, S. Free-form in the store; unknown
	// values are treated as the lowest rank by the matching engine.
	Rank string `json:"rank"`

	XP          int `json:"xp"`
	SkillPoints int `json:"skill_points"`
	Level       int `json:"level"`

	Adventurer *AdventurerProfile `json:"adventurer_profile,omitempty"`
	Skills     []SkillProgress    `json:"skill_progress,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsAdventurer reports whether this profile is eligible for quest matching.
func (p *UserProfile) IsAdventurer() bool {
	return p.Role == RoleAdventurer
}

// SkillNames returns the union of the profile's primary skills and the skill
// IDs it has progress in. This flattened list is what the matching engine
// compares against a quest's required skills.
func (p *UserProfile) SkillNames() []string {
	var names []string
	if p.Adventurer != nil {
		names = append(names, p.Adventurer.PrimarySkills...)
	}
	for _, sp := range p.Skills {
		names = append(names, sp.SkillID)
	}
	return names
}

// CompletionRate returns the quest completion rate, or 0 when the adventurer
// sub-record or the rate itself is absent.
func (p *UserProfile) CompletionRate() float64 {
	if p.Adventurer == nil || p.Adventurer.QuestCompletionRate == nil {
		return 0
	}
	return *p.Adventurer.QuestCompletionRate
}

// Specialization returns the declared specialization, or "" when absent.
func (p *UserProfile) Specialization() string {
	if p.Adventurer == nil {
		return ""
	}
	return p.Adventurer.Specialization
}
