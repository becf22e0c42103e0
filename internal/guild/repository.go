package guild

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/adventurers-guild/questboard/internal/tracing"
)

// ErrProfileNotFound is returned when a profile ID does not resolve.
var ErrProfileNotFound = errors.New("profile not found")

// ProfileRepository defines the interface for user profile data operations.
type ProfileRepository interface {
	// GetByID retrieves a profile with its adventurer sub-record and skill
	// progress. Returns ErrProfileNotFound if the ID does not resolve.
	GetByID(ctx context.Context, id string) (*UserProfile, error)

	// Insert stores a new profile, generating an ID when one is not set.
	Insert(ctx context.Context, profile *UserProfile) error
}

// InMemoryProfileRepository is an in-memory implementation of
// ProfileRepository. Thread-safe via RWMutex; used for tests and for running
// the API without a database.
type InMemoryProfileRepository struct {
	mu       sync.RWMutex
	profiles map[string]*UserProfile
}

// NewInMemoryProfileRepository creates a new in-memory profile repository.
func NewInMemoryProfileRepository() *InMemoryProfileRepository {
	return &InMemoryProfileRepository{
		profiles: make(map[string]*UserProfile),
	}
}

// copyProfile deep-copies a profile so callers cannot mutate stored state.
func copyProfile(p *UserProfile) *UserProfile {
	c := *p
	if p.Adventurer != nil {
		adv := *p.Adventurer
		if p.Adventurer.QuestCompletionRate != nil {
			rate := *p.Adventurer.QuestCompletionRate
			adv.QuestCompletionRate = &rate
		}
		adv.PrimarySkills = append([]string(nil), p.Adventurer.PrimarySkills...)
		c.Adventurer = &adv
	}
	c.Skills = append([]SkillProgress(nil), p.Skills...)
	return &c
}

// GetByID retrieves a profile by its ID.
func (r *InMemoryProfileRepository) GetByID(ctx context.Context, id string) (*UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[id]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return copyProfile(p), nil
}

// Insert stores a new profile.
func (r *InMemoryProfileRepository) Insert(ctx context.Context, profile *UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if profile.ID == "" {
		profile.ID = uuid.New().String()
	}
	now := time.Now()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	r.profiles[profile.ID] = copyProfile(profile)
	return nil
}

// PostgresProfileRepository implements ProfileRepository using PostgreSQL.
type PostgresProfileRepository struct {
	db *sql.DB
}

// NewPostgresProfileRepository creates a new Postgres-backed profile repository.
func NewPostgresProfileRepository(db *sql.DB) *PostgresProfileRepository {
	return &PostgresProfileRepository{db: db}
}

// GetByID retrieves a profile with its adventurer sub-record and skill progress.
func (r *PostgresProfileRepository) GetByID(ctx context.Context, id string) (_ *UserProfile, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "users", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	const query = `
		SELECT u.id, u.display_name, u.role, u.rank, u.xp, u.skill_points, u.level,
		       u.created_at, u.updated_at,
		       a.specialization, a.primary_skills, a.quest_completion_rate
		FROM users u
		LEFT JOIN adventurer_profiles a ON a.user_id = u.id
		WHERE u.id = $1
	`

	var (
		p              UserProfile
		specialization sql.NullString
		primarySkills  pq.StringArray
		completionRate sql.NullFloat64
	)
	err = r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.DisplayName, &p.Role, &p.Rank, &p.XP, &p.SkillPoints, &p.Level,
		&p.CreatedAt, &p.UpdatedAt,
		&specialization, &primarySkills, &completionRate,
	)
	if err == sql.ErrNoRows {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}

	// The adventurer sub-record is optional; a bare row means a company or
	// admin profile, which the matching layer rejects by role.
	if specialization.Valid || len(primarySkills) > 0 || completionRate.Valid {
		adv := &AdventurerProfile{
			Specialization: specialization.String,
			PrimarySkills:  []string(primarySkills),
		}
		if completionRate.Valid {
			rate := completionRate.Float64
			adv.QuestCompletionRate = &rate
		}
		p.Adventurer = adv
	}

	skills, err := r.listSkillProgress(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Skills = skills

	return &p, nil
}

// listSkillProgress loads the skill progress rows for a user.
func (r *PostgresProfileRepository) listSkillProgress(ctx context.Context, userID string) ([]SkillProgress, error) {
	const query = `
		SELECT skill_id, level, experience_points
		FROM skill_progress
		WHERE user_id = $1
		ORDER BY skill_id
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query skill progress: %w", err)
	}
	defer rows.Close()

	var skills []SkillProgress
	for rows.Next() {
		var sp SkillProgress
		if err := rows.Scan(&sp.SkillID, &sp.Level, &sp.ExperiencePoints); err != nil {
			return nil, fmt.Errorf("failed to scan skill progress: %w", err)
		}
		skills = append(skills, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate skill progress: %w", err)
	}
	return skills, nil
}

// Insert stores a new profile along with its adventurer sub-record and skill
// progress rows in a single transaction.
func (r *PostgresProfileRepository) Insert(ctx context.Context, profile *UserProfile) (err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "users", tracing.DBOperationInsert)
	defer func() { endSpan(err) }()

	if profile.ID == "" {
		profile.ID = uuid.New().String()
	}
	now := time.Now()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const insertUser = `
		INSERT INTO users (id, display_name, role, rank, xp, skill_points, level, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if _, err := tx.ExecContext(ctx, insertUser,
		profile.ID, profile.DisplayName, profile.Role, profile.Rank,
		profile.XP, profile.SkillPoints, profile.Level,
		profile.CreatedAt, profile.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	if profile.Adventurer != nil {
		const insertAdventurer = `
			INSERT INTO adventurer_profiles (user_id, specialization, primary_skills, quest_completion_rate)
			VALUES ($1, $2, $3, $4)
		`
		var rate sql.NullFloat64
		if profile.Adventurer.QuestCompletionRate != nil {
			rate = sql.NullFloat64{Float64: *profile.Adventurer.QuestCompletionRate, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, insertAdventurer,
			profile.ID, profile.Adventurer.Specialization,
			pq.Array(profile.Adventurer.PrimarySkills), rate,
		); err != nil {
			return fmt.Errorf("failed to insert adventurer profile: %w", err)
		}
	}

	const insertSkill = `
		INSERT INTO skill_progress (user_id, skill_id, level, experience_points)
		VALUES ($1, $2, $3, $4)
	`
	for _, sp := range profile.Skills {
		if _, err := tx.ExecContext(ctx, insertSkill, profile.ID, sp.SkillID, sp.Level, sp.ExperiencePoints); err != nil {
			return fmt.Errorf("failed to insert skill progress: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit profile insert: %w", err)
	}
	return nil
}
