package quest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/adventurers-guild/questboard/internal/tracing"
)

// ErrQuestNotFound is returned when a quest ID does not resolve.
var ErrQuestNotFound = errors.New("quest not found")

// Store-side caps on candidate set sizes. Matching re-fetches and re-scores
// on every request, which stays cheap only because these are bounded.
const (
	MaxAvailableQuests = 50
	MaxHistoryRecords  = 10
)

// QuestRepository defines the interface for quest data operations.
type QuestRepository interface {
	// GetByID retrieves a quest by its ID.
	// Returns ErrQuestNotFound if the ID does not resolve.
	GetByID(ctx context.Context, id string) (*Quest, error)

	// ListAvailable retrieves up to limit quests with status "available".
	// The limit is clamped to MaxAvailableQuests; zero or negative means
	// the maximum.
	ListAvailable(ctx context.Context, limit int) ([]*Quest, error)

	// ListCompletions retrieves up to limit completion records for a user,
	// newest first, each joined with the quest's category and required
	// skills. The limit is clamped to MaxHistoryRecords.
	ListCompletions(ctx context.Context, userID string, limit int) ([]*Completion, error)

	// Insert stores a new quest, generating an ID when one is not set.
	Insert(ctx context.Context, q *Quest) error

	// InsertCompletion records a quest completion for a user.
	InsertCompletion(ctx context.Context, c *Completion) error
}

// clampLimit normalizes a caller-supplied limit against a hard cap.
func clampLimit(limit, maxLimit int) int {
	if limit <= 0 || limit > maxLimit {
		return maxLimit
	}
	return limit
}

// InMemoryQuestRepository is an in-memory implementation of QuestRepository.
// Thread-safe via RWMutex; used for tests and for running the API without a
// database.
type InMemoryQuestRepository struct {
	mu          sync.RWMutex
	quests      map[string]*Quest
	completions map[string][]*Completion // userID -> newest first
}

// NewInMemoryQuestRepository creates a new in-memory quest repository.
func NewInMemoryQuestRepository() *InMemoryQuestRepository {
	return &InMemoryQuestRepository{
		quests:      make(map[string]*Quest),
		completions: make(map[string][]*Completion),
	}
}

// copyQuest deep-copies a quest so callers cannot mutate stored state.
func copyQuest(q *Quest) *Quest {
	c := *q
	if q.MonetaryReward != nil {
		v := *q.MonetaryReward
		c.MonetaryReward = &v
	}
	if q.RequiredRank != nil {
		v := *q.RequiredRank
		c.RequiredRank = &v
	}
	if q.Deadline != nil {
		v := *q.Deadline
		c.Deadline = &v
	}
	c.RequiredSkills = append([]string(nil), q.RequiredSkills...)
	return &c
}

// GetByID retrieves a quest by its ID.
func (r *InMemoryQuestRepository) GetByID(ctx context.Context, id string) (*Quest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q, ok := r.quests[id]
	if !ok {
		return nil, ErrQuestNotFound
	}
	return copyQuest(q), nil
}

// ListAvailable retrieves up to limit available quests, newest first.
func (r *InMemoryQuestRepository) ListAvailable(ctx context.Context, limit int) ([]*Quest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limit = clampLimit(limit, MaxAvailableQuests)

	var available []*Quest
	for _, q := range r.quests {
		if q.Status == StatusAvailable {
			available = append(available, copyQuest(q))
		}
	}

	// Newest first with ID tie-break, mirroring the Postgres ordering.
	sort.Slice(available, func(i, j int) bool {
		if !available[i].CreatedAt.Equal(available[j].CreatedAt) {
			return available[i].CreatedAt.After(available[j].CreatedAt)
		}
		return available[i].ID < available[j].ID
	})

	if len(available) > limit {
		available = available[:limit]
	}
	return available, nil
}

// ListCompletions retrieves up to limit completion records, newest first.
func (r *InMemoryQuestRepository) ListCompletions(ctx context.Context, userID string, limit int) ([]*Completion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limit = clampLimit(limit, MaxHistoryRecords)

	history := r.completions[userID]
	if len(history) > limit {
		history = history[:limit]
	}

	out := make([]*Completion, 0, len(history))
	for _, c := range history {
		cc := *c
		cc.RequiredSkills = append([]string(nil), c.RequiredSkills...)
		out = append(out, &cc)
	}
	return out, nil
}

// Insert stores a new quest.
func (r *InMemoryQuestRepository) Insert(ctx context.Context, q *Quest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	now := time.Now()
	q.CreatedAt = now
	q.UpdatedAt = now

	r.quests[q.ID] = copyQuest(q)
	return nil
}

// InsertCompletion records a quest completion, enriching it with the quest's
// category and required skills the way the Postgres join does.
func (r *InMemoryQuestRepository) InsertCompletion(ctx context.Context, c *Completion) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.CompletedAt.IsZero() {
		c.CompletedAt = time.Now()
	}
	if q, ok := r.quests[c.QuestID]; ok {
		c.QuestCategory = q.QuestCategory
		c.RequiredSkills = append([]string(nil), q.RequiredSkills...)
	}

	cc := *c
	cc.RequiredSkills = append([]string(nil), c.RequiredSkills...)

	// Prepend to keep newest-first ordering.
	r.completions[c.UserID] = append([]*Completion{&cc}, r.completions[c.UserID]...)
	return nil
}

// PostgresQuestRepository implements QuestRepository using PostgreSQL.
type PostgresQuestRepository struct {
	db *sql.DB
}

// NewPostgresQuestRepository creates a new Postgres-backed quest repository.
func NewPostgresQuestRepository(db *sql.DB) *PostgresQuestRepository {
	return &PostgresQuestRepository{db: db}
}

const questColumns = `
	id, title, description, quest_type, status, difficulty,
	xp_reward, skill_points_reward, monetary_reward,
	required_skills, required_rank, max_participants,
	quest_category, company_id, created_at, updated_at, deadline
`

// scanQuest scans a quest row into a Quest, normalizing nullable columns.
func scanQuest(scan func(dest ...any) error) (*Quest, error) {
	var (
		q              Quest
		monetaryReward sql.NullFloat64
		requiredSkills pq.StringArray
		requiredRank   sql.NullString
		deadline       sql.NullTime
	)
	if err := scan(
		&q.ID, &q.Title, &q.Description, &q.QuestType, &q.Status, &q.Difficulty,
		&q.XPReward, &q.SkillPointsReward, &monetaryReward,
		&requiredSkills, &requiredRank, &q.MaxParticipants,
		&q.QuestCategory, &q.CompanyID, &q.CreatedAt, &q.UpdatedAt, &deadline,
	); err != nil {
		return nil, err
	}

	if monetaryReward.Valid {
		v := monetaryReward.Float64
		q.MonetaryReward = &v
	}
	q.RequiredSkills = []string(requiredSkills)
	if requiredRank.Valid {
		v := requiredRank.String
		q.RequiredRank = &v
	}
	if deadline.Valid {
		v := deadline.Time
		q.Deadline = &v
	}
	return &q, nil
}

// GetByID retrieves a quest by its ID.
func (r *PostgresQuestRepository) GetByID(ctx context.Context, id string) (_ *Quest, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "quests", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	query := `SELECT ` + questColumns + ` FROM quests WHERE id = $1`

	row := r.db.QueryRowContext(ctx, query, id)
	q, err := scanQuest(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrQuestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query quest: %w", err)
	}
	return q, nil
}

// ListAvailable retrieves up to limit available quests, newest first.
func (r *PostgresQuestRepository) ListAvailable(ctx context.Context, limit int) (_ []*Quest, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "quests", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	limit = clampLimit(limit, MaxAvailableQuests)

	query := `SELECT ` + questColumns + `
		FROM quests
		WHERE status = $1
		ORDER BY created_at DESC, id ASC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, StatusAvailable, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query available quests: %w", err)
	}
	defer rows.Close()

	var quests []*Quest
	for rows.Next() {
		q, err := scanQuest(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quest: %w", err)
		}
		quests = append(quests, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate quests: %w", err)
	}
	return quests, nil
}

// ListCompletions retrieves up to limit completion records, newest first,
// joined with the quest's category and required skills at fetch time.
func (r *PostgresQuestRepository) ListCompletions(ctx context.Context, userID string, limit int) (_ []*Completion, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "quest_completions", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	limit = clampLimit(limit, MaxHistoryRecords)

	const query = `
		SELECT c.quest_id, c.user_id, c.completed_at, q.quest_category, q.required_skills
		FROM quest_completions c
		JOIN quests q ON q.id = c.quest_id
		WHERE c.user_id = $1
		ORDER BY c.completed_at DESC, c.quest_id ASC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query completions: %w", err)
	}
	defer rows.Close()

	var completions []*Completion
	for rows.Next() {
		var (
			c              Completion
			requiredSkills pq.StringArray
		)
		if err := rows.Scan(&c.QuestID, &c.UserID, &c.CompletedAt, &c.QuestCategory, &requiredSkills); err != nil {
			return nil, fmt.Errorf("failed to scan completion: %w", err)
		}
		c.RequiredSkills = []string(requiredSkills)
		completions = append(completions, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate completions: %w", err)
	}
	return completions, nil
}

// Insert stores a new quest.
func (r *PostgresQuestRepository) Insert(ctx context.Context, q *Quest) (err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "quests", tracing.DBOperationInsert)
	defer func() { endSpan(err) }()

	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	now := time.Now()
	q.CreatedAt = now
	q.UpdatedAt = now

	const query = `
		INSERT INTO quests (
			id, title, description, quest_type, status, difficulty,
			xp_reward, skill_points_reward, monetary_reward,
			required_skills, required_rank, max_participants,
			quest_category, company_id, created_at, updated_at, deadline
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	var monetaryReward sql.NullFloat64
	if q.MonetaryReward != nil {
		monetaryReward = sql.NullFloat64{Float64: *q.MonetaryReward, Valid: true}
	}
	var requiredRank sql.NullString
	if q.RequiredRank != nil {
		requiredRank = sql.NullString{String: *q.RequiredRank, Valid: true}
	}
	var deadline sql.NullTime
	if q.Deadline != nil {
		deadline = sql.NullTime{Time: *q.Deadline, Valid: true}
	}

	if _, err := r.db.ExecContext(ctx, query,
		q.ID, q.Title, q.Description, q.QuestType, q.Status, q.Difficulty,
		q.XPReward, q.SkillPointsReward, monetaryReward,
		pq.Array(q.RequiredSkills), requiredRank, q.MaxParticipants,
		q.QuestCategory, q.CompanyID, q.CreatedAt, q.UpdatedAt, deadline,
	); err != nil {
		return fmt.Errorf("failed to insert quest: %w", err)
	}
	return nil
}

// InsertCompletion records a quest completion for a user.
func (r *PostgresQuestRepository) InsertCompletion(ctx context.Context, c *Completion) (err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "quest_completions", tracing.DBOperationInsert)
	defer func() { endSpan(err) }()

	if c.CompletedAt.IsZero() {
		c.CompletedAt = time.Now()
	}

	const query = `
		INSERT INTO quest_completions (quest_id, user_id, completed_at)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.ExecContext(ctx, query, c.QuestID, c.UserID, c.CompletedAt); err != nil {
		return fmt.Errorf("failed to insert completion: %w", err)
	}
	return nil
}
