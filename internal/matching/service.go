package matching

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/adventurers-guild/questboard/internal/guild"
	"github.com/adventurers-guild/questboard/internal/quest"
	"github.com/adventurers-guild/questboard/internal/tracing"
)

// Defaults for result counts when the caller does not specify one.
const (
	DefaultMatchLimit      = 10
	DefaultRecommendations = 5
)

// ErrProfileNotFound mirrors the profile store's sentinel so handlers can
// distinguish a missing user from a store failure.
var ErrProfileNotFound = guild.ErrProfileNotFound

// Service ties the scoring pipelines to the profile and quest stores. Each
// call fetches fresh snapshots and scores them in a single synchronous pass;
// nothing is cached between invocations.
type Service struct {
	profiles    guild.ProfileRepository
	quests      quest.QuestRepository
	matcher     *Matcher
	recommender *Recommender
	logger      *slog.Logger
	metrics     *Metrics
}

// NewService creates a scoring service. The metrics argument may be nil, in
// which case no metrics are recorded.
func NewService(profiles guild.ProfileRepository, quests quest.QuestRepository, weights *Weights, logger *slog.Logger, metrics *Metrics) *Service {
	if weights == nil {
		weights = DefaultWeights()
	}
	return &Service{
		profiles:    profiles,
		quests:      quests,
		matcher:     NewMatcher(weights.Match),
		recommender: NewRecommender(weights.Recommend),
		logger:      logger,
		metrics:     metrics,
	}
}

// MatchQuests returns the available quests best fitting the user, sorted by
// match score. Non-adventurer profiles get an empty list; a missing user
// returns ErrProfileNotFound.
func (s *Service) MatchQuests(ctx context.Context, userID string, limit int) (_ []MatchedQuest, err error) {
	ctx, endSpan := tracing.StartSpan(ctx, "compute_match_scores")
	defer func() { endSpan(err) }()

	start := time.Now()
	if limit <= 0 {
		limit = DefaultMatchLimit
	}

	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, guild.ErrProfileNotFound) {
			s.observe("match", "not_found", start, 0)
			return nil, ErrProfileNotFound
		}
		s.observe("match", "error", start, 0)
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}

	if !profile.IsAdventurer() {
		s.logger.Debug("matching skipped for non-adventurer",
			"user_id", userID,
			"role", profile.Role)
		s.observe("match", "ok", start, 0)
		return []MatchedQuest{}, nil
	}

	candidates, err := s.quests.ListAvailable(ctx, quest.MaxAvailableQuests)
	if err != nil {
		s.observe("match", "error", start, 0)
		return nil, fmt.Errorf("failed to fetch available quests: %w", err)
	}

	matched := s.matcher.RankQuests(profile, candidates, limit)
	tracing.SetAttributes(ctx,
		attribute.Int("matching.candidates", len(candidates)),
		attribute.Int("matching.returned", len(matched)))
	if s.metrics != nil {
		for _, m := range matched {
			s.metrics.MatchScores.Observe(float64(m.MatchScore))
		}
	}

	s.logger.Info("matched quests",
		"user_id", userID,
		"candidates", len(candidates),
		"returned", len(matched))
	s.observe("match", "ok", start, len(candidates))
	return matched, nil
}

// Recommend returns the quests most aligned with the user's completion
// history, sorted by preference score. Unlike MatchQuests there is no role
// check; any profile with history can receive recommendations.
func (s *Service) Recommend(ctx context.Context, userID string, n int) (_ []RecommendedQuest, err error) {
	ctx, endSpan := tracing.StartSpan(ctx, "compute_recommendations")
	defer func() { endSpan(err) }()

	start := time.Now()
	if n <= 0 {
		n = DefaultRecommendations
	}

	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, guild.ErrProfileNotFound) {
			s.observe("recommend", "not_found", start, 0)
			return nil, ErrProfileNotFound
		}
		s.observe("recommend", "error", start, 0)
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}

	history, err := s.quests.ListCompletions(ctx, userID, quest.MaxHistoryRecords)
	if err != nil {
		s.observe("recommend", "error", start, 0)
		return nil, fmt.Errorf("failed to fetch completion history: %w", err)
	}

	candidates, err := s.quests.ListAvailable(ctx, quest.MaxAvailableQuests)
	if err != nil {
		s.observe("recommend", "error", start, 0)
		return nil, fmt.Errorf("failed to fetch available quests: %w", err)
	}

	recommended := s.recommender.Recommend(profile, history, candidates, n)
	tracing.SetAttributes(ctx,
		attribute.Int("matching.history", len(history)),
		attribute.Int("matching.candidates", len(candidates)),
		attribute.Int("matching.returned", len(recommended)))

	s.logger.Info("recommended quests",
		"user_id", userID,
		"history", len(history),
		"candidates", len(candidates),
		"returned", len(recommended))
	s.observe("recommend", "ok", start, len(candidates))
	return recommended, nil
}

func (s *Service) observe(pipeline, status string, start time.Time, candidates int) {
	if s.metrics == nil {
		return
	}
	s.metrics.RequestsTotal.WithLabelValues(pipeline, status).Inc()
	s.metrics.RequestDuration.WithLabelValues(pipeline).Observe(time.Since(start).Seconds())
	if status == "ok" {
		s.metrics.CandidatesScored.WithLabelValues(pipeline).Observe(float64(candidates))
	}
}
