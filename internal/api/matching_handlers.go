package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/adventurers-guild/questboard/internal/matching"
	"github.com/adventurers-guild/questboard/internal/middleware"
)

// MatchingHandlers provides the quest matching and recommendation endpoints.
type MatchingHandlers struct {
	service *matching.Service
}

// NewMatchingHandlers creates matching endpoint handlers.
func NewMatchingHandlers(service *matching.Service) *MatchingHandlers {
	return &MatchingHandlers{service: service}
}

// MatchingResponse is the success payload of GET /api/matching.
type MatchingResponse struct {
	Success bool                    `json:"success"`
	Matches []matching.MatchedQuest `json:"matches"`
}

// RecommendationsResponse is the success payload of GET /api/recommendations.
type RecommendationsResponse struct {
	Success         bool                        `json:"success"`
	Recommendations []matching.RecommendedQuest `json:"recommendations"`
}

// matchingErrorResponse is the error payload of the matching endpoints.
// It carries the standard error detail plus an explicit success flag so
// clients can branch on one field.
type matchingErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// writeMatchingError writes the matching endpoints' error shape, with the
// HTTP status derived from the code:
// {"success": false, "error": {"code": "...", "message": "..."}}
func writeMatchingError(w http.ResponseWriter, ctx context.Context, code, message string) {
	ctx = middleware.SetErrorCode(ctx, code)
	middleware.UpdateResponseContext(w, ctx)

	resp := matchingErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusForCode(code))
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.ErrorContext(ctx, "failed to write error response", "error", err)
	}
}

// Matching handles GET /api/matching?user_id=...&limit=...
// Returns the available quests best fitting the user, sorted by match score
// descending. A missing user_id is a client error; an unknown user is
// not-found; a non-adventurer user gets an empty list.
func (h *MatchingHandlers) Matching(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMatchingError(w, r.Context(), ErrCodeMethodNotAllowed, "Method not allowed")
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeMatchingError(w, r.Context(), ErrCodeValidation, "user_id is required")
		return
	}

	limit, err := parseCount(r, "limit")
	if err != nil {
		writeMatchingError(w, r.Context(), ErrCodeValidation, "limit must be a positive integer")
		return
	}

	matches, err := h.service.MatchQuests(r.Context(), userID, limit)
	if err != nil {
		if errors.Is(err, matching.ErrProfileNotFound) {
			writeMatchingError(w, r.Context(), ErrCodeUserNotFound, "User not found")
			return
		}
		slog.ErrorContext(r.Context(), "matching failed", "user_id", userID, "error", err)
		writeMatchingError(w, r.Context(), ErrCodeMatchingFailed, "Failed to match quests")
		return
	}

	if matches == nil {
		matches = []matching.MatchedQuest{}
	}

	writeJSON(w, r.Context(), http.StatusOK, MatchingResponse{
		Success: true,
		Matches: matches,
	})
}

// Recommendations handles GET /api/recommendations?user_id=...&num_recommendations=...
// Returns the quests most aligned with the user's completion history, sorted
// by recommendation score descending.
func (h *MatchingHandlers) Recommendations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMatchingError(w, r.Context(), ErrCodeMethodNotAllowed, "Method not allowed")
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeMatchingError(w, r.Context(), ErrCodeValidation, "user_id is required")
		return
	}

	n, err := parseCount(r, "num_recommendations")
	if err != nil {
		writeMatchingError(w, r.Context(), ErrCodeValidation, "num_recommendations must be a positive integer")
		return
	}

	recommendations, err := h.service.Recommend(r.Context(), userID, n)
	if err != nil {
		if errors.Is(err, matching.ErrProfileNotFound) {
			writeMatchingError(w, r.Context(), ErrCodeUserNotFound, "User not found")
			return
		}
		slog.ErrorContext(r.Context(), "recommendation failed", "user_id", userID, "error", err)
		writeMatchingError(w, r.Context(), ErrCodeRecommendationFailed, "Failed to recommend quests")
		return
	}

	if recommendations == nil {
		recommendations = []matching.RecommendedQuest{}
	}

	writeJSON(w, r.Context(), http.StatusOK, RecommendationsResponse{
		Success:         true,
		Recommendations: recommendations,
	})
}

// parseCount reads an optional positive integer query parameter.
// Returns 0 when absent so callers apply their default.
func parseCount(r *http.Request, param string) (int, error) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.New(param + " must be a positive integer")
	}
	return n, nil
}

// writeJSON writes a JSON success response.
func writeJSON(w http.ResponseWriter, ctx context.Context, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}
