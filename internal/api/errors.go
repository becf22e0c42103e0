// Package api provides HTTP API handlers and standardized error handling
// for the quest board server.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/adventurers-guild/questboard/internal/middleware"
)

// Error codes used throughout the API. Each maps to a fixed HTTP status via
// statusForCode, so handlers pick a code and the status follows.
const (
	// ErrCodeValidation indicates input validation failure.
	ErrCodeValidation = "validation_error"

	// ErrCodeAuthFailed indicates authentication failure.
	ErrCodeAuthFailed = "auth_failed"

	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound = "not_found"

	// ErrCodeRateLimited indicates rate limit exceeded. Matches the code
	// the rate limiting middleware records for its 429 responses.
	ErrCodeRateLimited = "rate_limit_exceeded"

	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal = "internal_error"

	// ErrCodeMethodNotAllowed indicates the route exists but not for this verb.
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// ErrCodeUserNotFound indicates the user ID did not resolve to a profile.
	ErrCodeUserNotFound = "user_not_found"

	// ErrCodeQuestNotFound indicates the quest was not found.
	ErrCodeQuestNotFound = "quest_not_found"

	// ErrCodeMatchingFailed indicates the matching pipeline failed on a store error.
	ErrCodeMatchingFailed = "matching_failed"

	// ErrCodeRecommendationFailed indicates the recommendation pipeline failed on a store error.
	ErrCodeRecommendationFailed = "recommendation_failed"
)

// statusForCode maps an API error code to its HTTP status. Unknown codes are
// treated as internal errors.
func statusForCode(code string) int {
	switch code {
	case ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeAuthFailed:
		return http.StatusUnauthorized
	case ErrCodeNotFound, ErrCodeUserNotFound, ErrCodeQuestNotFound:
		return http.StatusNotFound
	case ErrCodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse represents the standard error response format.
// All API errors return JSON in this structure: {"error": {"code": "...", "message": "..."}}
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error code and human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError writes the standard JSON error body for code, with the HTTP
// status derived from the code. The code is also recorded on the request
// context so the logging middleware includes it on 4xx/5xx lines.
//
//	api.WriteError(w, r.Context(), api.ErrCodeQuestNotFound, "Quest not found")
func WriteError(w http.ResponseWriter, ctx context.Context, code, message string) {
	ctx = middleware.SetErrorCode(ctx, code)
	middleware.UpdateResponseContext(w, ctx)

	data, err := json.Marshal(ErrorResponse{
		Error: ErrorDetail{Code: code, Message: message},
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal error response", "error", err)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Internal server error"))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusForCode(code))
	if _, err := w.Write(data); err != nil {
		slog.ErrorContext(ctx, "failed to write error response", "error", err)
	}
}
