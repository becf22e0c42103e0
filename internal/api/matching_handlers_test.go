package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adventurers-guild/questboard/internal/guild"
	"github.com/adventurers-guild/questboard/internal/matching"
	"github.com/adventurers-guild/questboard/internal/quest"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// seedMatchingHandlers builds handlers backed by in-memory repositories with
// one adventurer, one company user, and a few available quests.
func seedMatchingHandlers(t *testing.T) *MatchingHandlers {
	t.Helper()
	ctx := context.Background()

	profiles := guild.NewInMemoryProfileRepository()
	quests := quest.NewInMemoryQuestRepository()

	rate := 80.0
	if err := profiles.Insert(ctx, &guild.UserProfile{
		ID:   "adv-1",
		Role: guild.RoleAdventurer,
		Rank: "C",
		Adventurer: &guild.AdventurerProfile{
			Specialization:      "frontend",
			PrimarySkills:       []string{"React"},
			QuestCompletionRate: &rate,
		},
	}); err != nil {
		t.Fatal(err)
	}
	if err := profiles.Insert(ctx, &guild.UserProfile{
		ID:   "corp-1",
		Role: guild.RoleCompany,
	}); err != nil {
		t.Fatal(err)
	}

	for _, q := range []*quest.Quest{
		{ID: "q-react", Status: quest.StatusAvailable, Difficulty: "C", RequiredSkills: []string{"react"}, QuestCategory: "frontend", XPReward: 600},
		{ID: "q-devops", Status: quest.StatusAvailable, Difficulty: "B", RequiredSkills: []string{"kubernetes"}, QuestCategory: "devops", XPReward: 400},
	} {
		if err := quests.Insert(ctx, q); err != nil {
			t.Fatal(err)
		}
	}

	svc := matching.NewService(profiles, quests, nil, testLogger(), nil)
	return NewMatchingHandlers(svc)
}

func TestMatching_Success(t *testing.T) {
	handlers := seedMatchingHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/matching?user_id=adv-1", nil)
	w := httptest.NewRecorder()

	handlers.Matching(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var response MatchingResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if !response.Success {
		t.Error("expected success=true")
	}
	if len(response.Matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(response.Matches))
	}
	if response.Matches[0].ID != "q-react" {
		t.Errorf("expected top match q-react, got %s", response.Matches[0].ID)
	}
	if response.Matches[0].MatchScore != 97 {
		t.Errorf("expected top match score 97, got %d", response.Matches[0].MatchScore)
	}
	if response.Matches[0].MatchScore < response.Matches[1].MatchScore {
		t.Error("matches not sorted descending by score")
	}
}

func TestMatching_LimitTruncates(t *testing.T) {
	handlers := seedMatchingHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/matching?user_id=adv-1&limit=1", nil)
	w := httptest.NewRecorder()

	handlers.Matching(w, req)

	var response MatchingResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Matches) != 1 {
		t.Errorf("expected 1 match with limit=1, got %d", len(response.Matches))
	}
}

func TestMatching_MissingUserID(t *testing.T) {
	handlers := seedMatchingHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/matching", nil)
	w := httptest.NewRecorder()

	handlers.Matching(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}

	var response struct {
		Success bool        `json:"success"`
		Error   ErrorDetail `json:"error"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Success {
		t.Error("expected success=false")
	}
	if response.Error.Code != ErrCodeValidation {
		t.Errorf("expected error code %s, got %s", ErrCodeValidation, response.Error.Code)
	}
}

func TestMatching_UserNotFound(t *testing.T) {
	handlers := seedMatchingHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/matching?user_id=ghost", nil)
	w := httptest.NewRecorder()

	handlers.Matching(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}

	var response struct {
		Success bool        `json:"success"`
		Error   ErrorDetail `json:"error"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Error.Code != ErrCodeUserNotFound {
		t.Errorf("expected error code %s, got %s", ErrCodeUserNotFound, response.Error.Code)
	}
}

func TestMatching_NonAdventurerGetsEmptyList(t *testing.T) {
	handlers := seedMatchingHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/matching?user_id=corp-1", nil)
	w := httptest.NewRecorder()

	handlers.Matching(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	// The body must contain an empty array, not null.
	body := w.Body.String()
	var response MatchingResponse
	if err := json.Unmarshal([]byte(body), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !response.Success {
		t.Error("expected success=true")
	}
	if response.Matches == nil || len(response.Matches) != 0 {
		t.Errorf("expected empty matches array, got %v", response.Matches)
	}
}

func TestMatching_InvalidLimit(t *testing.T) {
	handlers := seedMatchingHandlers(t)

	for _, limit := range []string{"abc", "-1", "0"} {
		req := httptest.NewRequest(http.MethodGet, "/api/matching?user_id=adv-1&limit="+limit, nil)
		w := httptest.NewRecorder()

		handlers.Matching(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: expected status 400, got %d", limit, w.Code)
		}
	}
}

func TestMatching_MethodNotAllowed(t *testing.T) {
	handlers := seedMatchingHandlers(t)

	req := httptest.NewRequest(http.MethodPost, "/api/matching?user_id=adv-1", nil)
	w := httptest.NewRecorder()

	handlers.Matching(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", w.Code)
	}
}

func TestRecommendations_Success(t *testing.T) {
	handlers := seedMatchingHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/recommendations?user_id=adv-1", nil)
	w := httptest.NewRecorder()

	handlers.Recommendations(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var response RecommendationsResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !response.Success {
		t.Error("expected success=true")
	}
	if len(response.Recommendations) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", len(response.Recommendations))
	}
	for i := 1; i < len(response.Recommendations); i++ {
		if response.Recommendations[i].RecommendationScore > response.Recommendations[i-1].RecommendationScore {
			t.Error("recommendations not sorted descending by score")
		}
	}
}

func TestRecommendations_NumRecommendationsTruncates(t *testing.T) {
	handlers := seedMatchingHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/recommendations?user_id=adv-1&num_recommendations=1", nil)
	w := httptest.NewRecorder()

	handlers.Recommendations(w, req)

	var response RecommendationsResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Recommendations) != 1 {
		t.Errorf("expected 1 recommendation, got %d", len(response.Recommendations))
	}
}

func TestRecommendations_MissingUserID(t *testing.T) {
	handlers := seedMatchingHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/recommendations", nil)
	w := httptest.NewRecorder()

	handlers.Recommendations(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestRecommendations_UserNotFound(t *testing.T) {
	handlers := seedMatchingHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/recommendations?user_id=ghost", nil)
	w := httptest.NewRecorder()

	handlers.Recommendations(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}
