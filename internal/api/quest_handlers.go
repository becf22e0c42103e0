package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/adventurers-guild/questboard/internal/quest"
)

// QuestHandlers provides read endpoints for the quest board.
type QuestHandlers struct {
	quests quest.QuestRepository
}

// NewQuestHandlers creates quest endpoint handlers.
func NewQuestHandlers(quests quest.QuestRepository) *QuestHandlers {
	return &QuestHandlers{quests: quests}
}

// QuestListResponse is the payload of GET /quests.
type QuestListResponse struct {
	Quests []*quest.Quest `json:"quests"`
	Count  int            `json:"count"`
}

// List handles GET /quests, returning currently available quests newest first.
func (h *QuestHandlers) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, r.Context(), ErrCodeMethodNotAllowed, "Method not allowed")
		return
	}

	limit, err := parseCount(r, "limit")
	if err != nil {
		WriteError(w, r.Context(), ErrCodeValidation, "limit must be a positive integer")
		return
	}

	quests, err := h.quests.ListAvailable(r.Context(), limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list quests", "error", err)
		WriteError(w, r.Context(), ErrCodeInternal, "Failed to list quests")
		return
	}

	if quests == nil {
		quests = []*quest.Quest{}
	}

	writeJSON(w, r.Context(), http.StatusOK, QuestListResponse{
		Quests: quests,
		Count:  len(quests),
	})
}

// Get handles GET /quests/{id}.
func (h *QuestHandlers) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, r.Context(), ErrCodeMethodNotAllowed, "Method not allowed")
		return
	}

	id := r.PathValue("id")
	if id == "" {
		WriteError(w, r.Context(), ErrCodeValidation, "quest id is required")
		return
	}

	q, err := h.quests.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, quest.ErrQuestNotFound) {
			WriteError(w, r.Context(), ErrCodeQuestNotFound, "Quest not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to fetch quest", "quest_id", id, "error", err)
		WriteError(w, r.Context(), ErrCodeInternal, "Failed to fetch quest")
		return
	}

	writeJSON(w, r.Context(), http.StatusOK, q)
}
