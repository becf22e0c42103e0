package quest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestQuest_MonetaryValue(t *testing.T) {
	v := 1500.0
	q := &Quest{MonetaryReward: &v}
	if got := q.MonetaryValue(); got != 1500 {
		t.Errorf("MonetaryValue() = %v, want 1500", got)
	}

	bare := &Quest{}
	if got := bare.MonetaryValue(); got != 0 {
		t.Errorf("MonetaryValue() on XP-only quest = %v, want 0", got)
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		limit int
		max   int
		want  int
	}{
		{0, 50, 50},
		{-5, 50, 50},
		{10, 50, 10},
		{50, 50, 50},
		{51, 50, 50},
		{3, 10, 3},
	}

	for _, tt := range tests {
		if got := clampLimit(tt.limit, tt.max); got != tt.want {
			t.Errorf("clampLimit(%d, %d) = %d, want %d", tt.limit, tt.max, got, tt.want)
		}
	}
}

func TestInMemoryQuestRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryQuestRepository()

	reward := 5000.0
	if err := repo.Insert(ctx, &Quest{
		ID:             "q-1",
		Title:          "Slay the flaky test",
		Status:         StatusAvailable,
		Difficulty:     "B",
		XPReward:       800,
		MonetaryReward: &reward,
		RequiredSkills: []string{"go", "ci"},
	}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := repo.GetByID(ctx, "q-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Title != "Slay the flaky test" || got.MonetaryValue() != 5000 {
		t.Errorf("unexpected quest: %+v", got)
	}

	_, err = repo.GetByID(ctx, "ghost")
	if !errors.Is(err, ErrQuestNotFound) {
		t.Errorf("expected ErrQuestNotFound, got %v", err)
	}
}

func TestInMemoryQuestRepository_ListAvailable_FiltersByStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryQuestRepository()

	for _, q := range []*Quest{
		{ID: "q-avail-1", Status: StatusAvailable},
		{ID: "q-progress", Status: StatusInProgress},
		{ID: "q-avail-2", Status: StatusAvailable},
		{ID: "q-done", Status: StatusCompleted},
		{ID: "q-cancelled", Status: StatusCancelled},
	} {
		if err := repo.Insert(ctx, q); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	quests, err := repo.ListAvailable(ctx, 0)
	if err != nil {
		t.Fatalf("ListAvailable failed: %v", err)
	}
	if len(quests) != 2 {
		t.Fatalf("expected 2 available quests, got %d", len(quests))
	}
	for _, q := range quests {
		if q.Status != StatusAvailable {
			t.Errorf("quest %s has status %s, want available", q.ID, q.Status)
		}
	}
}

func TestInMemoryQuestRepository_ListAvailable_ClampsLimit(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryQuestRepository()

	for i := 0; i < MaxAvailableQuests+10; i++ {
		if err := repo.Insert(ctx, &Quest{
			ID:     fmt.Sprintf("q-%03d", i),
			Status: StatusAvailable,
		}); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	// Zero and oversized limits both clamp to the store cap.
	for _, limit := range []int{0, -1, MaxAvailableQuests + 100} {
		quests, err := repo.ListAvailable(ctx, limit)
		if err != nil {
			t.Fatalf("ListAvailable failed: %v", err)
		}
		if len(quests) != MaxAvailableQuests {
			t.Errorf("limit=%d: expected %d quests, got %d", limit, MaxAvailableQuests, len(quests))
		}
	}

	quests, err := repo.ListAvailable(ctx, 5)
	if err != nil {
		t.Fatalf("ListAvailable failed: %v", err)
	}
	if len(quests) != 5 {
		t.Errorf("expected 5 quests, got %d", len(quests))
	}
}

func TestInMemoryQuestRepository_ListCompletions_NewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryQuestRepository()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if err := repo.InsertCompletion(ctx, &Completion{
			QuestID:     fmt.Sprintf("q-%d", i),
			UserID:      "adv-1",
			CompletedAt: base.Add(time.Duration(i) * time.Hour),
		}); err != nil {
			t.Fatalf("InsertCompletion failed: %v", err)
		}
	}

	completions, err := repo.ListCompletions(ctx, "adv-1", 0)
	if err != nil {
		t.Fatalf("ListCompletions failed: %v", err)
	}
	if len(completions) != 3 {
		t.Fatalf("expected 3 completions, got %d", len(completions))
	}
	// Last inserted comes back first.
	if completions[0].QuestID != "q-2" || completions[2].QuestID != "q-0" {
		t.Errorf("completions not newest first: %s, %s, %s",
			completions[0].QuestID, completions[1].QuestID, completions[2].QuestID)
	}
}

func TestInMemoryQuestRepository_ListCompletions_ClampsLimit(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryQuestRepository()

	for i := 0; i < MaxHistoryRecords+5; i++ {
		if err := repo.InsertCompletion(ctx, &Completion{
			QuestID: fmt.Sprintf("q-%02d", i),
			UserID:  "adv-1",
		}); err != nil {
			t.Fatalf("InsertCompletion failed: %v", err)
		}
	}

	completions, err := repo.ListCompletions(ctx, "adv-1", 0)
	if err != nil {
		t.Fatalf("ListCompletions failed: %v", err)
	}
	if len(completions) != MaxHistoryRecords {
		t.Errorf("expected %d completions, got %d", MaxHistoryRecords, len(completions))
	}
}

func TestInMemoryQuestRepository_InsertCompletion_EnrichesFromQuest(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryQuestRepository()

	if err := repo.Insert(ctx, &Quest{
		ID:             "q-react",
		Status:         StatusCompleted,
		QuestCategory:  "frontend",
		RequiredSkills: []string{"react", "css"},
	}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if err := repo.InsertCompletion(ctx, &Completion{
		QuestID: "q-react",
		UserID:  "adv-1",
	}); err != nil {
		t.Fatalf("InsertCompletion failed: %v", err)
	}

	completions, err := repo.ListCompletions(ctx, "adv-1", 1)
	if err != nil {
		t.Fatalf("ListCompletions failed: %v", err)
	}
	if len(completions) != 1 {
		t.Fatalf("expected 1 completion, got %d", len(completions))
	}
	c := completions[0]
	if c.QuestCategory != "frontend" {
		t.Errorf("expected category frontend, got %s", c.QuestCategory)
	}
	if len(c.RequiredSkills) != 2 || c.RequiredSkills[0] != "react" {
		t.Errorf("expected required skills joined in, got %v", c.RequiredSkills)
	}
	if c.CompletedAt.IsZero() {
		t.Error("expected CompletedAt to default to insertion time")
	}
}

func TestInMemoryQuestRepository_ListCompletions_UnknownUser(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryQuestRepository()

	completions, err := repo.ListCompletions(ctx, "nobody", 10)
	if err != nil {
		t.Fatalf("ListCompletions failed: %v", err)
	}
	if len(completions) != 0 {
		t.Errorf("expected no completions, got %d", len(completions))
	}
}

func TestInMemoryQuestRepository_DeepCopy(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryQuestRepository()

	reward := 100.0
	if err := repo.Insert(ctx, &Quest{
		ID:             "q-1",
		Status:         StatusAvailable,
		MonetaryReward: &reward,
		RequiredSkills: []string{"go"},
	}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	first, err := repo.GetByID(ctx, "q-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	first.RequiredSkills[0] = "mutated"
	*first.MonetaryReward = 999

	second, err := repo.GetByID(ctx, "q-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if second.RequiredSkills[0] != "go" {
		t.Errorf("stored skills mutated: %v", second.RequiredSkills)
	}
	if *second.MonetaryReward != 100 {
		t.Errorf("stored monetary reward mutated: %v", *second.MonetaryReward)
	}
}
