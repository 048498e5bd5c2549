package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"taskdeck/internal/models"
)

func TestTierDefaults(t *testing.T) {
	s := NewTierService("")

	if !s.PlanExists("free") || !s.PlanExists("pro") || !s.PlanExists("enterprise") {
		t.Error("Expected built-in free, pro and enterprise plans")
	}
	if s.PlanExists("platinum") {
		t.Error("Unknown plan should not exist")
	}

	free := s.Limits("free")
	if free.MaxBoardsPerOrg <= 0 {
		t.Errorf("Expected a positive board limit on free, got %d", free.MaxBoardsPerOrg)
	}

	ent := s.Limits("enterprise")
	if ent.MaxBoardsPerOrg != -1 {
		t.Errorf("Expected unlimited boards on enterprise, got %d", ent.MaxBoardsPerOrg)
	}
}

func TestTierUnknownPlanFallsBackToFree(t *testing.T) {
	s := NewTierService("")
	if got, want := s.Limits("platinum"), s.Limits("free"); got != want {
		t.Errorf("Expected free limits for unknown plan, got %+v", got)
	}
}

func TestTierReloadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans.yaml")
	content := []byte(`plans:
  free:
    maxBoardsPerOrg: 1
    maxMembersPerOrg: 2
    maxCardsPerBoard: 3
    messageRetentionDays: 7
    maxMessageLength: 100
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("Failed to write plans file: %v", err)
	}

	s := NewTierService(path)
	free := s.Limits("free")
	if free.MaxBoardsPerOrg != 1 || free.MaxCardsPerBoard != 3 || free.MessageRetentionDays != 7 {
		t.Errorf("Expected file limits, got %+v", free)
	}

	// A broken rewrite keeps the previous limits.
	if err := os.WriteFile(path, []byte("plans: {"), 0o644); err != nil {
		t.Fatalf("Failed to write plans file: %v", err)
	}
	if err := s.Reload(); err == nil {
		t.Error("Expected reload error for malformed YAML")
	}
	if got := s.Limits("free"); got.MaxBoardsPerOrg != 1 {
		t.Errorf("Expected previous limits retained, got %+v", got)
	}
}

func TestCardLimitEnforced(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans.yaml")
	content := []byte(`plans:
  free:
    maxBoardsPerOrg: 5
    maxMembersPerOrg: 10
    maxCardsPerBoard: 2
    messageRetentionDays: 7
    maxMessageLength: 100
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("Failed to write plans file: %v", err)
	}

	env := newTestEnv(t)
	env.tiers.path = path
	if err := env.tiers.Reload(); err != nil {
		t.Fatalf("Failed to load plans: %v", err)
	}

	list := env.newList(t, "Todo")
	env.newCard(t, list.ID, "A")
	env.newCard(t, list.ID, "B")

	_, err := env.cards.Create(context.Background(), env.admin.ID, models.CreateCardRequest{
		ListID: list.ID,
		Title:  "C",
	})
	if !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("Expected ErrLimitExceeded, got %v", err)
	}
}
