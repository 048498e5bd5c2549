package services

import (
	"context"
	"testing"

	"taskdeck/internal/models"
)

func TestCreateListAppends(t *testing.T) {
	env := newTestEnv(t)
	a := env.newList(t, "A")
	b := env.newList(t, "B")

	if a.Position != 1 || b.Position != 2 {
		t.Errorf("Expected positions 1,2 got %d,%d", a.Position, b.Position)
	}
}

func TestDeleteListClosesGap(t *testing.T) {
	env := newTestEnv(t)
	env.newList(t, "A")
	b := env.newList(t, "B")
	env.newList(t, "C")
	env.newCard(t, b.ID, "orphan")

	if err := env.lists.Delete(context.Background(), env.admin.ID, b.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	board, err := env.boards.Get(context.Background(), env.admin.ID, env.board.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(board.Lists) != 2 {
		t.Fatalf("Expected 2 lists, got %d", len(board.Lists))
	}
	want := []string{"A", "C"}
	for i, list := range board.Lists {
		if list.Title != want[i] || list.Position != i+1 {
			t.Errorf("Position %d: expected %s got %s (pos %d)", i+1, want[i], list.Title, list.Position)
		}
	}
}

func TestUpdateListRename(t *testing.T) {
	env := newTestEnv(t)
	list := env.newList(t, "Old")

	title := "New"
	updated, err := env.lists.Update(context.Background(), env.admin.ID, list.ID, models.UpdateListRequest{Title: &title})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Title != "New" {
		t.Errorf("Expected title New, got %s", updated.Title)
	}
}
