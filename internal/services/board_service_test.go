package services

import (
	"context"
	"errors"
	"testing"

	"taskdeck/internal/models"
	"taskdeck/internal/policy"
)

func TestReorderLists(t *testing.T) {
	env := newTestEnv(t)
	a := env.newList(t, "A")
	b := env.newList(t, "B")
	c := env.newList(t, "C")

	err := env.boards.ReorderLists(context.Background(), env.admin.ID, env.board.ID, models.ReorderListsRequest{
		ListIDs: []string{c.ID, a.ID, b.ID},
	})
	if err != nil {
		t.Fatalf("ReorderLists failed: %v", err)
	}

	board, err := env.boards.Get(context.Background(), env.admin.ID, env.board.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	want := []string{"C", "A", "B"}
	for i, list := range board.Lists {
		if list.Title != want[i] {
			t.Errorf("Position %d: expected %s got %s", i+1, want[i], list.Title)
		}
		if list.Position != i+1 {
			t.Errorf("List %s has position %d, want %d", list.Title, list.Position, i+1)
		}
	}
}

func TestReorderListsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	a := env.newList(t, "A")
	b := env.newList(t, "B")
	c := env.newList(t, "C")

	order := []string{b.ID, c.ID, a.ID}

	snapshot := func() map[string]int {
		board, err := env.boards.Get(context.Background(), env.admin.ID, env.board.ID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		positions := make(map[string]int, len(board.Lists))
		for _, list := range board.Lists {
			positions[list.ID] = list.Position
		}
		return positions
	}

	if err := env.boards.ReorderLists(context.Background(), env.admin.ID, env.board.ID, models.ReorderListsRequest{ListIDs: order}); err != nil {
		t.Fatalf("First reorder failed: %v", err)
	}
	first := snapshot()

	// Applying the same order again must assign the exact same positions.
	if err := env.boards.ReorderLists(context.Background(), env.admin.ID, env.board.ID, models.ReorderListsRequest{ListIDs: order}); err != nil {
		t.Fatalf("Second reorder failed: %v", err)
	}
	second := snapshot()

	if len(first) != len(second) {
		t.Fatalf("List count changed across reorders: %v vs %v", first, second)
	}
	for id, pos := range first {
		if second[id] != pos {
			t.Errorf("List %s moved from %d to %d on an identical reorder", id, pos, second[id])
		}
	}
	for i, id := range order {
		if first[id] != i+1 {
			t.Errorf("List %s has position %d, want %d", id, first[id], i+1)
		}
	}
}

func TestReorderListsRejectsBadPermutation(t *testing.T) {
	env := newTestEnv(t)
	a := env.newList(t, "A")
	b := env.newList(t, "B")
	env.newList(t, "C")

	cases := map[string][]string{
		"missing list": {a.ID, b.ID},
		"duplicate":    {a.ID, a.ID, b.ID},
		"foreign list": {a.ID, b.ID, "not-a-list"},
	}
	for name, ids := range cases {
		err := env.boards.ReorderLists(context.Background(), env.admin.ID, env.board.ID, models.ReorderListsRequest{ListIDs: ids})
		if !errors.Is(err, ErrInvalidOperation) {
			t.Errorf("%s: expected ErrInvalidOperation, got %v", name, err)
		}
	}
}

func TestListVisibilityForClient(t *testing.T) {
	env := newTestEnv(t)

	hidden, err := env.boards.Create(context.Background(), env.admin.ID, models.CreateBoardRequest{
		OrganizationID: env.org.ID,
		Title:          "Internal",
	})
	if err != nil {
		t.Fatalf("Failed to create board: %v", err)
	}

	client := env.newMember(t, "client@example.com", policy.RoleClient)
	if err := env.boards.ShareWithClient(context.Background(), env.admin.ID, env.board.ID, client.ID); err != nil {
		t.Fatalf("Failed to share board: %v", err)
	}

	visible, err := env.boards.ListForOrg(context.Background(), client.ID, env.org.ID)
	if err != nil {
		t.Fatalf("ListForOrg failed: %v", err)
	}
	if len(visible) != 1 || visible[0].ID != env.board.ID {
		t.Errorf("Expected client to see only the shared board, got %d boards", len(visible))
	}

	if _, err := env.boards.Get(context.Background(), client.ID, hidden.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("Expected ErrForbidden for unshared board, got %v", err)
	}

	// Revoking removes access entirely.
	if err := env.boards.RevokeClient(context.Background(), env.admin.ID, env.board.ID, client.ID); err != nil {
		t.Fatalf("RevokeClient failed: %v", err)
	}
	if _, err := env.boards.Get(context.Background(), client.ID, env.board.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("Expected ErrForbidden after revoke, got %v", err)
	}
}

func TestShareWithClientRequiresClientRole(t *testing.T) {
	env := newTestEnv(t)
	employee := env.newMember(t, "emp@example.com", policy.RoleEmployee)

	err := env.boards.ShareWithClient(context.Background(), env.admin.ID, env.board.ID, employee.ID)
	if !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("Expected ErrInvalidOperation sharing with non-client, got %v", err)
	}
}

func TestDeleteBoardForbiddenForEmployee(t *testing.T) {
	env := newTestEnv(t)
	employee := env.newMember(t, "emp@example.com", policy.RoleEmployee)

	if err := env.boards.Delete(context.Background(), employee.ID, env.board.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("Expected ErrForbidden for employee board delete, got %v", err)
	}
	if err := env.boards.Delete(context.Background(), env.admin.ID, env.board.ID); err != nil {
		t.Errorf("Admin board delete failed: %v", err)
	}
}
