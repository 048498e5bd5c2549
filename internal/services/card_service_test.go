package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"taskdeck/internal/models"
	"taskdeck/internal/policy"
)

func TestCreateCardAppends(t *testing.T) {
	env := newTestEnv(t)
	list := env.newList(t, "Todo")

	a := env.newCard(t, list.ID, "A")
	b := env.newCard(t, list.ID, "B")
	c := env.newCard(t, list.ID, "C")

	if a.Position != 1 || b.Position != 2 || c.Position != 3 {
		t.Errorf("Expected positions 1,2,3 got %d,%d,%d", a.Position, b.Position, c.Position)
	}
}

func TestMoveCardSameListDown(t *testing.T) {
	env := newTestEnv(t)
	list := env.newList(t, "Todo")
	a := env.newCard(t, list.ID, "A")
	env.newCard(t, list.ID, "B")
	env.newCard(t, list.ID, "C")

	result, err := env.cards.Move(context.Background(), env.admin.ID, a.ID, models.MoveCardRequest{
		TargetListID: list.ID,
		NewOrder:     3,
	})
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if result.Card.Position != 3 {
		t.Errorf("Expected moved card at position 3, got %d", result.Card.Position)
	}
	if result.FromListID != list.ID || result.ToListID != list.ID {
		t.Errorf("Expected same-list move, got from=%s to=%s", result.FromListID, result.ToListID)
	}

	if got := env.cardOrder(t, list.ID); !equalStrings(got, []string{"B", "C", "A"}) {
		t.Errorf("Expected order B,C,A got %v", got)
	}
}

func TestMoveCardSameListUp(t *testing.T) {
	env := newTestEnv(t)
	list := env.newList(t, "Todo")
	env.newCard(t, list.ID, "A")
	env.newCard(t, list.ID, "B")
	c := env.newCard(t, list.ID, "C")

	_, err := env.cards.Move(context.Background(), env.admin.ID, c.ID, models.MoveCardRequest{
		TargetListID: list.ID,
		NewOrder:     1,
	})
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}

	if got := env.cardOrder(t, list.ID); !equalStrings(got, []string{"C", "A", "B"}) {
		t.Errorf("Expected order C,A,B got %v", got)
	}
}

func TestMoveCardSameListNoop(t *testing.T) {
	env := newTestEnv(t)
	list := env.newList(t, "Todo")
	env.newCard(t, list.ID, "A")
	b := env.newCard(t, list.ID, "B")
	env.newCard(t, list.ID, "C")

	result, err := env.cards.Move(context.Background(), env.admin.ID, b.ID, models.MoveCardRequest{
		TargetListID: list.ID,
		NewOrder:     2,
	})
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if result.Card.Position != 2 {
		t.Errorf("Expected position 2, got %d", result.Card.Position)
	}

	if got := env.cardOrder(t, list.ID); !equalStrings(got, []string{"A", "B", "C"}) {
		t.Errorf("Expected order unchanged A,B,C got %v", got)
	}
}

func TestMoveCardCrossList(t *testing.T) {
	env := newTestEnv(t)
	src := env.newList(t, "Todo")
	dst := env.newList(t, "Doing")

	a := env.newCard(t, src.ID, "A")
	env.newCard(t, src.ID, "B")
	env.newCard(t, src.ID, "C")
	env.newCard(t, dst.ID, "X")
	env.newCard(t, dst.ID, "Y")

	result, err := env.cards.Move(context.Background(), env.admin.ID, a.ID, models.MoveCardRequest{
		TargetListID: dst.ID,
		NewOrder:     2,
	})
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if result.FromListID != src.ID || result.ToListID != dst.ID {
		t.Errorf("Expected cross-list move from %s to %s, got from=%s to=%s", src.ID, dst.ID, result.FromListID, result.ToListID)
	}

	if got := env.cardOrder(t, src.ID); !equalStrings(got, []string{"B", "C"}) {
		t.Errorf("Expected source order B,C got %v", got)
	}
	if got := env.cardOrder(t, dst.ID); !equalStrings(got, []string{"X", "A", "Y"}) {
		t.Errorf("Expected dest order X,A,Y got %v", got)
	}
}

func TestMoveCardClampsTarget(t *testing.T) {
	env := newTestEnv(t)
	src := env.newList(t, "Todo")
	dst := env.newList(t, "Doing")

	a := env.newCard(t, src.ID, "A")
	env.newCard(t, src.ID, "B")
	env.newCard(t, dst.ID, "X")

	// Same-list: an out-of-range target clamps to the last slot.
	result, err := env.cards.Move(context.Background(), env.admin.ID, a.ID, models.MoveCardRequest{
		TargetListID: src.ID,
		NewOrder:     99,
	})
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if result.Card.Position != 2 {
		t.Errorf("Expected clamp to position 2, got %d", result.Card.Position)
	}

	// Cross-list: clamps to count+1 (append), and 0 clamps to 1.
	result, err = env.cards.Move(context.Background(), env.admin.ID, a.ID, models.MoveCardRequest{
		TargetListID: dst.ID,
		NewOrder:     99,
	})
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if result.Card.Position != 2 {
		t.Errorf("Expected append at position 2, got %d", result.Card.Position)
	}

	result, err = env.cards.Move(context.Background(), env.admin.ID, a.ID, models.MoveCardRequest{
		TargetListID: src.ID,
		NewOrder:     0,
	})
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if result.Card.Position != 1 {
		t.Errorf("Expected clamp to position 1, got %d", result.Card.Position)
	}
}

func TestMoveCardRejectsCrossBoard(t *testing.T) {
	env := newTestEnv(t)
	list := env.newList(t, "Todo")
	a := env.newCard(t, list.ID, "A")

	other, err := env.boards.Create(context.Background(), env.admin.ID, models.CreateBoardRequest{
		OrganizationID: env.org.ID,
		Title:          "Other Board",
	})
	if err != nil {
		t.Fatalf("Failed to create board: %v", err)
	}
	otherList, err := env.lists.Create(context.Background(), env.admin.ID, models.CreateListRequest{
		BoardID: other.ID,
		Title:   "Elsewhere",
	})
	if err != nil {
		t.Fatalf("Failed to create list: %v", err)
	}

	_, err = env.cards.Move(context.Background(), env.admin.ID, a.ID, models.MoveCardRequest{
		TargetListID: otherList.ID,
		NewOrder:     1,
	})
	if !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("Expected ErrInvalidOperation for cross-board move, got %v", err)
	}
}

func TestMoveCardForbiddenForClient(t *testing.T) {
	env := newTestEnv(t)
	list := env.newList(t, "Todo")
	a := env.newCard(t, list.ID, "A")

	client := env.newMember(t, "client@example.com", policy.RoleClient)
	if err := env.boards.ShareWithClient(context.Background(), env.admin.ID, env.board.ID, client.ID); err != nil {
		t.Fatalf("Failed to share board: %v", err)
	}

	// Client can see the board but never move cards.
	if _, err := env.boards.Get(context.Background(), client.ID, env.board.ID); err != nil {
		t.Fatalf("Client should see shared board: %v", err)
	}
	_, err := env.cards.Move(context.Background(), client.ID, a.ID, models.MoveCardRequest{
		TargetListID: list.ID,
		NewOrder:     1,
	})
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("Expected ErrForbidden for client move, got %v", err)
	}
}

func TestDeleteCardClosesGap(t *testing.T) {
	env := newTestEnv(t)
	list := env.newList(t, "Todo")
	env.newCard(t, list.ID, "A")
	b := env.newCard(t, list.ID, "B")
	env.newCard(t, list.ID, "C")

	if err := env.cards.Delete(context.Background(), env.admin.ID, b.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if got := env.cardOrder(t, list.ID); !equalStrings(got, []string{"A", "C"}) {
		t.Errorf("Expected order A,C got %v", got)
	}
}

func TestCardComments(t *testing.T) {
	env := newTestEnv(t)
	list := env.newList(t, "Todo")
	card := env.newCard(t, list.ID, "A")

	client := env.newMember(t, "client@example.com", policy.RoleClient)
	if err := env.boards.ShareWithClient(context.Background(), env.admin.ID, env.board.ID, client.ID); err != nil {
		t.Fatalf("Failed to share board: %v", err)
	}

	comment, err := env.cards.AddComment(context.Background(), client.ID, card.ID, "Looks good")
	if err != nil {
		t.Fatalf("Client comment failed: %v", err)
	}

	// The author may delete their own comment; an unrelated employee may not.
	employee := env.newMember(t, "emp@example.com", policy.RoleEmployee)
	if err := env.cards.DeleteComment(context.Background(), employee.ID, card.ID, comment.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("Expected ErrForbidden for non-author delete, got %v", err)
	}
	if err := env.cards.DeleteComment(context.Background(), client.ID, card.ID, comment.ID); err != nil {
		t.Errorf("Author delete failed: %v", err)
	}
}

func TestCreateCardWithAssignees(t *testing.T) {
	env := newTestEnv(t)
	dev := env.newMember(t, "dev@example.com", policy.RoleEmployee)
	list := env.newList(t, "Todo")

	// Run the create on its own goroutine with a watchdog: the assignee role
	// lookup must not touch the pooled connection while the insert
	// transaction holds it, or this call never returns on SQLite.
	type result struct {
		card *models.Card
		err  error
	}
	done := make(chan result, 1)
	go func() {
		card, err := env.cards.Create(context.Background(), env.admin.ID, models.CreateCardRequest{
			ListID:    list.ID,
			Title:     "Pair task",
			MemberIDs: []string{dev.ID},
		})
		done <- result{card, err}
	}()

	var res result
	select {
	case res = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Create with assignees did not return")
	}
	if res.err != nil {
		t.Fatalf("Create with assignees failed: %v", res.err)
	}

	got, err := env.cards.Get(context.Background(), env.admin.ID, res.card.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got.Members) != 1 || got.Members[0].ID != dev.ID {
		t.Errorf("Expected assignee %s on the card, got %+v", dev.ID, got.Members)
	}
}

func TestCreateCardRejectsOutsideAssignee(t *testing.T) {
	env := newTestEnv(t)
	outsider := env.newUser(t, "outsider@example.com")
	list := env.newList(t, "Todo")

	_, err := env.cards.Create(context.Background(), env.admin.ID, models.CreateCardRequest{
		ListID:    list.ID,
		Title:     "A",
		MemberIDs: []string{outsider.ID},
	})
	if !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("Expected ErrInvalidOperation for a non-member assignee, got %v", err)
	}

	// The rejected create must leave nothing behind.
	if got := env.cardOrder(t, list.ID); len(got) != 0 {
		t.Errorf("Expected no cards after rejected create, got %v", got)
	}
}

func TestConcurrentMovesKeepPositionsUnique(t *testing.T) {
	env := newTestEnv(t)
	list := env.newList(t, "Todo")
	titles := []string{"A", "B", "C", "D", "E"}
	byTitle := make(map[string]*models.Card, len(titles))
	for _, title := range titles {
		byTitle[title] = env.newCard(t, list.ID, title)
	}

	// Two simultaneous moves on the same sibling set. Either both commit or
	// one surfaces a retryable conflict; the position set must come out
	// dense and duplicate-free in every interleaving.
	moves := []struct {
		cardID string
		target int
	}{
		{byTitle["A"].ID, 4},
		{byTitle["E"].ID, 1},
	}
	errs := make([]error, len(moves))

	var wg sync.WaitGroup
	for i, mv := range moves {
		wg.Add(1)
		go func(i int, cardID string, target int) {
			defer wg.Done()
			_, errs[i] = env.cards.Move(context.Background(), env.admin.ID, cardID, models.MoveCardRequest{
				TargetListID: list.ID,
				NewOrder:     target,
			})
		}(i, mv.cardID, mv.target)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil && !errors.Is(err, ErrConcurrencyConflict) {
			t.Fatalf("Move %d failed with a non-retryable error: %v", i, err)
		}
	}

	// cardOrder asserts dense 1..n positions; on top of that every card must
	// still be present exactly once.
	order := env.cardOrder(t, list.ID)
	if len(order) != len(titles) {
		t.Fatalf("Expected %d cards, got %v", len(titles), order)
	}
	seen := make(map[string]bool, len(order))
	for _, title := range order {
		if seen[title] {
			t.Fatalf("Card %s appears twice in %v", title, order)
		}
		seen[title] = true
	}
}
