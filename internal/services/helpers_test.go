package services

import (
	"context"
	"path/filepath"
	"testing"

	"taskdeck/internal/database"
	"taskdeck/internal/models"
	"taskdeck/internal/policy"
)

// testEnv wires the service stack against a throwaway SQLite database.
type testEnv struct {
	db     *database.DB
	tiers  *TierService
	users  *UserService
	orgs   *OrgService
	boards *BoardService
	lists  *ListService
	cards  *CardService

	admin *models.User
	org   *models.Organization
	board *models.Board
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}

	tiers := NewTierService("")
	users := NewUserService(db)
	orgs := NewOrgService(db, tiers)
	boards := NewBoardService(db, orgs, tiers)
	lists := NewListService(db, boards)
	cards := NewCardService(db, orgs, boards, tiers)

	env := &testEnv{
		db:     db,
		tiers:  tiers,
		users:  users,
		orgs:   orgs,
		boards: boards,
		lists:  lists,
		cards:  cards,
	}

	ctx := context.Background()
	env.admin = env.newUser(t, "admin@example.com")

	env.org, err = orgs.Create(ctx, env.admin.ID, models.CreateOrganizationRequest{Name: "Acme"})
	if err != nil {
		t.Fatalf("Failed to create org: %v", err)
	}

	env.board, err = boards.Create(ctx, env.admin.ID, models.CreateBoardRequest{
		OrganizationID: env.org.ID,
		Title:          "Sprint",
	})
	if err != nil {
		t.Fatalf("Failed to create board: %v", err)
	}

	return env
}

func (e *testEnv) newUser(t *testing.T, email string) *models.User {
	t.Helper()
	user, err := e.users.Create(context.Background(), email, "Test User", "hash")
	if err != nil {
		t.Fatalf("Failed to create user %s: %v", email, err)
	}
	return user
}

// newMember creates a user and adds them to the seeded org with the role.
func (e *testEnv) newMember(t *testing.T, email string, role policy.Role) *models.User {
	t.Helper()
	user := e.newUser(t, email)
	_, err := e.orgs.AddMember(context.Background(), e.admin.ID, e.org.ID, models.AddOrgMemberRequest{
		UserID: user.ID,
		Role:   role,
	})
	if err != nil {
		t.Fatalf("Failed to add member %s: %v", email, err)
	}
	return user
}

func (e *testEnv) newList(t *testing.T, title string) *models.List {
	t.Helper()
	list, err := e.lists.Create(context.Background(), e.admin.ID, models.CreateListRequest{
		BoardID: e.board.ID,
		Title:   title,
	})
	if err != nil {
		t.Fatalf("Failed to create list %s: %v", title, err)
	}
	return list
}

func (e *testEnv) newCard(t *testing.T, listID, title string) *models.Card {
	t.Helper()
	card, err := e.cards.Create(context.Background(), e.admin.ID, models.CreateCardRequest{
		ListID: listID,
		Title:  title,
	})
	if err != nil {
		t.Fatalf("Failed to create card %s: %v", title, err)
	}
	return card
}

// cardOrder returns card titles in position order for a list.
func (e *testEnv) cardOrder(t *testing.T, listID string) []string {
	t.Helper()
	list, err := e.lists.Get(context.Background(), e.admin.ID, listID)
	if err != nil {
		t.Fatalf("Failed to load list: %v", err)
	}
	titles := make([]string, 0, len(list.Cards))
	for i, c := range list.Cards {
		if c.Position != i+1 {
			t.Errorf("Card %s has position %d, want %d (positions must stay dense)", c.Title, c.Position, i+1)
		}
		titles = append(titles, c.Title)
	}
	return titles
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
