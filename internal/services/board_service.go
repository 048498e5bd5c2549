package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"taskdeck/internal/database"
	"taskdeck/internal/models"
	"taskdeck/internal/ordering"
	"taskdeck/internal/policy"

	"github.com/google/uuid"
)

// BoardService manages boards, board membership and list ordering.
type BoardService struct {
	db    *database.DB
	orgs  *OrgService
	tiers *TierService
}

// NewBoardService creates a new board service
func NewBoardService(db *database.DB, orgs *OrgService, tiers *TierService) *BoardService {
	return &BoardService{db: db, orgs: orgs, tiers: tiers}
}

// OrgForBoard resolves the owning organization of a board.
func (s *BoardService) OrgForBoard(ctx context.Context, boardID string) (string, error) {
	var orgID string
	err := s.db.QueryRowContext(ctx, `SELECT org_id FROM boards WHERE id = ?`, boardID).Scan(&orgID)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: board", ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve board: %w", err)
	}
	return orgID, nil
}

// Authorize checks that the user may perform the action on the board. CLIENT
// role members additionally need a CLIENT_VIEW grant on this specific board.
func (s *BoardService) Authorize(ctx context.Context, boardID, userID string, action policy.Action) (string, error) {
	orgID, err := s.OrgForBoard(ctx, boardID)
	if err != nil {
		return "", err
	}

	role, err := s.orgs.MemberRole(ctx, orgID, userID)
	if err != nil {
		return "", err
	}
	if !policy.CanPerform(role, action) {
		return "", fmt.Errorf("%w: role %s may not %s", ErrForbidden, role, action)
	}

	if role == policy.RoleClient {
		var count int
		err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM board_members WHERE board_id = ? AND user_id = ? AND role = ?`,
			boardID, userID, models.BoardRoleClientView).Scan(&count)
		if err != nil {
			return "", fmt.Errorf("failed to check board grant: %w", err)
		}
		if count == 0 {
			return "", fmt.Errorf("%w: board not shared with this client", ErrForbidden)
		}
	}

	return orgID, nil
}

// Create creates a board. Plan board limits apply.
func (s *BoardService) Create(ctx context.Context, userID string, req models.CreateBoardRequest) (*models.Board, error) {
	if req.Title == "" || req.OrganizationID == "" {
		return nil, fmt.Errorf("%w: organizationId and title are required", ErrInvalidOperation)
	}
	if err := s.orgs.Authorize(ctx, req.OrganizationID, userID, policy.ActionCreateBoard); err != nil {
		return nil, err
	}

	if s.tiers != nil {
		org, err := s.orgs.get(ctx, req.OrganizationID)
		if err != nil {
			return nil, err
		}
		var count int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM boards WHERE org_id = ?`, req.OrganizationID).Scan(&count); err != nil {
			return nil, fmt.Errorf("failed to count boards: %w", err)
		}
		limits := s.tiers.Limits(org.Plan)
		if limits.MaxBoardsPerOrg >= 0 && count >= limits.MaxBoardsPerOrg {
			return nil, fmt.Errorf("%w: board limit for plan %s reached", ErrLimitExceeded, org.Plan)
		}
	}

	now := time.Now().UTC()
	board := &models.Board{
		ID:        uuid.NewString(),
		OrgID:     req.OrganizationID,
		Title:     req.Title,
		CreatedBy: userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO boards (id, org_id, title, created_by, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		board.ID, board.OrgID, board.Title, board.CreatedBy, board.CreatedAt, board.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create board: %w", err)
	}

	return board, nil
}

// ListForOrg returns the boards visible to the user in an organization.
// ADMIN and EMPLOYEE see all; CLIENT only boards shared via CLIENT_VIEW.
func (s *BoardService) ListForOrg(ctx context.Context, userID, orgID string) ([]models.Board, error) {
	role, err := s.orgs.MemberRole(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}

	query := `SELECT id, org_id, title, created_by, created_at, updated_at FROM boards WHERE org_id = ? ORDER BY created_at`
	args := []interface{}{orgID}
	if role == policy.RoleClient {
		query = `
			SELECT b.id, b.org_id, b.title, b.created_by, b.created_at, b.updated_at
			FROM boards b
			JOIN board_members bm ON bm.board_id = b.id
			WHERE b.org_id = ? AND bm.user_id = ? AND bm.role = ?
			ORDER BY b.created_at`
		args = []interface{}{orgID, userID, models.BoardRoleClientView}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	defer rows.Close()

	var boards []models.Board
	for rows.Next() {
		var b models.Board
		if err := rows.Scan(&b.ID, &b.OrgID, &b.Title, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		boards = append(boards, b)
	}
	return boards, rows.Err()
}

// Get returns a board with its lists and cards, lists and cards both ordered
// by ascending position.
func (s *BoardService) Get(ctx context.Context, userID, boardID string) (*models.Board, error) {
	if _, err := s.Authorize(ctx, boardID, userID, policy.ActionViewBoard); err != nil {
		return nil, err
	}

	var board models.Board
	err := s.db.QueryRowContext(ctx,
		`SELECT id, org_id, title, created_by, created_at, updated_at FROM boards WHERE id = ?`, boardID).
		Scan(&board.ID, &board.OrgID, &board.Title, &board.CreatedBy, &board.CreatedAt, &board.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: board", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get board: %w", err)
	}

	lists, err := s.listsForBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	board.Lists = lists

	return &board, nil
}

func (s *BoardService) listsForBoard(ctx context.Context, boardID string) ([]models.List, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, board_id, title, position, created_at FROM lists WHERE board_id = ? ORDER BY position`, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to load lists: %w", err)
	}
	defer rows.Close()

	var lists []models.List
	for rows.Next() {
		var l models.List
		if err := rows.Scan(&l.ID, &l.BoardID, &l.Title, &l.Position, &l.CreatedAt); err != nil {
			return nil, err
		}
		lists = append(lists, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	cardRows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.list_id, c.title, c.description, c.due_date, c.position, c.completed, c.created_by, c.created_at, c.updated_at
		FROM cards c
		JOIN lists l ON l.id = c.list_id
		WHERE l.board_id = ?
		ORDER BY c.list_id, c.position`, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cards: %w", err)
	}
	defer cardRows.Close()

	byList := make(map[string][]models.Card)
	for cardRows.Next() {
		var c models.Card
		var desc sql.NullString
		var due sql.NullTime
		if err := cardRows.Scan(&c.ID, &c.ListID, &c.Title, &desc, &due, &c.Position, &c.Completed, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		c.Description = desc.String
		if due.Valid {
			t := due.Time
			c.DueDate = &t
		}
		byList[c.ListID] = append(byList[c.ListID], c)
	}
	if err := cardRows.Err(); err != nil {
		return nil, err
	}

	for i := range lists {
		lists[i].Cards = byList[lists[i].ID]
	}
	return lists, nil
}

// Update renames a board.
func (s *BoardService) Update(ctx context.Context, userID, boardID string, req models.UpdateBoardRequest) (*models.Board, error) {
	if _, err := s.Authorize(ctx, boardID, userID, policy.ActionEditBoard); err != nil {
		return nil, err
	}

	if req.Title != nil && *req.Title != "" {
		_, err := s.db.ExecContext(ctx,
			`UPDATE boards SET title = ?, updated_at = ? WHERE id = ?`, *req.Title, time.Now().UTC(), boardID)
		if err != nil {
			return nil, fmt.Errorf("failed to rename board: %w", err)
		}
	}

	return s.Get(ctx, userID, boardID)
}

// Delete removes a board and everything under it. ADMIN only.
func (s *BoardService) Delete(ctx context.Context, userID, boardID string) error {
	if _, err := s.Authorize(ctx, boardID, userID, policy.ActionDeleteBoard); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	statements := []string{
		`DELETE FROM card_comments WHERE card_id IN (SELECT c.id FROM cards c JOIN lists l ON c.list_id = l.id WHERE l.board_id = ?)`,
		`DELETE FROM card_members WHERE card_id IN (SELECT c.id FROM cards c JOIN lists l ON c.list_id = l.id WHERE l.board_id = ?)`,
		`DELETE FROM cards WHERE list_id IN (SELECT id FROM lists WHERE board_id = ?)`,
		`DELETE FROM lists WHERE board_id = ?`,
		`DELETE FROM board_members WHERE board_id = ?`,
		`DELETE FROM boards WHERE id = ?`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt, boardID); err != nil {
			return fmt.Errorf("failed to delete board: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// ShareWithClient grants a CLIENT role member visibility of this board.
func (s *BoardService) ShareWithClient(ctx context.Context, actorID, boardID, clientUserID string) error {
	orgID, err := s.Authorize(ctx, boardID, actorID, policy.ActionManageBoardMembers)
	if err != nil {
		return err
	}

	role, err := s.orgs.MemberRole(ctx, orgID, clientUserID)
	if err != nil {
		return err
	}
	if role != policy.RoleClient {
		return fmt.Errorf("%w: user is not a CLIENT member", ErrInvalidOperation)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO board_members (board_id, user_id, role) VALUES (?, ?, ?)`,
		boardID, clientUserID, models.BoardRoleClientView)
	if err != nil {
		return fmt.Errorf("%w: board already shared with this user", ErrDuplicate)
	}
	return nil
}

// RevokeClient removes a client's visibility of this board.
func (s *BoardService) RevokeClient(ctx context.Context, actorID, boardID, clientUserID string) error {
	if _, err := s.Authorize(ctx, boardID, actorID, policy.ActionManageBoardMembers); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM board_members WHERE board_id = ? AND user_id = ?`, boardID, clientUserID)
	if err != nil {
		return fmt.Errorf("failed to revoke access: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: grant", ErrNotFound)
	}
	return nil
}

// ReorderLists applies a full new left-to-right order in one transaction.
// The ID set must exactly match the board's lists; each list gets index+1 as
// its position.
func (s *BoardService) ReorderLists(ctx context.Context, userID, boardID string, req models.ReorderListsRequest) error {
	if _, err := s.Authorize(ctx, boardID, userID, policy.ActionReorderLists); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM lists WHERE board_id = ?`+s.db.LockClause(), boardID)
	if err != nil {
		return fmt.Errorf("failed to lock lists: %w", err)
	}
	existing := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		existing[id] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if len(req.ListIDs) != len(existing) {
		return fmt.Errorf("%w: reorder must include every list exactly once", ErrInvalidOperation)
	}
	seen := make(map[string]bool, len(req.ListIDs))
	for _, id := range req.ListIDs {
		if !existing[id] {
			return fmt.Errorf("%w: list %s does not belong to this board", ErrInvalidOperation, id)
		}
		if seen[id] {
			return fmt.Errorf("%w: duplicate list %s", ErrInvalidOperation, id)
		}
		seen[id] = true
	}

	for i, id := range req.ListIDs {
		if _, err := tx.ExecContext(ctx,
			`UPDATE lists SET position = ? WHERE id = ?`, ordering.First+i, id); err != nil {
			if database.IsConflict(err) {
				return ErrConcurrencyConflict
			}
			return fmt.Errorf("failed to reposition list: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE boards SET updated_at = ? WHERE id = ?`, time.Now().UTC(), boardID); err != nil {
		return fmt.Errorf("failed to touch board: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if database.IsConflict(err) {
			return ErrConcurrencyConflict
		}
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}
