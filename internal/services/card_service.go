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

// CardService manages cards, card membership and comments, and coordinates
// card moves.
type CardService struct {
	db     *database.DB
	orgs   *OrgService
	boards *BoardService
	tiers  *TierService
}

// NewCardService creates a new card service
func NewCardService(db *database.DB, orgs *OrgService, boards *BoardService, tiers *TierService) *CardService {
	return &CardService{db: db, orgs: orgs, boards: boards, tiers: tiers}
}

// MoveResult describes a committed move for change fan-out.
type MoveResult struct {
	Card       *models.Card
	BoardID    string
	FromListID string
	ToListID   string
}

// BoardForCard resolves the owning board of a card.
func (s *CardService) BoardForCard(ctx context.Context, cardID string) (string, error) {
	var boardID string
	err := s.db.QueryRowContext(ctx, `
		SELECT l.board_id FROM cards c JOIN lists l ON l.id = c.list_id WHERE c.id = ?`, cardID).Scan(&boardID)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: card", ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve card: %w", err)
	}
	return boardID, nil
}

// OrgForCard resolves the owning organization of a card.
func (s *CardService) OrgForCard(ctx context.Context, cardID string) (string, error) {
	boardID, err := s.BoardForCard(ctx, cardID)
	if err != nil {
		return "", err
	}
	return s.boards.OrgForBoard(ctx, boardID)
}

// Create appends a card at the bottom of a list. Position is computed inside
// the transaction so concurrent creates get distinct slots.
func (s *CardService) Create(ctx context.Context, userID string, req models.CreateCardRequest) (*models.Card, error) {
	if req.ListID == "" || req.Title == "" {
		return nil, fmt.Errorf("%w: listId and title are required", ErrInvalidOperation)
	}

	var boardID string
	err := s.db.QueryRowContext(ctx, `SELECT board_id FROM lists WHERE id = ?`, req.ListID).Scan(&boardID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: list", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve list: %w", err)
	}
	orgID, err := s.boards.Authorize(ctx, boardID, userID, policy.ActionCreateCard)
	if err != nil {
		return nil, err
	}

	if s.tiers != nil {
		org, err := s.orgs.get(ctx, orgID)
		if err != nil {
			return nil, err
		}
		var count int
		err = s.db.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM cards c JOIN lists l ON l.id = c.list_id WHERE l.board_id = ?`, boardID).Scan(&count)
		if err != nil {
			return nil, fmt.Errorf("failed to count cards: %w", err)
		}
		limits := s.tiers.Limits(org.Plan)
		if limits.MaxCardsPerBoard >= 0 && count >= limits.MaxCardsPerBoard {
			return nil, fmt.Errorf("%w: card limit for plan %s reached", ErrLimitExceeded, org.Plan)
		}
	}

	// Assignees are validated before the transaction opens: the role lookup
	// goes through the pool, and a pool query under an open transaction
	// deadlocks on the single-connection SQLite store.
	for _, memberID := range req.MemberIDs {
		if _, err := s.orgs.MemberRole(ctx, orgID, memberID); err != nil {
			return nil, fmt.Errorf("%w: assignee %s is not an organization member", ErrInvalidOperation, memberID)
		}
	}

	now := time.Now().UTC()
	card := &models.Card{
		ID:          uuid.NewString(),
		ListID:      req.ListID,
		Title:       req.Title,
		Description: req.Description,
		CreatedBy:   userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.DueDate != "" {
		due, err := time.Parse(time.RFC3339, req.DueDate)
		if err != nil {
			return nil, fmt.Errorf("%w: dueDate must be RFC 3339", ErrInvalidOperation)
		}
		card.DueDate = &due
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var maxPos sql.NullInt64
	err = tx.QueryRowContext(ctx,
		`SELECT MAX(position) FROM cards WHERE list_id = ?`+s.db.LockClause(), req.ListID).Scan(&maxPos)
	if err != nil {
		return nil, fmt.Errorf("failed to compute position: %w", err)
	}
	card.Position = ordering.Next(int(maxPos.Int64))

	var dueArg interface{}
	if card.DueDate != nil {
		dueArg = *card.DueDate
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO cards (id, list_id, title, description, due_date, position, completed, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		card.ID, card.ListID, card.Title, card.Description, dueArg, card.Position, card.Completed, card.CreatedBy, card.CreatedAt, card.UpdatedAt)
	if err != nil {
		if database.IsConflict(err) {
			return nil, ErrConcurrencyConflict
		}
		return nil, fmt.Errorf("failed to create card: %w", err)
	}

	for _, memberID := range req.MemberIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO card_members (card_id, user_id) VALUES (?, ?)`, card.ID, memberID); err != nil {
			return nil, fmt.Errorf("failed to assign member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		if database.IsConflict(err) {
			return nil, ErrConcurrencyConflict
		}
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	return card, nil
}

// Get returns a card with its members and comments.
func (s *CardService) Get(ctx context.Context, userID, cardID string) (*models.Card, error) {
	boardID, err := s.BoardForCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if _, err := s.boards.Authorize(ctx, boardID, userID, policy.ActionViewBoard); err != nil {
		return nil, err
	}
	return s.get(ctx, cardID)
}

func (s *CardService) get(ctx context.Context, cardID string) (*models.Card, error) {
	var card models.Card
	var desc sql.NullString
	var due sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, list_id, title, description, due_date, position, completed, created_by, created_at, updated_at
		FROM cards WHERE id = ?`, cardID).
		Scan(&card.ID, &card.ListID, &card.Title, &desc, &due, &card.Position, &card.Completed, &card.CreatedBy, &card.CreatedAt, &card.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: card", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	card.Description = desc.String
	if due.Valid {
		t := due.Time
		card.DueDate = &t
	}

	memberRows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.email, u.name, u.avatar
		FROM card_members cm JOIN users u ON u.id = cm.user_id
		WHERE cm.card_id = ? ORDER BY u.name`, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to load members: %w", err)
	}
	defer memberRows.Close()
	for memberRows.Next() {
		var u models.UserResponse
		var avatar sql.NullString
		if err := memberRows.Scan(&u.ID, &u.Email, &u.Name, &avatar); err != nil {
			return nil, err
		}
		u.Avatar = avatar.String
		card.Members = append(card.Members, u)
	}
	if err := memberRows.Err(); err != nil {
		return nil, err
	}

	commentRows, err := s.db.QueryContext(ctx, `
		SELECT cc.id, cc.card_id, cc.author_id, cc.content, cc.created_at, u.email, u.name, u.avatar
		FROM card_comments cc JOIN users u ON u.id = cc.author_id
		WHERE cc.card_id = ? ORDER BY cc.created_at`, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to load comments: %w", err)
	}
	defer commentRows.Close()
	for commentRows.Next() {
		var c models.CardComment
		var email, name string
		var avatar sql.NullString
		if err := commentRows.Scan(&c.ID, &c.CardID, &c.AuthorID, &c.Content, &c.CreatedAt, &email, &name, &avatar); err != nil {
			return nil, err
		}
		c.Author = &models.UserResponse{ID: c.AuthorID, Email: email, Name: name, Avatar: avatar.String}
		card.Comments = append(card.Comments, c)
	}
	return &card, commentRows.Err()
}

// ListForList returns a list's cards in position order. CLIENT role members
// only see cards they are assigned to.
func (s *CardService) ListForList(ctx context.Context, userID, listID string) ([]models.Card, error) {
	var boardID string
	err := s.db.QueryRowContext(ctx, `SELECT board_id FROM lists WHERE id = ?`, listID).Scan(&boardID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: list", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve list: %w", err)
	}

	orgID, err := s.boards.Authorize(ctx, boardID, userID, policy.ActionViewBoard)
	if err != nil {
		return nil, err
	}
	role, err := s.orgs.MemberRole(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, list_id, title, description, due_date, position, completed, created_by, created_at, updated_at
		FROM cards WHERE list_id = ? ORDER BY position`
	args := []interface{}{listID}
	if role == policy.RoleClient {
		query = `
		SELECT c.id, c.list_id, c.title, c.description, c.due_date, c.position, c.completed, c.created_by, c.created_at, c.updated_at
		FROM cards c JOIN card_members cm ON cm.card_id = c.id
		WHERE c.list_id = ? AND cm.user_id = ? ORDER BY c.position`
		args = append(args, userID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	var cards []models.Card
	for rows.Next() {
		var c models.Card
		var desc sql.NullString
		var due sql.NullTime
		if err := rows.Scan(&c.ID, &c.ListID, &c.Title, &desc, &due, &c.Position, &c.Completed, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		c.Description = desc.String
		if due.Valid {
			t := due.Time
			c.DueDate = &t
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// SetArchived marks a card completed or restores it. The card keeps its
// position either way, so unarchiving never reshuffles the list.
func (s *CardService) SetArchived(ctx context.Context, userID, cardID string, archived bool) (*models.Card, error) {
	boardID, err := s.BoardForCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if _, err := s.boards.Authorize(ctx, boardID, userID, policy.ActionArchiveCard); err != nil {
		return nil, err
	}

	if _, err := s.db.ExecContext(ctx, `UPDATE cards SET completed = ?, updated_at = ? WHERE id = ?`,
		archived, time.Now().UTC(), cardID); err != nil {
		return nil, fmt.Errorf("failed to update card: %w", err)
	}
	return s.get(ctx, cardID)
}

// Update edits card fields. Position and list are never touched here; moves
// go through Move.
func (s *CardService) Update(ctx context.Context, userID, cardID string, req models.UpdateCardRequest) (*models.Card, error) {
	boardID, err := s.BoardForCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if _, err := s.boards.Authorize(ctx, boardID, userID, policy.ActionEditCard); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if req.Title != nil && *req.Title != "" {
		if _, err := s.db.ExecContext(ctx, `UPDATE cards SET title = ?, updated_at = ? WHERE id = ?`, *req.Title, now, cardID); err != nil {
			return nil, fmt.Errorf("failed to update title: %w", err)
		}
	}
	if req.Description != nil {
		if _, err := s.db.ExecContext(ctx, `UPDATE cards SET description = ?, updated_at = ? WHERE id = ?`, *req.Description, now, cardID); err != nil {
			return nil, fmt.Errorf("failed to update description: %w", err)
		}
	}
	if req.DueDate != nil {
		var dueArg interface{}
		if *req.DueDate != "" {
			due, err := time.Parse(time.RFC3339, *req.DueDate)
			if err != nil {
				return nil, fmt.Errorf("%w: dueDate must be RFC 3339", ErrInvalidOperation)
			}
			dueArg = due
		}
		if _, err := s.db.ExecContext(ctx, `UPDATE cards SET due_date = ?, updated_at = ? WHERE id = ?`, dueArg, now, cardID); err != nil {
			return nil, fmt.Errorf("failed to update due date: %w", err)
		}
	}
	if req.Completed != nil {
		if _, err := s.db.ExecContext(ctx, `UPDATE cards SET completed = ?, updated_at = ? WHERE id = ?`, *req.Completed, now, cardID); err != nil {
			return nil, fmt.Errorf("failed to update completed: %w", err)
		}
	}

	return s.get(ctx, cardID)
}

// Delete removes a card and closes the position gap in its list.
func (s *CardService) Delete(ctx context.Context, userID, cardID string) error {
	boardID, err := s.BoardForCard(ctx, cardID)
	if err != nil {
		return err
	}
	if _, err := s.boards.Authorize(ctx, boardID, userID, policy.ActionDeleteCard); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var listID string
	var pos int
	err = tx.QueryRowContext(ctx,
		`SELECT list_id, position FROM cards WHERE id = ?`+s.db.LockClause(), cardID).Scan(&listID, &pos)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: card", ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to lock card: %w", err)
	}

	statements := []struct {
		query string
		args  []interface{}
	}{
		{`DELETE FROM card_comments WHERE card_id = ?`, []interface{}{cardID}},
		{`DELETE FROM card_members WHERE card_id = ?`, []interface{}{cardID}},
		{`DELETE FROM cards WHERE id = ?`, []interface{}{cardID}},
		{`UPDATE cards SET position = position - 1 WHERE list_id = ? AND position > ?`, []interface{}{listID, pos}},
	}
	for _, st := range statements {
		if _, err := tx.ExecContext(ctx, st.query, st.args...); err != nil {
			if database.IsConflict(err) {
				return ErrConcurrencyConflict
			}
			return fmt.Errorf("failed to delete card: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		if database.IsConflict(err) {
			return ErrConcurrencyConflict
		}
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Move relocates a card, within its list or across lists on the same board,
// in one transaction. Positions in every affected list stay dense and unique;
// out-of-range targets clamp to the nearest legal slot. Cross-board moves are
// rejected.
func (s *CardService) Move(ctx context.Context, userID, cardID string, req models.MoveCardRequest) (*MoveResult, error) {
	boardID, err := s.BoardForCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if _, err := s.boards.Authorize(ctx, boardID, userID, policy.ActionMoveCard); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var currentListID string
	var currentPos int
	err = tx.QueryRowContext(ctx,
		`SELECT list_id, position FROM cards WHERE id = ?`+s.db.LockClause(), cardID).Scan(&currentListID, &currentPos)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: card", ErrNotFound)
	}
	if err != nil {
		if database.IsConflict(err) {
			return nil, ErrConcurrencyConflict
		}
		return nil, fmt.Errorf("failed to lock card: %w", err)
	}

	targetListID := req.TargetListID
	if targetListID == "" {
		targetListID = currentListID
	}

	// Lock both lists in a stable order to avoid lock cycles between
	// concurrent opposite-direction moves.
	lockIDs := []string{currentListID}
	if targetListID != currentListID {
		if targetListID < currentListID {
			lockIDs = []string{targetListID, currentListID}
		} else {
			lockIDs = append(lockIDs, targetListID)
		}
	}
	listBoards := make(map[string]string, len(lockIDs))
	for _, id := range lockIDs {
		var b string
		err := tx.QueryRowContext(ctx,
			`SELECT board_id FROM lists WHERE id = ?`+s.db.LockClause(), id).Scan(&b)
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: list", ErrNotFound)
		}
		if err != nil {
			if database.IsConflict(err) {
				return nil, ErrConcurrencyConflict
			}
			return nil, fmt.Errorf("failed to lock list: %w", err)
		}
		listBoards[id] = b
	}
	if listBoards[targetListID] != boardID {
		return nil, fmt.Errorf("%w: cannot move a card across boards", ErrInvalidOperation)
	}

	now := time.Now().UTC()

	if targetListID == currentListID {
		var count int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM cards WHERE list_id = ?`, currentListID).Scan(&count); err != nil {
			return nil, fmt.Errorf("failed to count cards: %w", err)
		}
		target := ordering.ClampMoveIndex(req.NewOrder, count)

		for _, shift := range ordering.PlanSameListMove(currentPos, target) {
			if err := s.applyShift(ctx, tx, currentListID, shift); err != nil {
				return nil, err
			}
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE cards SET position = ?, updated_at = ? WHERE id = ?`, target, now, cardID); err != nil {
			if database.IsConflict(err) {
				return nil, ErrConcurrencyConflict
			}
			return nil, fmt.Errorf("failed to reposition card: %w", err)
		}
	} else {
		var destCount int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM cards WHERE list_id = ?`, targetListID).Scan(&destCount); err != nil {
			return nil, fmt.Errorf("failed to count cards: %w", err)
		}
		target := ordering.ClampInsertIndex(req.NewOrder, destCount)

		source, dest := ordering.PlanCrossListMove(currentPos, target)
		if err := s.applyShift(ctx, tx, targetListID, dest); err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE cards SET list_id = ?, position = ?, updated_at = ? WHERE id = ?`,
			targetListID, target, now, cardID); err != nil {
			if database.IsConflict(err) {
				return nil, ErrConcurrencyConflict
			}
			return nil, fmt.Errorf("failed to relocate card: %w", err)
		}
		if err := s.applyShift(ctx, tx, currentListID, source); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		if database.IsConflict(err) {
			return nil, ErrConcurrencyConflict
		}
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	card, err := s.get(ctx, cardID)
	if err != nil {
		return nil, err
	}
	return &MoveResult{
		Card:       card,
		BoardID:    boardID,
		FromListID: currentListID,
		ToListID:   targetListID,
	}, nil
}

// applyShift runs one position window shift as a single UPDATE.
func (s *CardService) applyShift(ctx context.Context, tx *sql.Tx, listID string, shift ordering.Shift) error {
	var err error
	if shift.Unbounded() {
		_, err = tx.ExecContext(ctx,
			`UPDATE cards SET position = position + ? WHERE list_id = ? AND position >= ?`,
			shift.Delta, listID, shift.FromPos)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE cards SET position = position + ? WHERE list_id = ? AND position BETWEEN ? AND ?`,
			shift.Delta, listID, shift.FromPos, shift.ToPos)
	}
	if err != nil {
		if database.IsConflict(err) {
			return ErrConcurrencyConflict
		}
		return fmt.Errorf("failed to shift positions: %w", err)
	}
	return nil
}

// AddMember assigns an organization member to a card.
func (s *CardService) AddMember(ctx context.Context, actorID, cardID, memberID string) error {
	boardID, err := s.BoardForCard(ctx, cardID)
	if err != nil {
		return err
	}
	orgID, err := s.boards.Authorize(ctx, boardID, actorID, policy.ActionManageCardMembers)
	if err != nil {
		return err
	}
	if _, err := s.orgs.MemberRole(ctx, orgID, memberID); err != nil {
		return fmt.Errorf("%w: assignee is not an organization member", ErrInvalidOperation)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO card_members (card_id, user_id) VALUES (?, ?)`, cardID, memberID)
	if err != nil {
		return fmt.Errorf("%w: user is already assigned", ErrDuplicate)
	}
	return nil
}

// RemoveMember unassigns a user from a card.
func (s *CardService) RemoveMember(ctx context.Context, actorID, cardID, memberID string) error {
	boardID, err := s.BoardForCard(ctx, cardID)
	if err != nil {
		return err
	}
	if _, err := s.boards.Authorize(ctx, boardID, actorID, policy.ActionManageCardMembers); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM card_members WHERE card_id = ? AND user_id = ?`, cardID, memberID)
	if err != nil {
		return fmt.Errorf("failed to unassign member: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: assignment", ErrNotFound)
	}
	return nil
}

// AddComment adds a comment. CLIENT role members may comment on boards shared
// with them.
func (s *CardService) AddComment(ctx context.Context, userID, cardID, content string) (*models.CardComment, error) {
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidOperation)
	}
	boardID, err := s.BoardForCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if _, err := s.boards.Authorize(ctx, boardID, userID, policy.ActionComment); err != nil {
		return nil, err
	}

	comment := &models.CardComment{
		ID:        uuid.NewString(),
		CardID:    cardID,
		AuthorID:  userID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO card_comments (id, card_id, author_id, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		comment.ID, comment.CardID, comment.AuthorID, comment.Content, comment.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}
	return comment, nil
}

// DeleteComment removes a comment. Authors may delete their own; ADMIN any.
func (s *CardService) DeleteComment(ctx context.Context, userID, cardID, commentID string) error {
	boardID, err := s.BoardForCard(ctx, cardID)
	if err != nil {
		return err
	}
	orgID, err := s.boards.Authorize(ctx, boardID, userID, policy.ActionComment)
	if err != nil {
		return err
	}

	var authorID string
	err = s.db.QueryRowContext(ctx,
		`SELECT author_id FROM card_comments WHERE id = ? AND card_id = ?`, commentID, cardID).Scan(&authorID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: comment", ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to get comment: %w", err)
	}

	if authorID != userID {
		role, err := s.orgs.MemberRole(ctx, orgID, userID)
		if err != nil {
			return err
		}
		if role != policy.RoleAdmin {
			return fmt.Errorf("%w: only the author or an admin may delete a comment", ErrForbidden)
		}
	}

	_, err = s.db.ExecContext(ctx, `DELETE FROM card_comments WHERE id = ?`, commentID)
	return err
}
