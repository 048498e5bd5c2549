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

// ListService manages lists within a board.
type ListService struct {
	db     *database.DB
	boards *BoardService
}

// NewListService creates a new list service
func NewListService(db *database.DB, boards *BoardService) *ListService {
	return &ListService{db: db, boards: boards}
}

// BoardForList resolves the owning board of a list.
func (s *ListService) BoardForList(ctx context.Context, listID string) (string, error) {
	var boardID string
	err := s.db.QueryRowContext(ctx, `SELECT board_id FROM lists WHERE id = ?`, listID).Scan(&boardID)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: list", ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve list: %w", err)
	}
	return boardID, nil
}

// Create appends a list at the right end of the board. The position is
// computed inside the transaction so two concurrent creates cannot collide.
func (s *ListService) Create(ctx context.Context, userID string, req models.CreateListRequest) (*models.List, error) {
	if req.BoardID == "" || req.Title == "" {
		return nil, fmt.Errorf("%w: boardId and title are required", ErrInvalidOperation)
	}
	if _, err := s.boards.Authorize(ctx, req.BoardID, userID, policy.ActionCreateList); err != nil {
		return nil, err
	}

	list := &models.List{
		ID:        uuid.NewString(),
		BoardID:   req.BoardID,
		Title:     req.Title,
		CreatedAt: time.Now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var maxPos sql.NullInt64
	err = tx.QueryRowContext(ctx,
		`SELECT MAX(position) FROM lists WHERE board_id = ?`+s.db.LockClause(), req.BoardID).Scan(&maxPos)
	if err != nil {
		return nil, fmt.Errorf("failed to compute position: %w", err)
	}
	list.Position = ordering.Next(int(maxPos.Int64))

	_, err = tx.ExecContext(ctx,
		`INSERT INTO lists (id, board_id, title, position, created_at) VALUES (?, ?, ?, ?, ?)`,
		list.ID, list.BoardID, list.Title, list.Position, list.CreatedAt)
	if err != nil {
		if database.IsConflict(err) {
			return nil, ErrConcurrencyConflict
		}
		return nil, fmt.Errorf("failed to create list: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if database.IsConflict(err) {
			return nil, ErrConcurrencyConflict
		}
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	return list, nil
}

// Get returns a list with its cards ordered by position.
func (s *ListService) Get(ctx context.Context, userID, listID string) (*models.List, error) {
	boardID, err := s.BoardForList(ctx, listID)
	if err != nil {
		return nil, err
	}
	if _, err := s.boards.Authorize(ctx, boardID, userID, policy.ActionViewBoard); err != nil {
		return nil, err
	}

	var list models.List
	err = s.db.QueryRowContext(ctx,
		`SELECT id, board_id, title, position, created_at FROM lists WHERE id = ?`, listID).
		Scan(&list.ID, &list.BoardID, &list.Title, &list.Position, &list.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get list: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, list_id, title, description, due_date, position, completed, created_by, created_at, updated_at
		FROM cards WHERE list_id = ? ORDER BY position`, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cards: %w", err)
	}
	defer rows.Close()

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
		list.Cards = append(list.Cards, c)
	}
	return &list, rows.Err()
}

// Update renames a list.
func (s *ListService) Update(ctx context.Context, userID, listID string, req models.UpdateListRequest) (*models.List, error) {
	boardID, err := s.BoardForList(ctx, listID)
	if err != nil {
		return nil, err
	}
	if _, err := s.boards.Authorize(ctx, boardID, userID, policy.ActionEditList); err != nil {
		return nil, err
	}

	if req.Title != nil && *req.Title != "" {
		if _, err := s.db.ExecContext(ctx, `UPDATE lists SET title = ? WHERE id = ?`, *req.Title, listID); err != nil {
			return nil, fmt.Errorf("failed to rename list: %w", err)
		}
	}

	return s.Get(ctx, userID, listID)
}

// Delete removes a list and its cards, then closes the position gap so the
// remaining lists stay dense.
func (s *ListService) Delete(ctx context.Context, userID, listID string) error {
	boardID, err := s.BoardForList(ctx, listID)
	if err != nil {
		return err
	}
	if _, err := s.boards.Authorize(ctx, boardID, userID, policy.ActionDeleteList); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var pos int
	err = tx.QueryRowContext(ctx,
		`SELECT position FROM lists WHERE id = ?`+s.db.LockClause(), listID).Scan(&pos)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: list", ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to lock list: %w", err)
	}

	statements := []struct {
		query string
		args  []interface{}
	}{
		{`DELETE FROM card_comments WHERE card_id IN (SELECT id FROM cards WHERE list_id = ?)`, []interface{}{listID}},
		{`DELETE FROM card_members WHERE card_id IN (SELECT id FROM cards WHERE list_id = ?)`, []interface{}{listID}},
		{`DELETE FROM cards WHERE list_id = ?`, []interface{}{listID}},
		{`DELETE FROM lists WHERE id = ?`, []interface{}{listID}},
		{`UPDATE lists SET position = position - 1 WHERE board_id = ? AND position > ?`, []interface{}{boardID, pos}},
	}
	for _, st := range statements {
		if _, err := tx.ExecContext(ctx, st.query, st.args...); err != nil {
			if database.IsConflict(err) {
				return ErrConcurrencyConflict
			}
			return fmt.Errorf("failed to delete list: %w", err)
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
