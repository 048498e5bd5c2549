package models

import "time"

// Board role for members attached directly to a board. CLIENT_VIEW marks a
// board a CLIENT-role org member is allowed to see.
const (
	BoardRoleMember     = "MEMBER"
	BoardRoleClientView = "CLIENT_VIEW"
)

// Board is an ordered collection of lists owned by an organization.
type Board struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"organizationId"`
	Title     string    `json:"title"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Populated on detail reads, ordered by ascending position.
	Lists []List `json:"lists,omitempty"`
}

// BoardMember links a user directly to a board.
type BoardMember struct {
	BoardID string `json:"boardId"`
	UserID  string `json:"userId"`
	Role    string `json:"role"`
}

// List is an ordered collection of cards owned by a board. Position is a
// 1-based integer unique within the board; ascending position is left-to-right
// visual order.
type List struct {
	ID        string    `json:"id"`
	BoardID   string    `json:"boardId"`
	Title     string    `json:"title"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"createdAt"`

	// Populated on detail reads, ordered by ascending position.
	Cards []Card `json:"cards,omitempty"`
}

// Card belongs to exactly one list at a time. Position is a 1-based integer
// unique within the list; ascending position is top-to-bottom visual order.
// Moving a card changes list reference and position together, atomically.
type Card struct {
	ID          string     `json:"id"`
	ListID      string     `json:"listId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Position    int        `json:"position"`
	Completed   bool       `json:"completed"`
	CreatedBy   string     `json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	Members  []UserResponse `json:"members,omitempty"`
	Comments []CardComment  `json:"comments,omitempty"`
}

// CardComment is a comment on a card, ordered by creation time.
type CardComment struct {
	ID        string    `json:"id"`
	CardID    string    `json:"cardId"`
	AuthorID  string    `json:"authorId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	Author    *UserResponse `json:"author,omitempty"`
}

// CreateBoardRequest is the body for POST /api/boards.
type CreateBoardRequest struct {
	OrganizationID string `json:"organizationId"`
	Title          string `json:"title"`
}

// UpdateBoardRequest is the body for PUT /api/boards/:id.
type UpdateBoardRequest struct {
	Title *string `json:"title,omitempty"`
}

// ReorderListsRequest is the body for POST /api/boards/:id/reorder-lists.
// ListIDs is the full desired left-to-right order; each list receives its
// index+1 as position, applied as one atomic batch.
type ReorderListsRequest struct {
	ListIDs []string `json:"listIds"`
}

// CreateListRequest is the body for POST /api/boards/lists.
type CreateListRequest struct {
	BoardID string `json:"boardId"`
	Title   string `json:"title"`
}

// UpdateListRequest is the body for PUT /api/lists/:id.
type UpdateListRequest struct {
	Title *string `json:"title,omitempty"`
}

// CreateCardRequest is the body for POST /api/cards.
type CreateCardRequest struct {
	ListID      string   `json:"listId"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	DueDate     string   `json:"dueDate,omitempty"` // RFC 3339
	MemberIDs   []string `json:"memberIds,omitempty"`
}

// UpdateCardRequest is the body for PUT /api/cards/:id. Nil fields are left
// untouched. Position is never updated here; moves go through MoveCard.
type UpdateCardRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	DueDate     *string `json:"dueDate,omitempty"` // RFC 3339, empty string clears
	Completed   *bool   `json:"completed,omitempty"`
}

// MoveCardRequest is the body for PATCH /api/cards/:id/move.
type MoveCardRequest struct {
	TargetListID string `json:"targetListId"`
	NewOrder     int    `json:"newOrder"`
}

// AddCardMemberRequest is the body for POST /api/cards/:id/members.
type AddCardMemberRequest struct {
	UserID string `json:"userId"`
}

// AddCommentRequest is the body for POST /api/cards/:id/comments.
type AddCommentRequest struct {
	Content string `json:"content"`
}
