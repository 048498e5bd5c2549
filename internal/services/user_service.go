package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"taskdeck/internal/database"
	"taskdeck/internal/models"

	"github.com/google/uuid"
)

// UserService handles account storage in the relational database.
type UserService struct {
	db *database.DB
}

// NewUserService creates a new user service
func NewUserService(db *database.DB) *UserService {
	return &UserService{db: db}
}

// Create inserts a new user. Email uniqueness is enforced here so callers get
// ErrDuplicate instead of a driver-specific constraint error.
func (s *UserService) Create(ctx context.Context, email, name, passwordHash string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || name == "" {
		return nil, fmt.Errorf("%w: email and name are required", ErrInvalidOperation)
	}

	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE email = ?", email).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists > 0 {
		return nil, fmt.Errorf("%w: email already registered", ErrDuplicate)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.Name, user.PasswordHash, user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// GetByEmail retrieves a user by email (case-insensitive).
func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, avatar, created_at, last_login_at FROM users WHERE email = ?`,
		strings.ToLower(strings.TrimSpace(email))))
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, avatar, created_at, last_login_at FROM users WHERE id = ?`, id))
}

func (s *UserService) scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	var avatar sql.NullString
	var lastLogin sql.NullTime
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &avatar, &user.CreatedAt, &lastLogin)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: user", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.Avatar = avatar.String
	if lastLogin.Valid {
		user.LastLoginAt = lastLogin.Time
	}
	return &user, nil
}

// TouchLogin records a successful login.
func (s *UserService) TouchLogin(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET last_login_at = ? WHERE id = ?`, time.Now().UTC(), id)
	return err
}

// UpdateProfile updates mutable profile fields. Empty values leave the field
// untouched.
func (s *UserService) UpdateProfile(ctx context.Context, id, name, avatar string) (*models.User, error) {
	if name != "" {
		if _, err := s.db.ExecContext(ctx, `UPDATE users SET name = ? WHERE id = ?`, name, id); err != nil {
			return nil, fmt.Errorf("failed to update name: %w", err)
		}
	}
	if avatar != "" {
		if _, err := s.db.ExecContext(ctx, `UPDATE users SET avatar = ? WHERE id = ?`, avatar, id); err != nil {
			return nil, fmt.Errorf("failed to update avatar: %w", err)
		}
	}
	return s.GetByID(ctx, id)
}

// SearchByEmail finds users whose email starts with the query, for member
// pickers. Results are capped.
func (s *UserService) SearchByEmail(ctx context.Context, query string, limit int) ([]models.UserResponse, error) {
	if limit <= 0 || limit > 25 {
		limit = 25
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if len(query) < 3 {
		return nil, fmt.Errorf("%w: query too short", ErrInvalidOperation)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, email, name, avatar FROM users WHERE email LIKE ? ORDER BY email LIMIT ?`,
		query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	var results []models.UserResponse
	for rows.Next() {
		var u models.UserResponse
		var avatar sql.NullString
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &avatar); err != nil {
			return nil, err
		}
		u.Avatar = avatar.String
		results = append(results, u)
	}
	return results, rows.Err()
}
