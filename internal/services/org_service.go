package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"taskdeck/internal/database"
	"taskdeck/internal/models"
	"taskdeck/internal/policy"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// OrgService manages organizations and memberships. Role lookups run on every
// authorized request, so they go through a short-lived cache.
type OrgService struct {
	db        *database.DB
	roleCache *gocache.Cache
	tiers     *TierService
}

// NewOrgService creates a new organization service
func NewOrgService(db *database.DB, tiers *TierService) *OrgService {
	return &OrgService{
		db:        db,
		roleCache: gocache.New(2*time.Minute, 5*time.Minute),
		tiers:     tiers,
	}
}

func roleCacheKey(orgID, userID string) string {
	return orgID + "|" + userID
}

// Create creates an organization with the caller as its first ADMIN.
func (s *OrgService) Create(ctx context.Context, userID string, req models.CreateOrganizationRequest) (*models.Organization, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidOperation)
	}
	plan := req.Plan
	if plan == "" {
		plan = "free"
	}
	if s.tiers != nil && !s.tiers.PlanExists(plan) {
		return nil, fmt.Errorf("%w: unknown plan %q", ErrInvalidOperation, plan)
	}

	org := &models.Organization{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Plan:      plan,
		CreatedBy: userID,
		CreatedAt: time.Now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO organizations (id, name, plan, created_by, created_at) VALUES (?, ?, ?, ?, ?)`,
		org.ID, org.Name, org.Plan, org.CreatedBy, org.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO org_members (org_id, user_id, role, created_at) VALUES (?, ?, ?, ?)`,
		org.ID, userID, policy.RoleAdmin, org.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to add creator as admin: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	return org, nil
}

// Get returns an organization the user belongs to.
func (s *OrgService) Get(ctx context.Context, userID, orgID string) (*models.Organization, error) {
	if _, err := s.MemberRole(ctx, orgID, userID); err != nil {
		return nil, err
	}
	return s.get(ctx, orgID)
}

func (s *OrgService) get(ctx context.Context, orgID string) (*models.Organization, error) {
	var org models.Organization
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, plan, created_by, created_at FROM organizations WHERE id = ?`, orgID).
		Scan(&org.ID, &org.Name, &org.Plan, &org.CreatedBy, &org.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: organization", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return &org, nil
}

// ListForUser returns all organizations the user is a member of.
func (s *OrgService) ListForUser(ctx context.Context, userID string) ([]models.Organization, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT o.id, o.name, o.plan, o.created_by, o.created_at
		FROM organizations o
		JOIN org_members m ON m.org_id = o.id
		WHERE m.user_id = ?
		ORDER BY o.created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	var orgs []models.Organization
	for rows.Next() {
		var org models.Organization
		if err := rows.Scan(&org.ID, &org.Name, &org.Plan, &org.CreatedBy, &org.CreatedAt); err != nil {
			return nil, err
		}
		orgs = append(orgs, org)
	}
	return orgs, rows.Err()
}

// Update renames an organization or changes its plan. ADMIN only.
func (s *OrgService) Update(ctx context.Context, userID, orgID string, req models.UpdateOrganizationRequest) (*models.Organization, error) {
	if err := s.Authorize(ctx, orgID, userID, policy.ActionManageOrgMembers); err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != "" {
		if _, err := s.db.ExecContext(ctx, `UPDATE organizations SET name = ? WHERE id = ?`, *req.Name, orgID); err != nil {
			return nil, fmt.Errorf("failed to rename organization: %w", err)
		}
	}
	if req.Plan != nil && *req.Plan != "" {
		if s.tiers != nil && !s.tiers.PlanExists(*req.Plan) {
			return nil, fmt.Errorf("%w: unknown plan %q", ErrInvalidOperation, *req.Plan)
		}
		if _, err := s.db.ExecContext(ctx, `UPDATE organizations SET plan = ? WHERE id = ?`, *req.Plan, orgID); err != nil {
			return nil, fmt.Errorf("failed to change plan: %w", err)
		}
	}

	return s.get(ctx, orgID)
}

// Delete removes an organization and all of its boards. ADMIN only.
func (s *OrgService) Delete(ctx context.Context, userID, orgID string) error {
	if err := s.Authorize(ctx, orgID, userID, policy.ActionDeleteOrganization); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	statements := []string{
		`DELETE FROM card_comments WHERE card_id IN (SELECT c.id FROM cards c JOIN lists l ON c.list_id = l.id JOIN boards b ON l.board_id = b.id WHERE b.org_id = ?)`,
		`DELETE FROM card_members WHERE card_id IN (SELECT c.id FROM cards c JOIN lists l ON c.list_id = l.id JOIN boards b ON l.board_id = b.id WHERE b.org_id = ?)`,
		`DELETE FROM cards WHERE list_id IN (SELECT l.id FROM lists l JOIN boards b ON l.board_id = b.id WHERE b.org_id = ?)`,
		`DELETE FROM lists WHERE board_id IN (SELECT id FROM boards WHERE org_id = ?)`,
		`DELETE FROM board_members WHERE board_id IN (SELECT id FROM boards WHERE org_id = ?)`,
		`DELETE FROM boards WHERE org_id = ?`,
		`DELETE FROM org_members WHERE org_id = ?`,
		`DELETE FROM organizations WHERE id = ?`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt, orgID); err != nil {
			return fmt.Errorf("failed to delete organization: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	s.roleCache.Flush()
	return nil
}

// MemberRole returns the caller's role in the organization, or ErrForbidden
// if they are not a member.
func (s *OrgService) MemberRole(ctx context.Context, orgID, userID string) (policy.Role, error) {
	key := roleCacheKey(orgID, userID)
	if cached, ok := s.roleCache.Get(key); ok {
		role := cached.(policy.Role)
		if role == "" {
			return "", fmt.Errorf("%w: not a member of this organization", ErrForbidden)
		}
		return role, nil
	}

	var role policy.Role
	err := s.db.QueryRowContext(ctx,
		`SELECT role FROM org_members WHERE org_id = ? AND user_id = ?`, orgID, userID).Scan(&role)
	if err == sql.ErrNoRows {
		// Negative entries cached too, membership checks hammer this path.
		s.roleCache.Set(key, policy.Role(""), gocache.DefaultExpiration)
		return "", fmt.Errorf("%w: not a member of this organization", ErrForbidden)
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up role: %w", err)
	}

	s.roleCache.Set(key, role, gocache.DefaultExpiration)
	return role, nil
}

// Authorize checks that the user may perform the action in the organization.
func (s *OrgService) Authorize(ctx context.Context, orgID, userID string, action policy.Action) error {
	role, err := s.MemberRole(ctx, orgID, userID)
	if err != nil {
		return err
	}
	if !policy.CanPerform(role, action) {
		return fmt.Errorf("%w: role %s may not %s", ErrForbidden, role, action)
	}
	return nil
}

// ListMembers returns all members with their public user profiles.
func (s *OrgService) ListMembers(ctx context.Context, userID, orgID string) ([]models.OrgMember, error) {
	if _, err := s.MemberRole(ctx, orgID, userID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT m.org_id, m.user_id, m.role, m.created_at, u.email, u.name, u.avatar
		FROM org_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.org_id = ?
		ORDER BY m.created_at`, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []models.OrgMember
	for rows.Next() {
		var m models.OrgMember
		var email, name string
		var avatar sql.NullString
		if err := rows.Scan(&m.OrgID, &m.UserID, &m.Role, &m.CreatedAt, &email, &name, &avatar); err != nil {
			return nil, err
		}
		m.User = &models.UserResponse{ID: m.UserID, Email: email, Name: name, Avatar: avatar.String}
		members = append(members, m)
	}
	return members, rows.Err()
}

// AddMember adds a user to the organization. ADMIN only. Plan member limits
// apply.
func (s *OrgService) AddMember(ctx context.Context, actorID, orgID string, req models.AddOrgMemberRequest) (*models.OrgMember, error) {
	if err := s.Authorize(ctx, orgID, actorID, policy.ActionManageOrgMembers); err != nil {
		return nil, err
	}
	if !req.Role.Valid() {
		return nil, fmt.Errorf("%w: invalid role %q", ErrInvalidOperation, req.Role)
	}

	if s.tiers != nil {
		org, err := s.get(ctx, orgID)
		if err != nil {
			return nil, err
		}
		var count int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM org_members WHERE org_id = ?`, orgID).Scan(&count); err != nil {
			return nil, fmt.Errorf("failed to count members: %w", err)
		}
		limits := s.tiers.Limits(org.Plan)
		if limits.MaxMembersPerOrg >= 0 && count >= limits.MaxMembersPerOrg {
			return nil, fmt.Errorf("%w: member limit for plan %s reached", ErrLimitExceeded, org.Plan)
		}
	}

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO org_members (org_id, user_id, role, created_at) VALUES (?, ?, ?, ?)`,
		orgID, req.UserID, req.Role, now)
	if err != nil {
		return nil, fmt.Errorf("%w: user is already a member", ErrDuplicate)
	}

	s.roleCache.Delete(roleCacheKey(orgID, req.UserID))
	return &models.OrgMember{OrgID: orgID, UserID: req.UserID, Role: req.Role, CreatedAt: now}, nil
}

// UpdateMemberRole changes a member's role. ADMIN only. The last ADMIN cannot
// be demoted.
func (s *OrgService) UpdateMemberRole(ctx context.Context, actorID, orgID, memberID string, role policy.Role) error {
	if err := s.Authorize(ctx, orgID, actorID, policy.ActionManageOrgMembers); err != nil {
		return err
	}
	if !role.Valid() {
		return fmt.Errorf("%w: invalid role %q", ErrInvalidOperation, role)
	}

	if role != policy.RoleAdmin {
		isLast, err := s.isLastAdmin(ctx, orgID, memberID)
		if err != nil {
			return err
		}
		if isLast {
			return fmt.Errorf("%w: cannot demote the last admin", ErrInvalidOperation)
		}
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE org_members SET role = ? WHERE org_id = ? AND user_id = ?`, role, orgID, memberID)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: member", ErrNotFound)
	}

	s.roleCache.Delete(roleCacheKey(orgID, memberID))
	return nil
}

// RemoveMember removes a member. ADMIN only. The last ADMIN cannot be removed.
func (s *OrgService) RemoveMember(ctx context.Context, actorID, orgID, memberID string) error {
	if err := s.Authorize(ctx, orgID, actorID, policy.ActionManageOrgMembers); err != nil {
		return err
	}

	isLast, err := s.isLastAdmin(ctx, orgID, memberID)
	if err != nil {
		return err
	}
	if isLast {
		return fmt.Errorf("%w: cannot remove the last admin", ErrInvalidOperation)
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM org_members WHERE org_id = ? AND user_id = ?`, orgID, memberID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: member", ErrNotFound)
	}

	s.roleCache.Delete(roleCacheKey(orgID, memberID))
	return nil
}

func (s *OrgService) isLastAdmin(ctx context.Context, orgID, memberID string) (bool, error) {
	var memberRole policy.Role
	err := s.db.QueryRowContext(ctx,
		`SELECT role FROM org_members WHERE org_id = ? AND user_id = ?`, orgID, memberID).Scan(&memberRole)
	if err == sql.ErrNoRows {
		return false, fmt.Errorf("%w: member", ErrNotFound)
	}
	if err != nil {
		return false, err
	}
	if memberRole != policy.RoleAdmin {
		return false, nil
	}

	var admins int
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM org_members WHERE org_id = ? AND role = ?`, orgID, policy.RoleAdmin).Scan(&admins)
	if err != nil {
		return false, err
	}
	return admins <= 1, nil
}
