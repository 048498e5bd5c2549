package models

import (
	"time"

	"taskdeck/internal/policy"
)

// Organization is the tenancy root. Boards, memberships and conversations all
// hang off an organization. Plan selects the tier limits applied to it.
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Plan      string    `json:"plan"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// OrgMember links a user to an organization with a role.
type OrgMember struct {
	OrgID     string      `json:"organizationId"`
	UserID    string      `json:"userId"`
	Role      policy.Role `json:"role"`
	CreatedAt time.Time   `json:"createdAt"`
	User      *UserResponse `json:"user,omitempty"`
}

// CreateOrganizationRequest is the body for POST /api/organizations.
type CreateOrganizationRequest struct {
	Name string `json:"name"`
	Plan string `json:"plan,omitempty"`
}

// UpdateOrganizationRequest is the body for PUT /api/organizations/:id.
type UpdateOrganizationRequest struct {
	Name *string `json:"name,omitempty"`
	Plan *string `json:"plan,omitempty"`
}

// AddOrgMemberRequest is the body for POST /api/organizations/:id/members.
type AddOrgMemberRequest struct {
	UserID string      `json:"userId"`
	Role   policy.Role `json:"role"`
}

// UpdateOrgMemberRequest is the body for PUT /api/organizations/:id/members/:userId.
type UpdateOrgMemberRequest struct {
	Role policy.Role `json:"role"`
}
