package handlers

import (
	"taskdeck/internal/models"
	"taskdeck/internal/services"

	"github.com/gofiber/fiber/v2"
)

// OrganizationHandler handles organization and membership endpoints
type OrganizationHandler struct {
	orgs *services.OrgService
}

// NewOrganizationHandler creates a new organization handler
func NewOrganizationHandler(orgs *services.OrgService) *OrganizationHandler {
	return &OrganizationHandler{orgs: orgs}
}

// Create creates an organization with the caller as admin
// POST /api/organizations
func (h *OrganizationHandler) Create(c *fiber.Ctx) error {
	var req models.CreateOrganizationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	org, err := h.orgs.Create(c.Context(), currentUserID(c), req)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(org)
}

// List returns the caller's organizations
// GET /api/organizations
func (h *OrganizationHandler) List(c *fiber.Ctx) error {
	orgs, err := h.orgs.ListForUser(c.Context(), currentUserID(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"organizations": orgs})
}

// Get returns one organization
// GET /api/organizations/:id
func (h *OrganizationHandler) Get(c *fiber.Ctx) error {
	org, err := h.orgs.Get(c.Context(), currentUserID(c), c.Params("id"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(org)
}

// Update renames an organization or changes its plan
// PUT /api/organizations/:id
func (h *OrganizationHandler) Update(c *fiber.Ctx) error {
	var req models.UpdateOrganizationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	org, err := h.orgs.Update(c.Context(), currentUserID(c), c.Params("id"), req)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(org)
}

// Delete removes an organization and everything under it
// DELETE /api/organizations/:id
func (h *OrganizationHandler) Delete(c *fiber.Ctx) error {
	if err := h.orgs.Delete(c.Context(), currentUserID(c), c.Params("id")); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Organization deleted"})
}

// ListMembers returns organization members with profiles
// GET /api/organizations/:id/members
func (h *OrganizationHandler) ListMembers(c *fiber.Ctx) error {
	members, err := h.orgs.ListMembers(c.Context(), currentUserID(c), c.Params("id"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"members": members})
}

// AddMember adds a user to the organization
// POST /api/organizations/:id/members
func (h *OrganizationHandler) AddMember(c *fiber.Ctx) error {
	var req models.AddOrgMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	member, err := h.orgs.AddMember(c.Context(), currentUserID(c), c.Params("id"), req)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(member)
}

// UpdateMember changes a member's role
// PUT /api/organizations/:id/members/:userId
func (h *OrganizationHandler) UpdateMember(c *fiber.Ctx) error {
	var req models.UpdateOrgMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	err := h.orgs.UpdateMemberRole(c.Context(), currentUserID(c), c.Params("id"), c.Params("userId"), req.Role)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Role updated"})
}

// RemoveMember removes a member from the organization
// DELETE /api/organizations/:id/members/:userId
func (h *OrganizationHandler) RemoveMember(c *fiber.Ctx) error {
	err := h.orgs.RemoveMember(c.Context(), currentUserID(c), c.Params("id"), c.Params("userId"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Member removed"})
}
