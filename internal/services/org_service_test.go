package services

import (
	"context"
	"errors"
	"testing"

	"taskdeck/internal/models"
	"taskdeck/internal/policy"
)

func TestCreateOrgMakesCreatorAdmin(t *testing.T) {
	env := newTestEnv(t)

	role, err := env.orgs.MemberRole(context.Background(), env.org.ID, env.admin.ID)
	if err != nil {
		t.Fatalf("MemberRole failed: %v", err)
	}
	if role != policy.RoleAdmin {
		t.Errorf("Expected creator role ADMIN, got %s", role)
	}
	if env.org.Plan != "free" {
		t.Errorf("Expected default plan free, got %s", env.org.Plan)
	}
}

func TestCreateOrgRejectsUnknownPlan(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.orgs.Create(context.Background(), env.admin.ID, models.CreateOrganizationRequest{
		Name: "Bad Plan Inc",
		Plan: "platinum",
	})
	if !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("Expected ErrInvalidOperation for unknown plan, got %v", err)
	}
}

func TestMemberManagementRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	employee := env.newMember(t, "emp@example.com", policy.RoleEmployee)
	outsider := env.newUser(t, "new@example.com")

	_, err := env.orgs.AddMember(context.Background(), employee.ID, env.org.ID, models.AddOrgMemberRequest{
		UserID: outsider.ID,
		Role:   policy.RoleEmployee,
	})
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("Expected ErrForbidden for employee adding members, got %v", err)
	}
}

func TestLastAdminCannotLeave(t *testing.T) {
	env := newTestEnv(t)

	err := env.orgs.RemoveMember(context.Background(), env.admin.ID, env.org.ID, env.admin.ID)
	if !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("Expected ErrInvalidOperation removing last admin, got %v", err)
	}

	err = env.orgs.UpdateMemberRole(context.Background(), env.admin.ID, env.org.ID, env.admin.ID, policy.RoleEmployee)
	if !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("Expected ErrInvalidOperation demoting last admin, got %v", err)
	}

	// With a second admin, the first can step down.
	second := env.newMember(t, "admin2@example.com", policy.RoleAdmin)
	if err := env.orgs.UpdateMemberRole(context.Background(), second.ID, env.org.ID, env.admin.ID, policy.RoleEmployee); err != nil {
		t.Errorf("Demotion with another admin present failed: %v", err)
	}
}

func TestRoleCacheInvalidatedOnChange(t *testing.T) {
	env := newTestEnv(t)
	employee := env.newMember(t, "emp@example.com", policy.RoleEmployee)

	// Prime the cache.
	if _, err := env.orgs.MemberRole(context.Background(), env.org.ID, employee.ID); err != nil {
		t.Fatalf("MemberRole failed: %v", err)
	}

	if err := env.orgs.UpdateMemberRole(context.Background(), env.admin.ID, env.org.ID, employee.ID, policy.RoleAdmin); err != nil {
		t.Fatalf("UpdateMemberRole failed: %v", err)
	}

	role, err := env.orgs.MemberRole(context.Background(), env.org.ID, employee.ID)
	if err != nil {
		t.Fatalf("MemberRole failed: %v", err)
	}
	if role != policy.RoleAdmin {
		t.Errorf("Expected ADMIN after role change, got stale %s", role)
	}
}

func TestUserCreateLowercasesAndDedupes(t *testing.T) {
	env := newTestEnv(t)

	user, err := env.users.Create(context.Background(), "Mixed@Example.COM", "Someone", "hash")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if user.Email != "mixed@example.com" {
		t.Errorf("Expected lowercased email, got %s", user.Email)
	}

	if _, err := env.users.Create(context.Background(), "mixed@example.com", "Dup", "hash"); !errors.Is(err, ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate, got %v", err)
	}
}
