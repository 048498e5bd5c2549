package policy

import "testing"

func TestAdminCanDoEverything(t *testing.T) {
	actions := []Action{
		ActionViewBoard, ActionCreateBoard, ActionDeleteBoard, ActionReorderLists,
		ActionMoveCard, ActionDeleteCard, ActionManageOrgMembers, ActionDeleteOrganization,
		ActionExportBoard, ActionManageCardMembers,
	}
	for _, a := range actions {
		if !CanPerform(RoleAdmin, a) {
			t.Errorf("ADMIN should be allowed %s", a)
		}
	}
}

func TestEmployeeMatrix(t *testing.T) {
	allowed := []Action{
		ActionViewBoard, ActionCreateBoard, ActionEditBoard, ActionCreateList,
		ActionReorderLists, ActionCreateCard, ActionMoveCard, ActionDeleteCard,
		ActionArchiveCard, ActionManageCardMembers, ActionComment, ActionExportBoard,
	}
	for _, a := range allowed {
		if !CanPerform(RoleEmployee, a) {
			t.Errorf("EMPLOYEE should be allowed %s", a)
		}
	}

	denied := []Action{ActionDeleteBoard, ActionDeleteOrganization, ActionManageOrgMembers}
	for _, a := range denied {
		if CanPerform(RoleEmployee, a) {
			t.Errorf("EMPLOYEE should be denied %s", a)
		}
	}
}

func TestClientIsViewAndCommentOnly(t *testing.T) {
	if !CanPerform(RoleClient, ActionViewBoard) {
		t.Error("CLIENT should be allowed view_board")
	}
	if !CanPerform(RoleClient, ActionComment) {
		t.Error("CLIENT should be allowed comment")
	}

	denied := []Action{
		ActionCreateBoard, ActionEditBoard, ActionDeleteBoard, ActionCreateList,
		ActionEditList, ActionDeleteList, ActionReorderLists, ActionCreateCard,
		ActionEditCard, ActionMoveCard, ActionDeleteCard, ActionArchiveCard,
		ActionManageCardMembers, ActionManageOrgMembers, ActionDeleteOrganization,
		ActionExportBoard,
	}
	for _, a := range denied {
		if CanPerform(RoleClient, a) {
			t.Errorf("CLIENT should be denied %s", a)
		}
	}
}

func TestUnknownRoleDeniedEverything(t *testing.T) {
	if CanPerform(Role("VISITOR"), ActionViewBoard) {
		t.Error("unknown roles must be denied")
	}
	if Role("VISITOR").Valid() {
		t.Error("VISITOR should not be a valid role")
	}
	if !RoleClient.Valid() {
		t.Error("CLIENT should be valid")
	}
}
