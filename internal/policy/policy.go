// Package policy centralizes role capability checks. Roles come from the
// organization membership record; this package only answers "may this role
// perform this action", it does not define or store roles.
package policy

// Role is an organization membership role.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleEmployee Role = "EMPLOYEE"
	RoleClient   Role = "CLIENT"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEmployee, RoleClient:
		return true
	}
	return false
}

// Action is an operation subject to a role check.
type Action string

const (
	ActionViewBoard          Action = "view_board"
	ActionCreateBoard        Action = "create_board"
	ActionEditBoard          Action = "edit_board"
	ActionDeleteBoard        Action = "delete_board"
	ActionExportBoard        Action = "export_board"
	ActionCreateList         Action = "create_list"
	ActionEditList           Action = "edit_list"
	ActionDeleteList         Action = "delete_list"
	ActionReorderLists       Action = "reorder_lists"
	ActionCreateCard         Action = "create_card"
	ActionEditCard           Action = "edit_card"
	ActionMoveCard           Action = "move_card"
	ActionDeleteCard         Action = "delete_card"
	ActionArchiveCard        Action = "archive_card"
	ActionManageCardMembers  Action = "manage_card_members"
	ActionManageBoardMembers Action = "manage_board_members"
	ActionComment            Action = "comment"
	ActionManageOrgMembers   Action = "manage_org_members"
	ActionDeleteOrganization Action = "delete_organization"
)

// CanPerform reports whether a role may perform an action. ADMIN may do
// everything; EMPLOYEE everything except destructive org/board operations and
// member administration; CLIENT is view-and-comment only (the card service
// additionally lets clients edit descriptions of cards they belong to).
func CanPerform(role Role, action Action) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleEmployee:
		switch action {
		case ActionDeleteBoard, ActionDeleteOrganization, ActionManageOrgMembers:
			return false
		}
		return true
	case RoleClient:
		switch action {
		case ActionViewBoard, ActionComment:
			return true
		}
		return false
	}
	return false
}
