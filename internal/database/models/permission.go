package models

// Permission is a single granular board permission. The catalogue is
// closed; scheme entries referencing anything outside it are rejected
// before they reach storage.
type Permission string

const (
	// Board management
	PermBoardView          Permission = "board:view"
	PermBoardEdit          Permission = "board:edit"
	PermBoardDelete        Permission = "board:delete"
	PermBoardManageMembers Permission = "board:manage_members"
	PermBoardManageSchemes Permission = "board:manage_schemes"

	// Lists
	PermListCreate  Permission = "list:create"
	PermListEdit    Permission = "list:edit"
	PermListDelete  Permission = "list:delete"
	PermListReorder Permission = "list:reorder"

	// Cards
	PermCardCreate  Permission = "card:create"
	PermCardEdit    Permission = "card:edit"
	PermCardDelete  Permission = "card:delete"
	PermCardReorder Permission = "card:reorder"

	// Comments; "own" applies only to the author's comments
	PermCommentCreate    Permission = "comment:create"
	PermCommentEditOwn   Permission = "comment:edit_own"
	PermCommentEditAny   Permission = "comment:edit_any"
	PermCommentDeleteOwn Permission = "comment:delete_own"
	PermCommentDeleteAny Permission = "comment:delete_any"

	// Labels
	PermLabelManage Permission = "label:manage"
	PermLabelAssign Permission = "label:assign"

	// Field visibility
	PermFieldViewSensitive Permission = "field:view_sensitive"

	// Automation / analytics visibility
	PermAutomationView   Permission = "automation:view"
	PermAutomationManage Permission = "automation:manage"
	PermAnalyticsView    Permission = "analytics:view"
)

// AllPermissions lists the full catalogue.
var AllPermissions = []Permission{
	PermBoardView, PermBoardEdit, PermBoardDelete, PermBoardManageMembers, PermBoardManageSchemes,
	PermListCreate, PermListEdit, PermListDelete, PermListReorder,
	PermCardCreate, PermCardEdit, PermCardDelete, PermCardReorder,
	PermCommentCreate, PermCommentEditOwn, PermCommentEditAny, PermCommentDeleteOwn, PermCommentDeleteAny,
	PermLabelManage, PermLabelAssign,
	PermFieldViewSensitive,
	PermAutomationView, PermAutomationManage, PermAnalyticsView,
}

func (p Permission) Valid() bool {
	for _, known := range AllPermissions {
		if p == known {
			return true
		}
	}
	return false
}

func (r BoardRole) Valid() bool {
	switch r {
	case BoardRoleOwner, BoardRoleAdmin, BoardRoleMember, BoardRoleViewer:
		return true
	}
	return false
}

func (r OrgRole) Valid() bool {
	switch r {
	case OrgRoleOwner, OrgRoleAdmin, OrgRoleMember, OrgRoleGuest:
		return true
	}
	return false
}
