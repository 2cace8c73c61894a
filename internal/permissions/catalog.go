package permissions

import "github.com/hugh/boardstack/internal/database/models"

// Set is a resolved collection of permission tokens.
type Set map[models.Permission]struct{}

func (s Set) Has(p models.Permission) bool {
	_, ok := s[p]
	return ok
}

func (s Set) add(p models.Permission)    { s[p] = struct{}{} }
func (s Set) remove(p models.Permission) { delete(s, p) }

func (s Set) clone() Set {
	out := make(Set, len(s))
	for p := range s {
		out[p] = struct{}{}
	}
	return out
}

func newSet(perms ...models.Permission) Set {
	s := make(Set, len(perms))
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

func allPermissions() Set {
	return newSet(models.AllPermissions...)
}

// defaultMatrix is the built-in permission matrix keyed by board role.
// Schemes layer on top of it; they never replace it wholesale.
var defaultMatrix = map[models.BoardRole]Set{
	models.BoardRoleOwner: allPermissions(),

	models.BoardRoleAdmin: func() Set {
		s := allPermissions()
		s.remove(models.PermBoardDelete)
		return s
	}(),

	models.BoardRoleMember: newSet(
		models.PermBoardView,
		models.PermListCreate,
		models.PermListEdit,
		models.PermListReorder,
		models.PermCardCreate,
		models.PermCardEdit,
		models.PermCardDelete,
		models.PermCardReorder,
		models.PermCommentCreate,
		models.PermCommentEditOwn,
		models.PermCommentDeleteOwn,
		models.PermLabelAssign,
		models.PermAutomationView,
		models.PermAnalyticsView,
	),

	models.BoardRoleViewer: newSet(
		models.PermBoardView,
		models.PermCommentCreate,
		models.PermCommentEditOwn,
		models.PermCommentDeleteOwn,
	),
}

// DefaultPermissions returns a copy of the built-in set for a role.
func DefaultPermissions(role models.BoardRole) Set {
	base, ok := defaultMatrix[role]
	if !ok {
		return newSet()
	}
	return base.clone()
}

// boardRoleRank is the fixed total order over board roles used by
// member-management hierarchy checks.
var boardRoleRank = map[models.BoardRole]int{
	models.BoardRoleViewer: 0,
	models.BoardRoleMember: 1,
	models.BoardRoleAdmin:  2,
	models.BoardRoleOwner:  3,
}

// RoleRank exposes the position of a role in the hierarchy.
func RoleRank(role models.BoardRole) int {
	return boardRoleRank[role]
}

// RoleAtLeast reports whether role is equal to or higher than other.
func RoleAtLeast(role, other models.BoardRole) bool {
	return boardRoleRank[role] >= boardRoleRank[other]
}
