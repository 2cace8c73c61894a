package tenancy

import (
	"strings"

	"github.com/hugh/boardstack/internal/database/models"
)

// NormalizeOrgRole maps a free-text role claim onto the closed org role
// enum. Unrecognized claims default to member, the lowest non-guest role.
// This is bootstrap trust only: once a local membership row exists its
// stored role always wins over the claim.
func NormalizeOrgRole(claim string) models.OrgRole {
	lowered := strings.ToLower(strings.TrimSpace(claim))
	switch {
	case strings.Contains(lowered, "owner"):
		return models.OrgRoleOwner
	case strings.Contains(lowered, "admin"):
		return models.OrgRoleAdmin
	case strings.Contains(lowered, "guest"):
		return models.OrgRoleGuest
	default:
		return models.OrgRoleMember
	}
}
