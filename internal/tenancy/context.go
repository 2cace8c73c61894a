package tenancy

import (
	"github.com/google/uuid"
	"github.com/hugh/boardstack/internal/database/models"
)

// Membership is the organization-membership slice of a resolved context.
type Membership struct {
	Role     models.OrgRole
	IsActive bool
}

// TenantContext is the single verified (user, organization, role) triple
// every downstream call trusts. It lives for one request and is never
// persisted. A TenantContext is only ever produced by Resolver.Resolve;
// resolution failures produce an error, never a partial value.
type TenantContext struct {
	UserID       uuid.UUID
	OrgID        uuid.UUID
	OrgRoleClaim string
	Membership   Membership
}

// orgRoleRank orders organization roles for threshold checks.
var orgRoleRank = map[models.OrgRole]int{
	models.OrgRoleGuest:  0,
	models.OrgRoleMember: 1,
	models.OrgRoleAdmin:  2,
	models.OrgRoleOwner:  3,
}

// RequireRole fails with ErrForbidden unless the context's organization
// role meets the minimum.
func RequireRole(tc *TenantContext, minimum models.OrgRole) error {
	if tc == nil {
		return ErrUnauthenticated
	}
	if !tc.Membership.IsActive {
		return ErrForbidden
	}
	if orgRoleRank[tc.Membership.Role] < orgRoleRank[minimum] {
		return ErrForbidden
	}
	return nil
}
