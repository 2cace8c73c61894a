package models

import "github.com/google/uuid"

// OrgRole is the coarse organization-level role.
type OrgRole string

const (
	OrgRoleOwner  OrgRole = "owner"
	OrgRoleAdmin  OrgRole = "admin"
	OrgRoleMember OrgRole = "member"
	OrgRoleGuest  OrgRole = "guest"
)

// MembershipStatus gates an organization membership; anything other than
// ACTIVE overrides a still-valid identity assertion.
type MembershipStatus string

const (
	MembershipActive  MembershipStatus = "active"
	MembershipPending MembershipStatus = "pending"
	MembershipRevoked MembershipStatus = "revoked"
)

type Organization struct {
	Base
	Name string `gorm:"not null" json:"name"`
	Slug string `gorm:"uniqueIndex;not null" json:"slug"`
	Plan string `gorm:"default:'free'" json:"plan"` // free, pro, enterprise

	// Relationships
	Boards  []Board            `gorm:"foreignKey:OrganizationID" json:"-"`
	Schemes []PermissionScheme `gorm:"foreignKey:OrganizationID" json:"-"`
}

func (Organization) TableName() string {
	return "organizations"
}

type OrganizationMembership struct {
	UserID         uuid.UUID        `gorm:"type:uuid;primaryKey" json:"user_id"`
	OrganizationID uuid.UUID        `gorm:"type:uuid;primaryKey" json:"organization_id"`
	Role           OrgRole          `gorm:"not null;default:'member'" json:"role"`
	Status         MembershipStatus `gorm:"not null;default:'active'" json:"status"`
}

func (OrganizationMembership) TableName() string {
	return "organization_memberships"
}
