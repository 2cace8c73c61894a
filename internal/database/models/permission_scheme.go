package models

import "github.com/google/uuid"

// PermissionScheme is an organization-owned override table. A scheme
// assigned to a board overrides the default role matrix for that board; a
// scheme assigned to an individual membership overrides both. At most one
// scheme per organization may be flagged default.
type PermissionScheme struct {
	Base
	OrganizationID uuid.UUID `gorm:"type:uuid;index;not null" json:"organization_id"`
	Name           string    `gorm:"not null" json:"name"`
	Description    string    `json:"description"`
	IsDefault      bool      `gorm:"not null;default:false" json:"is_default"`

	Entries []PermissionSchemeEntry `gorm:"foreignKey:SchemeID" json:"entries,omitempty"`
}

func (PermissionScheme) TableName() string {
	return "permission_schemes"
}

// PermissionSchemeEntry grants or removes a single permission for a board
// role. Granted=false removes the permission even if the default matrix
// includes it.
type PermissionSchemeEntry struct {
	Base
	SchemeID   uuid.UUID  `gorm:"type:uuid;uniqueIndex:idx_scheme_role_perm;not null" json:"scheme_id"`
	Role       BoardRole  `gorm:"uniqueIndex:idx_scheme_role_perm;not null" json:"role"`
	Permission Permission `gorm:"uniqueIndex:idx_scheme_role_perm;not null" json:"permission"`
	Granted    bool       `gorm:"not null" json:"granted"`
}

func (PermissionSchemeEntry) TableName() string {
	return "permission_scheme_entries"
}
