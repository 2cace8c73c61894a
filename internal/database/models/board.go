package models

import (
	"time"

	"github.com/google/uuid"
)

// BoardRole is the board-level role; org-level role does not imply any of
// these — access requires an explicit BoardMembership row.
type BoardRole string

const (
	BoardRoleOwner  BoardRole = "owner"
	BoardRoleAdmin  BoardRole = "admin"
	BoardRoleMember BoardRole = "member"
	BoardRoleViewer BoardRole = "viewer"
)

type Board struct {
	Base
	OrganizationID uuid.UUID  `gorm:"type:uuid;index;not null" json:"organization_id"`
	Title          string     `gorm:"not null" json:"title"`
	SchemeID       *uuid.UUID `gorm:"type:uuid" json:"scheme_id,omitempty"`

	// Relationships
	Lists   []List            `gorm:"foreignKey:BoardID" json:"-"`
	Members []BoardMembership `gorm:"foreignKey:BoardID" json:"-"`
	Scheme  *PermissionScheme `gorm:"foreignKey:SchemeID" json:"-"`
}

func (Board) TableName() string {
	return "boards"
}

type BoardMembership struct {
	Base
	BoardID        uuid.UUID  `gorm:"type:uuid;uniqueIndex:idx_board_user;not null" json:"board_id"`
	UserID         uuid.UUID  `gorm:"type:uuid;uniqueIndex:idx_board_user;not null" json:"user_id"`
	OrganizationID uuid.UUID  `gorm:"type:uuid;index;not null" json:"organization_id"`
	Role           BoardRole  `gorm:"not null;default:'member'" json:"role"`
	InvitedBy      *uuid.UUID `gorm:"type:uuid" json:"invited_by,omitempty"`
	JoinedAt       time.Time  `json:"joined_at"`
	SchemeID       *uuid.UUID `gorm:"type:uuid" json:"scheme_id,omitempty"` // personal override scheme
}

func (BoardMembership) TableName() string {
	return "board_memberships"
}
