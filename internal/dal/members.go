package dal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/boardstack/internal/database/models"
	"github.com/hugh/boardstack/internal/permissions"
	"github.com/hugh/boardstack/internal/tenancy"
	"gorm.io/gorm"
)

// ErrAlreadyMember is returned when adding a user who already holds a
// membership on the board.
var ErrAlreadyMember = errors.New("user is already a board member")

// Members manages board memberships. Hierarchy rule: an actor may only
// assign or remove roles strictly below their own. Acting on oneself is
// exempt so owners can step down and members can leave, except that the
// last remaining OWNER of a board can be neither demoted nor removed.
type Members struct {
	dal *DAL
}

func (m *Members) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]models.BoardMembership, error) {
	var members []models.BoardMembership
	err := m.dal.Tx(ctx, func(tx *gorm.DB) error {
		if _, err := m.dal.boardInOrg(tx, boardID); err != nil {
			return err
		}
		if err := tx.Where("board_id = ?", boardID).
			Order("joined_at ASC").
			Find(&members).Error; err != nil {
			return fmt.Errorf("listing board members: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return members, nil
}

// Add creates a membership. The target must be an active member of the
// organization; a user unknown to the org looks like a nonexistent user.
func (m *Members) Add(ctx context.Context, boardID, userID uuid.UUID, role models.BoardRole, actor *permissions.Resolved) (*models.BoardMembership, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("invalid board role %q", role)
	}
	if permissions.RoleAtLeast(role, actor.Role) {
		return nil, tenancy.ErrForbidden
	}

	membership := models.BoardMembership{
		BoardID:        boardID,
		UserID:         userID,
		OrganizationID: m.dal.tc.OrgID,
		Role:           role,
		InvitedBy:      &m.dal.tc.UserID,
		JoinedAt:       time.Now(),
	}
	err := m.dal.Tx(ctx, func(tx *gorm.DB) error {
		if _, err := m.dal.boardInOrg(tx, boardID); err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&models.OrganizationMembership{}).
			Where("user_id = ? AND organization_id = ? AND status = ?",
				userID, m.dal.tc.OrgID, models.MembershipActive).
			Count(&count).Error; err != nil {
			return fmt.Errorf("checking organization membership: %w", err)
		}
		if count == 0 {
			return tenancy.ErrNotFound
		}
		if err := tx.Create(&membership).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyMember
			}
			return fmt.Errorf("creating board membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.dal.perms.Invalidate(boardID, userID)
	m.dal.logger.Info("added board member",
		"board_id", boardID,
		"user_id", userID,
		"role", role,
	)
	return &membership, nil
}

// UpdateRole changes a member's role. Both the member's current role and
// the new role must be strictly below the actor's own, unless the actor
// is demoting themselves.
func (m *Members) UpdateRole(ctx context.Context, boardID, userID uuid.UUID, newRole models.BoardRole, actor *permissions.Resolved) (*models.BoardMembership, error) {
	if !newRole.Valid() {
		return nil, fmt.Errorf("invalid board role %q", newRole)
	}
	self := userID == m.dal.tc.UserID
	if !self && permissions.RoleAtLeast(newRole, actor.Role) {
		return nil, tenancy.ErrForbidden
	}

	var membership models.BoardMembership
	err := m.dal.Tx(ctx, func(tx *gorm.DB) error {
		target, err := m.targetMembership(tx, boardID, userID)
		if err != nil {
			return err
		}
		if !self && permissions.RoleAtLeast(target.Role, actor.Role) {
			return tenancy.ErrForbidden
		}
		// Self-service only ever goes down.
		if self && permissions.RoleRank(newRole) > permissions.RoleRank(target.Role) {
			return tenancy.ErrForbidden
		}
		if target.Role == models.BoardRoleOwner && newRole != models.BoardRoleOwner {
			if err := m.guardLastOwner(tx, boardID, target.ID); err != nil {
				return err
			}
		}
		target.Role = newRole
		if err := tx.Save(target).Error; err != nil {
			return fmt.Errorf("updating board membership: %w", err)
		}
		membership = *target
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.dal.perms.Invalidate(boardID, userID)
	return &membership, nil
}

// Remove deletes a membership subject to the same hierarchy and
// last-owner guards. Removing oneself is leaving the board.
func (m *Members) Remove(ctx context.Context, boardID, userID uuid.UUID, actor *permissions.Resolved) error {
	self := userID == m.dal.tc.UserID
	err := m.dal.Tx(ctx, func(tx *gorm.DB) error {
		target, err := m.targetMembership(tx, boardID, userID)
		if err != nil {
			return err
		}
		if !self && permissions.RoleAtLeast(target.Role, actor.Role) {
			return tenancy.ErrForbidden
		}
		if target.Role == models.BoardRoleOwner {
			if err := m.guardLastOwner(tx, boardID, target.ID); err != nil {
				return err
			}
		}
		if err := tx.Where("id = ?", target.ID).Delete(&models.BoardMembership{}).Error; err != nil {
			return fmt.Errorf("removing board membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	m.dal.perms.Invalidate(boardID, userID)
	m.dal.logger.Info("removed board member", "board_id", boardID, "user_id", userID)
	return nil
}

func (m *Members) targetMembership(tx *gorm.DB, boardID, userID uuid.UUID) (*models.BoardMembership, error) {
	if _, err := m.dal.boardInOrg(tx, boardID); err != nil {
		return nil, err
	}
	var membership models.BoardMembership
	if err := tx.Where("board_id = ? AND user_id = ?", boardID, userID).
		First(&membership).Error; err != nil {
		return nil, notFoundOr(err, "looking up board membership")
	}
	return &membership, nil
}

// guardLastOwner rejects the operation when the membership is the board's
// only remaining OWNER.
func (m *Members) guardLastOwner(tx *gorm.DB, boardID uuid.UUID, membershipID uuid.UUID) error {
	var owners int64
	if err := tx.Model(&models.BoardMembership{}).
		Where("board_id = ? AND role = ? AND id != ?", boardID, models.BoardRoleOwner, membershipID).
		Count(&owners).Error; err != nil {
		return fmt.Errorf("counting board owners: %w", err)
	}
	if owners == 0 {
		return tenancy.ErrForbidden
	}
	return nil
}
