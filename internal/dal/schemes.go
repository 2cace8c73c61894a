package dal

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hugh/boardstack/internal/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Schemes manages permission schemes and their entries. Every write
// invalidates the request's permission cache so later checks in the same
// request observe the fresh state.
type Schemes struct {
	dal *DAL
}

type CreateSchemeInput struct {
	Name        string
	Description string
}

// SchemeEntryInput is one granted/revoked permission for a role.
type SchemeEntryInput struct {
	Role       models.BoardRole
	Permission models.Permission
	Granted    bool
}

func (s *Schemes) List(ctx context.Context) ([]models.PermissionScheme, error) {
	var schemes []models.PermissionScheme
	if err := s.dal.db.WithContext(ctx).
		Where("organization_id = ?", s.dal.tc.OrgID).
		Order("created_at ASC").
		Find(&schemes).Error; err != nil {
		return nil, fmt.Errorf("listing schemes: %w", err)
	}
	return schemes, nil
}

func (s *Schemes) Get(ctx context.Context, schemeID uuid.UUID) (*models.PermissionScheme, error) {
	var scheme *models.PermissionScheme
	err := s.dal.Tx(ctx, func(tx *gorm.DB) error {
		var err error
		scheme, err = s.dal.schemeInOrg(tx, schemeID)
		if err != nil {
			return err
		}
		if err := tx.Where("scheme_id = ?", schemeID).
			Find(&scheme.Entries).Error; err != nil {
			return fmt.Errorf("loading scheme entries: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return scheme, nil
}

func (s *Schemes) Create(ctx context.Context, input CreateSchemeInput) (*models.PermissionScheme, error) {
	scheme := models.PermissionScheme{
		OrganizationID: s.dal.tc.OrgID,
		Name:           input.Name,
		Description:    input.Description,
	}
	err := s.dal.Tx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&scheme).Error
	})
	if err != nil {
		return nil, fmt.Errorf("creating scheme: %w", err)
	}
	return &scheme, nil
}

func (s *Schemes) Delete(ctx context.Context, schemeID uuid.UUID) error {
	err := s.dal.Tx(ctx, func(tx *gorm.DB) error {
		scheme, err := s.dal.schemeInOrg(tx, schemeID)
		if err != nil {
			return err
		}
		// Detach anything still pointing at the scheme.
		if err := tx.Model(&models.Board{}).
			Where("organization_id = ? AND scheme_id = ?", s.dal.tc.OrgID, scheme.ID).
			Update("scheme_id", nil).Error; err != nil {
			return fmt.Errorf("detaching boards: %w", err)
		}
		if err := tx.Model(&models.BoardMembership{}).
			Where("organization_id = ? AND scheme_id = ?", s.dal.tc.OrgID, scheme.ID).
			Update("scheme_id", nil).Error; err != nil {
			return fmt.Errorf("detaching memberships: %w", err)
		}
		if err := tx.Where("scheme_id = ?", scheme.ID).
			Delete(&models.PermissionSchemeEntry{}).Error; err != nil {
			return fmt.Errorf("deleting scheme entries: %w", err)
		}
		if err := tx.Where("id = ?", scheme.ID).
			Delete(&models.PermissionScheme{}).Error; err != nil {
			return fmt.Errorf("deleting scheme: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.dal.perms.ClearCache()
	return nil
}

// UpsertEntries writes scheme entries, one row per (role, permission).
// Unknown roles or permissions are rejected before any write.
func (s *Schemes) UpsertEntries(ctx context.Context, schemeID uuid.UUID, entries []SchemeEntryInput) error {
	for _, e := range entries {
		if !e.Role.Valid() {
			return fmt.Errorf("invalid board role %q", e.Role)
		}
		if !e.Permission.Valid() {
			return fmt.Errorf("invalid permission %q", e.Permission)
		}
	}

	err := s.dal.Tx(ctx, func(tx *gorm.DB) error {
		if _, err := s.dal.schemeInOrg(tx, schemeID); err != nil {
			return err
		}
		for _, e := range entries {
			entry := models.PermissionSchemeEntry{
				SchemeID:   schemeID,
				Role:       e.Role,
				Permission: e.Permission,
				Granted:    e.Granted,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{
					{Name: "scheme_id"},
					{Name: "role"},
					{Name: "permission"},
				},
				DoUpdates: clause.AssignmentColumns([]string{"granted"}),
			}).Create(&entry).Error; err != nil {
				return fmt.Errorf("upserting scheme entry: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.dal.perms.ClearCache()
	return nil
}

// SetDefault flags the scheme as the organization default, clearing any
// previous default in the same transaction.
func (s *Schemes) SetDefault(ctx context.Context, schemeID uuid.UUID) error {
	err := s.dal.Tx(ctx, func(tx *gorm.DB) error {
		scheme, err := s.dal.schemeInOrg(tx, schemeID)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.PermissionScheme{}).
			Where("organization_id = ? AND is_default = ?", s.dal.tc.OrgID, true).
			Update("is_default", false).Error; err != nil {
			return fmt.Errorf("clearing previous default: %w", err)
		}
		if err := tx.Model(scheme).Update("is_default", true).Error; err != nil {
			return fmt.Errorf("setting default scheme: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.dal.perms.ClearCache()
	return nil
}

// AssignToBoard points a board at a scheme, or clears the assignment when
// schemeID is nil.
func (s *Schemes) AssignToBoard(ctx context.Context, boardID uuid.UUID, schemeID *uuid.UUID) error {
	err := s.dal.Tx(ctx, func(tx *gorm.DB) error {
		board, err := s.dal.boardInOrg(tx, boardID)
		if err != nil {
			return err
		}
		if schemeID != nil {
			if _, err := s.dal.schemeInOrg(tx, *schemeID); err != nil {
				return err
			}
		}
		if err := tx.Model(board).Update("scheme_id", schemeID).Error; err != nil {
			return fmt.Errorf("assigning scheme to board: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.dal.perms.InvalidateBoard(boardID)
	return nil
}

// AssignToMember sets or clears a member's personal override scheme.
func (s *Schemes) AssignToMember(ctx context.Context, boardID, userID uuid.UUID, schemeID *uuid.UUID) error {
	err := s.dal.Tx(ctx, func(tx *gorm.DB) error {
		if _, err := s.dal.boardInOrg(tx, boardID); err != nil {
			return err
		}
		if schemeID != nil {
			if _, err := s.dal.schemeInOrg(tx, *schemeID); err != nil {
				return err
			}
		}
		var membership models.BoardMembership
		if err := tx.Where("board_id = ? AND user_id = ?", boardID, userID).
			First(&membership).Error; err != nil {
			return notFoundOr(err, "looking up board membership")
		}
		if err := tx.Model(&membership).Update("scheme_id", schemeID).Error; err != nil {
			return fmt.Errorf("assigning scheme to member: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.dal.perms.Invalidate(boardID, userID)
	return nil
}
