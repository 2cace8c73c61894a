package dal

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hugh/boardstack/internal/database/models"
	"github.com/hugh/boardstack/internal/permissions"
	"github.com/hugh/boardstack/internal/tenancy"
	"gorm.io/gorm"
)

// DAL is the only permitted storage path for tenant-scoped entities. One
// DAL is constructed per request, bound to the request's verified tenant
// context; every operation re-derives organization ownership from storage
// rather than trusting caller-supplied ids.
type DAL struct {
	db     *gorm.DB
	tc     *tenancy.TenantContext
	perms  *permissions.Resolver
	logger *slog.Logger
}

func New(db *gorm.DB, tc *tenancy.TenantContext, perms *permissions.Resolver, logger *slog.Logger) *DAL {
	return &DAL{db: db, tc: tc, perms: perms, logger: logger}
}

func (d *DAL) Boards() *Boards     { return &Boards{d} }
func (d *DAL) Lists() *Lists       { return &Lists{d} }
func (d *DAL) Cards() *Cards       { return &Cards{d} }
func (d *DAL) Comments() *Comments { return &Comments{d} }
func (d *DAL) Labels() *Labels     { return &Labels{d} }
func (d *DAL) Members() *Members   { return &Members{d} }
func (d *DAL) Schemes() *Schemes   { return &Schemes{d} }

// notFoundOr collapses record-not-found into the uniform ErrNotFound and
// wraps anything else.
func notFoundOr(err error, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return tenancy.ErrNotFound
	}
	return fmt.Errorf("%s: %w", action, err)
}

// boardInOrg fetches a board and verifies it belongs to the caller's
// organization. Absence and foreign ownership are indistinguishable.
func (d *DAL) boardInOrg(tx *gorm.DB, boardID uuid.UUID) (*models.Board, error) {
	var board models.Board
	if err := tx.Where("id = ? AND organization_id = ?", boardID, d.tc.OrgID).
		First(&board).Error; err != nil {
		return nil, notFoundOr(err, "looking up board")
	}
	return &board, nil
}

// listInOrg walks list -> board -> organization.
func (d *DAL) listInOrg(tx *gorm.DB, listID uuid.UUID) (*models.List, *models.Board, error) {
	var list models.List
	if err := tx.Where("id = ?", listID).First(&list).Error; err != nil {
		return nil, nil, notFoundOr(err, "looking up list")
	}
	board, err := d.boardInOrg(tx, list.BoardID)
	if err != nil {
		return nil, nil, err
	}
	return &list, board, nil
}

// cardInOrg walks card -> list -> board -> organization.
func (d *DAL) cardInOrg(tx *gorm.DB, cardID uuid.UUID) (*models.Card, *models.Board, error) {
	var card models.Card
	if err := tx.Where("id = ?", cardID).First(&card).Error; err != nil {
		return nil, nil, notFoundOr(err, "looking up card")
	}
	_, board, err := d.listInOrg(tx, card.ListID)
	if err != nil {
		return nil, nil, err
	}
	return &card, board, nil
}

// labelInOrg walks label -> board -> organization.
func (d *DAL) labelInOrg(tx *gorm.DB, labelID uuid.UUID) (*models.Label, error) {
	var label models.Label
	if err := tx.Where("id = ?", labelID).First(&label).Error; err != nil {
		return nil, notFoundOr(err, "looking up label")
	}
	if _, err := d.boardInOrg(tx, label.BoardID); err != nil {
		return nil, err
	}
	return &label, nil
}

// schemeInOrg verifies a permission scheme belongs to the caller's
// organization.
func (d *DAL) schemeInOrg(tx *gorm.DB, schemeID uuid.UUID) (*models.PermissionScheme, error) {
	var scheme models.PermissionScheme
	if err := tx.Where("id = ? AND organization_id = ?", schemeID, d.tc.OrgID).
		First(&scheme).Error; err != nil {
		return nil, notFoundOr(err, "looking up scheme")
	}
	return &scheme, nil
}
