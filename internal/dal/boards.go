package dal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/boardstack/internal/database/models"
	"github.com/hugh/boardstack/internal/tenancy"
	"gorm.io/gorm"
)

// Boards is the board facade.
type Boards struct {
	dal *DAL
}

// BoardFilter narrows List results. The organization scope is injected
// unconditionally and cannot be replaced by the filter.
type BoardFilter struct {
	TitleContains string
}

// CreateBoardInput deliberately has no organization field; the verified
// context supplies it.
type CreateBoardInput struct {
	Title string
}

// UpdateBoardInput patches mutable board fields.
type UpdateBoardInput struct {
	Title *string
}

func (b *Boards) List(ctx context.Context, filter BoardFilter) ([]models.Board, error) {
	var boards []models.Board
	query := b.dal.db.WithContext(ctx).
		Where("organization_id = ?", b.dal.tc.OrgID)
	if filter.TitleContains != "" {
		query = query.Where("title LIKE ?", "%"+filter.TitleContains+"%")
	}
	if err := query.Order("created_at DESC").Find(&boards).Error; err != nil {
		return nil, fmt.Errorf("listing boards: %w", err)
	}
	return boards, nil
}

func (b *Boards) Get(ctx context.Context, boardID uuid.UUID) (*models.Board, error) {
	var board *models.Board
	err := b.dal.Tx(ctx, func(tx *gorm.DB) error {
		var err error
		board, err = b.dal.boardInOrg(tx, boardID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return board, nil
}

// Create stamps the verified organization id and makes the creator the
// board's first OWNER member in the same transaction.
func (b *Boards) Create(ctx context.Context, input CreateBoardInput) (*models.Board, error) {
	board := models.Board{
		OrganizationID: b.dal.tc.OrgID,
		Title:          input.Title,
	}
	err := b.dal.Tx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&board).Error; err != nil {
			return fmt.Errorf("creating board: %w", err)
		}
		membership := models.BoardMembership{
			BoardID:        board.ID,
			UserID:         b.dal.tc.UserID,
			OrganizationID: b.dal.tc.OrgID,
			Role:           models.BoardRoleOwner,
			JoinedAt:       time.Now(),
		}
		if err := tx.Create(&membership).Error; err != nil {
			return fmt.Errorf("creating owner membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	b.dal.perms.Invalidate(board.ID, b.dal.tc.UserID)
	b.dal.logger.Info("created board", "board_id", board.ID, "title", board.Title)
	return &board, nil
}

func (b *Boards) Update(ctx context.Context, boardID uuid.UUID, input UpdateBoardInput) (*models.Board, error) {
	var board *models.Board
	err := b.dal.Tx(ctx, func(tx *gorm.DB) error {
		var err error
		board, err = b.dal.boardInOrg(tx, boardID)
		if err != nil {
			return err
		}
		if input.Title != nil {
			board.Title = *input.Title
		}
		if err := tx.Save(board).Error; err != nil {
			return fmt.Errorf("updating board: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return board, nil
}

// Delete removes the board and everything hanging off it: comments and
// label assignments of its cards, the cards, lists, labels and board
// memberships.
func (b *Boards) Delete(ctx context.Context, boardID uuid.UUID) error {
	err := b.dal.Tx(ctx, func(tx *gorm.DB) error {
		if _, err := b.dal.boardInOrg(tx, boardID); err != nil {
			return err
		}

		listIDs := func() *gorm.DB {
			return tx.Model(&models.List{}).Select("id").Where("board_id = ?", boardID)
		}
		cardIDs := func() *gorm.DB {
			return tx.Model(&models.Card{}).Select("id").Where("list_id IN (?)", listIDs())
		}

		if err := tx.Where("card_id IN (?)", cardIDs()).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("deleting board comments: %w", err)
		}
		if err := tx.Where("card_id IN (?)", cardIDs()).Delete(&models.CardLabel{}).Error; err != nil {
			return fmt.Errorf("deleting board label assignments: %w", err)
		}
		if err := tx.Where("list_id IN (?)", listIDs()).Delete(&models.Card{}).Error; err != nil {
			return fmt.Errorf("deleting board cards: %w", err)
		}
		if err := tx.Where("board_id = ?", boardID).Delete(&models.List{}).Error; err != nil {
			return fmt.Errorf("deleting board lists: %w", err)
		}
		if err := tx.Where("board_id = ?", boardID).Delete(&models.Label{}).Error; err != nil {
			return fmt.Errorf("deleting board labels: %w", err)
		}
		if err := tx.Where("board_id = ?", boardID).Delete(&models.BoardMembership{}).Error; err != nil {
			return fmt.Errorf("deleting board memberships: %w", err)
		}
		if err := tx.Where("id = ?", boardID).Delete(&models.Board{}).Error; err != nil {
			return fmt.Errorf("deleting board: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	b.dal.perms.InvalidateBoard(boardID)
	return nil
}

// ReorderLists applies a caller-supplied ordering of list ids. The ids
// actually belonging to the board are re-derived from storage; any
// supplied id outside that set voids the whole batch, so a smuggled
// foreign-tenant id can never be touched.
func (b *Boards) ReorderLists(ctx context.Context, boardID uuid.UUID, orderedIDs []uuid.UUID) error {
	return b.dal.Tx(ctx, func(tx *gorm.DB) error {
		if _, err := b.dal.boardInOrg(tx, boardID); err != nil {
			return err
		}

		var ownedIDs []uuid.UUID
		if err := tx.Model(&models.List{}).
			Where("board_id = ?", boardID).
			Pluck("id", &ownedIDs).Error; err != nil {
			return fmt.Errorf("loading board lists: %w", err)
		}
		owned := make(map[uuid.UUID]bool, len(ownedIDs))
		for _, id := range ownedIDs {
			owned[id] = true
		}
		seen := make(map[uuid.UUID]bool, len(orderedIDs))
		for _, id := range orderedIDs {
			if !owned[id] || seen[id] {
				return tenancy.ErrNotFound
			}
			seen[id] = true
		}

		for position, id := range orderedIDs {
			if err := tx.Model(&models.List{}).
				Where("id = ? AND board_id = ?", id, boardID).
				Update("position", position).Error; err != nil {
				return fmt.Errorf("reordering lists: %w", err)
			}
		}
		return nil
	})
}
