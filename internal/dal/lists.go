package dal

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hugh/boardstack/internal/database/models"
	"gorm.io/gorm"
)

// Lists is the list facade. Org ownership is always derived through the
// parent board.
type Lists struct {
	dal *DAL
}

type CreateListInput struct {
	BoardID uuid.UUID
	Title   string
}

type UpdateListInput struct {
	Title *string
}

func (l *Lists) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]models.List, error) {
	var lists []models.List
	err := l.dal.Tx(ctx, func(tx *gorm.DB) error {
		if _, err := l.dal.boardInOrg(tx, boardID); err != nil {
			return err
		}
		if err := tx.Where("board_id = ?", boardID).
			Order("position ASC").
			Find(&lists).Error; err != nil {
			return fmt.Errorf("listing lists: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lists, nil
}

func (l *Lists) Get(ctx context.Context, listID uuid.UUID) (*models.List, error) {
	var list *models.List
	err := l.dal.Tx(ctx, func(tx *gorm.DB) error {
		var err error
		list, _, err = l.dal.listInOrg(tx, listID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (l *Lists) Create(ctx context.Context, input CreateListInput) (*models.List, error) {
	var list models.List
	err := l.dal.Tx(ctx, func(tx *gorm.DB) error {
		if _, err := l.dal.boardInOrg(tx, input.BoardID); err != nil {
			return err
		}
		var maxPos int
		row := tx.Model(&models.List{}).
			Where("board_id = ?", input.BoardID).
			Select("COALESCE(MAX(position), -1)").
			Row()
		if err := row.Scan(&maxPos); err != nil {
			return fmt.Errorf("computing list position: %w", err)
		}
		list = models.List{
			BoardID:  input.BoardID,
			Title:    input.Title,
			Position: maxPos + 1,
		}
		if err := tx.Create(&list).Error; err != nil {
			return fmt.Errorf("creating list: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &list, nil
}

func (l *Lists) Update(ctx context.Context, listID uuid.UUID, input UpdateListInput) (*models.List, error) {
	var list *models.List
	err := l.dal.Tx(ctx, func(tx *gorm.DB) error {
		var err error
		list, _, err = l.dal.listInOrg(tx, listID)
		if err != nil {
			return err
		}
		if input.Title != nil {
			list.Title = *input.Title
		}
		if err := tx.Save(list).Error; err != nil {
			return fmt.Errorf("updating list: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (l *Lists) Delete(ctx context.Context, listID uuid.UUID) error {
	return l.dal.Tx(ctx, func(tx *gorm.DB) error {
		list, _, err := l.dal.listInOrg(tx, listID)
		if err != nil {
			return err
		}
		cardIDs := func() *gorm.DB {
			return tx.Model(&models.Card{}).Select("id").Where("list_id = ?", list.ID)
		}
		if err := tx.Where("card_id IN (?)", cardIDs()).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("deleting list comments: %w", err)
		}
		if err := tx.Where("card_id IN (?)", cardIDs()).Delete(&models.CardLabel{}).Error; err != nil {
			return fmt.Errorf("deleting list label assignments: %w", err)
		}
		if err := tx.Where("list_id = ?", list.ID).Delete(&models.Card{}).Error; err != nil {
			return fmt.Errorf("deleting list cards: %w", err)
		}
		if err := tx.Where("id = ?", list.ID).Delete(&models.List{}).Error; err != nil {
			return fmt.Errorf("deleting list: %w", err)
		}
		return nil
	})
}
