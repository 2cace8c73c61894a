package dal

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hugh/boardstack/internal/database/models"
	"github.com/hugh/boardstack/internal/tenancy"
	"gorm.io/gorm"
)

// Cards is the card facade. Org ownership is always derived by walking
// card -> list -> board -> organization.
type Cards struct {
	dal *DAL
}

type CreateCardInput struct {
	ListID      uuid.UUID
	Title       string
	Description string
}

type UpdateCardInput struct {
	Title       *string
	Description *string
	ListID      *uuid.UUID // move to another list on the same board
}

// CardPlacement positions one card within a reorder batch. The target
// list must belong to the same board as the card.
type CardPlacement struct {
	CardID   uuid.UUID
	ListID   uuid.UUID
	Position int
}

func (c *Cards) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]models.Card, error) {
	var cards []models.Card
	err := c.dal.Tx(ctx, func(tx *gorm.DB) error {
		if _, err := c.dal.boardInOrg(tx, boardID); err != nil {
			return err
		}
		if err := tx.
			Joins("JOIN lists ON lists.id = cards.list_id").
			Where("lists.board_id = ? AND lists.deleted_at IS NULL", boardID).
			Order("cards.position ASC").
			Find(&cards).Error; err != nil {
			return fmt.Errorf("listing cards: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cards, nil
}

// BoardOf resolves the board a card belongs to, with the full ownership
// chain verified. Used by callers that need the board id for a
// permission check before acting on the card.
func (c *Cards) BoardOf(ctx context.Context, cardID uuid.UUID) (*models.Board, error) {
	var board *models.Board
	err := c.dal.Tx(ctx, func(tx *gorm.DB) error {
		var err error
		_, board, err = c.dal.cardInOrg(tx, cardID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return board, nil
}

func (c *Cards) Get(ctx context.Context, cardID uuid.UUID) (*models.Card, error) {
	var card *models.Card
	err := c.dal.Tx(ctx, func(tx *gorm.DB) error {
		var err error
		card, _, err = c.dal.cardInOrg(tx, cardID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return card, nil
}

func (c *Cards) Create(ctx context.Context, input CreateCardInput) (*models.Card, error) {
	var card models.Card
	err := c.dal.Tx(ctx, func(tx *gorm.DB) error {
		if _, _, err := c.dal.listInOrg(tx, input.ListID); err != nil {
			return err
		}
		var maxPos int
		row := tx.Model(&models.Card{}).
			Where("list_id = ?", input.ListID).
			Select("COALESCE(MAX(position), -1)").
			Row()
		if err := row.Scan(&maxPos); err != nil {
			return fmt.Errorf("computing card position: %w", err)
		}
		card = models.Card{
			ListID:      input.ListID,
			Title:       input.Title,
			Description: input.Description,
			Position:    maxPos + 1,
			CreatedBy:   c.dal.tc.UserID,
		}
		if err := tx.Create(&card).Error; err != nil {
			return fmt.Errorf("creating card: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &card, nil
}

func (c *Cards) Update(ctx context.Context, cardID uuid.UUID, input UpdateCardInput) (*models.Card, error) {
	var card *models.Card
	err := c.dal.Tx(ctx, func(tx *gorm.DB) error {
		var board *models.Board
		var err error
		card, board, err = c.dal.cardInOrg(tx, cardID)
		if err != nil {
			return err
		}
		if input.ListID != nil && *input.ListID != card.ListID {
			// The destination list must be on the same board; anything
			// else looks like a nonexistent list.
			_, destBoard, err := c.dal.listInOrg(tx, *input.ListID)
			if err != nil {
				return err
			}
			if destBoard.ID != board.ID {
				return tenancy.ErrNotFound
			}
			card.ListID = *input.ListID
		}
		if input.Title != nil {
			card.Title = *input.Title
		}
		if input.Description != nil {
			card.Description = *input.Description
		}
		if err := tx.Save(card).Error; err != nil {
			return fmt.Errorf("updating card: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return card, nil
}

func (c *Cards) Delete(ctx context.Context, cardID uuid.UUID) error {
	return c.dal.Tx(ctx, func(tx *gorm.DB) error {
		card, _, err := c.dal.cardInOrg(tx, cardID)
		if err != nil {
			return err
		}
		if err := tx.Where("card_id = ?", card.ID).Delete(&models.CardLabel{}).Error; err != nil {
			return fmt.Errorf("deleting card labels: %w", err)
		}
		if err := tx.Where("card_id = ?", card.ID).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("deleting card comments: %w", err)
		}
		if err := tx.Where("id = ?", card.ID).Delete(&models.Card{}).Error; err != nil {
			return fmt.Errorf("deleting card: %w", err)
		}
		return nil
	})
}

// Reorder applies a caller-supplied placement batch for cards on one
// board. Both the card ids and the target list ids are re-derived from
// storage; one foreign or duplicate id voids the entire batch.
func (c *Cards) Reorder(ctx context.Context, boardID uuid.UUID, placements []CardPlacement) error {
	return c.dal.Tx(ctx, func(tx *gorm.DB) error {
		if _, err := c.dal.boardInOrg(tx, boardID); err != nil {
			return err
		}

		var ownedListIDs []uuid.UUID
		if err := tx.Model(&models.List{}).
			Where("board_id = ?", boardID).
			Pluck("id", &ownedListIDs).Error; err != nil {
			return fmt.Errorf("loading board lists: %w", err)
		}
		ownedLists := make(map[uuid.UUID]bool, len(ownedListIDs))
		for _, id := range ownedListIDs {
			ownedLists[id] = true
		}

		var ownedCardIDs []uuid.UUID
		if err := tx.Model(&models.Card{}).
			Joins("JOIN lists ON lists.id = cards.list_id").
			Where("lists.board_id = ? AND lists.deleted_at IS NULL", boardID).
			Pluck("cards.id", &ownedCardIDs).Error; err != nil {
			return fmt.Errorf("loading board cards: %w", err)
		}
		ownedCards := make(map[uuid.UUID]bool, len(ownedCardIDs))
		for _, id := range ownedCardIDs {
			ownedCards[id] = true
		}

		seen := make(map[uuid.UUID]bool, len(placements))
		for _, p := range placements {
			if !ownedCards[p.CardID] || !ownedLists[p.ListID] || seen[p.CardID] {
				return tenancy.ErrNotFound
			}
			seen[p.CardID] = true
		}

		for _, p := range placements {
			if err := tx.Model(&models.Card{}).
				Where("id = ?", p.CardID).
				Updates(map[string]interface{}{
					"list_id":  p.ListID,
					"position": p.Position,
				}).Error; err != nil {
				return fmt.Errorf("reordering cards: %w", err)
			}
		}
		return nil
	})
}
