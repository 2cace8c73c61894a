package dal

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hugh/boardstack/internal/database/models"
	"github.com/hugh/boardstack/internal/tenancy"
	"gorm.io/gorm"
)

// Labels is the label facade. Assignment verifies ownership of both the
// card and the label independently before touching the join table.
type Labels struct {
	dal *DAL
}

type CreateLabelInput struct {
	BoardID uuid.UUID
	Name    string
	Color   string
}

func (l *Labels) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]models.Label, error) {
	var labels []models.Label
	err := l.dal.Tx(ctx, func(tx *gorm.DB) error {
		if _, err := l.dal.boardInOrg(tx, boardID); err != nil {
			return err
		}
		if err := tx.Where("board_id = ?", boardID).
			Order("name ASC").
			Find(&labels).Error; err != nil {
			return fmt.Errorf("listing labels: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return labels, nil
}

func (l *Labels) Create(ctx context.Context, input CreateLabelInput) (*models.Label, error) {
	label := models.Label{
		BoardID: input.BoardID,
		Name:    input.Name,
		Color:   input.Color,
	}
	err := l.dal.Tx(ctx, func(tx *gorm.DB) error {
		if _, err := l.dal.boardInOrg(tx, input.BoardID); err != nil {
			return err
		}
		if err := tx.Create(&label).Error; err != nil {
			return fmt.Errorf("creating label: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &label, nil
}

func (l *Labels) Delete(ctx context.Context, labelID uuid.UUID) error {
	return l.dal.Tx(ctx, func(tx *gorm.DB) error {
		label, err := l.dal.labelInOrg(tx, labelID)
		if err != nil {
			return err
		}
		if err := tx.Where("label_id = ?", label.ID).Delete(&models.CardLabel{}).Error; err != nil {
			return fmt.Errorf("deleting label assignments: %w", err)
		}
		if err := tx.Where("id = ?", label.ID).Delete(&models.Label{}).Error; err != nil {
			return fmt.Errorf("deleting label: %w", err)
		}
		return nil
	})
}

// Assign links a label to a card. Card and label ownership are verified
// independently, and both must resolve to the same board. Assigning an
// already-assigned label returns the existing row.
func (l *Labels) Assign(ctx context.Context, cardID, labelID uuid.UUID) (*models.CardLabel, error) {
	var assignment models.CardLabel
	err := l.dal.Tx(ctx, func(tx *gorm.DB) error {
		_, cardBoard, err := l.dal.cardInOrg(tx, cardID)
		if err != nil {
			return err
		}
		label, err := l.dal.labelInOrg(tx, labelID)
		if err != nil {
			return err
		}
		if label.BoardID != cardBoard.ID {
			return tenancy.ErrNotFound
		}

		err = tx.Where("card_id = ? AND label_id = ?", cardID, labelID).
			First(&assignment).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("looking up label assignment: %w", err)
		}

		assignment = models.CardLabel{CardID: cardID, LabelID: labelID}
		if err := tx.Create(&assignment).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// Concurrent assignment of the same pair. Re-read into a
				// fresh struct so the id stamped by the failed Create does
				// not end up in the WHERE clause.
				var existing models.CardLabel
				if err := tx.Where("card_id = ? AND label_id = ?", cardID, labelID).
					First(&existing).Error; err != nil {
					return fmt.Errorf("re-reading label assignment after race: %w", err)
				}
				assignment = existing
				return nil
			}
			return fmt.Errorf("assigning label: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

// Unassign removes a label from a card after the same dual ownership
// verification. Removing an absent assignment is a no-op.
func (l *Labels) Unassign(ctx context.Context, cardID, labelID uuid.UUID) error {
	return l.dal.Tx(ctx, func(tx *gorm.DB) error {
		_, cardBoard, err := l.dal.cardInOrg(tx, cardID)
		if err != nil {
			return err
		}
		label, err := l.dal.labelInOrg(tx, labelID)
		if err != nil {
			return err
		}
		if label.BoardID != cardBoard.ID {
			return tenancy.ErrNotFound
		}
		if err := tx.Where("card_id = ? AND label_id = ?", cardID, labelID).
			Delete(&models.CardLabel{}).Error; err != nil {
			return fmt.Errorf("unassigning label: %w", err)
		}
		return nil
	})
}
