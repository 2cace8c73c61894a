package dal

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hugh/boardstack/internal/database/models"
	"github.com/hugh/boardstack/internal/permissions"
	"github.com/hugh/boardstack/internal/tenancy"
	"gorm.io/gorm"
)

// Comments is the comment facade. Edits and deletes are authorship-scoped:
// the "own" permission covers the author's comments, "any" covers the rest.
type Comments struct {
	dal *DAL
}

func (c *Comments) ListByCard(ctx context.Context, cardID uuid.UUID) ([]models.Comment, error) {
	var comments []models.Comment
	err := c.dal.Tx(ctx, func(tx *gorm.DB) error {
		if _, _, err := c.dal.cardInOrg(tx, cardID); err != nil {
			return err
		}
		if err := tx.Where("card_id = ?", cardID).
			Order("created_at ASC").
			Find(&comments).Error; err != nil {
			return fmt.Errorf("listing comments: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return comments, nil
}

func (c *Comments) Create(ctx context.Context, cardID uuid.UUID, body string) (*models.Comment, error) {
	comment := models.Comment{
		CardID:   cardID,
		AuthorID: c.dal.tc.UserID,
		Body:     body,
	}
	err := c.dal.Tx(ctx, func(tx *gorm.DB) error {
		if _, _, err := c.dal.cardInOrg(tx, cardID); err != nil {
			return err
		}
		if err := tx.Create(&comment).Error; err != nil {
			return fmt.Errorf("creating comment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// Update edits a comment body. The actor needs edit_own for their own
// comments and edit_any for anyone else's.
func (c *Comments) Update(ctx context.Context, commentID uuid.UUID, body string, actor *permissions.Resolved) (*models.Comment, error) {
	var comment models.Comment
	err := c.dal.Tx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", commentID).First(&comment).Error; err != nil {
			return notFoundOr(err, "looking up comment")
		}
		if _, _, err := c.dal.cardInOrg(tx, comment.CardID); err != nil {
			return err
		}
		if err := c.authorizeAuthorship(&comment, actor,
			models.PermCommentEditOwn, models.PermCommentEditAny); err != nil {
			return err
		}
		comment.Body = body
		if err := tx.Save(&comment).Error; err != nil {
			return fmt.Errorf("updating comment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (c *Comments) Delete(ctx context.Context, commentID uuid.UUID, actor *permissions.Resolved) error {
	return c.dal.Tx(ctx, func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.Where("id = ?", commentID).First(&comment).Error; err != nil {
			return notFoundOr(err, "looking up comment")
		}
		if _, _, err := c.dal.cardInOrg(tx, comment.CardID); err != nil {
			return err
		}
		if err := c.authorizeAuthorship(&comment, actor,
			models.PermCommentDeleteOwn, models.PermCommentDeleteAny); err != nil {
			return err
		}
		if err := tx.Where("id = ?", comment.ID).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("deleting comment: %w", err)
		}
		return nil
	})
}

func (c *Comments) authorizeAuthorship(comment *models.Comment, actor *permissions.Resolved, own, any models.Permission) error {
	if actor.Has(any) {
		return nil
	}
	if comment.AuthorID == c.dal.tc.UserID && actor.Has(own) {
		return nil
	}
	return tenancy.ErrForbidden
}
