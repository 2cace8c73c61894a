package models

import "github.com/google/uuid"

type List struct {
	Base
	BoardID  uuid.UUID `gorm:"type:uuid;index;not null" json:"board_id"`
	Title    string    `gorm:"not null" json:"title"`
	Position int       `gorm:"not null;default:0" json:"position"`

	Cards []Card `gorm:"foreignKey:ListID" json:"-"`
}

func (List) TableName() string {
	return "lists"
}

// Card carries no organization id of its own; ownership is derived by
// walking card -> list -> board -> organization.
type Card struct {
	Base
	ListID      uuid.UUID `gorm:"type:uuid;index;not null" json:"list_id"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `json:"description"`
	Position    int       `gorm:"not null;default:0" json:"position"`
	CreatedBy   uuid.UUID `gorm:"type:uuid" json:"created_by"`
}

func (Card) TableName() string {
	return "cards"
}

type Comment struct {
	Base
	CardID   uuid.UUID `gorm:"type:uuid;index;not null" json:"card_id"`
	AuthorID uuid.UUID `gorm:"type:uuid;index;not null" json:"author_id"`
	Body     string    `gorm:"not null" json:"body"`
}

func (Comment) TableName() string {
	return "comments"
}

type Label struct {
	Base
	BoardID uuid.UUID `gorm:"type:uuid;index;not null" json:"board_id"`
	Name    string    `gorm:"not null" json:"name"`
	Color   string    `json:"color"`
}

func (Label) TableName() string {
	return "labels"
}

type CardLabel struct {
	Base
	CardID  uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_card_label;not null" json:"card_id"`
	LabelID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_card_label;not null" json:"label_id"`
}

func (CardLabel) TableName() string {
	return "card_labels"
}
