package models

// User is the internal identity record. Rows are created lazily the first
// time a token-valid external identity is seen; ExternalID is the join key
// to the identity assertion's subject.
type User struct {
	Base
	ExternalID string `gorm:"uniqueIndex;not null" json:"external_id"`
	Email      string `gorm:"index" json:"email"`
	Name       string `json:"name"`
	AvatarURL  string `json:"avatar_url,omitempty"`
}

func (User) TableName() string {
	return "users"
}
