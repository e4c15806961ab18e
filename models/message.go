package models

import "time"

// MaxMessageLength is the longest text a message may carry.
const MaxMessageLength = 140

// Message represents a message in the system
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"size:140;not null" json:"text"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName overrides the table name used by GORM
func (Message) TableName() string {
	return "messages"
}

// Like marks a message as liked by a user.
type Like struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"not null;uniqueIndex:idx_likes_user_message"`
	MessageID uint `gorm:"not null;uniqueIndex:idx_likes_user_message"`

	User    User    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Message Message `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE"`
}

func (Like) TableName() string {
	return "likes"
}

// All lists every model in dependency order, parents first.
func All() []interface{} {
	return []interface{}{&User{}, &Follow{}, &Message{}, &Like{}}
}
