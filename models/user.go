package models

import (
	"fmt"
)

const (
	DefaultImageURL       = "/static/images/default-pic.png"
	DefaultHeaderImageURL = "/static/images/warbler-hero.jpg"
)

// User represents a user in the database
type User struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	Username       string `gorm:"uniqueIndex;not null;size:255" json:"username"`
	Email          string `gorm:"uniqueIndex;not null;size:255" json:"email"`
	Password       string `gorm:"not null" json:"-"`
	ImageURL       string `gorm:"default:/static/images/default-pic.png" json:"image_url"`
	HeaderImageURL string `gorm:"default:/static/images/warbler-hero.jpg" json:"header_image_url"`
	Bio            string `json:"bio"`
	Location       string `json:"location"`
}

// TableName overrides the table name used by User to `users`
func (User) TableName() string {
	return "users"
}

func (u *User) String() string {
	return fmt.Sprintf("<User #%d: %s, %s>", u.ID, u.Username, u.Email)
}
