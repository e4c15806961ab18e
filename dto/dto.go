package dto

import (
	"time"

	"warbler/models"
)

// UserDTO is the public view of a user; it never carries the password hash.
type UserDTO struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	ImageURL string `json:"image_url"`
	Bio      string `json:"bio,omitempty"`
	Location string `json:"location,omitempty"`
}

// ProfileDTO is a user with their counters.
type ProfileDTO struct {
	UserDTO
	HeaderImageURL string `json:"header_image_url"`
	Messages       int64  `json:"messages"`
	Followers      int    `json:"followers"`
	Following      int    `json:"following"`
}

// MessageDTO is a Data Transfer Object for the message response
type MessageDTO struct {
	ID        uint      `json:"id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	UserID    uint      `json:"user_id"`
}

type ErrorDTO struct {
	Status   int    `json:"status"`
	ErrorMsg string `json:"error_msg"`
}

func User(u models.User) UserDTO {
	return UserDTO{ID: u.ID, Username: u.Username, ImageURL: u.ImageURL, Bio: u.Bio, Location: u.Location}
}

func Users(list []models.User) []UserDTO {
	out := make([]UserDTO, 0, len(list))
	for _, u := range list {
		out = append(out, User(u))
	}
	return out
}

func Message(m models.Message) MessageDTO {
	return MessageDTO{ID: m.ID, Text: m.Text, Timestamp: m.Timestamp, UserID: m.UserID}
}

func Messages(list []models.Message) []MessageDTO {
	out := make([]MessageDTO, 0, len(list))
	for _, m := range list {
		out = append(out, Message(m))
	}
	return out
}
