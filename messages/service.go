// Package messages posts warbles and tracks likes on them.
package messages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"warbler/database"
	"warbler/models"
	"warbler/repositories"

	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidText     = fmt.Errorf("message text must be 1 to %d characters", models.MaxMessageLength)
	ErrMessageNotFound = errors.New("message not found")
	ErrOwnMessage      = errors.New("cannot like your own message")
)

const defaultListLimit = 100

type Service struct {
	messages repositories.MessageRepository
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewService(messages repositories.MessageRepository, log logrus.FieldLogger) *Service {
	return &Service{messages: messages, log: log, now: time.Now}
}

// Post stores a new message by userID.
func (s *Service) Post(ctx context.Context, userID uint, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" || utf8.RuneCountInString(text) > models.MaxMessageLength {
		return nil, ErrInvalidText
	}
	msg := &models.Message{Text: text, Timestamp: s.now().UTC(), UserID: userID}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("post message: %w", err)
	}
	s.log.WithFields(logrus.Fields{"user_id": userID, "message_id": msg.ID}).Info("message posted")
	return msg, nil
}

func (s *Service) CountByUser(ctx context.Context, userID uint) (int64, error) {
	return s.messages.CountByUser(ctx, userID)
}

// ListByUser returns the newest messages first. limit <= 0 means the default.
func (s *Service) ListByUser(ctx context.Context, userID uint, limit int) ([]models.Message, error) {
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	return s.messages.ListByUser(ctx, userID, limit)
}

// ToggleLike likes the message if userID has not yet, unlikes it otherwise.
// It returns whether the message is liked afterwards.
func (s *Service) ToggleLike(ctx context.Context, userID, messageID uint) (bool, error) {
	msg, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return false, ErrMessageNotFound
		}
		return false, err
	}
	if msg.UserID == userID {
		return false, ErrOwnMessage
	}

	removed, err := s.messages.RemoveLike(ctx, userID, messageID)
	if err != nil {
		return false, err
	}
	if removed {
		return false, nil
	}
	if err := s.messages.AddLike(ctx, userID, messageID); err != nil {
		// A concurrent toggle already inserted it.
		if database.IsUniqueViolation(err) {
			return true, nil
		}
		return false, err
	}
	return true, nil
}
