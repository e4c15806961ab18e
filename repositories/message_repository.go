package repositories

import (
	"context"

	"warbler/models"

	"gorm.io/gorm"
)

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) WithTx(tx *gorm.DB) MessageRepository {
	return &messageRepository{db: tx}
}

func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *messageRepository) FindByID(ctx context.Context, id uint) (*models.Message, error) {
	var msg models.Message
	if err := r.db.WithContext(ctx).First(&msg, id).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Message{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *messageRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]models.Message, error) {
	messages := []models.Message{}
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

func (r *messageRepository) AddLike(ctx context.Context, userID, messageID uint) error {
	return r.db.WithContext(ctx).Create(&models.Like{UserID: userID, MessageID: messageID}).Error
}

// RemoveLike reports whether a like was actually removed.
func (r *messageRepository) RemoveLike(ctx context.Context, userID, messageID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND message_id = ?", userID, messageID).
		Delete(&models.Like{})
	return res.RowsAffected > 0, res.Error
}

// DeleteAllFor removes the user's likes, likes on the user's messages, and
// the messages themselves.
func (r *messageRepository) DeleteAllFor(ctx context.Context, userID uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("user_id = ?", userID).Delete(&models.Like{}).Error; err != nil {
		return err
	}
	owned := db.Model(&models.Message{}).Select("id").Where("user_id = ?", userID)
	if err := db.Where("message_id IN (?)", owned).Delete(&models.Like{}).Error; err != nil {
		return err
	}
	return db.Where("user_id = ?", userID).Delete(&models.Message{}).Error
}
