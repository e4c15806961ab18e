package repositories

import (
	"context"

	"warbler/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type followRepository struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) WithTx(tx *gorm.DB) FollowRepository {
	return &followRepository{db: tx}
}

// Follow a user. Following twice is a no-op.
func (r *followRepository) Follow(ctx context.Context, followerID, followedID uint) error {
	follow := models.Follow{UserFollowingID: followerID, UserBeingFollowedID: followedID}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&follow).Error
}

// Unfollow a user
func (r *followRepository) Unfollow(ctx context.Context, followerID, followedID uint) error {
	return r.db.WithContext(ctx).
		Where("user_following_id = ? AND user_being_followed_id = ?", followerID, followedID).
		Delete(&models.Follow{}).Error
}

func (r *followRepository) Exists(ctx context.Context, followerID, followedID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("user_following_id = ? AND user_being_followed_id = ?", followerID, followedID).
		Count(&count).Error
	return count > 0, err
}

// FollowerIDs returns the ids of users following userID
func (r *followRepository) FollowerIDs(ctx context.Context, userID uint) ([]uint, error) {
	ids := []uint{}
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("user_being_followed_id = ?", userID).
		Order("user_following_id").
		Pluck("user_following_id", &ids).Error
	return ids, err
}

// FollowingIDs returns the ids of users userID follows
func (r *followRepository) FollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	ids := []uint{}
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("user_following_id = ?", userID).
		Order("user_being_followed_id").
		Pluck("user_being_followed_id", &ids).Error
	return ids, err
}

// DeleteAllFor removes every edge touching userID in either direction.
func (r *followRepository) DeleteAllFor(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).
		Where("user_following_id = ? OR user_being_followed_id = ?", userID, userID).
		Delete(&models.Follow{}).Error
}
