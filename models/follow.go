package models

// Follow is a directed edge: UserFollowingID follows UserBeingFollowedID.
// Both ends reference users and go away with them.
type Follow struct {
	UserBeingFollowedID uint `gorm:"primaryKey;autoIncrement:false;column:user_being_followed_id"`
	UserFollowingID     uint `gorm:"primaryKey;autoIncrement:false;column:user_following_id"`

	UserBeingFollowed User `gorm:"foreignKey:UserBeingFollowedID;constraint:OnDelete:CASCADE" json:"-"`
	UserFollowing     User `gorm:"foreignKey:UserFollowingID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName overrides the table name used by GORM
func (Follow) TableName() string {
	return "follows"
}
