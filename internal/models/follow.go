package models

import (
	"time"
)

// Follow represents a follow relationship
type Follow struct {
	FollowerID  int64     `gorm:"primaryKey;check:follows_not_self,follower_id <> following_id;column:follower_id"`
	FollowingID int64     `gorm:"primaryKey;index:follows_following_ix;column:following_id"`
	CreatedAt   time.Time `gorm:"not null;column:created_at"`

	// Relationships
	Follower  *User `gorm:"foreignKey:FollowerID;references:ID"`
	Following *User `gorm:"foreignKey:FollowingID;references:ID"`
}

// TableName specifies the table name for Follow
func (Follow) TableName() string {
	return "follows"
}
