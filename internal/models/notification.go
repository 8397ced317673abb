package models

import (
	"database/sql"
	"time"
)

// Notification represents an inbox entry created as a side effect of an interaction
type Notification struct {
	ID          int64         `gorm:"primaryKey;autoIncrement;column:id"`
	RecipientID int64         `gorm:"not null;index:notifications_recipient_ix;column:recipient_id"`
	SenderID    int64         `gorm:"not null;column:sender_id"`
	Type        string        `gorm:"type:varchar(16);not null;column:type"`
	PostID      sql.NullInt64 `gorm:"column:post_id"`
	CommentID   sql.NullInt64 `gorm:"column:comment_id"`
	Read        bool          `gorm:"not null;default:false;column:is_read"`
	CreatedAt   time.Time     `gorm:"not null;column:created_at"`

	// Relationships
	Sender  *User    `gorm:"foreignKey:SenderID;references:ID"`
	Post    *Post    `gorm:"foreignKey:PostID;references:ID"`
	Comment *Comment `gorm:"foreignKey:CommentID;references:ID"`
}

// TableName specifies the table name for Notification
func (Notification) TableName() string {
	return "notifications"
}

// Notification type constants
const (
	NotifyTypeLike     = "LIKE"
	NotifyTypeFavorite = "FAVORITE"
	NotifyTypeComment  = "COMMENT"
	NotifyTypeFollow   = "FOLLOW"
)

// All returns every model that takes part in schema migration
func All() []interface{} {
	return []interface{}{
		&User{},
		&Tag{},
		&Post{},
		&PostTag{},
		&Like{},
		&Favorite{},
		&Follow{},
		&Comment{},
		&Notification{},
	}
}
