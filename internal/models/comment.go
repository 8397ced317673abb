package models

import (
	"database/sql"
	"time"
)

// Comment is a reply on a post. ParentID points at another comment when threaded.
type Comment struct {
	ID        int64         `gorm:"primaryKey;autoIncrement;column:id"`
	PostID    int64         `gorm:"not null;index:comments_post_ix;column:post_id"`
	AuthorID  int64         `gorm:"not null;column:author_id"`
	Text      string        `gorm:"type:text;not null;column:text"`
	ParentID  sql.NullInt64 `gorm:"column:parent_id"`
	CreatedAt time.Time     `gorm:"not null;column:created_at"`
	UpdatedAt time.Time     `gorm:"not null;column:updated_at"`

	// Relationships
	Author *User `gorm:"foreignKey:AuthorID;references:ID"`
}

// TableName specifies the table name for Comment
func (Comment) TableName() string {
	return "comments"
}
