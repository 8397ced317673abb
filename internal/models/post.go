package models

import (
	"time"

	"gorm.io/gorm"
)

// Post represents a published post or food showcase entry
type Post struct {
	ID         int64          `gorm:"primaryKey;autoIncrement;column:id"`
	AuthorID   int64          `gorm:"not null;index:posts_author_ix;column:author_id"`
	Title      string         `gorm:"type:varchar(255);not null;column:title"`
	Content    string         `gorm:"type:text;not null;default:'';column:content"`
	ImageURL   string         `gorm:"type:varchar(1024);not null;default:'';column:image_url"`
	Status     string         `gorm:"type:varchar(16);not null;default:'PUBLISHED';index:posts_status_ix;column:status"`
	IsShowcase bool           `gorm:"not null;default:false;column:is_showcase"`
	LikesCount int64          `gorm:"not null;default:0;column:likes_count"`
	ViewCount  int64          `gorm:"not null;default:0;column:view_count"`
	CreatedAt  time.Time      `gorm:"not null;index:posts_created_ix;column:created_at"`
	UpdatedAt  time.Time      `gorm:"not null;column:updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index;column:deleted_at"`

	// Relationships
	Author *User `gorm:"foreignKey:AuthorID;references:ID"`
	Tags   []Tag `gorm:"many2many:post_tags;joinForeignKey:PostID;joinReferences:TagID"`
}

// TableName specifies the table name for Post
func (Post) TableName() string {
	return "posts"
}

// Post status constants
const (
	PostStatusPublished = "PUBLISHED"
	PostStatusDeleted   = "DELETED"
	PostStatusPending   = "PENDING"
)

// PostTag represents a post-to-tag mapping
type PostTag struct {
	PostID int64 `gorm:"primaryKey;column:post_id"`
	TagID  int64 `gorm:"primaryKey;index:post_tags_tag_ix;column:tag_id"`
}

// TableName specifies the table name for PostTag
func (PostTag) TableName() string {
	return "post_tags"
}
