package models

import (
	"time"
)

// Tag is a label attached to posts. Fixed tags are curated and immutable.
type Tag struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Name      string    `gorm:"type:varchar(64);not null;uniqueIndex:tags_name_ux;column:name"`
	IsFixed   bool      `gorm:"not null;default:false;column:is_fixed"`
	CreatedAt time.Time `gorm:"not null;column:created_at"`
}

// TableName specifies the table name for Tag
func (Tag) TableName() string {
	return "tags"
}
