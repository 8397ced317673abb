package models

import (
	"time"
)

// User represents a registered member
type User struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Name      string    `gorm:"type:varchar(64);not null;column:name"`
	Email     string    `gorm:"type:varchar(255);not null;uniqueIndex:users_email_ux;column:email"`
	AvatarURL string    `gorm:"type:varchar(1024);not null;default:'';column:avatar_url"`
	Role      string    `gorm:"type:varchar(16);not null;default:'USER';column:role"`
	CreatedAt time.Time `gorm:"not null;column:created_at"`
	UpdatedAt time.Time `gorm:"not null;column:updated_at"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// User roles
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)
