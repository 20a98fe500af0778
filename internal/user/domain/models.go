// Package domain contains core types for the user service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// User represents a registered account.
type User struct {
	ID           snowflake.ID   `gorm:"primaryKey" json:"id"`
	Email        string         `gorm:"type:text;not null;uniqueIndex:ux_users_email" json:"email"`
	PasswordHash string         `gorm:"column:password_hash;type:text;not null" json:"-"`
	FirstName    string         `gorm:"column:first_name;type:text;not null;default:''" json:"first_name"`
	LastName     string         `gorm:"column:last_name;type:text;not null;default:''" json:"last_name"`
	Bio          string         `gorm:"type:text;not null;default:''" json:"bio"`
	City         string         `gorm:"type:text;not null;default:''" json:"city"`
	Phone        *string        `gorm:"type:text;uniqueIndex:ux_users_phone" json:"phone"`
	AvatarURL    string         `gorm:"column:avatar_url;type:text;not null;default:''" json:"avatar_url"`
	Links        datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"links"`
	IsSuperuser  bool           `gorm:"column:is_superuser;not null;default:false" json:"is_superuser"`
	CreatedAt    time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }
