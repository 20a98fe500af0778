// Package domain contains core types for the company service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Company represents a tenant that owns quizzes and memberships.
type Company struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"type:text;not null" json:"name"`
	Slug        string       `gorm:"type:text;not null;uniqueIndex:ux_companies_slug" json:"slug"`
	Description string       `gorm:"type:text;not null;default:''" json:"description"`
	IsVisible   bool         `gorm:"column:is_visible;not null;default:true" json:"is_visible"`
	OwnerID     snowflake.ID `gorm:"column:owner_id;not null;index" json:"owner_id"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Company) TableName() string { return "companies" }

// IsOwner reports whether the given user owns the company.
func (c Company) IsOwner(userID snowflake.ID) bool {
	return userID != 0 && c.OwnerID == userID
}

// VisibleTo reports whether the company appears in reads for the given user.
// Hidden companies exist only for their owner.
func (c Company) VisibleTo(userID snowflake.ID) bool {
	return c.IsVisible || c.IsOwner(userID)
}

// CompanyMember represents membership of a user in a company. The owner
// never has a membership row; ownership is carried on the company itself.
type CompanyMember struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	CompanyID snowflake.ID `gorm:"column:company_id;not null;index;uniqueIndex:ux_company_members_company_user,priority:1" json:"company_id"`
	UserID    snowflake.ID `gorm:"column:user_id;not null;index;uniqueIndex:ux_company_members_company_user,priority:2" json:"user_id"`
	IsAdmin   bool         `gorm:"column:is_admin;not null;default:false" json:"is_admin"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (CompanyMember) TableName() string { return "company_members" }
