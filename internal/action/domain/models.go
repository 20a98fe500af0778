// Package domain contains core types for the membership action service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Kind distinguishes the two pending-action flavors.
type Kind string

const (
	KindInvite  Kind = "invite"
	KindRequest Kind = "request"
)

// Valid reports whether the kind is one of the two known flavors.
func (k Kind) Valid() bool {
	return k == KindInvite || k == KindRequest
}

// Action is a pending membership transition. At most one row may exist
// per (company, user, kind); invites and requests for the same pair are
// mutually exclusive, which the service enforces transactionally.
type Action struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	CompanyID snowflake.ID `gorm:"column:company_id;not null;index;uniqueIndex:ux_actions_company_user_kind,priority:1" json:"company_id"`
	UserID    snowflake.ID `gorm:"column:user_id;not null;index;uniqueIndex:ux_actions_company_user_kind,priority:2" json:"user_id"`
	Kind      Kind         `gorm:"type:text;not null;uniqueIndex:ux_actions_company_user_kind,priority:3" json:"kind"`
	Message   string       `gorm:"type:text;not null;default:''" json:"message"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Action) TableName() string { return "actions" }
