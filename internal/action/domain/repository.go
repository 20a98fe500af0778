package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// CompanyActionItem joins a pending action with the counterpart user.
type CompanyActionItem struct {
	UserID    snowflake.ID
	Email     string
	FirstName string
	LastName  string
	Message   string
	CreatedAt time.Time
}

// UserActionItem joins a pending action with its company.
type UserActionItem struct {
	CompanyID   snowflake.ID
	CompanyName string
	Message     string
	CreatedAt   time.Time
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, action Action) error
	// Delete removes the action row and reports how many rows went away.
	Delete(ctx context.Context, companyID, userID snowflake.ID, kind Kind) (int64, error)
	// Exists reports whether any pending action of either kind exists for
	// the (company, user) pair.
	Exists(ctx context.Context, companyID, userID snowflake.ID) (bool, error)
	ListByCompany(ctx context.Context, companyID snowflake.ID, kind Kind) ([]CompanyActionItem, error)
	ListByUser(ctx context.Context, userID snowflake.ID, kind Kind) ([]UserActionItem, error)
}
