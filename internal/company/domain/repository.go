package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/quizhive/quizhive/pkg/db/option"
	"gorm.io/gorm"
)

// MemberListItem joins a membership row with the member's profile.
type MemberListItem struct {
	UserID    snowflake.ID
	Email     string
	FirstName string
	LastName  string
	IsAdmin   bool
	CreatedAt time.Time
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateCompany(ctx context.Context, company Company) error
	FindByID(ctx context.Context, id snowflake.ID) (*Company, error)
	ListVisible(ctx context.Context, userID snowflake.ID, opts ...option.QueryOption) ([]*Company, error)
	UpdateFields(ctx context.Context, id snowflake.ID, fields map[string]any) error
	DeleteCompany(ctx context.Context, id snowflake.ID) error

	AddMember(ctx context.Context, member CompanyMember) error
	RemoveMember(ctx context.Context, companyID, userID snowflake.ID) (int64, error)
	GetMember(ctx context.Context, companyID, userID snowflake.ID) (*CompanyMember, error)
	SetAdmin(ctx context.Context, companyID, userID snowflake.ID, isAdmin bool) (int64, error)
	ListMembers(ctx context.Context, companyID snowflake.ID) ([]MemberListItem, error)
}
