package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/quizhive/quizhive/pkg/db/option"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id snowflake.ID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, opts ...option.QueryOption) ([]*User, error)
	Count(ctx context.Context) (int64, error)
	UpdateFields(ctx context.Context, id snowflake.ID, fields map[string]any) error
	Delete(ctx context.Context, id snowflake.ID) error
}
