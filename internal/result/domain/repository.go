package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/quizhive/quizhive/pkg/db/option"
	"gorm.io/gorm"
)

// RatingSums carries the aggregate counters a rating is computed from.
type RatingSums struct {
	Right int64 `gorm:"column:right_sum"`
	Total int64 `gorm:"column:total_sum"`
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, result *QuizResult) error
	// LastAttempt returns the user's most recent attempt at the quiz,
	// or nil when there is none.
	LastAttempt(ctx context.Context, userID snowflake.ID, quizID snowflake.ID) (*QuizResult, error)
	ListByQuiz(ctx context.Context, quizID snowflake.ID, opts ...option.QueryOption) ([]*QuizResult, error)
	SumForUser(ctx context.Context, userID snowflake.ID) (RatingSums, error)
	SumForUserInCompany(ctx context.Context, userID snowflake.ID, companyID snowflake.ID) (RatingSums, error)
}
