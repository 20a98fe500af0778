package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/quizhive/quizhive/pkg/db/option"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateQuiz(ctx context.Context, quiz *Quiz) error
	FindQuizByID(ctx context.Context, id snowflake.ID) (*Quiz, error)
	ListByCompany(ctx context.Context, companyID snowflake.ID, opts ...option.QueryOption) ([]*Quiz, error)
	UpdateQuizFields(ctx context.Context, id snowflake.ID, fields map[string]any) error
	DeleteQuiz(ctx context.Context, id snowflake.ID) (int64, error)

	CreateQuestion(ctx context.Context, question *Question) error
	FindQuestionByID(ctx context.Context, id snowflake.ID) (*Question, error)
	ListQuestions(ctx context.Context, quizID snowflake.ID) ([]*Question, error)
	UpdateQuestionFields(ctx context.Context, id snowflake.ID, fields map[string]any) error
	DeleteQuestion(ctx context.Context, id snowflake.ID) (int64, error)
}
