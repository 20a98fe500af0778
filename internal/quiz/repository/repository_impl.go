package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/quizhive/quizhive/internal/quiz/domain"
	"github.com/quizhive/quizhive/pkg/db/option"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) CreateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	return r.db.WithContext(ctx).Create(quiz).Error
}

func (r *repository) FindQuizByID(ctx context.Context, id snowflake.ID) (*domain.Quiz, error) {
	var quiz domain.Quiz
	err := r.db.WithContext(ctx).First(&quiz, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrQuizNotFound
		}
		return nil, err
	}
	return &quiz, nil
}

func (r *repository) ListByCompany(ctx context.Context, companyID snowflake.ID, opts ...option.QueryOption) ([]*domain.Quiz, error) {
	stmt := r.db.WithContext(ctx).Model(&domain.Quiz{}).Where("company_id = ?", companyID)
	for _, opt := range opts {
		stmt = opt.Apply(stmt)
	}

	var quizzes []*domain.Quiz
	if err := stmt.Find(&quizzes).Error; err != nil {
		return nil, err
	}
	return quizzes, nil
}

func (r *repository) UpdateQuizFields(ctx context.Context, id snowflake.ID, fields map[string]any) error {
	return r.db.WithContext(ctx).Model(&domain.Quiz{}).Where("id = ?", id).Updates(fields).Error
}

func (r *repository) DeleteQuiz(ctx context.Context, id snowflake.ID) (int64, error) {
	result := r.db.WithContext(ctx).Exec(`DELETE FROM quizzes WHERE id = ?`, id)
	return result.RowsAffected, result.Error
}

func (r *repository) CreateQuestion(ctx context.Context, question *domain.Question) error {
	return r.db.WithContext(ctx).Create(question).Error
}

func (r *repository) FindQuestionByID(ctx context.Context, id snowflake.ID) (*domain.Question, error) {
	var question domain.Question
	err := r.db.WithContext(ctx).First(&question, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrQuestionNotFound
		}
		return nil, err
	}
	return &question, nil
}

func (r *repository) ListQuestions(ctx context.Context, quizID snowflake.ID) ([]*domain.Question, error) {
	var questions []*domain.Question
	err := r.db.WithContext(ctx).
		Where("quiz_id = ?", quizID).
		Order("position ASC, id ASC").
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *repository) UpdateQuestionFields(ctx context.Context, id snowflake.ID, fields map[string]any) error {
	return r.db.WithContext(ctx).Model(&domain.Question{}).Where("id = ?", id).Updates(fields).Error
}

func (r *repository) DeleteQuestion(ctx context.Context, id snowflake.ID) (int64, error) {
	result := r.db.WithContext(ctx).Exec(`DELETE FROM questions WHERE id = ?`, id)
	return result.RowsAffected, result.Error
}
