package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/quizhive/quizhive/internal/result/domain"
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

func (r *repository) Create(ctx context.Context, result *domain.QuizResult) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO quiz_results (id, user_id, company_id, quiz_id, right_count, total_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		result.ID,
		result.UserID,
		result.CompanyID,
		result.QuizID,
		result.RightCount,
		result.TotalCount,
		result.CreatedAt,
	).Error
}

func (r *repository) LastAttempt(ctx context.Context, userID snowflake.ID, quizID snowflake.ID) (*domain.QuizResult, error) {
	var result domain.QuizResult
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Order("created_at DESC").
		First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *repository) ListByQuiz(ctx context.Context, quizID snowflake.ID, opts ...option.QueryOption) ([]*domain.QuizResult, error) {
	query := r.db.WithContext(ctx).Model(&domain.QuizResult{}).Where("quiz_id = ?", quizID)
	for _, opt := range opts {
		query = opt.Apply(query)
	}

	var results []*domain.QuizResult
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *repository) SumForUser(ctx context.Context, userID snowflake.ID) (domain.RatingSums, error) {
	var sums domain.RatingSums
	err := r.db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(right_count), 0) AS right_sum, COALESCE(SUM(total_count), 0) AS total_sum
		 FROM quiz_results WHERE user_id = ?`,
		userID,
	).Scan(&sums).Error
	return sums, err
}

func (r *repository) SumForUserInCompany(ctx context.Context, userID snowflake.ID, companyID snowflake.ID) (domain.RatingSums, error) {
	var sums domain.RatingSums
	err := r.db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(right_count), 0) AS right_sum, COALESCE(SUM(total_count), 0) AS total_sum
		 FROM quiz_results WHERE user_id = ? AND company_id = ?`,
		userID,
		companyID,
	).Scan(&sums).Error
	return sums, err
}
