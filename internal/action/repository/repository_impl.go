package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/quizhive/quizhive/internal/action/domain"
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

func (r *repository) Create(ctx context.Context, action domain.Action) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO actions (id, company_id, user_id, kind, message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		action.ID,
		action.CompanyID,
		action.UserID,
		action.Kind,
		action.Message,
		action.CreatedAt,
	).Error
}

func (r *repository) Delete(ctx context.Context, companyID, userID snowflake.ID, kind domain.Kind) (int64, error) {
	result := r.db.WithContext(ctx).Exec(
		`DELETE FROM actions WHERE company_id = ? AND user_id = ? AND kind = ?`,
		companyID,
		userID,
		kind,
	)
	return result.RowsAffected, result.Error
}

func (r *repository) Exists(ctx context.Context, companyID, userID snowflake.ID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM actions WHERE company_id = ? AND user_id = ?`,
		companyID,
		userID,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) ListByCompany(ctx context.Context, companyID snowflake.ID, kind domain.Kind) ([]domain.CompanyActionItem, error) {
	var items []domain.CompanyActionItem
	err := r.db.WithContext(ctx).Raw(
		`SELECT a.user_id, u.email, u.first_name, u.last_name, a.message, a.created_at
		 FROM actions a
		 JOIN users u ON u.id = a.user_id
		 WHERE a.company_id = ? AND a.kind = ?
		 ORDER BY a.created_at ASC`,
		companyID,
		kind,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}

	return items, nil
}

func (r *repository) ListByUser(ctx context.Context, userID snowflake.ID, kind domain.Kind) ([]domain.UserActionItem, error) {
	var items []domain.UserActionItem
	err := r.db.WithContext(ctx).Raw(
		`SELECT a.company_id, c.name AS company_name, a.message, a.created_at
		 FROM actions a
		 JOIN companies c ON c.id = a.company_id
		 WHERE a.user_id = ? AND a.kind = ?
		 ORDER BY a.created_at ASC`,
		userID,
		kind,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}

	return items, nil
}
