package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/quizhive/quizhive/internal/company/domain"
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

func (r *repository) CreateCompany(ctx context.Context, company domain.Company) error {
	return r.db.WithContext(ctx).Create(&company).Error
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*domain.Company, error) {
	var company domain.Company
	err := r.db.WithContext(ctx).First(&company, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCompanyNotFound
		}
		return nil, err
	}
	return &company, nil
}

func (r *repository) ListVisible(ctx context.Context, userID snowflake.ID, opts ...option.QueryOption) ([]*domain.Company, error) {
	stmt := r.db.WithContext(ctx).Model(&domain.Company{}).
		Where("is_visible = ? OR owner_id = ?", true, userID)
	for _, opt := range opts {
		stmt = opt.Apply(stmt)
	}

	var companies []*domain.Company
	if err := stmt.Find(&companies).Error; err != nil {
		return nil, err
	}
	return companies, nil
}

func (r *repository) UpdateFields(ctx context.Context, id snowflake.ID, fields map[string]any) error {
	return r.db.WithContext(ctx).Model(&domain.Company{}).Where("id = ?", id).Updates(fields).Error
}

func (r *repository) DeleteCompany(ctx context.Context, id snowflake.ID) error {
	result := r.db.WithContext(ctx).Exec(`DELETE FROM companies WHERE id = ?`, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrCompanyNotFound
	}
	return nil
}

func (r *repository) AddMember(ctx context.Context, member domain.CompanyMember) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO company_members (id, company_id, user_id, is_admin, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		member.ID,
		member.CompanyID,
		member.UserID,
		member.IsAdmin,
		member.CreatedAt,
	).Error
}

func (r *repository) RemoveMember(ctx context.Context, companyID, userID snowflake.ID) (int64, error) {
	result := r.db.WithContext(ctx).Exec(
		`DELETE FROM company_members WHERE company_id = ? AND user_id = ?`,
		companyID,
		userID,
	)
	return result.RowsAffected, result.Error
}

func (r *repository) GetMember(ctx context.Context, companyID, userID snowflake.ID) (*domain.CompanyMember, error) {
	var member domain.CompanyMember
	err := r.db.WithContext(ctx).
		First(&member, "company_id = ? AND user_id = ?", companyID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}

func (r *repository) SetAdmin(ctx context.Context, companyID, userID snowflake.ID, isAdmin bool) (int64, error) {
	result := r.db.WithContext(ctx).Exec(
		`UPDATE company_members SET is_admin = ? WHERE company_id = ? AND user_id = ? AND is_admin = ?`,
		isAdmin,
		companyID,
		userID,
		!isAdmin,
	)
	return result.RowsAffected, result.Error
}

func (r *repository) ListMembers(ctx context.Context, companyID snowflake.ID) ([]domain.MemberListItem, error) {
	var items []domain.MemberListItem
	err := r.db.WithContext(ctx).Raw(
		`SELECT m.user_id, u.email, u.first_name, u.last_name, m.is_admin, m.created_at
		 FROM company_members m
		 JOIN users u ON u.id = m.user_id
		 WHERE m.company_id = ?
		 ORDER BY m.created_at ASC`,
		companyID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}

	return items, nil
}
