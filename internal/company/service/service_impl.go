package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/quizhive/quizhive/internal/company/domain"
	"github.com/quizhive/quizhive/pkg/db"
	"github.com/quizhive/quizhive/pkg/db/option"
	"github.com/quizhive/quizhive/pkg/db/pagination"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type service struct {
	log   *zap.Logger
	db    *gorm.DB
	repo  domain.Repository
	genID *snowflake.Node
}

func NewService(log *zap.Logger, conn *gorm.DB, repo domain.Repository, genID *snowflake.Node) domain.Service {
	return &service{
		log:   log.Named("company.service"),
		db:    conn,
		repo:  repo,
		genID: genID,
	}
}

func (s *service) Create(ctx context.Context, ownerID snowflake.ID, req domain.CreateCompanyRequest) (*domain.CompanyResponse, error) {
	if ownerID == 0 {
		return nil, domain.ErrInvalidUser
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	visible := true
	if req.IsVisible != nil {
		visible = *req.IsVisible
	}

	company := domain.Company{
		ID:          s.genID.Generate(),
		Name:        name,
		Slug:        slug.Make(name),
		Description: strings.TrimSpace(req.Description),
		IsVisible:   visible,
		OwnerID:     ownerID,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.CreateCompany(ctx, company); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrSlugTaken
		}
		return nil, err
	}

	s.log.Info("company created",
		zap.String("company_id", company.ID.String()),
		zap.String("owner_id", ownerID.String()),
	)

	return toResponse(&company), nil
}

func (s *service) GetByID(ctx context.Context, actorID snowflake.ID, id string) (*domain.CompanyResponse, error) {
	companyID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	company, err := s.repo.FindByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if !company.VisibleTo(actorID) {
		return nil, domain.ErrCompanyNotFound
	}

	return toResponse(company), nil
}

func (s *service) List(ctx context.Context, actorID snowflake.ID, page pagination.Pagination) ([]domain.CompanyResponse, *pagination.PageInfo, error) {
	limit := page.PageSize
	if limit <= 0 {
		limit = 10
	}

	opts := []option.QueryOption{
		option.WithOrder("id ASC"),
		option.WithLimit(limit + 1),
	}
	if token := strings.TrimSpace(page.PageToken); token != "" {
		cursor, err := pagination.DecodeCursor(token)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, option.WithWhere("id > ?", cursor.ID))
	}

	companies, err := s.repo.ListVisible(ctx, actorID, opts...)
	if err != nil {
		return nil, nil, err
	}

	pageInfo, companies := pagination.BuildCursorPageInfo(companies, limit, func(c *domain.Company) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{ID: c.ID.String()})
		if err != nil {
			return ""
		}
		return token
	})

	resp := make([]domain.CompanyResponse, 0, len(companies))
	for _, c := range companies {
		resp = append(resp, *toResponse(c))
	}
	return resp, pageInfo, nil
}

func (s *service) Update(ctx context.Context, actorID snowflake.ID, id string, req domain.UpdateCompanyRequest) (*domain.CompanyResponse, error) {
	companyID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	if _, err := s.ResolveOwner(ctx, actorID, companyID); err != nil {
		return nil, err
	}

	fields := map[string]any{"updated_at": time.Now().UTC()}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		fields["name"] = name
		fields["slug"] = slug.Make(name)
	}
	if req.Description != nil {
		fields["description"] = strings.TrimSpace(*req.Description)
	}
	if req.IsVisible != nil {
		fields["is_visible"] = *req.IsVisible
	}

	if err := s.repo.UpdateFields(ctx, companyID, fields); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrSlugTaken
		}
		return nil, err
	}

	company, err := s.repo.FindByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return toResponse(company), nil
}

func (s *service) Delete(ctx context.Context, actorID snowflake.ID, id string) error {
	companyID, err := parseID(id)
	if err != nil {
		return err
	}

	if _, err := s.ResolveOwner(ctx, actorID, companyID); err != nil {
		return err
	}

	if err := s.repo.DeleteCompany(ctx, companyID); err != nil {
		return err
	}

	s.log.Info("company deleted", zap.String("company_id", companyID.String()))
	return nil
}

func (s *service) ListMembers(ctx context.Context, actorID snowflake.ID, id string) ([]domain.MemberResponse, error) {
	companyID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	company, err := s.repo.FindByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if !company.VisibleTo(actorID) {
		// Members of a hidden company still see its roster.
		if _, err := s.repo.GetMember(ctx, companyID, actorID); err != nil {
			if errors.Is(err, domain.ErrMemberNotFound) {
				return nil, domain.ErrCompanyNotFound
			}
			return nil, err
		}
	}

	items, err := s.repo.ListMembers(ctx, companyID)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.MemberResponse, 0, len(items))
	for _, item := range items {
		role := domain.RoleMember
		if item.IsAdmin {
			role = domain.RoleAdmin
		}
		resp = append(resp, domain.MemberResponse{
			UserID:    item.UserID.String(),
			Email:     item.Email,
			FirstName: item.FirstName,
			LastName:  item.LastName,
			Role:      role,
			JoinedAt:  item.CreatedAt,
		})
	}
	return resp, nil
}

func (s *service) RemoveMember(ctx context.Context, actorID snowflake.ID, id string, memberID string) error {
	companyID, err := parseID(id)
	if err != nil {
		return err
	}
	targetID, err := snowflake.ParseString(strings.TrimSpace(memberID))
	if err != nil {
		return domain.ErrMemberNotFound
	}

	company, err := s.ResolveOwner(ctx, actorID, companyID)
	if err != nil {
		return err
	}
	if company.IsOwner(targetID) {
		return domain.ErrOwnerMembership
	}

	if _, err := s.repo.GetMember(ctx, companyID, targetID); err != nil {
		return err
	}

	rows, err := s.repo.RemoveMember(ctx, companyID, targetID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrMemberNotFound
	}

	s.log.Info("member removed",
		zap.String("company_id", companyID.String()),
		zap.String("user_id", targetID.String()),
	)
	return nil
}

func (s *service) Leave(ctx context.Context, actorID snowflake.ID, id string) error {
	companyID, err := parseID(id)
	if err != nil {
		return err
	}

	company, err := s.repo.FindByID(ctx, companyID)
	if err != nil {
		return err
	}
	// The owner cannot leave; ownership is not a membership.
	if company.IsOwner(actorID) {
		return domain.ErrOwnerMembership
	}

	rows, err := s.repo.RemoveMember(ctx, companyID, actorID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrMemberNotFound
	}

	s.log.Info("member left",
		zap.String("company_id", companyID.String()),
		zap.String("user_id", actorID.String()),
	)
	return nil
}

func (s *service) AppointAdmin(ctx context.Context, actorID snowflake.ID, id string, memberID string) error {
	return s.setAdmin(ctx, actorID, id, memberID, true)
}

func (s *service) RevokeAdmin(ctx context.Context, actorID snowflake.ID, id string, memberID string) error {
	return s.setAdmin(ctx, actorID, id, memberID, false)
}

func (s *service) setAdmin(ctx context.Context, actorID snowflake.ID, id string, memberID string, isAdmin bool) error {
	companyID, err := parseID(id)
	if err != nil {
		return err
	}
	targetID, err := snowflake.ParseString(strings.TrimSpace(memberID))
	if err != nil {
		return domain.ErrMemberNotFound
	}

	company, err := s.ResolveOwner(ctx, actorID, companyID)
	if err != nil {
		return err
	}
	if company.IsOwner(targetID) {
		return domain.ErrOwnerMembership
	}

	member, err := s.repo.GetMember(ctx, companyID, targetID)
	if err != nil {
		return err
	}
	if isAdmin && member.IsAdmin {
		return domain.ErrAlreadyAdmin
	}
	if !isAdmin && !member.IsAdmin {
		return domain.ErrAdminNotFound
	}

	if _, err := s.repo.SetAdmin(ctx, companyID, targetID, isAdmin); err != nil {
		return err
	}

	s.log.Info("member admin flag set",
		zap.String("company_id", companyID.String()),
		zap.String("user_id", targetID.String()),
		zap.Bool("is_admin", isAdmin),
	)
	return nil
}

func (s *service) ResolveViewer(ctx context.Context, actorID snowflake.ID, companyID snowflake.ID) (*domain.Company, error) {
	company, err := s.repo.FindByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if company.IsOwner(actorID) {
		return company, nil
	}

	// Membership grants access even when the company is hidden.
	if _, err := s.repo.GetMember(ctx, companyID, actorID); err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			if !company.VisibleTo(actorID) {
				return nil, domain.ErrCompanyNotFound
			}
			return nil, domain.ErrForbidden
		}
		return nil, err
	}
	return company, nil
}

func (s *service) ResolveManager(ctx context.Context, actorID snowflake.ID, companyID snowflake.ID) (*domain.Company, error) {
	company, err := s.repo.FindByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if company.IsOwner(actorID) {
		return company, nil
	}

	member, err := s.repo.GetMember(ctx, companyID, actorID)
	if err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			if !company.VisibleTo(actorID) {
				return nil, domain.ErrCompanyNotFound
			}
			return nil, domain.ErrForbidden
		}
		return nil, err
	}
	if !member.IsAdmin {
		return nil, domain.ErrForbidden
	}
	return company, nil
}

func (s *service) ResolveOwner(ctx context.Context, actorID snowflake.ID, companyID snowflake.ID) (*domain.Company, error) {
	company, err := s.repo.FindByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if company.IsOwner(actorID) {
		return company, nil
	}

	if _, err := s.repo.GetMember(ctx, companyID, actorID); err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			if !company.VisibleTo(actorID) {
				return nil, domain.ErrCompanyNotFound
			}
		} else {
			return nil, err
		}
	}
	return nil, domain.ErrForbidden
}

func (s *service) RoleOf(ctx context.Context, actorID snowflake.ID, companyID snowflake.ID) (string, error) {
	company, err := s.repo.FindByID(ctx, companyID)
	if err != nil {
		return "", err
	}
	if company.IsOwner(actorID) {
		return domain.RoleOwner, nil
	}

	member, err := s.repo.GetMember(ctx, companyID, actorID)
	if err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			return "", nil
		}
		return "", err
	}
	if member.IsAdmin {
		return domain.RoleAdmin, nil
	}
	return domain.RoleMember, nil
}

func toResponse(company *domain.Company) *domain.CompanyResponse {
	return &domain.CompanyResponse{
		ID:          company.ID.String(),
		Name:        company.Name,
		Slug:        company.Slug,
		Description: company.Description,
		IsVisible:   company.IsVisible,
		OwnerID:     company.OwnerID.String(),
		CreatedAt:   company.CreatedAt,
	}
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil {
		return 0, domain.ErrCompanyNotFound
	}
	return id, nil
}
