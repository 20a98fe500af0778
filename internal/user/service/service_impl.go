package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/quizhive/quizhive/internal/auth/password"
	"github.com/quizhive/quizhive/internal/user/domain"
	"github.com/quizhive/quizhive/pkg/db"
	"github.com/quizhive/quizhive/pkg/db/option"
	"github.com/quizhive/quizhive/pkg/db/pagination"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const minPasswordLength = 8

type service struct {
	log   *zap.Logger
	repo  domain.Repository
	genID *snowflake.Node
}

func NewService(log *zap.Logger, repo domain.Repository, genID *snowflake.Node) domain.Service {
	return &service{
		log:   log.Named("user.service"),
		repo:  repo,
		genID: genID,
	}
}

func (s *service) SignUp(ctx context.Context, req domain.SignUpRequest) (*domain.UserResponse, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidEmail
	}
	if len(strings.TrimSpace(req.Password)) < minPasswordLength {
		return nil, domain.ErrInvalidPassword
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hashed, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           s.genID.Generate(),
		Email:        email,
		PasswordHash: hashed,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Links:        datatypes.JSON([]byte("[]")),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("user registered", zap.String("user_id", user.ID.String()))

	return toResponse(user), nil
}

func (s *service) GetByID(ctx context.Context, id string) (*domain.UserResponse, error) {
	userID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toResponse(user), nil
}

func (s *service) List(ctx context.Context, page pagination.Pagination) ([]domain.UserResponse, *pagination.PageInfo, error) {
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

	users, err := s.repo.List(ctx, opts...)
	if err != nil {
		return nil, nil, err
	}

	pageInfo, users := pagination.BuildCursorPageInfo(users, limit, func(u *domain.User) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{ID: u.ID.String()})
		if err != nil {
			return ""
		}
		return token
	})

	resp := make([]domain.UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, *toResponse(u))
	}
	return resp, pageInfo, nil
}

func (s *service) UpdateProfile(ctx context.Context, actorID snowflake.ID, userID string, req domain.UpdateProfileRequest) (*domain.UserResponse, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(userID))
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	if actorID != id {
		return nil, domain.ErrForbidden
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{"updated_at": time.Now().UTC()}
	if req.FirstName != nil {
		fields["first_name"] = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		fields["last_name"] = strings.TrimSpace(*req.LastName)
	}
	if req.Bio != nil {
		fields["bio"] = strings.TrimSpace(*req.Bio)
	}
	if req.City != nil {
		fields["city"] = strings.TrimSpace(*req.City)
	}
	if req.Phone != nil {
		// An empty phone clears the number and frees it for reuse.
		if phone := strings.TrimSpace(*req.Phone); phone == "" {
			fields["phone"] = nil
		} else {
			fields["phone"] = phone
		}
	}
	if req.AvatarURL != nil {
		fields["avatar_url"] = strings.TrimSpace(*req.AvatarURL)
	}
	if req.Links != nil {
		raw, err := json.Marshal(req.Links)
		if err != nil {
			return nil, err
		}
		fields["links"] = datatypes.JSON(raw)
	}

	if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrPhoneExists
		}
		return nil, err
	}

	user, err = s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toResponse(user), nil
}

func (s *service) ChangePassword(ctx context.Context, actorID snowflake.ID, userID string, req domain.ChangePasswordRequest) error {
	id, err := snowflake.ParseString(strings.TrimSpace(userID))
	if err != nil {
		return domain.ErrUserNotFound
	}
	if actorID != id {
		return domain.ErrForbidden
	}
	if len(strings.TrimSpace(req.Password)) < minPasswordLength {
		return domain.ErrInvalidPassword
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}

	hashed, err := password.Hash(req.Password)
	if err != nil {
		return err
	}

	return s.repo.UpdateFields(ctx, id, map[string]any{
		"password_hash": hashed,
		"updated_at":    time.Now().UTC(),
	})
}

func (s *service) Delete(ctx context.Context, actor *domain.User, userID string) error {
	if actor == nil {
		return domain.ErrInvalidUser
	}

	id, err := snowflake.ParseString(strings.TrimSpace(userID))
	if err != nil {
		return domain.ErrUserNotFound
	}
	if actor.ID != id && !actor.IsSuperuser {
		return domain.ErrForbidden
	}

	return s.repo.Delete(ctx, id)
}

func toResponse(user *domain.User) *domain.UserResponse {
	links := []string{}
	if len(user.Links) > 0 {
		_ = json.Unmarshal(user.Links, &links)
	}

	phone := ""
	if user.Phone != nil {
		phone = *user.Phone
	}

	return &domain.UserResponse{
		ID:          user.ID.String(),
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Bio:         user.Bio,
		City:        user.City,
		Phone:       phone,
		AvatarURL:   user.AvatarURL,
		Links:       links,
		IsSuperuser: user.IsSuperuser,
		CreatedAt:   user.CreatedAt,
	}
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(addr.Address)), nil
}
