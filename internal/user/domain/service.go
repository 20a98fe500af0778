package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/quizhive/quizhive/pkg/db/pagination"
)

type Service interface {
	SignUp(ctx context.Context, req SignUpRequest) (*UserResponse, error)
	GetByID(ctx context.Context, id string) (*UserResponse, error)
	List(ctx context.Context, page pagination.Pagination) ([]UserResponse, *pagination.PageInfo, error)
	UpdateProfile(ctx context.Context, actorID snowflake.ID, userID string, req UpdateProfileRequest) (*UserResponse, error)
	ChangePassword(ctx context.Context, actorID snowflake.ID, userID string, req ChangePasswordRequest) error
	Delete(ctx context.Context, actor *User, userID string) error
}

type SignUpRequest struct {
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type UpdateProfileRequest struct {
	FirstName *string  `json:"first_name"`
	LastName  *string  `json:"last_name"`
	Bio       *string  `json:"bio"`
	City      *string  `json:"city"`
	Phone     *string  `json:"phone"`
	AvatarURL *string  `json:"avatar_url"`
	Links     []string `json:"links"`
}

type ChangePasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

type UserResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Bio         string    `json:"bio"`
	City        string    `json:"city"`
	Phone       string    `json:"phone"`
	AvatarURL   string    `json:"avatar_url"`
	Links       []string  `json:"links"`
	IsSuperuser bool      `json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
}

var (
	ErrUserNotFound    = errors.New("user_not_found")
	ErrUserExists      = errors.New("user_already_exists")
	ErrPhoneExists     = errors.New("phone_already_taken")
	ErrInvalidEmail    = errors.New("invalid_email")
	ErrInvalidPassword = errors.New("invalid_password")
	ErrInvalidUser     = errors.New("invalid_user")
	ErrForbidden       = errors.New("forbidden")
)
