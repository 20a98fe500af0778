package domain

import (
	"context"
	"time"

	userdomain "github.com/quizhive/quizhive/internal/user/domain"
)

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, rawToken string) error
	// Authenticate resolves a session cookie token to its user.
	Authenticate(ctx context.Context, rawToken string) (*userdomain.User, error)
	// AuthenticateBearer resolves a signed bearer token to its user,
	// provisioning an account on first sight of a trusted identity.
	AuthenticateBearer(ctx context.Context, rawToken string) (*userdomain.User, error)
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResult struct {
	User        *userdomain.UserResponse
	RawToken    string
	AccessToken string
	ExpiresAt   time.Time
}
