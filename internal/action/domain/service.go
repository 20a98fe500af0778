package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// Invite lifecycle, driven by the company side.
	InviteUsers(ctx context.Context, actorID snowflake.ID, companyID string, req InviteUsersRequest) error
	CancelInvite(ctx context.Context, actorID snowflake.ID, companyID string, userID string) error
	AcceptRequest(ctx context.Context, actorID snowflake.ID, companyID string, userID string) error
	DeclineRequest(ctx context.Context, actorID snowflake.ID, companyID string, userID string) error
	ListCompanyActions(ctx context.Context, actorID snowflake.ID, companyID string, kind Kind) ([]CompanyActionResponse, error)

	// Request lifecycle, driven by the user side.
	RequestToJoin(ctx context.Context, actorID snowflake.ID, companyID string, req JoinRequest) error
	CancelRequest(ctx context.Context, actorID snowflake.ID, companyID string) error
	AcceptInvite(ctx context.Context, actorID snowflake.ID, companyID string) error
	DeclineInvite(ctx context.Context, actorID snowflake.ID, companyID string) error
	ListMyActions(ctx context.Context, actorID snowflake.ID, kind Kind) ([]UserActionResponse, error)
}

type InviteUsersRequest struct {
	UserIDs []string `json:"user_ids"`
	Message string   `json:"message"`
}

type JoinRequest struct {
	Message string `json:"message"`
}

type CompanyActionResponse struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type UserActionResponse struct {
	CompanyID   string    `json:"company_id"`
	CompanyName string    `json:"company_name"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}

var (
	ErrActionNotFound = errors.New("action_not_found")
	ErrActionExists   = errors.New("action_already_exists")
	ErrAlreadyMember  = errors.New("already_a_member")
	ErrInvalidKind    = errors.New("invalid_action_kind")
	ErrInvalidUser    = errors.New("invalid_user")
)
