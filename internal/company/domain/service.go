package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/quizhive/quizhive/pkg/db/pagination"
)

// Role names used for company-scoped authorization.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type Service interface {
	Create(ctx context.Context, ownerID snowflake.ID, req CreateCompanyRequest) (*CompanyResponse, error)
	GetByID(ctx context.Context, actorID snowflake.ID, id string) (*CompanyResponse, error)
	List(ctx context.Context, actorID snowflake.ID, page pagination.Pagination) ([]CompanyResponse, *pagination.PageInfo, error)
	Update(ctx context.Context, actorID snowflake.ID, id string, req UpdateCompanyRequest) (*CompanyResponse, error)
	Delete(ctx context.Context, actorID snowflake.ID, id string) error

	ListMembers(ctx context.Context, actorID snowflake.ID, id string) ([]MemberResponse, error)
	RemoveMember(ctx context.Context, actorID snowflake.ID, id string, memberID string) error
	Leave(ctx context.Context, actorID snowflake.ID, id string) error
	AppointAdmin(ctx context.Context, actorID snowflake.ID, id string, memberID string) error
	RevokeAdmin(ctx context.Context, actorID snowflake.ID, id string, memberID string) error

	// Guard resolves authorization predicates for other services.
	Guard
}

// Guard exposes the membership predicates other services gate on.
type Guard interface {
	// ResolveViewer loads a company and verifies the actor may view its
	// content: the owner, an admin, or a member. Hidden companies resolve
	// only for their owner.
	ResolveViewer(ctx context.Context, actorID snowflake.ID, companyID snowflake.ID) (*Company, error)
	// ResolveManager loads a company and verifies the actor is the owner
	// or an admin.
	ResolveManager(ctx context.Context, actorID snowflake.ID, companyID snowflake.ID) (*Company, error)
	// ResolveOwner loads a company and verifies the actor owns it.
	ResolveOwner(ctx context.Context, actorID snowflake.ID, companyID snowflake.ID) (*Company, error)
	// RoleOf returns the actor's role in the company, or an empty string.
	RoleOf(ctx context.Context, actorID snowflake.ID, companyID snowflake.ID) (string, error)
}

type CreateCompanyRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	IsVisible   *bool  `json:"is_visible"`
}

type UpdateCompanyRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsVisible   *bool   `json:"is_visible"`
}

type CompanyResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	IsVisible   bool      `json:"is_visible"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type MemberResponse struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      string    `json:"role"`
	JoinedAt  time.Time `json:"joined_at"`
}

var (
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidUser      = errors.New("invalid_user")
	ErrInvalidCompany   = errors.New("invalid_company")
	ErrCompanyNotFound  = errors.New("company_not_found")
	ErrMemberNotFound   = errors.New("member_not_found")
	ErrAdminNotFound    = errors.New("administrator_not_found")
	ErrAlreadyAdmin     = errors.New("already_admin")
	ErrOwnerMembership  = errors.New("owner_membership_is_implicit")
	ErrForbidden        = errors.New("forbidden")
	ErrSlugTaken        = errors.New("company_slug_taken")
)
