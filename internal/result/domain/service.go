package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/quizhive/quizhive/pkg/db/pagination"
)

type Service interface {
	// Attempt scores the submitted answers, persists the result and
	// caches a snapshot of the attempt.
	Attempt(ctx context.Context, actorID snowflake.ID, companyID string, quizID string, req AttemptRequest) (*AttemptResponse, error)
	// ListQuizResults lists every attempt at a quiz. Owner and admins only.
	ListQuizResults(ctx context.Context, actorID snowflake.ID, companyID string, quizID string, page pagination.Pagination) ([]ResultResponse, *pagination.PageInfo, error)
	// UserRating returns a user's rating across all companies.
	UserRating(ctx context.Context, actorID snowflake.ID, userID string) (*RatingResponse, error)
	// CompanyMemberRating returns a user's rating inside one company.
	// Readable by the owner, an admin, or the user themself.
	CompanyMemberRating(ctx context.Context, actorID snowflake.ID, companyID string, userID string) (*RatingResponse, error)
}

// AttemptRequest maps question IDs to the chosen answer index.
type AttemptRequest struct {
	Answers map[string]int `json:"answers" binding:"required"`
}

type AttemptResponse struct {
	ID          string    `json:"id"`
	QuizID      string    `json:"quiz_id"`
	CompanyID   string    `json:"company_id"`
	RightCount  int       `json:"right_count"`
	TotalCount  int       `json:"total_count"`
	Score       float64   `json:"score"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type ResultResponse struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	QuizID     string    `json:"quiz_id"`
	RightCount int       `json:"right_count"`
	TotalCount int       `json:"total_count"`
	Score      float64   `json:"score"`
	CreatedAt  time.Time `json:"created_at"`
}

type RatingResponse struct {
	UserID     string  `json:"user_id"`
	CompanyID  string  `json:"company_id,omitempty"`
	RightCount int64   `json:"right_count"`
	TotalCount int64   `json:"total_count"`
	Rating     float64 `json:"rating"`
}

var (
	ErrResultNotFound    = errors.New("result_not_found")
	ErrAttemptTooSoon    = errors.New("attempt_too_soon")
	ErrIncompleteAnswers = errors.New("answers_incomplete")
	ErrInvalidAnswer     = errors.New("answer_out_of_range")
	ErrNoQuestions       = errors.New("quiz_has_no_questions")
	ErrInvalidUser       = errors.New("invalid_user")
)
