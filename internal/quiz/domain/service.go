package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/quizhive/quizhive/pkg/db/pagination"
)

const MinAnswersPerQuestion = 2

type Service interface {
	Create(ctx context.Context, actorID snowflake.ID, companyID string, req CreateQuizRequest) (*QuizResponse, error)
	GetByID(ctx context.Context, actorID snowflake.ID, companyID string, quizID string) (*QuizResponse, error)
	List(ctx context.Context, actorID snowflake.ID, companyID string, page pagination.Pagination) ([]QuizResponse, *pagination.PageInfo, error)
	Update(ctx context.Context, actorID snowflake.ID, companyID string, quizID string, req UpdateQuizRequest) (*QuizResponse, error)
	Delete(ctx context.Context, actorID snowflake.ID, companyID string, quizID string) error

	AddQuestion(ctx context.Context, actorID snowflake.ID, companyID string, quizID string, req QuestionRequest) (*QuestionResponse, error)
	UpdateQuestion(ctx context.Context, actorID snowflake.ID, companyID string, quizID string, questionID string, req QuestionRequest) (*QuestionResponse, error)
	DeleteQuestion(ctx context.Context, actorID snowflake.ID, companyID string, quizID string, questionID string) error
}

type CreateQuizRequest struct {
	Title         string            `json:"title" binding:"required"`
	Description   string            `json:"description"`
	FrequencyDays int               `json:"frequency_days"`
	Questions     []QuestionRequest `json:"questions"`
}

type UpdateQuizRequest struct {
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	FrequencyDays *int    `json:"frequency_days"`
}

type QuestionRequest struct {
	Prompt       string   `json:"prompt" binding:"required"`
	Answers      []string `json:"answers" binding:"required"`
	CorrectIndex int      `json:"correct_index"`
	Position     int      `json:"position"`
}

type QuizResponse struct {
	ID            string             `json:"id"`
	CompanyID     string             `json:"company_id"`
	Title         string             `json:"title"`
	Description   string             `json:"description"`
	FrequencyDays int                `json:"frequency_days"`
	Questions     []QuestionResponse `json:"questions,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

// QuestionResponse omits CorrectIndex for plain members.
type QuestionResponse struct {
	ID           string   `json:"id"`
	Prompt       string   `json:"prompt"`
	Answers      []string `json:"answers"`
	CorrectIndex *int     `json:"correct_index,omitempty"`
	Position     int      `json:"position"`
}

var (
	ErrQuizNotFound        = errors.New("quiz_not_found")
	ErrQuestionNotFound    = errors.New("question_not_found")
	ErrInvalidTitle        = errors.New("invalid_title")
	ErrInvalidPrompt       = errors.New("invalid_prompt")
	ErrNotEnoughAnswers    = errors.New("not_enough_answers")
	ErrInvalidCorrectIndex = errors.New("correct_index_out_of_range")
	ErrInvalidFrequency    = errors.New("invalid_frequency")
)
