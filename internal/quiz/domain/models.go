// Package domain contains core types for the quiz service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Quiz belongs to a company and holds an ordered set of questions.
type Quiz struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	CompanyID     snowflake.ID `gorm:"column:company_id;not null;index" json:"company_id"`
	Title         string       `gorm:"type:text;not null" json:"title"`
	Description   string       `gorm:"type:text;not null;default:''" json:"description"`
	FrequencyDays int          `gorm:"column:frequency_days;not null;default:0" json:"frequency_days"`
	CreatedBy     snowflake.ID `gorm:"column:created_by;not null;default:0" json:"created_by"`
	UpdatedBy     snowflake.ID `gorm:"column:updated_by;not null;default:0" json:"updated_by"`
	CreatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Quiz) TableName() string { return "quizzes" }

// Question stores its answer options as a JSON array; CorrectIndex points
// into that array and is never exposed to plain members.
type Question struct {
	ID           snowflake.ID   `gorm:"primaryKey" json:"id"`
	QuizID       snowflake.ID   `gorm:"column:quiz_id;not null;index" json:"quiz_id"`
	Prompt       string         `gorm:"type:text;not null" json:"prompt"`
	Answers      datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"answers"`
	CorrectIndex int            `gorm:"column:correct_index;not null;default:0" json:"correct_index"`
	Position     int            `gorm:"not null;default:0" json:"position"`
	CreatedAt    time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Question) TableName() string { return "questions" }
