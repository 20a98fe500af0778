package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// QuizResult is one finished attempt. Attempts are append-only; the
// rating aggregates sum over every row a user ever produced.
type QuizResult struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	UserID     snowflake.ID `gorm:"index;not null"`
	CompanyID  snowflake.ID `gorm:"index;not null"`
	QuizID     snowflake.ID `gorm:"index;not null"`
	RightCount int          `gorm:"not null;default:0"`
	TotalCount int          `gorm:"not null;default:0"`
	CreatedAt  time.Time
}

func (QuizResult) TableName() string {
	return "quiz_results"
}
