package export

import (
	"context"
	"errors"
	"io"

	"github.com/bwmarrin/snowflake"
)

// Format selects the rendering of an exported attempt snapshot.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatPDF  Format = "pdf"
)

func (f Format) Valid() bool {
	switch f {
	case FormatCSV, FormatJSON, FormatPDF:
		return true
	}
	return false
}

// Artifact is a rendered export ready to stream as an attachment.
type Artifact struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

type Service interface {
	// ExportAttempt renders the cached snapshot of a user's latest
	// attempt at a quiz. The owner and admins may export any member's
	// attempt; a member may export their own.
	ExportAttempt(ctx context.Context, actorID snowflake.ID, companyID string, quizID string, userID string, format Format) (*Artifact, error)
}

var (
	ErrSnapshotNotFound  = errors.New("snapshot_not_found")
	ErrUnsupportedFormat = errors.New("unsupported_format")
	ErrInvalidUser       = errors.New("invalid_user")
)
