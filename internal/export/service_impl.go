package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/quizhive/quizhive/internal/authorization"
	"github.com/quizhive/quizhive/internal/cache"
	companydomain "github.com/quizhive/quizhive/internal/company/domain"
	"github.com/quizhive/quizhive/internal/observability/metrics"
	"github.com/quizhive/quizhive/internal/providers/pdf"
	userdomain "github.com/quizhive/quizhive/internal/user/domain"
	"go.uber.org/zap"
)

type service struct {
	log       *zap.Logger
	snapshots *cache.SnapshotStore
	users     userdomain.Repository
	guard     companydomain.Guard
	authz     authorization.Service
	pdf       *pdf.PDFProvider
	metrics   *metrics.Metrics
}

func NewService(
	log *zap.Logger,
	snapshots *cache.SnapshotStore,
	users userdomain.Repository,
	guard companydomain.Guard,
	authz authorization.Service,
	pdfProvider *pdf.PDFProvider,
	m *metrics.Metrics,
) Service {
	return &service{
		log:       log.Named("export.service"),
		snapshots: snapshots,
		users:     users,
		guard:     guard,
		authz:     authz,
		pdf:       pdfProvider,
		metrics:   m,
	}
}

func (s *service) ExportAttempt(ctx context.Context, actorID snowflake.ID, companyID string, quizID string, userID string, format Format) (*Artifact, error) {
	if !format.Valid() {
		return nil, ErrUnsupportedFormat
	}

	cid, err := snowflake.ParseString(strings.TrimSpace(companyID))
	if err != nil {
		return nil, companydomain.ErrCompanyNotFound
	}
	uid, err := snowflake.ParseString(strings.TrimSpace(userID))
	if err != nil {
		return nil, ErrInvalidUser
	}

	// Members export their own attempts; exporting someone else's goes
	// through the export grant, which only owner and admin roles hold.
	if uid == actorID {
		if _, err := s.guard.ResolveViewer(ctx, actorID, cid); err != nil {
			return nil, err
		}
	} else {
		if _, err := s.guard.ResolveManager(ctx, actorID, cid); err != nil {
			return nil, err
		}
		if err := s.authz.Authorize(ctx, "user:"+actorID.String(), cid.String(), authorization.ObjectExport, authorization.ActionExportRun); err != nil {
			return nil, err
		}
	}

	snap, err := s.snapshots.Get(ctx, uid.String(), cid.String(), strings.TrimSpace(quizID))
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, ErrSnapshotNotFound
	}

	user, err := s.users.FindByID(ctx, uid)
	if err != nil {
		return nil, err
	}

	artifact, err := s.render(ctx, *snap, user.Email, format)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordExportRequest(ctx, string(format))
	s.log.Info("attempt exported",
		zap.String("quiz_id", snap.QuizID),
		zap.String("user_id", snap.UserID),
		zap.String("format", string(format)),
	)
	return artifact, nil
}

func (s *service) render(ctx context.Context, snap cache.AttemptSnapshot, userEmail string, format Format) (*Artifact, error) {
	base := fmt.Sprintf("attempt_%s_%s", snap.QuizID, snap.UserID)

	switch format {
	case FormatJSON:
		raw, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return nil, err
		}
		return &Artifact{
			Filename:    base + ".json",
			ContentType: "application/json",
			Content:     bytes.NewReader(raw),
		}, nil

	case FormatCSV:
		raw, err := renderCSV(snap)
		if err != nil {
			return nil, err
		}
		return &Artifact{
			Filename:    base + ".csv",
			ContentType: "text/csv",
			Content:     bytes.NewReader(raw),
		}, nil

	case FormatPDF:
		reader, err := s.pdf.GenerateAttemptReport(ctx, snap, userEmail)
		if err != nil {
			return nil, err
		}
		return &Artifact{
			Filename:    base + ".pdf",
			ContentType: "application/pdf",
			Content:     reader,
		}, nil
	}
	return nil, ErrUnsupportedFormat
}

func renderCSV(snap cache.AttemptSnapshot) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	rows := [][]string{
		{"quiz_id", "quiz_title", "user_id", "right_count", "total_count", "score", "submitted_at"},
		{
			snap.QuizID,
			snap.QuizTitle,
			snap.UserID,
			strconv.Itoa(snap.RightCount),
			strconv.Itoa(snap.TotalCount),
			strconv.FormatFloat(snap.Score, 'f', 2, 64),
			snap.SubmittedAt.Format("2006-01-02T15:04:05Z07:00"),
		},
		{},
		{"question_id", "prompt", "given_index", "right"},
	}
	for _, item := range snap.Items {
		rows = append(rows, []string{
			item.QuestionID,
			item.Prompt,
			strconv.Itoa(item.GivenIndex),
			strconv.FormatBool(item.Right),
		})
	}

	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
