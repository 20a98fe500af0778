package service

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/quizhive/quizhive/internal/authorization"
	"github.com/quizhive/quizhive/internal/cache"
	companydomain "github.com/quizhive/quizhive/internal/company/domain"
	"github.com/quizhive/quizhive/internal/observability/metrics"
	quizdomain "github.com/quizhive/quizhive/internal/quiz/domain"
	"github.com/quizhive/quizhive/internal/result/domain"
	userdomain "github.com/quizhive/quizhive/internal/user/domain"
	"github.com/quizhive/quizhive/pkg/db/option"
	"github.com/quizhive/quizhive/pkg/db/pagination"
	"go.uber.org/zap"
)

type service struct {
	log       *zap.Logger
	repo      domain.Repository
	quizzes   quizdomain.Repository
	users     userdomain.Repository
	guard     companydomain.Guard
	authz     authorization.Service
	snapshots *cache.SnapshotStore
	metrics   *metrics.Metrics
	genID     *snowflake.Node
}

func NewService(
	log *zap.Logger,
	repo domain.Repository,
	quizzes quizdomain.Repository,
	users userdomain.Repository,
	guard companydomain.Guard,
	authz authorization.Service,
	snapshots *cache.SnapshotStore,
	m *metrics.Metrics,
	genID *snowflake.Node,
) domain.Service {
	return &service{
		log:       log.Named("result.service"),
		repo:      repo,
		quizzes:   quizzes,
		users:     users,
		guard:     guard,
		authz:     authz,
		snapshots: snapshots,
		metrics:   m,
		genID:     genID,
	}
}

func (s *service) Attempt(ctx context.Context, actorID snowflake.ID, companyID string, quizID string, req domain.AttemptRequest) (*domain.AttemptResponse, error) {
	cid, err := parseCompanyID(companyID)
	if err != nil {
		return nil, err
	}
	if _, err := s.guard.ResolveViewer(ctx, actorID, cid); err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, subject(actorID), cid.String(), authorization.ObjectResult, authorization.ActionResultSubmit); err != nil {
		return nil, err
	}

	quiz, err := s.findQuizInCompany(ctx, cid, quizID)
	if err != nil {
		return nil, err
	}
	questions, err := s.quizzes.ListQuestions(ctx, quiz.ID)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, domain.ErrNoQuestions
	}

	now := time.Now().UTC()
	if quiz.FrequencyDays > 0 {
		last, err := s.repo.LastAttempt(ctx, actorID, quiz.ID)
		if err != nil {
			return nil, err
		}
		window := time.Duration(quiz.FrequencyDays) * 24 * time.Hour
		if last != nil && now.Sub(last.CreatedAt) < window {
			s.metrics.RecordQuizAttempt(ctx, "too_soon")
			return nil, domain.ErrAttemptTooSoon
		}
	}

	right, items, err := score(questions, req.Answers)
	if err != nil {
		return nil, err
	}

	result := &domain.QuizResult{
		ID:         s.genID.Generate(),
		UserID:     actorID,
		CompanyID:  cid,
		QuizID:     quiz.ID,
		RightCount: right,
		TotalCount: len(questions),
		CreatedAt:  now,
	}
	if err := s.repo.Create(ctx, result); err != nil {
		return nil, err
	}

	s.metrics.RecordQuizAttempt(ctx, "submitted")
	s.cacheSnapshot(ctx, result, quiz.Title, items)

	s.log.Info("quiz attempt submitted",
		zap.String("quiz_id", quiz.ID.String()),
		zap.String("user_id", actorID.String()),
		zap.Int("right_count", right),
		zap.Int("total_count", len(questions)),
	)

	return &domain.AttemptResponse{
		ID:          result.ID.String(),
		QuizID:      quiz.ID.String(),
		CompanyID:   cid.String(),
		RightCount:  result.RightCount,
		TotalCount:  result.TotalCount,
		Score:       rating(int64(result.RightCount), int64(result.TotalCount)),
		SubmittedAt: result.CreatedAt,
	}, nil
}

func (s *service) ListQuizResults(ctx context.Context, actorID snowflake.ID, companyID string, quizID string, page pagination.Pagination) ([]domain.ResultResponse, *pagination.PageInfo, error) {
	cid, err := parseCompanyID(companyID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.guard.ResolveManager(ctx, actorID, cid); err != nil {
		return nil, nil, err
	}

	quiz, err := s.findQuizInCompany(ctx, cid, quizID)
	if err != nil {
		return nil, nil, err
	}

	limit := page.PageSize
	if limit <= 0 {
		limit = 10
	}

	opts := []option.QueryOption{
		option.WithOrder("id ASC"),
		option.WithLimit(limit + 1),
	}
	if token := strings.TrimSpace(page.PageToken); token != "" {
		cursor, err := pagination.DecodeCursor(token)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, option.WithWhere("id > ?", cursor.ID))
	}

	results, err := s.repo.ListByQuiz(ctx, quiz.ID, opts...)
	if err != nil {
		return nil, nil, err
	}

	pageInfo, results := pagination.BuildCursorPageInfo(results, limit, func(r *domain.QuizResult) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{ID: r.ID.String()})
		if err != nil {
			return ""
		}
		return token
	})

	resp := make([]domain.ResultResponse, 0, len(results))
	for _, r := range results {
		resp = append(resp, domain.ResultResponse{
			ID:         r.ID.String(),
			UserID:     r.UserID.String(),
			QuizID:     r.QuizID.String(),
			RightCount: r.RightCount,
			TotalCount: r.TotalCount,
			Score:      rating(int64(r.RightCount), int64(r.TotalCount)),
			CreatedAt:  r.CreatedAt,
		})
	}
	return resp, pageInfo, nil
}

func (s *service) UserRating(ctx context.Context, actorID snowflake.ID, userID string) (*domain.RatingResponse, error) {
	uid, err := snowflake.ParseString(strings.TrimSpace(userID))
	if err != nil {
		return nil, domain.ErrInvalidUser
	}
	if _, err := s.users.FindByID(ctx, uid); err != nil {
		return nil, err
	}

	sums, err := s.repo.SumForUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	return &domain.RatingResponse{
		UserID:     uid.String(),
		RightCount: sums.Right,
		TotalCount: sums.Total,
		Rating:     rating(sums.Right, sums.Total),
	}, nil
}

func (s *service) CompanyMemberRating(ctx context.Context, actorID snowflake.ID, companyID string, userID string) (*domain.RatingResponse, error) {
	cid, err := parseCompanyID(companyID)
	if err != nil {
		return nil, err
	}
	uid, err := snowflake.ParseString(strings.TrimSpace(userID))
	if err != nil {
		return nil, domain.ErrInvalidUser
	}

	// A user may read their own rating; anyone else needs to manage
	// the company.
	if uid == actorID {
		if _, err := s.guard.ResolveViewer(ctx, actorID, cid); err != nil {
			return nil, err
		}
	} else {
		if _, err := s.guard.ResolveManager(ctx, actorID, cid); err != nil {
			return nil, err
		}
	}

	sums, err := s.repo.SumForUserInCompany(ctx, uid, cid)
	if err != nil {
		return nil, err
	}
	return &domain.RatingResponse{
		UserID:     uid.String(),
		CompanyID:  cid.String(),
		RightCount: sums.Right,
		TotalCount: sums.Total,
		Rating:     rating(sums.Right, sums.Total),
	}, nil
}

func (s *service) findQuizInCompany(ctx context.Context, companyID snowflake.ID, quizID string) (*quizdomain.Quiz, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(quizID))
	if err != nil {
		return nil, quizdomain.ErrQuizNotFound
	}

	quiz, err := s.quizzes.FindQuizByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if quiz.CompanyID != companyID {
		return nil, quizdomain.ErrQuizNotFound
	}
	return quiz, nil
}

func (s *service) cacheSnapshot(ctx context.Context, result *domain.QuizResult, quizTitle string, items []cache.SnapshotItem) {
	snap := cache.AttemptSnapshot{
		UserID:      result.UserID.String(),
		CompanyID:   result.CompanyID.String(),
		QuizID:      result.QuizID.String(),
		QuizTitle:   quizTitle,
		RightCount:  result.RightCount,
		TotalCount:  result.TotalCount,
		Score:       rating(int64(result.RightCount), int64(result.TotalCount)),
		Items:       items,
		SubmittedAt: result.CreatedAt,
	}
	if err := s.snapshots.Put(ctx, snap); err != nil {
		s.log.Warn("attempt snapshot write failed",
			zap.String("quiz_id", snap.QuizID),
			zap.String("user_id", snap.UserID),
			zap.Error(err),
		)
	}
}

// score grades the answers against the question set. Every question must
// be answered and every chosen index must exist.
func score(questions []*quizdomain.Question, answers map[string]int) (int, []cache.SnapshotItem, error) {
	if len(answers) != len(questions) {
		return 0, nil, domain.ErrIncompleteAnswers
	}

	right := 0
	items := make([]cache.SnapshotItem, 0, len(questions))
	for _, q := range questions {
		given, ok := answers[q.ID.String()]
		if !ok {
			return 0, nil, domain.ErrIncompleteAnswers
		}

		var options []string
		if len(q.Answers) > 0 {
			if err := json.Unmarshal(q.Answers, &options); err != nil {
				return 0, nil, err
			}
		}
		if given < 0 || given >= len(options) {
			return 0, nil, domain.ErrInvalidAnswer
		}

		correct := given == q.CorrectIndex
		if correct {
			right++
		}
		items = append(items, cache.SnapshotItem{
			QuestionID: q.ID.String(),
			Prompt:     q.Prompt,
			GivenIndex: given,
			Right:      correct,
		})
	}
	return right, items, nil
}

// rating is the share of right answers, rounded to two decimals.
func rating(right, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(right)/float64(total)*100) / 100
}

func subject(actorID snowflake.ID) string {
	return "user:" + actorID.String()
}

func parseCompanyID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil {
		return 0, companydomain.ErrCompanyNotFound
	}
	return id, nil
}
