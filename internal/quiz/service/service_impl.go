package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/quizhive/quizhive/internal/authorization"
	companydomain "github.com/quizhive/quizhive/internal/company/domain"
	"github.com/quizhive/quizhive/internal/quiz/domain"
	"github.com/quizhive/quizhive/pkg/db/option"
	"github.com/quizhive/quizhive/pkg/db/pagination"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type service struct {
	log   *zap.Logger
	db    *gorm.DB
	repo  domain.Repository
	guard companydomain.Guard
	authz authorization.Service
	genID *snowflake.Node
}

func NewService(
	log *zap.Logger,
	conn *gorm.DB,
	repo domain.Repository,
	guard companydomain.Guard,
	authz authorization.Service,
	genID *snowflake.Node,
) domain.Service {
	return &service{
		log:   log.Named("quiz.service"),
		db:    conn,
		repo:  repo,
		guard: guard,
		authz: authz,
		genID: genID,
	}
}

func (s *service) Create(ctx context.Context, actorID snowflake.ID, companyID string, req domain.CreateQuizRequest) (*domain.QuizResponse, error) {
	cid, err := parseCompanyID(companyID)
	if err != nil {
		return nil, err
	}
	if _, err := s.guard.ResolveViewer(ctx, actorID, cid); err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, subject(actorID), cid.String(), authorization.ObjectQuiz, authorization.ActionQuizCreate); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.ErrInvalidTitle
	}
	if req.FrequencyDays < 0 {
		return nil, domain.ErrInvalidFrequency
	}
	for _, q := range req.Questions {
		if err := validateQuestion(q); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	quiz := &domain.Quiz{
		ID:            s.genID.Generate(),
		CompanyID:     cid,
		Title:         title,
		Description:   strings.TrimSpace(req.Description),
		FrequencyDays: req.FrequencyDays,
		CreatedBy:     actorID,
		UpdatedBy:     actorID,
		CreatedAt:     now,
	}

	questions := make([]*domain.Question, 0, len(req.Questions))
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateQuiz(ctx, quiz); err != nil {
			return err
		}

		for i, q := range req.Questions {
			question, err := s.buildQuestion(quiz.ID, q, i, now)
			if err != nil {
				return err
			}
			if err := repo.CreateQuestion(ctx, question); err != nil {
				return err
			}
			questions = append(questions, question)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("quiz created",
		zap.String("quiz_id", quiz.ID.String()),
		zap.String("company_id", cid.String()),
		zap.Int("questions", len(questions)),
	)

	return toQuizResponse(quiz, questions, true), nil
}

func (s *service) GetByID(ctx context.Context, actorID snowflake.ID, companyID string, quizID string) (*domain.QuizResponse, error) {
	cid, err := parseCompanyID(companyID)
	if err != nil {
		return nil, err
	}
	if _, err := s.guard.ResolveViewer(ctx, actorID, cid); err != nil {
		return nil, err
	}

	quiz, err := s.findQuizInCompany(ctx, cid, quizID)
	if err != nil {
		return nil, err
	}

	questions, err := s.repo.ListQuestions(ctx, quiz.ID)
	if err != nil {
		return nil, err
	}

	role, err := s.guard.RoleOf(ctx, actorID, cid)
	if err != nil {
		return nil, err
	}
	withAnswers := role == companydomain.RoleOwner || role == companydomain.RoleAdmin

	return toQuizResponse(quiz, questions, withAnswers), nil
}

func (s *service) List(ctx context.Context, actorID snowflake.ID, companyID string, page pagination.Pagination) ([]domain.QuizResponse, *pagination.PageInfo, error) {
	cid, err := parseCompanyID(companyID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.guard.ResolveViewer(ctx, actorID, cid); err != nil {
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

	quizzes, err := s.repo.ListByCompany(ctx, cid, opts...)
	if err != nil {
		return nil, nil, err
	}

	pageInfo, quizzes := pagination.BuildCursorPageInfo(quizzes, limit, func(q *domain.Quiz) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{ID: q.ID.String()})
		if err != nil {
			return ""
		}
		return token
	})

	resp := make([]domain.QuizResponse, 0, len(quizzes))
	for _, q := range quizzes {
		resp = append(resp, *toQuizResponse(q, nil, false))
	}
	return resp, pageInfo, nil
}

func (s *service) Update(ctx context.Context, actorID snowflake.ID, companyID string, quizID string, req domain.UpdateQuizRequest) (*domain.QuizResponse, error) {
	cid, err := parseCompanyID(companyID)
	if err != nil {
		return nil, err
	}
	if _, err := s.guard.ResolveViewer(ctx, actorID, cid); err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, subject(actorID), cid.String(), authorization.ObjectQuiz, authorization.ActionQuizUpdate); err != nil {
		return nil, err
	}

	quiz, err := s.findQuizInCompany(ctx, cid, quizID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{"updated_at": time.Now().UTC(), "updated_by": actorID}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, domain.ErrInvalidTitle
		}
		fields["title"] = title
	}
	if req.Description != nil {
		fields["description"] = strings.TrimSpace(*req.Description)
	}
	if req.FrequencyDays != nil {
		if *req.FrequencyDays < 0 {
			return nil, domain.ErrInvalidFrequency
		}
		fields["frequency_days"] = *req.FrequencyDays
	}

	if err := s.repo.UpdateQuizFields(ctx, quiz.ID, fields); err != nil {
		return nil, err
	}

	quiz, err = s.repo.FindQuizByID(ctx, quiz.ID)
	if err != nil {
		return nil, err
	}
	questions, err := s.repo.ListQuestions(ctx, quiz.ID)
	if err != nil {
		return nil, err
	}
	return toQuizResponse(quiz, questions, true), nil
}

func (s *service) Delete(ctx context.Context, actorID snowflake.ID, companyID string, quizID string) error {
	cid, err := parseCompanyID(companyID)
	if err != nil {
		return err
	}
	if _, err := s.guard.ResolveViewer(ctx, actorID, cid); err != nil {
		return err
	}
	if err := s.authz.Authorize(ctx, subject(actorID), cid.String(), authorization.ObjectQuiz, authorization.ActionQuizDelete); err != nil {
		return err
	}

	quiz, err := s.findQuizInCompany(ctx, cid, quizID)
	if err != nil {
		return err
	}

	rows, err := s.repo.DeleteQuiz(ctx, quiz.ID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrQuizNotFound
	}

	s.log.Info("quiz deleted", zap.String("quiz_id", quiz.ID.String()))
	return nil
}

func (s *service) AddQuestion(ctx context.Context, actorID snowflake.ID, companyID string, quizID string, req domain.QuestionRequest) (*domain.QuestionResponse, error) {
	cid, err := parseCompanyID(companyID)
	if err != nil {
		return nil, err
	}
	if _, err := s.guard.ResolveViewer(ctx, actorID, cid); err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, subject(actorID), cid.String(), authorization.ObjectQuestion, authorization.ActionQuestionCreate); err != nil {
		return nil, err
	}

	quiz, err := s.findQuizInCompany(ctx, cid, quizID)
	if err != nil {
		return nil, err
	}
	if err := validateQuestion(req); err != nil {
		return nil, err
	}

	question, err := s.buildQuestion(quiz.ID, req, req.Position, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateQuestion(ctx, question); err != nil {
		return nil, err
	}

	resp := toQuestionResponse(question, true)
	return &resp, nil
}

func (s *service) UpdateQuestion(ctx context.Context, actorID snowflake.ID, companyID string, quizID string, questionID string, req domain.QuestionRequest) (*domain.QuestionResponse, error) {
	cid, err := parseCompanyID(companyID)
	if err != nil {
		return nil, err
	}
	if _, err := s.guard.ResolveViewer(ctx, actorID, cid); err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, subject(actorID), cid.String(), authorization.ObjectQuestion, authorization.ActionQuestionUpdate); err != nil {
		return nil, err
	}

	quiz, err := s.findQuizInCompany(ctx, cid, quizID)
	if err != nil {
		return nil, err
	}
	question, err := s.findQuestionInQuiz(ctx, quiz.ID, questionID)
	if err != nil {
		return nil, err
	}
	if err := validateQuestion(req); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(trimAnswers(req.Answers))
	if err != nil {
		return nil, err
	}
	fields := map[string]any{
		"prompt":        strings.TrimSpace(req.Prompt),
		"answers":       datatypes.JSON(raw),
		"correct_index": req.CorrectIndex,
		"position":      req.Position,
		"updated_at":    time.Now().UTC(),
	}
	if err := s.repo.UpdateQuestionFields(ctx, question.ID, fields); err != nil {
		return nil, err
	}

	question, err = s.repo.FindQuestionByID(ctx, question.ID)
	if err != nil {
		return nil, err
	}
	resp := toQuestionResponse(question, true)
	return &resp, nil
}

func (s *service) DeleteQuestion(ctx context.Context, actorID snowflake.ID, companyID string, quizID string, questionID string) error {
	cid, err := parseCompanyID(companyID)
	if err != nil {
		return err
	}
	if _, err := s.guard.ResolveViewer(ctx, actorID, cid); err != nil {
		return err
	}
	if err := s.authz.Authorize(ctx, subject(actorID), cid.String(), authorization.ObjectQuestion, authorization.ActionQuestionDelete); err != nil {
		return err
	}

	quiz, err := s.findQuizInCompany(ctx, cid, quizID)
	if err != nil {
		return err
	}
	question, err := s.findQuestionInQuiz(ctx, quiz.ID, questionID)
	if err != nil {
		return err
	}

	rows, err := s.repo.DeleteQuestion(ctx, question.ID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (s *service) findQuizInCompany(ctx context.Context, companyID snowflake.ID, quizID string) (*domain.Quiz, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(quizID))
	if err != nil {
		return nil, domain.ErrQuizNotFound
	}

	quiz, err := s.repo.FindQuizByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if quiz.CompanyID != companyID {
		return nil, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func (s *service) findQuestionInQuiz(ctx context.Context, quizID snowflake.ID, questionID string) (*domain.Question, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(questionID))
	if err != nil {
		return nil, domain.ErrQuestionNotFound
	}

	question, err := s.repo.FindQuestionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if question.QuizID != quizID {
		return nil, domain.ErrQuestionNotFound
	}
	return question, nil
}

func (s *service) buildQuestion(quizID snowflake.ID, req domain.QuestionRequest, position int, now time.Time) (*domain.Question, error) {
	raw, err := json.Marshal(trimAnswers(req.Answers))
	if err != nil {
		return nil, err
	}
	return &domain.Question{
		ID:           s.genID.Generate(),
		QuizID:       quizID,
		Prompt:       strings.TrimSpace(req.Prompt),
		Answers:      datatypes.JSON(raw),
		CorrectIndex: req.CorrectIndex,
		Position:     position,
		CreatedAt:    now,
	}, nil
}

func validateQuestion(req domain.QuestionRequest) error {
	if strings.TrimSpace(req.Prompt) == "" {
		return domain.ErrInvalidPrompt
	}
	answers := trimAnswers(req.Answers)
	if len(answers) < domain.MinAnswersPerQuestion {
		return domain.ErrNotEnoughAnswers
	}
	if req.CorrectIndex < 0 || req.CorrectIndex >= len(answers) {
		return domain.ErrInvalidCorrectIndex
	}
	return nil
}

func trimAnswers(raw []string) []string {
	answers := make([]string, 0, len(raw))
	for _, a := range raw {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		answers = append(answers, a)
	}
	return answers
}

func toQuizResponse(quiz *domain.Quiz, questions []*domain.Question, withAnswers bool) *domain.QuizResponse {
	resp := &domain.QuizResponse{
		ID:            quiz.ID.String(),
		CompanyID:     quiz.CompanyID.String(),
		Title:         quiz.Title,
		Description:   quiz.Description,
		FrequencyDays: quiz.FrequencyDays,
		CreatedAt:     quiz.CreatedAt,
	}
	for _, q := range questions {
		resp.Questions = append(resp.Questions, toQuestionResponse(q, withAnswers))
	}
	return resp
}

func toQuestionResponse(question *domain.Question, withAnswers bool) domain.QuestionResponse {
	answers := []string{}
	if len(question.Answers) > 0 {
		_ = json.Unmarshal(question.Answers, &answers)
	}

	resp := domain.QuestionResponse{
		ID:       question.ID.String(),
		Prompt:   question.Prompt,
		Answers:  answers,
		Position: question.Position,
	}
	if withAnswers {
		idx := question.CorrectIndex
		resp.CorrectIndex = &idx
	}
	return resp
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
