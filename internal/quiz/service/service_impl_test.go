package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/quizhive/quizhive/internal/authorization"
	companydomain "github.com/quizhive/quizhive/internal/company/domain"
	companyrepository "github.com/quizhive/quizhive/internal/company/repository"
	companyservice "github.com/quizhive/quizhive/internal/company/service"
	"github.com/quizhive/quizhive/internal/quiz/domain"
	"github.com/quizhive/quizhive/internal/quiz/repository"
	userdomain "github.com/quizhive/quizhive/internal/user/domain"
	"github.com/quizhive/quizhive/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type quizFixture struct {
	svc     domain.Service
	company companydomain.Service
	conn    *gorm.DB
	node    *snowflake.Node
}

func setupQuizService(t *testing.T) *quizFixture {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&userdomain.User{},
		&companydomain.Company{},
		&companydomain.CompanyMember{},
		&domain.Quiz{},
		&domain.Question{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	companySvc := companyservice.NewService(zap.NewNop(), conn, companyrepository.NewRepository(conn), node)

	enforcer, err := authorization.NewEnforcer(conn)
	require.NoError(t, err)
	authz := authorization.NewService(conn, zap.NewNop(), enforcer)

	svc := NewService(zap.NewNop(), conn, repository.NewRepository(conn), companySvc, authz, node)
	return &quizFixture{svc: svc, company: companySvc, conn: conn, node: node}
}

func (f *quizFixture) seedUser(t *testing.T, email string) snowflake.ID {
	t.Helper()

	user := userdomain.User{
		ID:           f.node.Generate(),
		Email:        email,
		PasswordHash: "x",
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	require.NoError(t, f.conn.Create(&user).Error)
	return user.ID
}

func (f *quizFixture) seedCompany(t *testing.T, owner snowflake.ID, name string) string {
	t.Helper()

	created, err := f.company.Create(context.Background(), owner, companydomain.CreateCompanyRequest{Name: name})
	require.NoError(t, err)
	return created.ID
}

func (f *quizFixture) addMember(t *testing.T, companyID string, userID snowflake.ID, isAdmin bool) {
	t.Helper()

	cid, err := snowflake.ParseString(companyID)
	require.NoError(t, err)
	member := companydomain.CompanyMember{
		ID:        f.node.Generate(),
		CompanyID: cid,
		UserID:    userID,
		IsAdmin:   isAdmin,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, f.conn.Create(&member).Error)
}

func validQuizRequest() domain.CreateQuizRequest {
	return domain.CreateQuizRequest{
		Title:         "Onboarding",
		Description:   "Basics",
		FrequencyDays: 7,
		Questions: []domain.QuestionRequest{
			{Prompt: "Capital of France?", Answers: []string{"Paris", "Lyon"}, CorrectIndex: 0},
			{Prompt: "2+2?", Answers: []string{"3", "4", "5"}, CorrectIndex: 1},
		},
	}
}

func TestCreateQuizWithQuestions(t *testing.T) {
	f := setupQuizService(t)
	ctx := context.Background()
	owner := f.seedUser(t, "owner@example.com")
	companyID := f.seedCompany(t, owner, "Acme")

	created, err := f.svc.Create(ctx, owner, companyID, validQuizRequest())
	require.NoError(t, err)
	require.Len(t, created.Questions, 2)
	require.NotNil(t, created.Questions[0].CorrectIndex)
	require.Equal(t, 7, created.FrequencyDays)
}

func TestCreateQuizValidation(t *testing.T) {
	f := setupQuizService(t)
	ctx := context.Background()
	owner := f.seedUser(t, "owner@example.com")
	companyID := f.seedCompany(t, owner, "Acme")

	req := validQuizRequest()
	req.Title = "  "
	_, err := f.svc.Create(ctx, owner, companyID, req)
	require.ErrorIs(t, err, domain.ErrInvalidTitle)

	req = validQuizRequest()
	req.FrequencyDays = -1
	_, err = f.svc.Create(ctx, owner, companyID, req)
	require.ErrorIs(t, err, domain.ErrInvalidFrequency)

	req = validQuizRequest()
	req.Questions[0].Answers = []string{"only"}
	_, err = f.svc.Create(ctx, owner, companyID, req)
	require.ErrorIs(t, err, domain.ErrNotEnoughAnswers)

	req = validQuizRequest()
	req.Questions[0].CorrectIndex = 5
	_, err = f.svc.Create(ctx, owner, companyID, req)
	require.ErrorIs(t, err, domain.ErrInvalidCorrectIndex)

	req = validQuizRequest()
	req.Questions[1].Prompt = ""
	_, err = f.svc.Create(ctx, owner, companyID, req)
	require.ErrorIs(t, err, domain.ErrInvalidPrompt)
}

func TestQuizMutationsRequireManagementRole(t *testing.T) {
	f := setupQuizService(t)
	ctx := context.Background()
	owner := f.seedUser(t, "owner@example.com")
	member := f.seedUser(t, "member@example.com")
	admin := f.seedUser(t, "admin@example.com")
	companyID := f.seedCompany(t, owner, "Acme")
	f.addMember(t, companyID, member, false)
	f.addMember(t, companyID, admin, true)

	_, err := f.svc.Create(ctx, member, companyID, validQuizRequest())
	require.ErrorIs(t, err, authorization.ErrForbidden)

	created, err := f.svc.Create(ctx, admin, companyID, validQuizRequest())
	require.NoError(t, err)

	err = f.svc.Delete(ctx, member, companyID, created.ID)
	require.ErrorIs(t, err, authorization.ErrForbidden)

	require.NoError(t, f.svc.Delete(ctx, admin, companyID, created.ID))
}

func TestMembersDoNotSeeCorrectAnswers(t *testing.T) {
	f := setupQuizService(t)
	ctx := context.Background()
	owner := f.seedUser(t, "owner@example.com")
	member := f.seedUser(t, "member@example.com")
	companyID := f.seedCompany(t, owner, "Acme")
	f.addMember(t, companyID, member, false)

	created, err := f.svc.Create(ctx, owner, companyID, validQuizRequest())
	require.NoError(t, err)

	forMember, err := f.svc.GetByID(ctx, member, companyID, created.ID)
	require.NoError(t, err)
	require.Len(t, forMember.Questions, 2)
	for _, q := range forMember.Questions {
		require.Nil(t, q.CorrectIndex)
		require.NotEmpty(t, q.Answers)
	}

	forOwner, err := f.svc.GetByID(ctx, owner, companyID, created.ID)
	require.NoError(t, err)
	for _, q := range forOwner.Questions {
		require.NotNil(t, q.CorrectIndex)
	}
}

func TestQuizScopedToCompany(t *testing.T) {
	f := setupQuizService(t)
	ctx := context.Background()
	owner := f.seedUser(t, "owner@example.com")
	first := f.seedCompany(t, owner, "First")
	second := f.seedCompany(t, owner, "Second")

	created, err := f.svc.Create(ctx, owner, first, validQuizRequest())
	require.NoError(t, err)

	_, err = f.svc.GetByID(ctx, owner, second, created.ID)
	require.ErrorIs(t, err, domain.ErrQuizNotFound)
}

func TestQuestionLifecycle(t *testing.T) {
	f := setupQuizService(t)
	ctx := context.Background()
	owner := f.seedUser(t, "owner@example.com")
	companyID := f.seedCompany(t, owner, "Acme")

	created, err := f.svc.Create(ctx, owner, companyID, validQuizRequest())
	require.NoError(t, err)

	question, err := f.svc.AddQuestion(ctx, owner, companyID, created.ID, domain.QuestionRequest{
		Prompt:       "Largest planet?",
		Answers:      []string{"Jupiter", "Mars"},
		CorrectIndex: 0,
		Position:     2,
	})
	require.NoError(t, err)

	updated, err := f.svc.UpdateQuestion(ctx, owner, companyID, created.ID, question.ID, domain.QuestionRequest{
		Prompt:       "Largest planet in the solar system?",
		Answers:      []string{"Jupiter", "Saturn", "Mars"},
		CorrectIndex: 0,
		Position:     2,
	})
	require.NoError(t, err)
	require.Len(t, updated.Answers, 3)

	require.NoError(t, f.svc.DeleteQuestion(ctx, owner, companyID, created.ID, question.ID))
	require.ErrorIs(t,
		f.svc.DeleteQuestion(ctx, owner, companyID, created.ID, question.ID),
		domain.ErrQuestionNotFound,
	)
}

func TestUpdateQuiz(t *testing.T) {
	f := setupQuizService(t)
	ctx := context.Background()
	owner := f.seedUser(t, "owner@example.com")
	companyID := f.seedCompany(t, owner, "Acme")

	created, err := f.svc.Create(ctx, owner, companyID, validQuizRequest())
	require.NoError(t, err)

	title := "Onboarding v2"
	days := 0
	updated, err := f.svc.Update(ctx, owner, companyID, created.ID, domain.UpdateQuizRequest{
		Title:         &title,
		FrequencyDays: &days,
	})
	require.NoError(t, err)
	require.Equal(t, title, updated.Title)
	require.Equal(t, 0, updated.FrequencyDays)
}
