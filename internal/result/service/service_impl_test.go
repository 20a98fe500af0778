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
	quizdomain "github.com/quizhive/quizhive/internal/quiz/domain"
	quizrepository "github.com/quizhive/quizhive/internal/quiz/repository"
	"github.com/quizhive/quizhive/internal/result/domain"
	"github.com/quizhive/quizhive/internal/result/repository"
	userdomain "github.com/quizhive/quizhive/internal/user/domain"
	userrepository "github.com/quizhive/quizhive/internal/user/repository"
	"github.com/quizhive/quizhive/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type resultFixture struct {
	svc     domain.Service
	company companydomain.Service
	conn    *gorm.DB
	node    *snowflake.Node
}

func setupResultService(t *testing.T) *resultFixture {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&userdomain.User{},
		&companydomain.Company{},
		&companydomain.CompanyMember{},
		&quizdomain.Quiz{},
		&quizdomain.Question{},
		&domain.QuizResult{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	companySvc := companyservice.NewService(zap.NewNop(), conn, companyrepository.NewRepository(conn), node)

	enforcer, err := authorization.NewEnforcer(conn)
	require.NoError(t, err)
	authz := authorization.NewService(conn, zap.NewNop(), enforcer)

	svc := NewService(
		zap.NewNop(),
		repository.NewRepository(conn),
		quizrepository.NewRepository(conn),
		userrepository.NewRepository(conn),
		companySvc,
		authz,
		nil,
		nil,
		node,
	)

	return &resultFixture{svc: svc, company: companySvc, conn: conn, node: node}
}

func (f *resultFixture) seedUser(t *testing.T, email string) snowflake.ID {
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

func (f *resultFixture) seedCompany(t *testing.T, owner snowflake.ID, name string) snowflake.ID {
	t.Helper()

	created, err := f.company.Create(context.Background(), owner, companydomain.CreateCompanyRequest{Name: name})
	require.NoError(t, err)
	id, err := snowflake.ParseString(created.ID)
	require.NoError(t, err)
	return id
}

func (f *resultFixture) addMember(t *testing.T, companyID, userID snowflake.ID) {
	t.Helper()

	member := companydomain.CompanyMember{
		ID:        f.node.Generate(),
		CompanyID: companyID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, f.conn.Create(&member).Error)
}

// seedQuiz creates a quiz with questions whose correct answer is always
// the first option. Returns the quiz and question IDs.
func (f *resultFixture) seedQuiz(t *testing.T, companyID snowflake.ID, frequencyDays, questionCount int) (snowflake.ID, []snowflake.ID) {
	t.Helper()

	quiz := quizdomain.Quiz{
		ID:            f.node.Generate(),
		CompanyID:     companyID,
		Title:         "Onboarding",
		FrequencyDays: frequencyDays,
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, f.conn.Create(&quiz).Error)

	questionIDs := make([]snowflake.ID, 0, questionCount)
	for i := 0; i < questionCount; i++ {
		question := quizdomain.Question{
			ID:           f.node.Generate(),
			QuizID:       quiz.ID,
			Prompt:       "prompt",
			Answers:      datatypes.JSON(`["yes","no"]`),
			CorrectIndex: 0,
			Position:     i,
			CreatedAt:    time.Now().UTC(),
		}
		require.NoError(t, f.conn.Create(&question).Error)
		questionIDs = append(questionIDs, question.ID)
	}
	return quiz.ID, questionIDs
}

func TestAttemptScoring(t *testing.T) {
	f := setupResultService(t)
	ctx := context.Background()
	owner := f.seedUser(t, "owner@example.com")
	member := f.seedUser(t, "member@example.com")
	companyID := f.seedCompany(t, owner, "Acme")
	f.addMember(t, companyID, member)
	quizID, questions := f.seedQuiz(t, companyID, 0, 2)

	attempt, err := f.svc.Attempt(ctx, member, companyID.String(), quizID.String(), domain.AttemptRequest{
		Answers: map[string]int{
			questions[0].String(): 0,
			questions[1].String(): 1,
		},
	})
	require.NoError(t, err)
	require.Equal(t, 1, attempt.RightCount)
	require.Equal(t, 2, attempt.TotalCount)
	require.InDelta(t, 0.5, attempt.Score, 0.0001)
}

func TestAttemptRequiresEveryAnswer(t *testing.T) {
	f := setupResultService(t)
	ctx := context.Background()
	owner := f.seedUser(t, "owner@example.com")
	member := f.seedUser(t, "member@example.com")
	companyID := f.seedCompany(t, owner, "Acme")
	f.addMember(t, companyID, member)
	quizID, questions := f.seedQuiz(t, companyID, 0, 2)

	_, err := f.svc.Attempt(ctx, member, companyID.String(), quizID.String(), domain.AttemptRequest{
		Answers: map[string]int{questions[0].String(): 0},
	})
	require.ErrorIs(t, err, domain.ErrIncompleteAnswers)

	_, err = f.svc.Attempt(ctx, member, companyID.String(), quizID.String(), domain.AttemptRequest{
		Answers: map[string]int{
			questions[0].String(): 0,
			questions[1].String(): 7,
		},
	})
	require.ErrorIs(t, err, domain.ErrInvalidAnswer)
}

func TestAttemptFrequencyGate(t *testing.T) {
	f := setupResultService(t)
	ctx := context.Background()
	owner := f.seedUser(t, "owner@example.com")
	member := f.seedUser(t, "member@example.com")
	companyID := f.seedCompany(t, owner, "Acme")
	f.addMember(t, companyID, member)
	quizID, questions := f.seedQuiz(t, companyID, 7, 1)

	answers := domain.AttemptRequest{Answers: map[string]int{questions[0].String(): 0}}

	_, err := f.svc.Attempt(ctx, member, companyID.String(), quizID.String(), answers)
	require.NoError(t, err)

	_, err = f.svc.Attempt(ctx, member, companyID.String(), quizID.String(), answers)
	require.ErrorIs(t, err, domain.ErrAttemptTooSoon)

	// Age the previous attempt past the window and retry.
	require.NoError(t, f.conn.Model(&domain.QuizResult{}).
		Where("quiz_id = ? AND user_id = ?", quizID, member).
		Update("created_at", time.Now().UTC().Add(-8*24*time.Hour)).Error)

	_, err = f.svc.Attempt(ctx, member, companyID.String(), quizID.String(), answers)
	require.NoError(t, err)
}

func TestRatingRounding(t *testing.T) {
	f := setupResultService(t)
	ctx := context.Background()
	owner := f.seedUser(t, "owner@example.com")
	member := f.seedUser(t, "member@example.com")
	companyID := f.seedCompany(t, owner, "Acme")
	f.addMember(t, companyID, member)
	quizID, questions := f.seedQuiz(t, companyID, 0, 3)

	_, err := f.svc.Attempt(ctx, member, companyID.String(), quizID.String(), domain.AttemptRequest{
		Answers: map[string]int{
			questions[0].String(): 0,
			questions[1].String(): 1,
			questions[2].String(): 1,
		},
	})
	require.NoError(t, err)

	rating, err := f.svc.CompanyMemberRating(ctx, member, companyID.String(), member.String())
	require.NoError(t, err)
	require.InDelta(t, 0.33, rating.Rating, 0.0001)
	require.EqualValues(t, 1, rating.RightCount)
	require.EqualValues(t, 3, rating.TotalCount)
}

func TestRatingAggregatesAcrossCompanies(t *testing.T) {
	f := setupResultService(t)
	ctx := context.Background()
	owner := f.seedUser(t, "owner@example.com")
	member := f.seedUser(t, "member@example.com")
	first := f.seedCompany(t, owner, "First")
	second := f.seedCompany(t, owner, "Second")
	f.addMember(t, first, member)
	f.addMember(t, second, member)

	quizA, questionsA := f.seedQuiz(t, first, 0, 1)
	quizB, questionsB := f.seedQuiz(t, second, 0, 1)

	_, err := f.svc.Attempt(ctx, member, first.String(), quizA.String(), domain.AttemptRequest{
		Answers: map[string]int{questionsA[0].String(): 0},
	})
	require.NoError(t, err)
	_, err = f.svc.Attempt(ctx, member, second.String(), quizB.String(), domain.AttemptRequest{
		Answers: map[string]int{questionsB[0].String(): 1},
	})
	require.NoError(t, err)

	global, err := f.svc.UserRating(ctx, member, member.String())
	require.NoError(t, err)
	require.EqualValues(t, 1, global.RightCount)
	require.EqualValues(t, 2, global.TotalCount)
	require.InDelta(t, 0.5, global.Rating, 0.0001)

	scoped, err := f.svc.CompanyMemberRating(ctx, member, first.String(), member.String())
	require.NoError(t, err)
	require.InDelta(t, 1.0, scoped.Rating, 0.0001)
}

func TestCompanyMemberRatingAccess(t *testing.T) {
	f := setupResultService(t)
	ctx := context.Background()
	owner := f.seedUser(t, "owner@example.com")
	member := f.seedUser(t, "member@example.com")
	other := f.seedUser(t, "other@example.com")
	companyID := f.seedCompany(t, owner, "Acme")
	f.addMember(t, companyID, member)
	f.addMember(t, companyID, other)

	// The owner reads any member's rating.
	_, err := f.svc.CompanyMemberRating(ctx, owner, companyID.String(), member.String())
	require.NoError(t, err)

	// A plain member cannot read someone else's.
	_, err = f.svc.CompanyMemberRating(ctx, other, companyID.String(), member.String())
	require.ErrorIs(t, err, companydomain.ErrForbidden)
}

func TestAttemptOnEmptyQuiz(t *testing.T) {
	f := setupResultService(t)
	ctx := context.Background()
	owner := f.seedUser(t, "owner@example.com")
	member := f.seedUser(t, "member@example.com")
	companyID := f.seedCompany(t, owner, "Acme")
	f.addMember(t, companyID, member)
	quizID, _ := f.seedQuiz(t, companyID, 0, 0)

	_, err := f.svc.Attempt(ctx, member, companyID.String(), quizID.String(), domain.AttemptRequest{
		Answers: map[string]int{},
	})
	require.ErrorIs(t, err, domain.ErrNoQuestions)
}
