package export

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/quizhive/quizhive/internal/authorization"
	"github.com/quizhive/quizhive/internal/cache"
	companydomain "github.com/quizhive/quizhive/internal/company/domain"
	companyrepository "github.com/quizhive/quizhive/internal/company/repository"
	companyservice "github.com/quizhive/quizhive/internal/company/service"
	"github.com/quizhive/quizhive/internal/providers/pdf"
	userdomain "github.com/quizhive/quizhive/internal/user/domain"
	userrepository "github.com/quizhive/quizhive/internal/user/repository"
	"github.com/quizhive/quizhive/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type exportFixture struct {
	svc     Service
	company companydomain.Service
	conn    *gorm.DB
	node    *snowflake.Node
}

func setupExportService(t *testing.T) *exportFixture {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&userdomain.User{},
		&companydomain.Company{},
		&companydomain.CompanyMember{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	companySvc := companyservice.NewService(zap.NewNop(), conn, companyrepository.NewRepository(conn), node)

	enforcer, err := authorization.NewEnforcer(conn)
	require.NoError(t, err)
	authz := authorization.NewService(conn, zap.NewNop(), enforcer)

	svc := NewService(
		zap.NewNop(),
		nil,
		userrepository.NewRepository(conn),
		companySvc,
		authz,
		pdf.NewProvider(),
		nil,
	)

	return &exportFixture{svc: svc, company: companySvc, conn: conn, node: node}
}

func (f *exportFixture) seedUser(t *testing.T, email string) snowflake.ID {
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

func (f *exportFixture) seedCompany(t *testing.T, owner snowflake.ID, name string) snowflake.ID {
	t.Helper()

	created, err := f.company.Create(context.Background(), owner, companydomain.CreateCompanyRequest{Name: name})
	require.NoError(t, err)
	id, err := snowflake.ParseString(created.ID)
	require.NoError(t, err)
	return id
}

func (f *exportFixture) addMember(t *testing.T, companyID, userID snowflake.ID) {
	t.Helper()

	member := companydomain.CompanyMember{
		ID:        f.node.Generate(),
		CompanyID: companyID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, f.conn.Create(&member).Error)
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	f := setupExportService(t)
	ctx := context.Background()

	owner := f.seedUser(t, "owner@example.com")
	companyID := f.seedCompany(t, owner, "Acme")

	_, err := f.svc.ExportAttempt(ctx, owner, companyID.String(), "1", owner.String(), Format("xml"))
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExportMissesWithoutSnapshot(t *testing.T) {
	f := setupExportService(t)
	ctx := context.Background()

	owner := f.seedUser(t, "owner@example.com")
	companyID := f.seedCompany(t, owner, "Acme")

	// The store is disabled in tests, so every lookup is a miss.
	_, err := f.svc.ExportAttempt(ctx, owner, companyID.String(), "1", owner.String(), FormatJSON)
	require.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestExportOfOthersNeedsManagementRole(t *testing.T) {
	f := setupExportService(t)
	ctx := context.Background()

	owner := f.seedUser(t, "owner@example.com")
	alice := f.seedUser(t, "alice@example.com")
	bob := f.seedUser(t, "bob@example.com")
	companyID := f.seedCompany(t, owner, "Acme")
	f.addMember(t, companyID, alice)
	f.addMember(t, companyID, bob)

	_, err := f.svc.ExportAttempt(ctx, alice, companyID.String(), "1", bob.String(), FormatJSON)
	require.ErrorIs(t, err, companydomain.ErrForbidden)

	// A manager still has to get past the snapshot lookup, so the miss
	// proves authorization succeeded.
	_, err = f.svc.ExportAttempt(ctx, owner, companyID.String(), "1", bob.String(), FormatJSON)
	require.ErrorIs(t, err, ErrSnapshotNotFound)
}

func sampleSnapshot() cache.AttemptSnapshot {
	return cache.AttemptSnapshot{
		UserID:     "42",
		CompanyID:  "7",
		QuizID:     "99",
		QuizTitle:  "Onboarding",
		RightCount: 1,
		TotalCount: 2,
		Score:      0.5,
		Items: []cache.SnapshotItem{
			{QuestionID: "1", Prompt: "First?", GivenIndex: 0, Right: true},
			{QuestionID: "2", Prompt: "Second?", GivenIndex: 1, Right: false},
		},
		SubmittedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestRenderArtifacts(t *testing.T) {
	s := &service{log: zap.NewNop(), pdf: pdf.NewProvider()}
	ctx := context.Background()
	snap := sampleSnapshot()

	jsonArt, err := s.render(ctx, snap, "user@example.com", FormatJSON)
	require.NoError(t, err)
	require.Equal(t, "attempt_99_42.json", jsonArt.Filename)
	require.Equal(t, "application/json", jsonArt.ContentType)

	raw, err := io.ReadAll(jsonArt.Content)
	require.NoError(t, err)
	var decoded cache.AttemptSnapshot
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, snap.Score, decoded.Score)
	require.Len(t, decoded.Items, 2)

	csvArt, err := s.render(ctx, snap, "user@example.com", FormatCSV)
	require.NoError(t, err)
	require.Equal(t, "attempt_99_42.csv", csvArt.Filename)

	raw, err = io.ReadAll(csvArt.Content)
	require.NoError(t, err)
	body := string(raw)
	require.True(t, strings.HasPrefix(body, "quiz_id,quiz_title,user_id"))
	require.Contains(t, body, "Onboarding")
	require.Contains(t, body, "First?,0,true")

	pdfArt, err := s.render(ctx, snap, "user@example.com", FormatPDF)
	require.NoError(t, err)
	require.Equal(t, "attempt_99_42.pdf", pdfArt.Filename)

	raw, err = io.ReadAll(pdfArt.Content)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(raw), "%PDF"))
}
