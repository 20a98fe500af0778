package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/quizhive/quizhive/internal/auth/domain"
	"github.com/quizhive/quizhive/internal/auth/password"
	"github.com/quizhive/quizhive/internal/auth/repository"
	"github.com/quizhive/quizhive/internal/auth/token"
	"github.com/quizhive/quizhive/internal/config"
	userdomain "github.com/quizhive/quizhive/internal/user/domain"
	userrepository "github.com/quizhive/quizhive/internal/user/repository"
	"github.com/quizhive/quizhive/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func setupAuthService(t *testing.T) (domain.Service, *token.Issuer, *gorm.DB, *snowflake.Node) {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&userdomain.User{}, &domain.Session{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	issuer := token.NewIssuer(config.Config{
		AppName:       "quizhive",
		AuthJWTSecret: "test-secret",
	})

	svc := New(
		zap.NewNop(),
		userrepository.NewRepository(conn),
		repository.NewSessionRepository(conn),
		issuer,
		node,
	)
	return svc, issuer, conn, node
}

func seedCredentials(t *testing.T, conn *gorm.DB, node *snowflake.Node, email, plain string) snowflake.ID {
	t.Helper()

	hashed, err := password.Hash(plain)
	require.NoError(t, err)

	user := userdomain.User{
		ID:           node.Generate(),
		Email:        email,
		PasswordHash: hashed,
		Links:        datatypes.JSON("[]"),
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	require.NoError(t, conn.Create(&user).Error)
	return user.ID
}

func TestLoginAndSessionRoundtrip(t *testing.T) {
	svc, _, conn, node := setupAuthService(t)
	ctx := context.Background()
	userID := seedCredentials(t, conn, node, "user@example.com", "s3cret-pass")

	result, err := svc.Login(ctx, domain.LoginRequest{Email: "user@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	require.NotEmpty(t, result.RawToken)
	require.NotEmpty(t, result.AccessToken)

	user, err := svc.Authenticate(ctx, result.RawToken)
	require.NoError(t, err)
	require.Equal(t, userID, user.ID)

	require.NoError(t, svc.Logout(ctx, result.RawToken))
	_, err = svc.Authenticate(ctx, result.RawToken)
	require.ErrorIs(t, err, domain.ErrInvalidSession)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _, conn, node := setupAuthService(t)
	ctx := context.Background()
	seedCredentials(t, conn, node, "user@example.com", "s3cret-pass")

	_, err := svc.Login(ctx, domain.LoginRequest{Email: "user@example.com", Password: "wrong"})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Login(ctx, domain.LoginRequest{Email: "nobody@example.com", Password: "s3cret-pass"})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Login(ctx, domain.LoginRequest{Email: "not-an-email", Password: "s3cret-pass"})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestBearerResolvesExistingUser(t *testing.T) {
	svc, issuer, conn, node := setupAuthService(t)
	ctx := context.Background()
	userID := seedCredentials(t, conn, node, "user@example.com", "s3cret-pass")

	raw, _, err := issuer.Issue(userID, "user@example.com")
	require.NoError(t, err)

	user, err := svc.AuthenticateBearer(ctx, raw)
	require.NoError(t, err)
	require.Equal(t, userID, user.ID)
}

func TestBearerProvisionsUnknownIdentity(t *testing.T) {
	svc, issuer, conn, node := setupAuthService(t)
	ctx := context.Background()

	raw, _, err := issuer.Issue(node.Generate(), "new@example.com")
	require.NoError(t, err)

	user, err := svc.AuthenticateBearer(ctx, raw)
	require.NoError(t, err)
	require.Equal(t, "new@example.com", user.Email)
	require.NotEmpty(t, user.PasswordHash)

	var count int64
	require.NoError(t, conn.Model(&userdomain.User{}).Count(&count).Error)
	require.EqualValues(t, 1, count)

	// The same identity resolves to the same account next time.
	again, err := svc.AuthenticateBearer(ctx, raw)
	require.NoError(t, err)
	require.Equal(t, user.ID, again.ID)
}

func TestBearerRejectsGarbage(t *testing.T) {
	svc, _, _, _ := setupAuthService(t)

	_, err := svc.AuthenticateBearer(context.Background(), "not-a-jwt")
	require.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestExpiredSession(t *testing.T) {
	svc, _, conn, node := setupAuthService(t)
	ctx := context.Background()
	seedCredentials(t, conn, node, "user@example.com", "s3cret-pass")

	result, err := svc.Login(ctx, domain.LoginRequest{Email: "user@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	require.NoError(t, conn.Model(&domain.Session{}).
		Where("1 = 1").
		Update("expires_at", time.Now().UTC().Add(-time.Hour)).Error)

	_, err = svc.Authenticate(ctx, result.RawToken)
	require.ErrorIs(t, err, domain.ErrSessionExpired)
}
