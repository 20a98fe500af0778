package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/quizhive/quizhive/internal/user/domain"
	"github.com/quizhive/quizhive/internal/user/repository"
	"github.com/quizhive/quizhive/pkg/db"
	"github.com/quizhive/quizhive/pkg/db/pagination"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupUserService(t *testing.T) (domain.Service, *gorm.DB) {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.User{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(zap.NewNop(), repository.NewRepository(conn), node), conn
}

func signUp(t *testing.T, svc domain.Service, email string) *domain.UserResponse {
	t.Helper()

	user, err := svc.SignUp(context.Background(), domain.SignUpRequest{
		Email:    email,
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	return user
}

func TestSignUpValidation(t *testing.T) {
	svc, _ := setupUserService(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, domain.SignUpRequest{Email: "not-an-email", Password: "s3cret-pass"})
	require.ErrorIs(t, err, domain.ErrInvalidEmail)

	_, err = svc.SignUp(ctx, domain.SignUpRequest{Email: "user@example.com", Password: "short"})
	require.ErrorIs(t, err, domain.ErrInvalidPassword)
}

func TestSignUpNormalizesEmailAndRejectsDuplicates(t *testing.T) {
	svc, _ := setupUserService(t)
	ctx := context.Background()

	user := signUp(t, svc, "User@Example.com")
	require.Equal(t, "user@example.com", user.Email)

	_, err := svc.SignUp(ctx, domain.SignUpRequest{Email: "user@example.com", Password: "s3cret-pass"})
	require.ErrorIs(t, err, domain.ErrUserExists)

	// Case-insensitive duplicate.
	_, err = svc.SignUp(ctx, domain.SignUpRequest{Email: "USER@EXAMPLE.COM", Password: "s3cret-pass"})
	require.ErrorIs(t, err, domain.ErrUserExists)
}

func TestUpdateProfileIsSelfOnly(t *testing.T) {
	svc, _ := setupUserService(t)
	ctx := context.Background()

	alice := signUp(t, svc, "alice@example.com")
	bob := signUp(t, svc, "bob@example.com")

	aliceID, err := snowflake.ParseString(alice.ID)
	require.NoError(t, err)

	bio := "hello"
	updated, err := svc.UpdateProfile(ctx, aliceID, alice.ID, domain.UpdateProfileRequest{Bio: &bio})
	require.NoError(t, err)
	require.Equal(t, "hello", updated.Bio)

	_, err = svc.UpdateProfile(ctx, aliceID, bob.ID, domain.UpdateProfileRequest{Bio: &bio})
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestUpdateProfilePhoneUniqueness(t *testing.T) {
	svc, _ := setupUserService(t)
	ctx := context.Background()

	alice := signUp(t, svc, "alice@example.com")
	bob := signUp(t, svc, "bob@example.com")

	aliceID, err := snowflake.ParseString(alice.ID)
	require.NoError(t, err)
	bobID, err := snowflake.ParseString(bob.ID)
	require.NoError(t, err)

	phone := "+1555000111"
	updated, err := svc.UpdateProfile(ctx, aliceID, alice.ID, domain.UpdateProfileRequest{Phone: &phone})
	require.NoError(t, err)
	require.Equal(t, phone, updated.Phone)

	_, err = svc.UpdateProfile(ctx, bobID, bob.ID, domain.UpdateProfileRequest{Phone: &phone})
	require.ErrorIs(t, err, domain.ErrPhoneExists)

	// Clearing the number frees it.
	empty := ""
	_, err = svc.UpdateProfile(ctx, aliceID, alice.ID, domain.UpdateProfileRequest{Phone: &empty})
	require.NoError(t, err)

	_, err = svc.UpdateProfile(ctx, bobID, bob.ID, domain.UpdateProfileRequest{Phone: &phone})
	require.NoError(t, err)
}

func TestDeleteUserPermissions(t *testing.T) {
	svc, conn := setupUserService(t)
	ctx := context.Background()

	alice := signUp(t, svc, "alice@example.com")
	bob := signUp(t, svc, "bob@example.com")

	var aliceRow domain.User
	require.NoError(t, conn.First(&aliceRow, "email = ?", "alice@example.com").Error)

	// A user cannot delete someone else.
	require.ErrorIs(t, svc.Delete(ctx, &aliceRow, bob.ID), domain.ErrForbidden)

	// Self-deletion works.
	require.NoError(t, svc.Delete(ctx, &aliceRow, alice.ID))
	_, err := svc.GetByID(ctx, alice.ID)
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	// A superuser deletes anyone.
	admin := signUp(t, svc, "admin@example.com")
	require.NoError(t, conn.Model(&domain.User{}).
		Where("email = ?", "admin@example.com").
		Update("is_superuser", true).Error)

	var adminRow domain.User
	require.NoError(t, conn.First(&adminRow, "email = ?", "admin@example.com").Error)
	require.NotEmpty(t, admin.ID)

	require.NoError(t, svc.Delete(ctx, &adminRow, bob.ID))
}

func TestListPagination(t *testing.T) {
	svc, _ := setupUserService(t)
	ctx := context.Background()

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		signUp(t, svc, email)
	}

	firstPage, pageInfo, err := svc.List(ctx, pagination.Pagination{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, firstPage, 2)
	require.True(t, pageInfo.HasMore)
	require.NotEmpty(t, pageInfo.NextPageToken)

	secondPage, pageInfo, err := svc.List(ctx, pagination.Pagination{PageSize: 2, PageToken: pageInfo.NextPageToken})
	require.NoError(t, err)
	require.Len(t, secondPage, 1)
	require.False(t, pageInfo.HasMore)
}
