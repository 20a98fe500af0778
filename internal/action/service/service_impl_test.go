package service

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/quizhive/quizhive/internal/action/domain"
	"github.com/quizhive/quizhive/internal/action/repository"
	companydomain "github.com/quizhive/quizhive/internal/company/domain"
	companyrepository "github.com/quizhive/quizhive/internal/company/repository"
	companyservice "github.com/quizhive/quizhive/internal/company/service"
	"github.com/quizhive/quizhive/internal/providers/email"
	userdomain "github.com/quizhive/quizhive/internal/user/domain"
	userrepository "github.com/quizhive/quizhive/internal/user/repository"
	"github.com/quizhive/quizhive/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type actionFixture struct {
	svc     domain.Service
	company companydomain.Service
	conn    *gorm.DB
	node    *snowflake.Node
}

func setupActionService(t *testing.T) *actionFixture {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&userdomain.User{},
		&companydomain.Company{},
		&companydomain.CompanyMember{},
		&domain.Action{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	companyRepo := companyrepository.NewRepository(conn)
	companySvc := companyservice.NewService(zap.NewNop(), conn, companyRepo, node)

	svc := NewService(
		zap.NewNop(),
		conn,
		repository.NewRepository(conn),
		companyRepo,
		companySvc,
		userrepository.NewRepository(conn),
		&email.NoOpProvider{},
		nil,
		node,
	)

	return &actionFixture{svc: svc, company: companySvc, conn: conn, node: node}
}

func (f *actionFixture) seedUser(t *testing.T, email string) snowflake.ID {
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

func (f *actionFixture) seedCompany(t *testing.T, owner snowflake.ID, name string, visible bool) string {
	t.Helper()

	created, err := f.company.Create(context.Background(), owner, companydomain.CreateCompanyRequest{
		Name:      name,
		IsVisible: &visible,
	})
	require.NoError(t, err)
	return created.ID
}

func (f *actionFixture) isMember(t *testing.T, companyID string, userID snowflake.ID) bool {
	t.Helper()

	cid, err := snowflake.ParseString(companyID)
	require.NoError(t, err)

	var count int64
	require.NoError(t, f.conn.Model(&companydomain.CompanyMember{}).
		Where("company_id = ? AND user_id = ?", cid, userID).
		Count(&count).Error)
	return count > 0
}

func invite(t *testing.T, f *actionFixture, actor snowflake.ID, companyID string, target snowflake.ID) {
	t.Helper()
	require.NoError(t, f.svc.InviteUsers(context.Background(), actor, companyID, domain.InviteUsersRequest{
		UserIDs: []string{target.String()},
	}))
}

func TestInviteAcceptMakesMember(t *testing.T) {
	f := setupActionService(t)
	ctx := context.Background()
	owner := f.seedUser(t, "owner@example.com")
	target := f.seedUser(t, "target@example.com")
	companyID := f.seedCompany(t, owner, "Acme", true)

	invite(t, f, owner, companyID, target)
	require.NoError(t, f.svc.AcceptInvite(ctx, target, companyID))

	require.True(t, f.isMember(t, companyID, target))

	invites, err := f.svc.ListMyActions(ctx, target, domain.KindInvite)
	require.NoError(t, err)
	require.Empty(t, invites)
}

func TestInviteDeclineLeavesNoMember(t *testing.T) {
	f := setupActionService(t)
	ctx := context.Background()
	owner := f.seedUser(t, "owner@example.com")
	target := f.seedUser(t, "target@example.com")
	companyID := f.seedCompany(t, owner, "Acme", true)

	invite(t, f, owner, companyID, target)
	require.NoError(t, f.svc.DeclineInvite(ctx, target, companyID))

	require.False(t, f.isMember(t, companyID, target))

	// The decline consumed the invite; declining again is not found.
	require.ErrorIs(t, f.svc.DeclineInvite(ctx, target, companyID), domain.ErrActionNotFound)
}

func TestRequestAcceptedByOwnerOnly(t *testing.T) {
	f := setupActionService(t)
	ctx := context.Background()
	owner := f.seedUser(t, "owner@example.com")
	admin := f.seedUser(t, "admin@example.com")
	requester := f.seedUser(t, "requester@example.com")
	companyID := f.seedCompany(t, owner, "Acme", true)

	invite(t, f, owner, companyID, admin)
	require.NoError(t, f.svc.AcceptInvite(ctx, admin, companyID))
	require.NoError(t, f.company.AppointAdmin(ctx, owner, companyID, admin.String()))

	require.NoError(t, f.svc.RequestToJoin(ctx, requester, companyID, domain.JoinRequest{Message: "hi"}))

	// Admin standing covers quiz management, not membership decisions.
	err := f.svc.AcceptRequest(ctx, admin, companyID, requester.String())
	require.ErrorIs(t, err, companydomain.ErrForbidden)
	require.False(t, f.isMember(t, companyID, requester))

	require.NoError(t, f.svc.AcceptRequest(ctx, owner, companyID, requester.String()))
	require.True(t, f.isMember(t, companyID, requester))
}

func TestRequestDeclinedLeavesNoMember(t *testing.T) {
	f := setupActionService(t)
	ctx := context.Background()
	owner := f.seedUser(t, "owner@example.com")
	requester := f.seedUser(t, "requester@example.com")
	companyID := f.seedCompany(t, owner, "Acme", true)

	require.NoError(t, f.svc.RequestToJoin(ctx, requester, companyID, domain.JoinRequest{Message: "hi"}))

	require.NoError(t, f.svc.DeclineRequest(ctx, owner, companyID, requester.String()))
	require.False(t, f.isMember(t, companyID, requester))

	// The decline consumed the request.
	err := f.svc.DeclineRequest(ctx, owner, companyID, requester.String())
	require.ErrorIs(t, err, domain.ErrActionNotFound)

	requests, err := f.svc.ListCompanyActions(ctx, owner, companyID, domain.KindRequest)
	require.NoError(t, err)
	require.Empty(t, requests)

	// Nothing stops the user from asking again.
	require.NoError(t, f.svc.RequestToJoin(ctx, requester, companyID, domain.JoinRequest{}))
}

func TestPendingActionsAreMutuallyExclusive(t *testing.T) {
	f := setupActionService(t)
	ctx := context.Background()
	owner := f.seedUser(t, "owner@example.com")
	target := f.seedUser(t, "target@example.com")
	companyID := f.seedCompany(t, owner, "Acme", true)

	// A pending invite blocks a join request.
	invite(t, f, owner, companyID, target)
	err := f.svc.RequestToJoin(ctx, target, companyID, domain.JoinRequest{})
	require.ErrorIs(t, err, domain.ErrActionExists)

	require.NoError(t, f.svc.CancelInvite(ctx, owner, companyID, target.String()))

	// A pending request blocks an invite.
	require.NoError(t, f.svc.RequestToJoin(ctx, target, companyID, domain.JoinRequest{}))
	err = f.svc.InviteUsers(ctx, owner, companyID, domain.InviteUsersRequest{
		UserIDs: []string{target.String()},
	})
	require.ErrorIs(t, err, domain.ErrActionExists)
}

func TestDuplicateInviteConflicts(t *testing.T) {
	f := setupActionService(t)
	ctx := context.Background()
	owner := f.seedUser(t, "owner@example.com")
	target := f.seedUser(t, "target@example.com")
	companyID := f.seedCompany(t, owner, "Acme", true)

	invite(t, f, owner, companyID, target)
	err := f.svc.InviteUsers(ctx, owner, companyID, domain.InviteUsersRequest{
		UserIDs: []string{target.String()},
	})
	require.ErrorIs(t, err, domain.ErrActionExists)
}

func TestCancelConsumesTheAction(t *testing.T) {
	f := setupActionService(t)
	ctx := context.Background()
	owner := f.seedUser(t, "owner@example.com")
	target := f.seedUser(t, "target@example.com")
	companyID := f.seedCompany(t, owner, "Acme", true)

	// Cancelling an invite that never existed is a miss, not a no-op.
	require.ErrorIs(t, f.svc.CancelInvite(ctx, owner, companyID, target.String()), domain.ErrActionNotFound)

	invite(t, f, owner, companyID, target)
	require.NoError(t, f.svc.CancelInvite(ctx, owner, companyID, target.String()))
	require.ErrorIs(t, f.svc.CancelInvite(ctx, owner, companyID, target.String()), domain.ErrActionNotFound)

	// Same for a withdrawn join request.
	require.NoError(t, f.svc.RequestToJoin(ctx, target, companyID, domain.JoinRequest{}))
	require.NoError(t, f.svc.CancelRequest(ctx, target, companyID))
	require.ErrorIs(t, f.svc.CancelRequest(ctx, target, companyID), domain.ErrActionNotFound)
}

func TestAcceptConsumedActionReportsNotFound(t *testing.T) {
	f := setupActionService(t)
	ctx := context.Background()
	owner := f.seedUser(t, "owner@example.com")
	target := f.seedUser(t, "target@example.com")
	companyID := f.seedCompany(t, owner, "Acme", true)

	invite(t, f, owner, companyID, target)
	require.NoError(t, f.svc.AcceptInvite(ctx, target, companyID))

	// The first accept consumed the invite row; a second accept sees
	// nothing to act on.
	require.ErrorIs(t, f.svc.AcceptInvite(ctx, target, companyID), domain.ErrActionNotFound)
}

func TestInviteToExistingMemberConflicts(t *testing.T) {
	f := setupActionService(t)
	ctx := context.Background()
	owner := f.seedUser(t, "owner@example.com")
	target := f.seedUser(t, "target@example.com")
	companyID := f.seedCompany(t, owner, "Acme", true)

	invite(t, f, owner, companyID, target)
	require.NoError(t, f.svc.AcceptInvite(ctx, target, companyID))

	err := f.svc.InviteUsers(ctx, owner, companyID, domain.InviteUsersRequest{
		UserIDs: []string{target.String()},
	})
	require.ErrorIs(t, err, domain.ErrAlreadyMember)
}

func TestInviteRequiresOwner(t *testing.T) {
	f := setupActionService(t)
	ctx := context.Background()
	owner := f.seedUser(t, "owner@example.com")
	member := f.seedUser(t, "member@example.com")
	target := f.seedUser(t, "target@example.com")
	companyID := f.seedCompany(t, owner, "Acme", true)

	invite(t, f, owner, companyID, member)
	require.NoError(t, f.svc.AcceptInvite(ctx, member, companyID))

	err := f.svc.InviteUsers(ctx, member, companyID, domain.InviteUsersRequest{
		UserIDs: []string{target.String()},
	})
	require.ErrorIs(t, err, companydomain.ErrForbidden)

	// The same holds for an admin.
	require.NoError(t, f.company.AppointAdmin(ctx, owner, companyID, member.String()))
	err = f.svc.InviteUsers(ctx, member, companyID, domain.InviteUsersRequest{
		UserIDs: []string{target.String()},
	})
	require.ErrorIs(t, err, companydomain.ErrForbidden)
}

func TestHiddenCompanyInviteFlow(t *testing.T) {
	f := setupActionService(t)
	ctx := context.Background()
	owner := f.seedUser(t, "owner@example.com")
	target := f.seedUser(t, "target@example.com")
	companyID := f.seedCompany(t, owner, "Shadow", false)

	// A hidden company is unreachable for join requests.
	err := f.svc.RequestToJoin(ctx, target, companyID, domain.JoinRequest{})
	require.ErrorIs(t, err, companydomain.ErrCompanyNotFound)

	// The invite authorizes the invitee despite the hidden flag.
	invite(t, f, owner, companyID, target)
	require.NoError(t, f.svc.AcceptInvite(ctx, target, companyID))
	require.True(t, f.isMember(t, companyID, target))
}

func TestInviteNobodyIsNoOp(t *testing.T) {
	f := setupActionService(t)
	ctx := context.Background()
	owner := f.seedUser(t, "owner@example.com")
	companyID := f.seedCompany(t, owner, "Acme", true)

	require.NoError(t, f.svc.InviteUsers(ctx, owner, companyID, domain.InviteUsersRequest{}))
}

func TestListCompanyActions(t *testing.T) {
	f := setupActionService(t)
	ctx := context.Background()
	owner := f.seedUser(t, "owner@example.com")
	first := f.seedUser(t, "first@example.com")
	second := f.seedUser(t, "second@example.com")
	companyID := f.seedCompany(t, owner, "Acme", true)

	invite(t, f, owner, companyID, first)
	require.NoError(t, f.svc.RequestToJoin(ctx, second, companyID, domain.JoinRequest{Message: "hi"}))

	invites, err := f.svc.ListCompanyActions(ctx, owner, companyID, domain.KindInvite)
	require.NoError(t, err)
	require.Len(t, invites, 1)

	requests, err := f.svc.ListCompanyActions(ctx, owner, companyID, domain.KindRequest)
	require.NoError(t, err)
	require.Len(t, requests, 1)

	_, err = f.svc.ListCompanyActions(ctx, owner, companyID, domain.Kind("bogus"))
	require.ErrorIs(t, err, domain.ErrInvalidKind)

	// Listing is owner-only.
	_, err = f.svc.ListCompanyActions(ctx, second, companyID, domain.KindRequest)
	require.ErrorIs(t, err, companydomain.ErrForbidden)
}

// checkMembershipStates asserts that each user holds at most one standing
// toward the company (owner, member, pending invite or pending request)
// and that the owner never carries a membership row.
func (f *actionFixture) checkMembershipStates(t *testing.T, companyID string, users []snowflake.ID) {
	t.Helper()

	cid, err := snowflake.ParseString(companyID)
	require.NoError(t, err)

	var company companydomain.Company
	require.NoError(t, f.conn.First(&company, "id = ?", cid).Error)

	for _, uid := range users {
		states := 0
		if company.OwnerID == uid {
			states++
		}

		var memberRows int64
		require.NoError(t, f.conn.Model(&companydomain.CompanyMember{}).
			Where("company_id = ? AND user_id = ?", cid, uid).
			Count(&memberRows).Error)
		states += int(memberRows)

		var pending int64
		require.NoError(t, f.conn.Model(&domain.Action{}).
			Where("company_id = ? AND user_id = ?", cid, uid).
			Count(&pending).Error)
		states += int(pending)

		require.LessOrEqual(t, states, 1,
			"user %s holds %d standings toward company %s", uid, states, companyID)
	}

	var ownerRows int64
	require.NoError(t, f.conn.Model(&companydomain.CompanyMember{}).
		Where("company_id = ? AND user_id = ?", cid, company.OwnerID).
		Count(&ownerRows).Error)
	require.Zero(t, ownerRows, "owner must not have a membership row")

	// The admin flag only lives on membership rows, so every admin is
	// a member by construction; it must never mark the owner.
	var adminRows []companydomain.CompanyMember
	require.NoError(t, f.conn.
		Where("company_id = ? AND is_admin = ?", cid, true).
		Find(&adminRows).Error)
	for _, row := range adminRows {
		require.NotEqual(t, company.OwnerID, row.UserID)
	}
}

func TestRandomTransitionsKeepStatesExclusive(t *testing.T) {
	f := setupActionService(t)
	ctx := context.Background()
	owner := f.seedUser(t, "owner@example.com")
	users := []snowflake.ID{
		f.seedUser(t, "alpha@example.com"),
		f.seedUser(t, "beta@example.com"),
		f.seedUser(t, "gamma@example.com"),
	}
	companyID := f.seedCompany(t, owner, "Acme", true)

	rng := rand.New(rand.NewSource(42))

	steps := []func(uid snowflake.ID) error{
		func(uid snowflake.ID) error {
			return f.svc.InviteUsers(ctx, owner, companyID, domain.InviteUsersRequest{
				UserIDs: []string{uid.String()},
			})
		},
		func(uid snowflake.ID) error { return f.svc.CancelInvite(ctx, owner, companyID, uid.String()) },
		func(uid snowflake.ID) error { return f.svc.AcceptInvite(ctx, uid, companyID) },
		func(uid snowflake.ID) error { return f.svc.DeclineInvite(ctx, uid, companyID) },
		func(uid snowflake.ID) error { return f.svc.RequestToJoin(ctx, uid, companyID, domain.JoinRequest{}) },
		func(uid snowflake.ID) error { return f.svc.CancelRequest(ctx, uid, companyID) },
		func(uid snowflake.ID) error { return f.svc.AcceptRequest(ctx, owner, companyID, uid.String()) },
		func(uid snowflake.ID) error { return f.svc.DeclineRequest(ctx, owner, companyID, uid.String()) },
		func(uid snowflake.ID) error { return f.company.Leave(ctx, uid, companyID) },
		func(uid snowflake.ID) error { return f.company.AppointAdmin(ctx, owner, companyID, uid.String()) },
		func(uid snowflake.ID) error { return f.company.RevokeAdmin(ctx, owner, companyID, uid.String()) },
	}

	allowed := []error{
		domain.ErrActionNotFound,
		domain.ErrActionExists,
		domain.ErrAlreadyMember,
		companydomain.ErrMemberNotFound,
		companydomain.ErrAdminNotFound,
		companydomain.ErrAlreadyAdmin,
		companydomain.ErrOwnerMembership,
		companydomain.ErrForbidden,
	}

	all := append([]snowflake.ID{owner}, users...)
	for i := 0; i < 400; i++ {
		uid := users[rng.Intn(len(users))]
		err := steps[rng.Intn(len(steps))](uid)
		if err != nil {
			matched := false
			for _, want := range allowed {
				if errors.Is(err, want) {
					matched = true
					break
				}
			}
			require.True(t, matched, "step %d: unexpected error %v", i, err)
		}
		f.checkMembershipStates(t, companyID, all)
	}
}
