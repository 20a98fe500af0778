package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/quizhive/quizhive/internal/action/domain"
	companydomain "github.com/quizhive/quizhive/internal/company/domain"
	"github.com/quizhive/quizhive/internal/observability/metrics"
	"github.com/quizhive/quizhive/internal/providers/email"
	userdomain "github.com/quizhive/quizhive/internal/user/domain"
	"github.com/quizhive/quizhive/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type service struct {
	log       *zap.Logger
	db        *gorm.DB
	repo      domain.Repository
	companies companydomain.Repository
	guard     companydomain.Guard
	users     userdomain.Repository
	mailer    email.Provider
	metrics   *metrics.Metrics
	genID     *snowflake.Node
}

func NewService(
	log *zap.Logger,
	conn *gorm.DB,
	repo domain.Repository,
	companies companydomain.Repository,
	guard companydomain.Guard,
	users userdomain.Repository,
	mailer email.Provider,
	m *metrics.Metrics,
	genID *snowflake.Node,
) domain.Service {
	return &service{
		log:       log.Named("action.service"),
		db:        conn,
		repo:      repo,
		companies: companies,
		guard:     guard,
		users:     users,
		mailer:    mailer,
		metrics:   m,
		genID:     genID,
	}
}

func (s *service) InviteUsers(ctx context.Context, actorID snowflake.ID, companyID string, req domain.InviteUsersRequest) error {
	cid, err := parseCompanyID(companyID)
	if err != nil {
		return err
	}

	company, err := s.guard.ResolveOwner(ctx, actorID, cid)
	if err != nil {
		return err
	}

	// Inviting nobody is a successful no-op.
	if len(req.UserIDs) == 0 {
		return nil
	}

	message := strings.TrimSpace(req.Message)
	now := time.Now().UTC()

	invited := make([]*userdomain.User, 0, len(req.UserIDs))
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		companies := s.companies.WithTx(tx)

		for _, raw := range req.UserIDs {
			targetID, err := snowflake.ParseString(strings.TrimSpace(raw))
			if err != nil {
				return domain.ErrInvalidUser
			}

			target, err := s.users.FindByID(ctx, targetID)
			if err != nil {
				return err
			}

			if err := s.ensureNotMember(ctx, companies, company, targetID); err != nil {
				return err
			}
			if err := s.ensureNoPendingAction(ctx, repo, cid, targetID); err != nil {
				return err
			}

			invite := domain.Action{
				ID:        s.genID.Generate(),
				CompanyID: cid,
				UserID:    targetID,
				Kind:      domain.KindInvite,
				Message:   message,
				CreatedAt: now,
			}
			if err := repo.Create(ctx, invite); err != nil {
				if db.IsDuplicateKeyErr(err) {
					return domain.ErrActionExists
				}
				return err
			}

			invited = append(invited, target)
		}
		return nil
	})
	if err != nil {
		return err
	}

	actor, actorErr := s.users.FindByID(ctx, actorID)
	for _, target := range invited {
		s.metrics.RecordActionTransition(ctx, string(domain.KindInvite), "send")

		data := map[string]any{
			"company_name": company.Name,
			"first_name":   target.FirstName,
			"message":      message,
		}
		if actorErr == nil {
			data["inviter_email"] = actor.Email
		}
		s.notify(ctx, domain.KindInvite, target.Email, "invite_member", data)
	}
	return nil
}

func (s *service) CancelInvite(ctx context.Context, actorID snowflake.ID, companyID string, userID string) error {
	cid, err := parseCompanyID(companyID)
	if err != nil {
		return err
	}
	if _, err := s.guard.ResolveOwner(ctx, actorID, cid); err != nil {
		return err
	}

	targetID, err := snowflake.ParseString(strings.TrimSpace(userID))
	if err != nil {
		return domain.ErrActionNotFound
	}

	rows, err := s.repo.Delete(ctx, cid, targetID, domain.KindInvite)
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrActionNotFound
	}

	s.metrics.RecordActionTransition(ctx, string(domain.KindInvite), "cancel")
	return nil
}

func (s *service) AcceptInvite(ctx context.Context, actorID snowflake.ID, companyID string) error {
	cid, err := parseCompanyID(companyID)
	if err != nil {
		return err
	}

	// The invite itself authorizes the lookup; hidden companies stay
	// reachable for their invitees.
	company, err := s.companies.FindByID(ctx, cid)
	if err != nil {
		return err
	}
	if company.IsOwner(actorID) {
		return domain.ErrAlreadyMember
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		companies := s.companies.WithTx(tx)

		rows, err := repo.Delete(ctx, cid, actorID, domain.KindInvite)
		if err != nil {
			return err
		}
		if rows == 0 {
			return domain.ErrActionNotFound
		}

		member := companydomain.CompanyMember{
			ID:        s.genID.Generate(),
			CompanyID: cid,
			UserID:    actorID,
			IsAdmin:   false,
			CreatedAt: time.Now().UTC(),
		}
		if err := companies.AddMember(ctx, member); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrAlreadyMember
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.RecordActionTransition(ctx, string(domain.KindInvite), "accept")
	s.log.Info("invite accepted",
		zap.String("company_id", cid.String()),
		zap.String("user_id", actorID.String()),
	)
	return nil
}

func (s *service) DeclineInvite(ctx context.Context, actorID snowflake.ID, companyID string) error {
	cid, err := parseCompanyID(companyID)
	if err != nil {
		return err
	}

	rows, err := s.repo.Delete(ctx, cid, actorID, domain.KindInvite)
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrActionNotFound
	}

	s.metrics.RecordActionTransition(ctx, string(domain.KindInvite), "decline")
	return nil
}

func (s *service) RequestToJoin(ctx context.Context, actorID snowflake.ID, companyID string, req domain.JoinRequest) error {
	cid, err := parseCompanyID(companyID)
	if err != nil {
		return err
	}

	company, err := s.companies.FindByID(ctx, cid)
	if err != nil {
		return err
	}
	if !company.VisibleTo(actorID) {
		return companydomain.ErrCompanyNotFound
	}
	if company.IsOwner(actorID) {
		return domain.ErrAlreadyMember
	}

	message := strings.TrimSpace(req.Message)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		companies := s.companies.WithTx(tx)

		if err := s.ensureNotMember(ctx, companies, company, actorID); err != nil {
			return err
		}
		if err := s.ensureNoPendingAction(ctx, repo, cid, actorID); err != nil {
			return err
		}

		request := domain.Action{
			ID:        s.genID.Generate(),
			CompanyID: cid,
			UserID:    actorID,
			Kind:      domain.KindRequest,
			Message:   message,
			CreatedAt: time.Now().UTC(),
		}
		if err := repo.Create(ctx, request); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrActionExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.RecordActionTransition(ctx, string(domain.KindRequest), "send")

	if owner, err := s.users.FindByID(ctx, company.OwnerID); err == nil {
		requester, err := s.users.FindByID(ctx, actorID)
		data := map[string]any{
			"company_name": company.Name,
			"message":      message,
		}
		if err == nil {
			data["requester_email"] = requester.Email
		}
		s.notify(ctx, domain.KindRequest, owner.Email, "join_request", data)
	}
	return nil
}

func (s *service) CancelRequest(ctx context.Context, actorID snowflake.ID, companyID string) error {
	cid, err := parseCompanyID(companyID)
	if err != nil {
		return err
	}

	rows, err := s.repo.Delete(ctx, cid, actorID, domain.KindRequest)
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrActionNotFound
	}

	s.metrics.RecordActionTransition(ctx, string(domain.KindRequest), "cancel")
	return nil
}

func (s *service) AcceptRequest(ctx context.Context, actorID snowflake.ID, companyID string, userID string) error {
	cid, err := parseCompanyID(companyID)
	if err != nil {
		return err
	}

	company, err := s.guard.ResolveOwner(ctx, actorID, cid)
	if err != nil {
		return err
	}

	targetID, err := snowflake.ParseString(strings.TrimSpace(userID))
	if err != nil {
		return domain.ErrActionNotFound
	}
	if company.IsOwner(targetID) {
		return domain.ErrAlreadyMember
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		companies := s.companies.WithTx(tx)

		rows, err := repo.Delete(ctx, cid, targetID, domain.KindRequest)
		if err != nil {
			return err
		}
		if rows == 0 {
			return domain.ErrActionNotFound
		}

		member := companydomain.CompanyMember{
			ID:        s.genID.Generate(),
			CompanyID: cid,
			UserID:    targetID,
			IsAdmin:   false,
			CreatedAt: time.Now().UTC(),
		}
		if err := companies.AddMember(ctx, member); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrAlreadyMember
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.RecordActionTransition(ctx, string(domain.KindRequest), "accept")

	if target, err := s.users.FindByID(ctx, targetID); err == nil {
		s.notify(ctx, domain.KindRequest, target.Email, "request_accepted", map[string]any{
			"company_name": company.Name,
		})
	}
	return nil
}

func (s *service) DeclineRequest(ctx context.Context, actorID snowflake.ID, companyID string, userID string) error {
	cid, err := parseCompanyID(companyID)
	if err != nil {
		return err
	}
	if _, err := s.guard.ResolveOwner(ctx, actorID, cid); err != nil {
		return err
	}

	targetID, err := snowflake.ParseString(strings.TrimSpace(userID))
	if err != nil {
		return domain.ErrActionNotFound
	}

	rows, err := s.repo.Delete(ctx, cid, targetID, domain.KindRequest)
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrActionNotFound
	}

	s.metrics.RecordActionTransition(ctx, string(domain.KindRequest), "decline")
	return nil
}

func (s *service) ListCompanyActions(ctx context.Context, actorID snowflake.ID, companyID string, kind domain.Kind) ([]domain.CompanyActionResponse, error) {
	if !kind.Valid() {
		return nil, domain.ErrInvalidKind
	}

	cid, err := parseCompanyID(companyID)
	if err != nil {
		return nil, err
	}
	if _, err := s.guard.ResolveOwner(ctx, actorID, cid); err != nil {
		return nil, err
	}

	items, err := s.repo.ListByCompany(ctx, cid, kind)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.CompanyActionResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, domain.CompanyActionResponse{
			UserID:    item.UserID.String(),
			Email:     item.Email,
			FirstName: item.FirstName,
			LastName:  item.LastName,
			Message:   item.Message,
			CreatedAt: item.CreatedAt,
		})
	}
	return resp, nil
}

func (s *service) ListMyActions(ctx context.Context, actorID snowflake.ID, kind domain.Kind) ([]domain.UserActionResponse, error) {
	if !kind.Valid() {
		return nil, domain.ErrInvalidKind
	}

	items, err := s.repo.ListByUser(ctx, actorID, kind)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.UserActionResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, domain.UserActionResponse{
			CompanyID:   item.CompanyID.String(),
			CompanyName: item.CompanyName,
			Message:     item.Message,
			CreatedAt:   item.CreatedAt,
		})
	}
	return resp, nil
}

func (s *service) ensureNotMember(ctx context.Context, companies companydomain.Repository, company *companydomain.Company, userID snowflake.ID) error {
	if company.IsOwner(userID) {
		return domain.ErrAlreadyMember
	}
	if _, err := companies.GetMember(ctx, company.ID, userID); err == nil {
		return domain.ErrAlreadyMember
	} else if !errors.Is(err, companydomain.ErrMemberNotFound) {
		return err
	}
	return nil
}

func (s *service) ensureNoPendingAction(ctx context.Context, repo domain.Repository, companyID, userID snowflake.ID) error {
	exists, err := repo.Exists(ctx, companyID, userID)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrActionExists
	}
	return nil
}

// notify delivers a membership email. Failures are logged, never surfaced.
func (s *service) notify(ctx context.Context, kind domain.Kind, to string, templateName string, data map[string]any) {
	if s.mailer == nil || strings.TrimSpace(to) == "" {
		return
	}
	if err := s.mailer.SendTemplate(ctx, []string{to}, templateName, data); err != nil {
		s.log.Warn("failed to send membership notification",
			zap.String("template", templateName),
			zap.Error(err),
		)
		s.metrics.RecordNotification(ctx, string(kind), "error")
		return
	}
	s.metrics.RecordNotification(ctx, string(kind), "sent")
}

func parseCompanyID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil {
		return 0, companydomain.ErrCompanyNotFound
	}
	return id, nil
}
