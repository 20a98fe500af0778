package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectQuiz     = "quiz"
	ObjectQuestion = "question"
	ObjectResult   = "result"
	ObjectExport   = "export"
)

const (
	ActionQuizView   = "quiz.view"
	ActionQuizCreate = "quiz.create"
	ActionQuizUpdate = "quiz.update"
	ActionQuizDelete = "quiz.delete"

	ActionQuestionView   = "question.view"
	ActionQuestionCreate = "question.create"
	ActionQuestionUpdate = "question.update"
	ActionQuestionDelete = "question.delete"

	ActionResultSubmit = "result.submit"
	ActionResultView   = "result.view"

	ActionExportRun = "export.run"
)

type ServiceImpl struct {
	db       *gorm.DB
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(db *gorm.DB, log *zap.Logger, enforcer *casbin.SyncedEnforcer) Service {
	return &ServiceImpl{
		db:       db,
		log:      log.Named("authorization.service"),
		enforcer: enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, actor string, companyID string, object string, action string) error {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return ErrInvalidActor
	}
	companyID = strings.TrimSpace(companyID)
	if companyID == "" {
		return ErrInvalidCompany
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	subject, roleName, err := s.resolveActor(ctx, actor, companyID)
	if err != nil {
		return err
	}

	domain := fmt.Sprintf("company:%s", companyID)
	if err := s.ensureGrouping(subject, roleName, domain); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, domain, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Debug("authorization denied",
			zap.String("subject", subject),
			zap.String("company_id", companyID),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

func (s *ServiceImpl) resolveActor(ctx context.Context, actor string, companyID string) (string, string, error) {
	if actor == "system" {
		return actor, "role:system", nil
	}
	if strings.HasPrefix(actor, "user:") {
		userIDRaw := strings.TrimPrefix(actor, "user:")
		userID, err := snowflake.ParseString(userIDRaw)
		if err != nil || userID == 0 {
			return "", "", ErrInvalidActor
		}
		parsedCompanyID, err := snowflake.ParseString(companyID)
		if err != nil || parsedCompanyID == 0 {
			return "", "", ErrInvalidCompany
		}
		role, err := s.roleForUser(ctx, parsedCompanyID, userID)
		if err != nil {
			return "", "", err
		}
		return actor, fmt.Sprintf("role:%s", role), nil
	}
	return "", "", ErrInvalidActor
}

func (s *ServiceImpl) roleForUser(ctx context.Context, companyID snowflake.ID, userID snowflake.ID) (string, error) {
	var row struct {
		Role string `gorm:"column:role"`
	}
	if err := s.db.WithContext(ctx).Raw(
		`SELECT CASE
		          WHEN c.owner_id = ? THEN 'owner'
		          WHEN m.is_admin THEN 'admin'
		          WHEN m.user_id IS NOT NULL THEN 'member'
		          ELSE ''
		        END AS role
		 FROM companies c
		 LEFT JOIN company_members m ON m.company_id = c.id AND m.user_id = ?
		 WHERE c.id = ?
		 LIMIT 1`,
		userID,
		userID,
		companyID,
	).Scan(&row).Error; err != nil {
		return "", err
	}

	role := strings.TrimSpace(row.Role)
	if role == "" {
		return "", ErrForbidden
	}
	return role, nil
}

func (s *ServiceImpl) ensureGrouping(subject string, roleName string, domain string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject, "", domain)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 {
			continue
		}
		if rule[1] != roleName {
			params := make([]interface{}, 0, len(rule))
			for _, value := range rule {
				params = append(params, value)
			}
			_, _ = s.enforcer.RemoveGroupingPolicy(params...)
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName, domain)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName, domain)
	return err
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Members can take quizzes and see their own results.
		{"role:member", ObjectQuiz, ActionQuizView},
		{"role:member", ObjectQuestion, ActionQuestionView},
		{"role:member", ObjectResult, ActionResultSubmit},
		{"role:member", ObjectResult, ActionResultView},

		// Admins manage quiz content and review company results.
		{"role:admin", ObjectQuiz, ActionQuizView},
		{"role:admin", ObjectQuiz, ActionQuizCreate},
		{"role:admin", ObjectQuiz, ActionQuizUpdate},
		{"role:admin", ObjectQuiz, ActionQuizDelete},
		{"role:admin", ObjectQuestion, ActionQuestionView},
		{"role:admin", ObjectQuestion, ActionQuestionCreate},
		{"role:admin", ObjectQuestion, ActionQuestionUpdate},
		{"role:admin", ObjectQuestion, ActionQuestionDelete},
		{"role:admin", ObjectResult, ActionResultSubmit},
		{"role:admin", ObjectResult, ActionResultView},
		{"role:admin", ObjectExport, ActionExportRun},

		// Owners hold the full admin surface.
		{"role:owner", ObjectQuiz, ActionQuizView},
		{"role:owner", ObjectQuiz, ActionQuizCreate},
		{"role:owner", ObjectQuiz, ActionQuizUpdate},
		{"role:owner", ObjectQuiz, ActionQuizDelete},
		{"role:owner", ObjectQuestion, ActionQuestionView},
		{"role:owner", ObjectQuestion, ActionQuestionCreate},
		{"role:owner", ObjectQuestion, ActionQuestionUpdate},
		{"role:owner", ObjectQuestion, ActionQuestionDelete},
		{"role:owner", ObjectResult, ActionResultSubmit},
		{"role:owner", ObjectResult, ActionResultView},
		{"role:owner", ObjectExport, ActionExportRun},

		// Automated processes.
		{"role:system", ObjectExport, ActionExportRun},
		{"role:system", ObjectResult, ActionResultView},
	}

	for _, policy := range policies {
		if len(policy) < 3 {
			continue
		}
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
