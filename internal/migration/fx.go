package migration

import (
	actiondomain "github.com/quizhive/quizhive/internal/action/domain"
	authdomain "github.com/quizhive/quizhive/internal/auth/domain"
	companydomain "github.com/quizhive/quizhive/internal/company/domain"
	"github.com/quizhive/quizhive/internal/config"
	quizdomain "github.com/quizhive/quizhive/internal/quiz/domain"
	resultdomain "github.com/quizhive/quizhive/internal/result/domain"
	"github.com/quizhive/quizhive/internal/seed"
	userdomain "github.com/quizhive/quizhive/internal/user/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		// The embedded migrations target postgres. Other dialects fall
		// back to gorm auto-migration.
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			if err := conn.AutoMigrate(
				&userdomain.User{},
				&authdomain.Session{},
				&companydomain.Company{},
				&companydomain.CompanyMember{},
				&actiondomain.Action{},
				&quizdomain.Quiz{},
				&quizdomain.Question{},
				&resultdomain.QuizResult{},
			); err != nil {
				return err
			}
		}

		return seed.EnsureSuperuser(conn)
	}),
)
