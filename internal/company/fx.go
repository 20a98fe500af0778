package company

import (
	"github.com/quizhive/quizhive/internal/company/domain"
	"github.com/quizhive/quizhive/internal/company/repository"
	"github.com/quizhive/quizhive/internal/company/service"
	"go.uber.org/fx"
)

var Module = fx.Module("company.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
	fx.Provide(func(s domain.Service) domain.Guard { return s }),
)
