package user

import (
	"github.com/quizhive/quizhive/internal/user/repository"
	"github.com/quizhive/quizhive/internal/user/service"
	"go.uber.org/fx"
)

var Module = fx.Module("user.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
