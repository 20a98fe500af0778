package action

import (
	"github.com/quizhive/quizhive/internal/action/repository"
	"github.com/quizhive/quizhive/internal/action/service"
	"go.uber.org/fx"
)

var Module = fx.Module("action.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
