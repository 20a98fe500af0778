package result

import (
	"github.com/quizhive/quizhive/internal/result/repository"
	"github.com/quizhive/quizhive/internal/result/service"
	"go.uber.org/fx"
)

var Module = fx.Module("result.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
