package quiz

import (
	"github.com/quizhive/quizhive/internal/quiz/repository"
	"github.com/quizhive/quizhive/internal/quiz/service"
	"go.uber.org/fx"
)

var Module = fx.Module("quiz.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
