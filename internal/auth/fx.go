package auth

import (
	"github.com/quizhive/quizhive/internal/auth/repository"
	"github.com/quizhive/quizhive/internal/auth/service"
	"github.com/quizhive/quizhive/internal/auth/session"
	"github.com/quizhive/quizhive/internal/auth/token"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.NewSessionRepository),
	fx.Provide(token.NewIssuer),
	fx.Provide(session.NewManager),
	fx.Provide(service.New),
)
