package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/quizhive/quizhive/internal/config"
	"github.com/quizhive/quizhive/internal/migration"
	"github.com/quizhive/quizhive/internal/observability"
	"github.com/quizhive/quizhive/internal/server"
	"github.com/quizhive/quizhive/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func registerSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
