package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/claimdocs/internal/clock"
	"github.com/smallbiznis/claimdocs/internal/config"
	"github.com/smallbiznis/claimdocs/internal/migration"
	"github.com/smallbiznis/claimdocs/internal/observability"
	"github.com/smallbiznis/claimdocs/internal/server"
	"github.com/smallbiznis/claimdocs/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Document engine, catalog, projects and the HTTP surface
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
