package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/brewlink/internal/clock"
	"github.com/smallbiznis/brewlink/internal/config"
	"github.com/smallbiznis/brewlink/internal/device"
	"github.com/smallbiznis/brewlink/internal/gateway"
	"github.com/smallbiznis/brewlink/internal/lock"
	"github.com/smallbiznis/brewlink/internal/migration"
	"github.com/smallbiznis/brewlink/internal/mirror"
	"github.com/smallbiznis/brewlink/internal/observability"
	"github.com/smallbiznis/brewlink/internal/scheduler"
	"github.com/smallbiznis/brewlink/internal/server"
	"github.com/smallbiznis/brewlink/internal/transport/mqtt"
	"github.com/smallbiznis/brewlink/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		lock.Module,

		// Functional Domains
		device.Module,
		mirror.Module,
		mqtt.Module,
		gateway.Module,
		scheduler.Module,

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
