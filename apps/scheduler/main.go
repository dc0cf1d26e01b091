package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/brewlink/internal/clock"
	"github.com/smallbiznis/brewlink/internal/config"
	"github.com/smallbiznis/brewlink/internal/device"
	"github.com/smallbiznis/brewlink/internal/lock"
	"github.com/smallbiznis/brewlink/internal/observability"
	"github.com/smallbiznis/brewlink/internal/scheduler"
	"github.com/smallbiznis/brewlink/pkg/db"
	"go.uber.org/fx"
)

// Standalone quota reset worker. Run the gateway binary with
// SCHEDULER_ENABLED=false when this one is deployed next to it.
func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		lock.Module,

		device.Module,
		scheduler.Module,
	)
	app.Run()
}

// Node 2 keeps run ids distinct from the gateway binary.
func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(2)
	if err != nil {
		panic(err)
	}
	return node
}
