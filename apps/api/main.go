// Command api serves the emission HTTP API without the background workers.
// Pair it with the worker process and a shared Redis queue.
package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fiscal/internal/clock"
	"github.com/smallbiznis/fiscal/internal/config"
	"github.com/smallbiznis/fiscal/internal/emission"
	"github.com/smallbiznis/fiscal/internal/gateway"
	"github.com/smallbiznis/fiscal/internal/invoice"
	"github.com/smallbiznis/fiscal/internal/migration"
	"github.com/smallbiznis/fiscal/internal/observability"
	"github.com/smallbiznis/fiscal/internal/operationnature"
	"github.com/smallbiznis/fiscal/internal/order"
	"github.com/smallbiznis/fiscal/internal/party"
	"github.com/smallbiznis/fiscal/internal/ratelimit"
	"github.com/smallbiznis/fiscal/internal/reconcile"
	"github.com/smallbiznis/fiscal/internal/server"
	"github.com/smallbiznis/fiscal/internal/tax"
	"github.com/smallbiznis/fiscal/pkg/db"
	"github.com/smallbiznis/fiscal/pkg/log"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		log.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		clock.Module,
		db.Module,
		migration.Module,

		party.Module,
		order.Module,
		operationnature.Module,
		tax.Module,
		ratelimit.Module,
		gateway.Module,
		invoice.Module,
		fx.Provide(emission.NewQueue),
		fx.Provide(reconcile.NewSweeper),

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
