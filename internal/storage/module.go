// Package storage selects where checkout session snapshots are kept.
package storage

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/checkout/internal/checkout"
	"github.com/polkiloo/checkout/internal/config"
	"github.com/polkiloo/checkout/internal/storage/memory"
	"github.com/polkiloo/checkout/internal/storage/postgres"
)

// Store is a session snapshot store with a liveness check.
type Store interface {
	checkout.Store
	HealthCheck(ctx context.Context) error
}

// Module provides the snapshot store.
var Module = fx.Provide(newStore)

type storeParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Ctx       context.Context
	Config    *config.Config
	Logger    *slog.Logger
}

func newStore(p storeParams) (Store, error) {
	if p.Config.DatabaseURI == "" {
		p.Logger.Info("session store: memory")
		return memory.New(), nil
	}
	p.Logger.Info("session store: postgres")
	return postgres.Open(p.Lifecycle, p.Ctx, p.Config, p.Logger)
}
