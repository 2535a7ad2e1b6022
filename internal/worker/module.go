package worker

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/checkout/internal/checkout"
	"github.com/polkiloo/checkout/internal/config"
)

// Module provides the idle-session janitor.
var Module = fx.Provide(newSessionJanitor)

type janitorParams struct {
	fx.In

	Config   *config.Config
	Registry *checkout.Registry
	Logger   *slog.Logger
}

func newSessionJanitor(p janitorParams) *SessionJanitor {
	return NewSessionJanitor(p.Registry, p.Config.JanitorInterval, p.Logger)
}
