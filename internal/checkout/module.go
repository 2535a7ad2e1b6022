package checkout

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/checkout/internal/config"
)

// Module provides the session registry.
var Module = fx.Provide(newRegistry)

type registryParams struct {
	fx.In

	Config   *config.Config
	Gateway  Gateway
	Notifier Notifier
	Store    Store
	Logger   *slog.Logger
}

func newRegistry(p registryParams) *Registry {
	opts := Options{
		Poll:           PollPolicyFromConfig(p.Config),
		RequireOrderID: p.Config.RequireOrderID,
	}
	deps := Dependencies{
		Gateway:  p.Gateway,
		Notifier: p.Notifier,
		Logger:   p.Logger,
	}
	return NewRegistry(deps, opts, p.Config.SessionTTL, p.Store)
}

// PollPolicyFromConfig maps the polling settings onto a policy.
func PollPolicyFromConfig(cfg *config.Config) PollPolicy {
	return PollPolicy{
		Interval:    cfg.PollInterval,
		MaxAttempts: cfg.PollMaxAttempts,
		MaxElapsed:  cfg.PollMaxElapsed,
		Multiplier:  cfg.PollBackoffMultiplier,
		MaxInterval: cfg.PollMaxInterval,
	}
}
