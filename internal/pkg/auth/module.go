package auth

import (
	"github.com/polkiloo/checkout/internal/config"
	"go.uber.org/fx"
)

// Module provides the session token strategy via fx.
var Module = fx.Provide(newTokenStrategy)

type strategyParams struct {
	fx.In

	Config *config.Config
}

func newTokenStrategy(p strategyParams) Strategy {
	return NewHMACStrategy(p.Config.SessionSecret, Options{})
}
