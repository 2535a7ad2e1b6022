package gateway

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/checkout/internal/config"
)

// Module exposes the gateway client implementation to fx graph.
var Module = fx.Provide(newClient)

type clientParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newClient(p clientParams) (Client, error) {
	mode := PublicMode()
	if p.Config.Mode == config.ModeMerchant {
		mode = MerchantMode(p.Config.MerchantAPIKey, p.Config.MerchantAPISecret)
	}
	return NewHTTPClient(p.Config.GatewayAddress, mode, p.Config.RequestTimeout, p.Logger)
}
