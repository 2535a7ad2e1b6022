package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/checkout/internal/adapter/gateway"
	"github.com/polkiloo/checkout/internal/app"
	"github.com/polkiloo/checkout/internal/checkout"
	"github.com/polkiloo/checkout/internal/config"
	"github.com/polkiloo/checkout/internal/logger"
	"github.com/polkiloo/checkout/internal/notify"
	"github.com/polkiloo/checkout/internal/pkg/auth"
	"github.com/polkiloo/checkout/internal/server/http/handlers"
	"github.com/polkiloo/checkout/internal/server/http/router"
	"github.com/polkiloo/checkout/internal/storage"
	"github.com/polkiloo/checkout/internal/worker"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		auth.Module,
		storage.Module,
		gateway.Module,
		notify.Module,
		fx.Provide(
			func(c gateway.Client) checkout.Gateway { return c },
			func(p notify.Publisher) checkout.Notifier { return p },
			func(s storage.Store) checkout.Store { return s },
			func(s storage.Store) app.HealthChecker { return s },
		),
		checkout.Module,
		worker.Module,
		fx.Provide(func(f *app.CheckoutFacade) handlers.CheckoutFacade { return f }),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
