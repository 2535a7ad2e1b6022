package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/polkiloo/checkout/internal/checkout"
	"github.com/polkiloo/checkout/internal/config"
	"github.com/polkiloo/checkout/internal/notify"
	"github.com/polkiloo/checkout/internal/worker"
)

// Module wires application services, runtime components, and lifecycle hooks.
var Module = fx.Options(
	fx.Provide(
		NewCheckoutFacade,
		newHTTPServer,
	),
	fx.Invoke(registerLifecycle),
)

type serverParams struct {
	fx.In

	Config *config.Config
	Router *gin.Engine
}

func newHTTPServer(p serverParams) *http.Server {
	return &http.Server{
		Addr:    p.Config.RunAddress,
		Handler: p.Router,
	}
}

type lifecycleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *slog.Logger
	Server     *http.Server
	Registry   *checkout.Registry
	Janitor    *worker.SessionJanitor
	Hub        *notify.Hub
	Relay      *notify.RedisRelay `optional:"true"`
	Config     *config.Config
}

func registerLifecycle(p lifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Info("starting checkout", slog.String("addr", p.Server.Addr), slog.String("mode", p.Config.Mode))
			if p.Relay != nil {
				if err := p.Relay.Start(ctx); err != nil {
					return err
				}
			}
			if _, err := p.Registry.Resume(ctx); err != nil {
				p.Logger.Error("resume in-flight sessions failed", slog.String("error", err.Error()))
			}
			p.Janitor.Start(context.Background())
			go func() {
				if err := p.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("http server terminated", slog.String("error", err.Error()))
					_ = p.Shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Janitor.Stop()

			shutdownCtx := ctx
			cancel := func() {}
			if _, ok := ctx.Deadline(); !ok {
				shutdownCtx, cancel = context.WithTimeout(ctx, p.Config.ShutdownTimeout)
			}
			defer cancel()

			p.Hub.Close()
			serverErr := p.Server.Shutdown(shutdownCtx)
			p.Registry.Shutdown()
			if p.Relay != nil {
				if err := p.Relay.Stop(); err != nil {
					p.Logger.Warn("redis relay stop failed", slog.String("error", err.Error()))
				}
			}

			if serverErr != nil && !errors.Is(serverErr, http.ErrServerClosed) {
				return serverErr
			}
			p.Logger.Info("checkout stopped")
			return nil
		},
	})
}
