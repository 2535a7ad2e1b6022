package router

import (
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/polkiloo/checkout/internal/config"
	"github.com/polkiloo/checkout/internal/notify"
	"github.com/polkiloo/checkout/internal/server/http/handlers"
	"github.com/polkiloo/checkout/internal/server/http/middleware"
)

const signalsPath = "/ws/transactions"

// Params are the router dependencies.
type Params struct {
	fx.In

	Facade handlers.CheckoutFacade
	Hub    *notify.Hub
	Config *config.Config
	Logger *slog.Logger
}

// Setup configures gin router with handlers and middleware.
func Setup(p Params) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(p.Logger))
	if corsMiddleware, ok := newCORS(p.Config.AllowedOrigins); ok {
		engine.Use(corsMiddleware)
	}
	engine.Use(middleware.DecompressRequest(middleware.DefaultMaxBodyBytes))
	engine.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{signalsPath})))

	checkoutHandler := handlers.NewCheckoutHandler(p.Facade)
	cardHandler := handlers.NewCardHandler(p.Facade)
	healthHandler := handlers.NewHealthHandler(p.Facade)

	engine.GET("/health", healthHandler.Check)
	engine.GET(signalsPath, gin.WrapH(p.Hub))

	api := engine.Group("/api/v1")
	api.GET("/card-networks", cardHandler.Network)
	api.POST("/checkout/sessions", checkoutHandler.Open)

	session := api.Group("/checkout/sessions/:id")
	session.Use(middleware.SessionRequired(p.Facade))
	session.GET("", checkoutHandler.Get)
	session.DELETE("", checkoutHandler.Close)
	session.POST("/method", checkoutHandler.SelectMethod)
	session.POST("/back", checkoutHandler.Back)
	session.PUT("/form", checkoutHandler.UpdateForm)
	session.POST("/submit", checkoutHandler.Submit)
	session.POST("/retry", checkoutHandler.Retry)

	return engine
}

// newCORS allows the portal origins to call the API with the session cookie.
// "*" allows any origin without credentials.
func newCORS(origins []string) (gin.HandlerFunc, bool) {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Content-Encoding", "Authorization"},
		ExposeHeaders: []string{"Authorization"},
		MaxAge:        12 * time.Hour,
	}

	for _, origin := range config.NormalizeOrigins(origins) {
		if origin == config.AnyOrigin {
			cfg.AllowAllOrigins = true
			continue
		}
		cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
	}

	if cfg.AllowAllOrigins {
		cfg.AllowOrigins = nil
		return cors.New(cfg), true
	}
	if len(cfg.AllowOrigins) == 0 {
		return nil, false
	}
	cfg.AllowCredentials = true
	return cors.New(cfg), true
}
