package notify

import (
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"
	"go.uber.org/fx"

	"github.com/polkiloo/checkout/internal/config"
)

// Module exposes the signal hub and the publisher used by checkout sessions.
var Module = fx.Provide(newHub, newPublisher)

type hubParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newHub(p hubParams) *Hub {
	return NewHub(p.Config.AllowedOrigins, p.Logger)
}

type publisherParams struct {
	fx.In

	Config *config.Config
	Hub    *Hub
	Logger *slog.Logger
}

// newPublisher returns the hub itself unless a Redis URL is configured. The
// relay result is nil without Redis.
func newPublisher(p publisherParams) (Publisher, *RedisRelay, error) {
	if p.Config.RedisURL == "" {
		return p.Hub, nil, nil
	}

	opts, err := redis.ParseURL(p.Config.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	relay := NewRedisRelay(redis.NewClient(opts), p.Config.RedisChannel, p.Hub, p.Logger)
	return relay, relay, nil
}
