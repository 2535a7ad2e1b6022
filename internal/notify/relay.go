package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-redis/redis/v8"

	"github.com/polkiloo/checkout/internal/domain/model"
)

// RedisRelay publishes signals on a Redis channel and forwards the channel to
// the local hub, so subscribers of every instance are refreshed.
type RedisRelay struct {
	client  *redis.Client
	channel string
	hub     *Hub
	logger  *slog.Logger

	mu     sync.Mutex
	pubsub *redis.PubSub
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRedisRelay constructs a relay bound to channel.
func NewRedisRelay(client *redis.Client, channel string, hub *Hub, logger *slog.Logger) *RedisRelay {
	return &RedisRelay{client: client, channel: channel, hub: hub, logger: logger}
}

// Notify publishes signal. When Redis is unavailable the signal still reaches
// local subscribers.
func (r *RedisRelay) Notify(ctx context.Context, signal model.Signal) {
	if err := r.client.Publish(ctx, r.channel, string(signal)).Err(); err != nil {
		r.logger.Error("publish signal failed", slog.String("signal", string(signal)), slog.String("error", err.Error()))
		r.hub.Broadcast(signal)
	}
}

// Start subscribes to the channel and forwards messages until Stop.
func (r *RedisRelay) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pubsub != nil {
		return nil
	}

	pubsub := r.client.Subscribe(ctx, r.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	r.pubsub = pubsub
	r.cancel = cancel

	r.wg.Add(1)
	go r.forward(runCtx, pubsub.Channel())
	return nil
}

// Stop unsubscribes, waits for the forwarder to exit and closes the client.
func (r *RedisRelay) Stop() error {
	r.mu.Lock()
	pubsub := r.pubsub
	cancel := r.cancel
	r.pubsub = nil
	r.cancel = nil
	r.mu.Unlock()

	if pubsub != nil {
		cancel()
		_ = pubsub.Close()
		r.wg.Wait()
	}
	return r.client.Close()
}

func (r *RedisRelay) forward(ctx context.Context, messages <-chan *redis.Message) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			signal := model.Signal(msg.Payload)
			if !signal.Valid() {
				r.logger.Warn("ignoring unknown relayed signal", slog.String("payload", msg.Payload))
				continue
			}
			r.hub.Broadcast(signal)
		}
	}
}
