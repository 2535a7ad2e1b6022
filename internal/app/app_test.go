package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"

	"github.com/polkiloo/checkout/internal/checkout"
	"github.com/polkiloo/checkout/internal/config"
	"github.com/polkiloo/checkout/internal/domain/model"
	"github.com/polkiloo/checkout/internal/notify"
	testhelpers "github.com/polkiloo/checkout/internal/test"
	"github.com/polkiloo/checkout/internal/worker"
)

type lifecycleFixture struct {
	recorder   *testhelpers.LifecycleRecorder
	shutdowner *testhelpers.ShutdownerStub
	store      *testhelpers.RecorderStub
	registry   *checkout.Registry
	params     lifecycleParams
}

func newLifecycleFixture(t *testing.T, addr string) *lifecycleFixture {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	store := &testhelpers.RecorderStub{}
	registry := checkout.NewRegistry(
		checkout.Dependencies{
			Gateway: &testhelpers.GatewayStub{Statuses: []testhelpers.StatusReply{testhelpers.Pending("pay_1")}},
			Logger:  logger,
		},
		checkout.Options{Poll: checkout.PollPolicy{Interval: 5 * time.Millisecond}},
		time.Minute,
		store,
	)
	f := &lifecycleFixture{
		recorder:   &testhelpers.LifecycleRecorder{},
		shutdowner: &testhelpers.ShutdownerStub{Called: make(chan struct{}, 1)},
		store:      store,
		registry:   registry,
	}
	f.params = lifecycleParams{
		Lifecycle:  f.recorder,
		Shutdowner: f.shutdowner,
		Logger:     logger,
		Server:     &http.Server{Addr: addr, Handler: http.NewServeMux()},
		Registry:   registry,
		Janitor:    worker.NewSessionJanitor(registry, 10*time.Millisecond, logger),
		Hub:        notify.NewHub([]string{"http://localhost:3000"}, logger),
		Config:     &config.Config{ShutdownTimeout: 100 * time.Millisecond, Mode: config.ModePublic},
	}
	return f
}

func TestNewHTTPServer(t *testing.T) {
	cfg := &config.Config{RunAddress: ":9999"}
	router := gin.New()
	server := newHTTPServer(serverParams{Config: cfg, Router: router})
	assert.Equal(t, ":9999", server.Addr)
	assert.Same(t, router, server.Handler)
}

func TestRegisterLifecycleStartStop(t *testing.T) {
	f := newLifecycleFixture(t, "127.0.0.1:0")
	registerLifecycle(f.params)

	require.Len(t, f.recorder.Hooks, 1)

	hook := f.recorder.Hooks[0]
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, hook.OnStart(ctx))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = hook.OnStop(context.Background())
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		require.FailNow(t, "on stop did not finish")
	}
}

func TestRegisterLifecycleResumesInFlightSessions(t *testing.T) {
	f := newLifecycleFixture(t, "127.0.0.1:0")
	_ = f.store.Record(context.Background(), model.Snapshot{
		SessionID: "restored",
		View:      model.ViewProcessing,
		OrderID:   "order_1",
		Method:    model.PaymentMethodUPI,
		PaymentID: "pay_1",
	})
	registerLifecycle(f.params)
	hook := f.recorder.Hooks[0]

	require.NoError(t, hook.OnStart(context.Background()))
	assert.Equal(t, 1, f.registry.Len())
	_, err := f.registry.Get("restored")
	assert.NoError(t, err)

	require.NoError(t, hook.OnStop(context.Background()))
	assert.Zero(t, f.registry.Len(), "registry emptied on stop")
}

func TestRegisterLifecycleWithRelay(t *testing.T) {
	server := miniredis.RunT(t)
	f := newLifecycleFixture(t, "127.0.0.1:0")
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	f.params.Relay = notify.NewRedisRelay(client, "checkout:signals", f.params.Hub, f.params.Logger)
	registerLifecycle(f.params)
	hook := f.recorder.Hooks[0]

	require.NoError(t, hook.OnStart(context.Background()))
	assert.NoError(t, hook.OnStop(context.Background()))
}

func TestRegisterLifecycleRelayStartFailure(t *testing.T) {
	server := miniredis.RunT(t)
	addr := server.Addr()
	server.Close()

	f := newLifecycleFixture(t, "127.0.0.1:0")
	client := redis.NewClient(&redis.Options{Addr: addr, MaxRetries: -1})
	f.params.Relay = notify.NewRedisRelay(client, "checkout:signals", f.params.Hub, f.params.Logger)
	registerLifecycle(f.params)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.Error(t, f.recorder.Hooks[0].OnStart(ctx), "relay start")
	_ = client.Close()
	f.registry.Shutdown()
}

func TestRegisterLifecycleShutdownOnServerError(t *testing.T) {
	f := newLifecycleFixture(t, "bad addr")
	f.params.Config = &config.Config{ShutdownTimeout: time.Second}
	registerLifecycle(f.params)

	hook := f.recorder.Hooks[0]
	require.NoError(t, hook.OnStart(context.Background()))

	select {
	case <-f.shutdowner.Called:
	case <-time.After(time.Second):
		require.FailNow(t, "shutdown not triggered on server error")
	}

	_ = hook.OnStop(context.Background())
}

func TestLifecycleRecorderAppend(t *testing.T) {
	recorder := &testhelpers.LifecycleRecorder{}
	hook := fx.Hook{}
	recorder.Append(hook)
	assert.Len(t, recorder.Hooks, 1)
}

func TestShutdownerStub(t *testing.T) {
	shutdowner := &testhelpers.ShutdownerStub{Called: make(chan struct{}, 1)}
	require.NoError(t, shutdowner.Shutdown())
	select {
	case <-shutdowner.Called:
	default:
		assert.Fail(t, "no shutdown notification")
	}
}
