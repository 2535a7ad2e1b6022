package di

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"

	"github.com/polkiloo/checkout/internal/adapter/gateway"
	"github.com/polkiloo/checkout/internal/app"
	"github.com/polkiloo/checkout/internal/checkout"
	"github.com/polkiloo/checkout/internal/config"
	"github.com/polkiloo/checkout/internal/domain/model"
	"github.com/polkiloo/checkout/internal/storage"
	"github.com/polkiloo/checkout/internal/storage/memory"
	testhelpers "github.com/polkiloo/checkout/internal/test"
)

func TestModuleComposesGraphWithReplacements(t *testing.T) {
	cfg := &config.Config{
		RunAddress:      ":0",
		GatewayAddress:  "http://localhost",
		Mode:            config.ModePublic,
		PollInterval:    time.Millisecond,
		SessionSecret:   "secret",
		SessionTTL:      time.Minute,
		JanitorInterval: time.Minute,
		ShutdownTimeout: time.Millisecond,
		AllowedOrigins:  []string{"http://localhost:3000"},
	}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	gw := &testhelpers.GatewayStub{}

	var (
		facade   *app.CheckoutFacade
		registry *checkout.Registry
		store    storage.Store
	)
	fxApp := fx.New(
		fx.NopLogger,
		fx.Supply(context.Background()),
		Module(
			fx.Replace(cfg),
			fx.Replace(logger),
			fx.Replace(fx.Annotate(gw, fx.As(new(gateway.Client)))),
		),
		fx.Populate(&facade, &registry, &store),
	)

	require.NoError(t, fxApp.Err())
	t.Cleanup(func() { _ = fxApp.Stop(context.Background()) })
	require.NotNil(t, facade)
	require.NotNil(t, registry)
	mem, ok := store.(*memory.Store)
	require.True(t, ok, "expected memory store without database, got %T", store)

	snap, token, err := facade.OpenSession(context.Background(), "order_1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, model.ViewSelection, snap.View)

	id, err := facade.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, snap.SessionID, id)

	_, err = mem.Get(context.Background(), snap.SessionID)
	require.NoError(t, err, "session snapshot must be recorded")

	require.NoError(t, facade.CloseSession(snap.SessionID))
	assert.Equal(t, 0, mem.Len())
}
