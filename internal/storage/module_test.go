package storage

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"

	"github.com/polkiloo/checkout/internal/config"
	"github.com/polkiloo/checkout/internal/storage/memory"
)

func TestNewStoreDefaultsToMemory(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	store, err := newStore(storeParams{
		Lifecycle: fxtest.NewLifecycle(t),
		Ctx:       context.Background(),
		Config:    &config.Config{},
		Logger:    logger,
	})
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, store)
}

func TestNewStoreInvalidDSN(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	_, err := newStore(storeParams{
		Lifecycle: fxtest.NewLifecycle(t),
		Ctx:       context.Background(),
		Config:    &config.Config{DatabaseURI: ":://bad"},
		Logger:    logger,
	})
	assert.Error(t, err)
}
