package app

import (
	"context"
	"testing"

	"github.com/openmerch/gallery/config"
	"github.com/openmerch/gallery/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	cfg := new(config.AppConfig)
	*cfg = *config.DefaultAppConfig
	cfg.System.Workdir = t.TempDir()
	cfg.Storage.StaticDir = t.TempDir()
	return cfg
}

func TestApplicationInit(t *testing.T) {
	cfg := testConfig(t)
	a := NewApplication(cfg)
	require.NoError(t, a.Init(cfg))
	defer a.Release()

	require.Same(t, cfg, a.Config())
	require.NotNil(t, a.Service())
	require.NotNil(t, a.Scheduler())

	// Default config runs on the seeded in-memory store.
	products, err := a.Store().ListProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 3)
}

func TestApplicationInitWithoutSeed(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Seed = false
	a := NewApplication(cfg)
	require.NoError(t, a.Init(cfg))
	defer a.Release()

	products, err := a.Store().ListProducts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestOverrideStore(t *testing.T) {
	cfg := testConfig(t)
	a := NewApplication(cfg)
	require.NoError(t, a.Init(cfg))
	defer a.Release()

	mem := store.NewMemStore()
	a.OverrideStore(mem)
	require.Same(t, mem, a.Store())

	products, err := a.Store().ListProducts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, products)
}
