package router_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/staterouter/pkg/config"
	"github.com/dmitrymomot/staterouter/pkg/params"
	"github.com/dmitrymomot/staterouter/pkg/router"
	"github.com/dmitrymomot/staterouter/pkg/state"
)

func TestConfig_FromEnvironment(t *testing.T) {
	t.Setenv("ROUTER_ID", "checkout")
	t.Setenv("ROUTER_STRICT_PARAMS", "true")
	t.Setenv("ROUTER_MAX_REDIRECTS", "2")
	t.Setenv("ROUTER_CHAIN_CACHE_SIZE", "8")

	var cfg router.Config
	require.NoError(t, config.ForceReloadConfig(&cfg))
	assert.Equal(t, "checkout", cfg.ID)
	assert.True(t, cfg.StrictParams)
	assert.Equal(t, 2, cfg.MaxRedirects)
	assert.Equal(t, 16, cfg.CommitBufferSize)
	assert.Equal(t, 8, cfg.ChainCacheSize)

	reg := state.NewRegistry(cfg.RegistryOptions()...)
	state.Define("cart").Param("id").MustRegister(reg)

	r, err := router.New(reg, router.WithConfig(cfg), router.WithDefaultErrorHandler(func(error) {}))
	require.NoError(t, err)
	assert.Equal(t, "checkout", r.ID())

	_, err = r.TransitionTo(context.Background(), state.Name("cart"), params.Params{"id": 1, "coupon": "x"}).Await()
	assert.True(t, params.IsUnknownParamError(err))
	assert.Nil(t, r.Current())
}
