package gates

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cts "github.com/ethereum-optimism/infra/xr-cts"
	"github.com/ethereum-optimism/infra/xr-cts/swapchain"
	"github.com/ethereum-optimism/infra/xr-cts/xr"
)

func TestConformanceAgainstReferenceRuntime(t *testing.T) {
	table, err := swapchain.Load(swapchain.GraphicsAPIOpenGL)
	require.NoError(t, err)
	rt := cts.NewReferenceRuntime(table, xr.EnvironmentBlendModeOpaque, log.New())
	cfg := cts.NewRuntimeConfig(rt, cts.ReferenceRuntimeName, table, log.New())
	cfg.Session.Verifier.StateTimeout = 2 * time.Second
	cfg.Session.Verifier.NegativeWindow = 50 * time.Millisecond

	result, err := Conformance.Run(context.Background(), log.New(), "run1", cfg, nil)

	require.NoError(t, err)
	assert.Equal(t, cts.ResultPassed, result.Result, "%v", result.Error)
	require.Len(t, result.SubResults, 3)
	for _, suite := range result.SubResults {
		assert.Equal(t, cts.TypeSuite, suite.Type)
		assert.NotEmpty(t, suite.SubResults, suite.ID)
	}
}

func TestConformanceSkipsWithoutGraphicsPlugin(t *testing.T) {
	table, err := swapchain.Load(swapchain.GraphicsAPIVulkan)
	require.NoError(t, err)
	cfg := cts.NewRuntimeConfig(cts.NewReferenceRuntime(table, xr.EnvironmentBlendModeOpaque, log.New()), "sim", table, log.New())
	cfg.Session.Verifier.NegativeWindow = 50 * time.Millisecond
	cfg.GraphicsPlugin = false

	result, err := Conformance.Run(context.Background(), log.New(), "run1", cfg, nil)

	require.NoError(t, err)
	assert.Equal(t, cts.ResultSkipped, result.Result)
	assert.NoError(t, result.Error)
}
