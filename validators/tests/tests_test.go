package tests

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cts "github.com/ethereum-optimism/infra/xr-cts"
	"github.com/ethereum-optimism/infra/xr-cts/simruntime"
	"github.com/ethereum-optimism/infra/xr-cts/swapchain"
	"github.com/ethereum-optimism/infra/xr-cts/verifier"
	"github.com/ethereum-optimism/infra/xr-cts/xr"
)

func vulkanTable(t *testing.T) *swapchain.Table {
	t.Helper()
	table, err := swapchain.Load(swapchain.GraphicsAPIVulkan)
	require.NoError(t, err)
	return table
}

func formatIDs(table *swapchain.Table) []int64 {
	var ids []int64
	for _, f := range table.Formats() {
		ids = append(ids, f.ID)
	}
	return ids
}

func testConfig(t *testing.T, opts simruntime.Options) cts.Config {
	t.Helper()
	table := vulkanTable(t)
	if opts.SwapchainFormats == nil {
		opts.SwapchainFormats = formatIDs(table)
	}
	cfg := cts.NewRuntimeConfig(simruntime.New(opts), "sim", table, log.New())
	cfg.Session.Verifier = verifier.Options{
		StateTimeout:   2 * time.Second,
		NegativeWindow: 50 * time.Millisecond,
		PollInterval:   time.Millisecond,
	}
	return cfg
}

func run(t *testing.T, test cts.Test, cfg cts.Config) (cts.ValidatorResult, error) {
	t.Helper()
	return test.Run(context.Background(), log.New(), "run1", cfg, nil)
}

func TestPassAgainstReferenceRuntime(t *testing.T) {
	for _, test := range All {
		t.Run(test.ID, func(t *testing.T) {
			result, err := run(t, test, testConfig(t, simruntime.Options{}))
			require.NoError(t, err)
			assert.Equal(t, cts.ResultPassed, result.Result)
		})
	}
}

func TestPassWithNoiseEvents(t *testing.T) {
	cfg := testConfig(t, simruntime.Options{Faults: simruntime.Faults{NoiseEvents: true}})
	result, err := run(t, CycleThroughAllStates, cfg)
	require.NoError(t, err)
	assert.Equal(t, cts.ResultPassed, result.Result)
}

func TestFailAgainstFaultyRuntime(t *testing.T) {
	tests := []struct {
		name   string
		test   cts.Test
		faults simruntime.Faults
	}{
		{"skipped VISIBLE", CycleThroughAllStates, simruntime.Faults{SkipVisible: true}},
		{"skipped VISIBLE on exit", CycleThroughAllStates, simruntime.Faults{SkipVisibleOnExit: true}},
		{"premature IDLE", CycleThroughAllStates, simruntime.Faults{PrematureIdle: true}},
		{"end outside STOPPING", CycleThroughAllStates, simruntime.Faults{AllowEndOutsideStopping: true}},
		{"never focused", FocusedPredictedDisplayTime, simruntime.Faults{NeverFocus: true}},
		{"advance without frames", AdvanceWithoutFrameSubmission, simruntime.Faults{AdvanceWithoutFrames: true}},
		{"second begin accepted", OutOfTurnCalls, simruntime.Faults{AllowSecondBegin: true}},
		{"frames before begin accepted", OutOfTurnCalls, simruntime.Faults{AllowFramesWhileNotRunning: true}},
		{"wrong view count", LocateViews, simruntime.Faults{WrongViewCount: true}},
		{"zero display time accepted", LocateViews, simruntime.Faults{AcceptInvalidViewTime: true}},
		{"wrong view count across types", LocateViewsAllViewTypes, simruntime.Faults{WrongViewCount: true}},
		{"unsupported view types located", LocateViewsAllViewTypes, simruntime.Faults{LocateUnsupportedViews: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t, simruntime.Options{Faults: tt.faults})
			if tt.faults.NeverFocus {
				cfg.Session.Verifier.StateTimeout = 200 * time.Millisecond
			}
			result, err := run(t, tt.test, cfg)
			require.Error(t, err)
			assert.Equal(t, cts.ResultFailed, result.Result)
		})
	}
}

func TestFocusedPredictedDisplayTimeToleratesShouldRenderFalse(t *testing.T) {
	cfg := testConfig(t, simruntime.Options{Faults: simruntime.Faults{NeverShouldRender: true}})

	result, err := run(t, FocusedPredictedDisplayTime, cfg)

	require.NoError(t, err)
	assert.Equal(t, cts.ResultPassed, result.Result)
}

func TestLocateViews(t *testing.T) {
	t.Run("mono session", func(t *testing.T) {
		cfg := testConfig(t, simruntime.Options{})
		cfg.Session.Verifier.ViewConfiguration = xr.ViewConfigurationTypePrimaryMono
		result, err := run(t, LocateViews, cfg)
		require.NoError(t, err)
		assert.Equal(t, cts.ResultPassed, result.Result)
	})

	t.Run("session view configuration not enumerated", func(t *testing.T) {
		cfg := testConfig(t, simruntime.Options{
			ViewConfigurations: []xr.ViewConfigurationType{xr.ViewConfigurationTypePrimaryMono},
		})
		_, err := run(t, LocateViews, cfg)
		assert.Error(t, err)
	})

	t.Run("extension view type supported", func(t *testing.T) {
		cfg := testConfig(t, simruntime.Options{
			ViewConfigurations: []xr.ViewConfigurationType{
				xr.ViewConfigurationTypePrimaryStereo,
				xr.ViewConfigurationTypePrimaryQuadVarjo,
			},
		})
		result, err := run(t, LocateViewsAllViewTypes, cfg)
		require.NoError(t, err)
		assert.Equal(t, cts.ResultPassed, result.Result)
	})
}

func TestAdvanceWithoutFrameSubmissionSkipsWithoutGraphics(t *testing.T) {
	cfg := testConfig(t, simruntime.Options{})
	cfg.GraphicsPlugin = false

	result, err := run(t, AdvanceWithoutFrameSubmission, cfg)

	assert.ErrorIs(t, err, cts.ErrSkip)
	assert.Equal(t, cts.ResultSkipped, result.Result)
}

func TestSwapchainFormatClassification(t *testing.T) {
	t.Run("no formats enumerated", func(t *testing.T) {
		cfg := testConfig(t, simruntime.Options{SwapchainFormats: []int64{}})
		_, err := run(t, SwapchainFormatClassification, cfg)
		assert.ErrorContains(t, err, "no swapchain formats")
	})

	t.Run("only unknown formats", func(t *testing.T) {
		cfg := testConfig(t, simruntime.Options{SwapchainFormats: []int64{999999}})
		_, err := run(t, SwapchainFormatClassification, cfg)
		assert.ErrorContains(t, err, "none of the 1 enumerated formats")
	})

	t.Run("unknown formats are tolerated", func(t *testing.T) {
		table := vulkanTable(t)
		cfg := testConfig(t, simruntime.Options{SwapchainFormats: append(formatIDs(table), 999999)})
		result, err := run(t, SwapchainFormatClassification, cfg)
		require.NoError(t, err)
		assert.Equal(t, cts.ResultPassed, result.Result)
	})

	t.Run("no table", func(t *testing.T) {
		cfg := testConfig(t, simruntime.Options{})
		cfg.Formats = nil
		result, err := run(t, SwapchainFormatClassification, cfg)
		assert.ErrorIs(t, err, cts.ErrSkip)
		assert.Equal(t, cts.ResultSkipped, result.Result)
	})
}

func TestCatalog(t *testing.T) {
	catalog := Catalog()
	assert.Len(t, catalog, len(All))
	for id, test := range catalog {
		assert.Equal(t, id, test.ID)
		assert.NotNil(t, test.Fn)
		assert.NotEmpty(t, test.Description)
	}
}
