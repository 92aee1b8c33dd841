package main

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	cts "github.com/ethereum-optimism/infra/xr-cts"
	"github.com/ethereum-optimism/infra/xr-cts/flags"
	"github.com/ethereum-optimism/infra/xr-cts/rpcbridge"
	"github.com/ethereum-optimism/infra/xr-cts/swapchain"
	"github.com/ethereum-optimism/infra/xr-cts/xr"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
	oprpc "github.com/ethereum-optimism/optimism/op-service/rpc"
)

type referenceServer struct {
	log     log.Logger
	rpc     *oprpc.Server
	stopped atomic.Bool
}

var _ cliapp.Lifecycle = (*referenceServer)(nil)

func serveReference(ctx *cli.Context, _ context.CancelCauseFunc) (cliapp.Lifecycle, error) {
	log := setupLogger(ctx)

	formats, err := swapchain.Load(swapchain.GraphicsAPI(ctx.String(flags.GraphicsAPI.Name)))
	if err != nil {
		return nil, err
	}
	blendMode, err := xr.ParseEnvironmentBlendMode(ctx.String(flags.EnvironmentBlendMode.Name))
	if err != nil {
		return nil, err
	}
	rt := cts.NewReferenceRuntime(formats, blendMode, log)

	rpcCfg := oprpc.ReadCLIConfig(ctx)
	server := oprpc.NewServer(
		rpcCfg.ListenAddr,
		rpcCfg.ListenPort,
		Version,
		oprpc.WithAPIs(rpcbridge.APIs(rt, log)),
		oprpc.WithLogger(log),
	)
	return &referenceServer{log: log, rpc: server}, nil
}

func (s *referenceServer) Start(ctx context.Context) error {
	if err := s.rpc.Start(); err != nil {
		return fmt.Errorf("error starting RPC server: %w", err)
	}
	s.log.Info("Started reference runtime RPC server", "addr", s.rpc.Endpoint())
	return nil
}

func (s *referenceServer) Stop(ctx context.Context) error {
	if s.stopped.Swap(true) {
		return nil
	}
	if err := s.rpc.Stop(); err != nil {
		return fmt.Errorf("failed to stop RPC server: %w", err)
	}
	return nil
}

func (s *referenceServer) Stopped() bool {
	return s.stopped.Load()
}
