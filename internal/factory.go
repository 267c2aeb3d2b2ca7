package internal

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/bondi/config"
	"github.com/vadiminshakov/bondi/internal/clients"
)

const simulateStartBlock = 14_000_000

// NewClient creates the backend client for conf.Platform.
func NewClient(ctx context.Context, conf config.Config) (any, error) {
	switch conf.Platform {
	case config.PlatformSimulate:
		return clients.NewSimulateClient(conf.Address, simulateStartBlock, conf.ChainID), nil
	case config.PlatformEVM:
		chain, err := clients.DialEVM(ctx, conf.RPCURL, conf.Address)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create evm client")
		}
		block, err := chain.BlockNumber(ctx)
		if err != nil {
			chain.Close()
			return nil, errors.Wrap(err, "failed to read chain head")
		}
		return &evmBackend{
			chain:  chain,
			market: clients.NewSimulateClient(conf.Address, block, conf.ChainID),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", conf.Platform)
	}
}

// CloseClient releases network resources held by client.
func CloseClient(client any) {
	if b, ok := client.(*evmBackend); ok {
		b.chain.Close()
	}
}
