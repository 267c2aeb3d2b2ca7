// Package clients provides chain and wallet backends for the bond workflow.
package clients

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
)

// EVMClient reads the chain head over JSON-RPC and watches a fixed account.
// It does not sign anything.
type EVMClient struct {
	rpc     *ethclient.Client
	address common.Address
}

// DialEVM connects to rpcURL. address may be empty for a disconnected wallet.
func DialEVM(ctx context.Context, rpcURL, address string) (*EVMClient, error) {
	var addr common.Address
	if address != "" {
		if !common.IsHexAddress(address) {
			return nil, errors.Errorf("invalid wallet address %q", address)
		}
		addr = common.HexToAddress(address)
	}

	rpc, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", rpcURL)
	}

	return &EVMClient{rpc: rpc, address: addr}, nil
}

// BlockNumber returns the latest block height.
func (c *EVMClient) BlockNumber(ctx context.Context) (uint64, error) {
	n, err := c.rpc.BlockNumber(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "eth_blockNumber")
	}
	return n, nil
}

// ChainID returns the chain id reported by the node.
func (c *EVMClient) ChainID(ctx context.Context) (uint64, error) {
	id, err := c.rpc.ChainID(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "eth_chainId")
	}
	return id.Uint64(), nil
}

// Address returns the watched account or "" when none is configured.
func (c *EVMClient) Address() string {
	if (c.address == common.Address{}) {
		return ""
	}
	return strings.ToLower(c.address.Hex())
}

// Connected reports whether the RPC client is usable.
func (c *EVMClient) Connected() bool {
	return c.rpc != nil
}

// Close releases the RPC connection.
func (c *EVMClient) Close() {
	if c.rpc != nil {
		c.rpc.Close()
	}
}
