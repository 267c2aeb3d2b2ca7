package internal

import (
	"fmt"

	"github.com/vadiminshakov/bondi/internal/clients"
	"github.com/vadiminshakov/bondi/internal/services/bonding"
	"github.com/vadiminshakov/bondi/internal/services/chainwatch"
	"github.com/vadiminshakov/bondi/internal/services/recompute"
)

// Wallet is the connected account as seen by the purchase flow.
type Wallet interface {
	Address() string
	Connected() bool
}

// ServiceProvider hands out the chain ports for one backend.
type ServiceProvider interface {
	ChainReader() chainwatch.ChainReader
	Loader() recompute.Loader
	Submitter() bonding.Submitter
	Wallet() Wallet
}

// NewServiceProvider dispatches on the client type returned by NewClient.
func NewServiceProvider(client any) (ServiceProvider, error) {
	switch c := client.(type) {
	case *clients.SimulateClient:
		return &simulateProvider{client: c}, nil
	case *evmBackend:
		return &evmProvider{backend: c}, nil
	default:
		return nil, fmt.Errorf("unsupported client type: %T", client)
	}
}

type simulateProvider struct {
	client *clients.SimulateClient
}

func (p *simulateProvider) ChainReader() chainwatch.ChainReader { return p.client }
func (p *simulateProvider) Loader() recompute.Loader            { return p.client }
func (p *simulateProvider) Submitter() bonding.Submitter        { return p.client }
func (p *simulateProvider) Wallet() Wallet                      { return p.client }

// evmBackend reads the head of a real chain. Bond math and submissions run
// against the in-memory market since the contracts are not bound here.
type evmBackend struct {
	chain  *clients.EVMClient
	market *clients.SimulateClient
}

type evmProvider struct {
	backend *evmBackend
}

func (p *evmProvider) ChainReader() chainwatch.ChainReader { return p.backend.chain }
func (p *evmProvider) Loader() recompute.Loader            { return p.backend.market }
func (p *evmProvider) Submitter() bonding.Submitter        { return p.backend.market }
func (p *evmProvider) Wallet() Wallet                      { return p.backend.chain }
