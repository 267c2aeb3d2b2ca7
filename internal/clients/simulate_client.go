package clients

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/bondi/internal/domain"
)

var (
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrMaxPayoutExceeded     = errors.New("bond too large, exceeds max payout")
)

// SimMarket is the simulated bond terms of one asset.
type SimMarket struct {
	// BondPrice is the price of one payout token in asset units.
	BondPrice    decimal.Decimal
	Discount     decimal.Decimal
	DebtRatio    decimal.Decimal
	VestingTerm  uint64
	MaxBondPrice decimal.Decimal
}

type simPosition struct {
	balance   decimal.Decimal
	allowance decimal.Decimal
	payout    decimal.Decimal
	lastBlock uint64
}

// SimulateClient is an in-memory chain, bond contract and wallet.
type SimulateClient struct {
	mu        sync.Mutex
	block     uint64
	chainID   uint64
	address   string
	connected bool
	latency   time.Duration
	markets   map[domain.BondAssetID]SimMarket
	positions map[string]*simPosition
	funding   decimal.Decimal
}

// SimOption configures the SimulateClient.
type SimOption func(*SimulateClient)

// WithLatency delays every read and submission.
func WithLatency(d time.Duration) SimOption {
	return func(c *SimulateClient) {
		c.latency = d
	}
}

// WithMarket overrides the terms of asset.
func WithMarket(asset domain.BondAssetID, m SimMarket) SimOption {
	return func(c *SimulateClient) {
		c.markets[asset] = m
	}
}

// WithFunding sets the starting balance of every account in every asset.
func WithFunding(amount decimal.Decimal) SimOption {
	return func(c *SimulateClient) {
		c.funding = amount
	}
}

// NewSimulateClient creates a simulated chain at startBlock with a connected wallet.
func NewSimulateClient(address string, startBlock, chainID uint64, opts ...SimOption) *SimulateClient {
	c := &SimulateClient{
		block:     startBlock,
		chainID:   chainID,
		address:   strings.ToLower(address),
		connected: address != "",
		markets:   defaultMarkets(),
		positions: make(map[string]*simPosition),
		funding:   decimal.NewFromInt(1000),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func defaultMarkets() map[domain.BondAssetID]SimMarket {
	market := func(price, discount string, debtRatio int64, maxPrice string) SimMarket {
		return SimMarket{
			BondPrice:    decimal.RequireFromString(price),
			Discount:     decimal.RequireFromString(discount),
			DebtRatio:    decimal.NewFromInt(debtRatio),
			VestingTerm:  33_000,
			MaxBondPrice: decimal.RequireFromString(maxPrice),
		}
	}
	return map[domain.BondAssetID]SimMarket{
		domain.BondDAI:       market("480", "0.0456", 12_340_000, "250"),
		domain.BondFRAX:      market("482", "0.0421", 9_870_000, "180"),
		domain.BondETH:       market("0.17", "0.0612", 4_410_000, "90"),
		domain.BondOHMDAILP:  market("301", "0.0733", 31_200_000, "120"),
		domain.BondOHMFRAXLP: market("298", "0.0688", 27_650_000, "110"),
	}
}

// Mine advances the chain by n blocks.
func (c *SimulateClient) Mine(n uint64) {
	c.mu.Lock()
	c.block += n
	c.mu.Unlock()
}

// SwitchAccount changes the connected address; "" disconnects.
func (c *SimulateClient) SwitchAccount(address string) {
	c.mu.Lock()
	c.address = strings.ToLower(address)
	c.connected = address != ""
	c.mu.Unlock()
}

// Address returns the connected address.
func (c *SimulateClient) Address() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.address
}

// Connected reports whether a wallet is connected.
func (c *SimulateClient) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// BlockNumber returns the current block and mines one more.
func (c *SimulateClient) BlockNumber(ctx context.Context) (uint64, error) {
	if err := c.wait(ctx); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.block++
	return c.block, nil
}

// ChainID returns the simulated chain id.
func (c *SimulateClient) ChainID(ctx context.Context) (uint64, error) {
	if err := c.wait(ctx); err != nil {
		return 0, err
	}
	return c.chainID, nil
}

// CalcBondDetails quotes the payout for quantity.
func (c *SimulateClient) CalcBondDetails(ctx context.Context, asset domain.BondAssetID, quantity decimal.Decimal) (domain.QuoteUpdate, error) {
	if err := c.wait(ctx); err != nil {
		return domain.QuoteUpdate{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.markets[asset]
	if !ok {
		return domain.QuoteUpdate{}, domain.ErrUnknownAsset
	}

	return domain.QuoteUpdate{
		Quantity:     quantity,
		BondQuote:    quantity.Div(m.BondPrice),
		MaxBondPrice: m.MaxBondPrice,
		BondDiscount: m.Discount,
		DebtRatio:    m.DebtRatio,
		VestingBlock: m.VestingTerm,
	}, nil
}

// CalculateUserBondDetails returns the position of address in asset.
func (c *SimulateClient) CalculateUserBondDetails(ctx context.Context, address string, asset domain.BondAssetID) (domain.PositionUpdate, error) {
	if err := c.wait(ctx); err != nil {
		return domain.PositionUpdate{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.markets[asset]
	if !ok {
		return domain.PositionUpdate{}, domain.ErrUnknownAsset
	}

	p := c.position(address, asset)
	vested := c.vested(p, m)
	return domain.PositionUpdate{
		InterestDue:   p.payout.Sub(vested),
		PendingPayout: vested,
		Balance:       p.balance,
		Allowance:     p.allowance,
	}, nil
}

// Approve grants the bond contract an unlimited allowance for the connected account.
func (c *SimulateClient) Approve(ctx context.Context, req domain.ApprovalRequest) (domain.Receipt, error) {
	if err := c.wait(ctx); err != nil {
		return domain.Receipt{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return domain.Receipt{}, errors.New("wallet is not connected")
	}
	if _, ok := c.markets[req.Asset]; !ok {
		return domain.Receipt{}, domain.ErrUnknownAsset
	}

	p := c.position(c.address, req.Asset)
	p.allowance = decimal.New(1, 27)
	return newReceipt(), nil
}

// Bond spends the connected account's balance and credits the recipient.
// Bonding on top of an existing bond restarts its vesting.
func (c *SimulateClient) Bond(ctx context.Context, req domain.BondRequest) (domain.Receipt, error) {
	if err := c.wait(ctx); err != nil {
		return domain.Receipt{}, err
	}

	amount, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		return domain.Receipt{}, errors.Wrap(err, "parse bond quantity")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return domain.Receipt{}, errors.New("wallet is not connected")
	}
	m, ok := c.markets[req.Asset]
	if !ok {
		return domain.Receipt{}, domain.ErrUnknownAsset
	}

	payer := c.position(c.address, req.Asset)
	if payer.allowance.LessThan(amount) {
		return domain.Receipt{}, ErrInsufficientAllowance
	}
	if payer.balance.LessThan(amount) {
		return domain.Receipt{}, ErrInsufficientBalance
	}
	payout := amount.Div(m.BondPrice)
	if payout.GreaterThan(m.MaxBondPrice) {
		return domain.Receipt{}, ErrMaxPayoutExceeded
	}

	payer.balance = payer.balance.Sub(amount)
	payer.allowance = payer.allowance.Sub(amount)

	recipient := c.position(req.Recipient, req.Asset)
	// unclaimed vested payout is forfeited and vesting restarts
	recipient.payout = recipient.payout.Sub(c.vested(recipient, m)).Add(payout)
	recipient.lastBlock = c.block

	return newReceipt(), nil
}

func (c *SimulateClient) position(address string, asset domain.BondAssetID) *simPosition {
	key := strings.ToLower(address) + "/" + asset.String()
	p, ok := c.positions[key]
	if !ok {
		p = &simPosition{balance: c.funding, lastBlock: c.block}
		c.positions[key] = p
	}
	return p
}

// vested is the linearly vested part of the payout since the last bond.
func (c *SimulateClient) vested(p *simPosition, m SimMarket) decimal.Decimal {
	if p.payout.IsZero() || m.VestingTerm == 0 {
		return decimal.Zero
	}
	elapsed := c.block - p.lastBlock
	if elapsed >= m.VestingTerm {
		return p.payout
	}
	return p.payout.Mul(decimal.NewFromInt(int64(elapsed))).Div(decimal.NewFromInt(int64(m.VestingTerm)))
}

func (c *SimulateClient) wait(ctx context.Context) error {
	if c.latency <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.latency):
		return nil
	}
}

func newReceipt() domain.Receipt {
	return domain.Receipt{TxHash: crypto.Keccak256Hash([]byte(uuid.NewString())).Hex()}
}
