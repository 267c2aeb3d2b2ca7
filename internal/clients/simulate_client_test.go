package clients

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/bondi/internal/domain"
)

const (
	alice = "0x1111111111111111111111111111111111111111"
	bob   = "0x2222222222222222222222222222222222222222"
)

func TestSimulateClient_Head(t *testing.T) {
	c := NewSimulateClient(alice, 100, 1)
	ctx := context.Background()

	first, err := c.BlockNumber(ctx)
	require.NoError(t, err)
	second, err := c.BlockNumber(ctx)
	require.NoError(t, err)
	assert.Greater(t, second, first)

	id, err := c.ChainID(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)
}

func TestSimulateClient_CalcBondDetails(t *testing.T) {
	c := NewSimulateClient(alice, 100, 1, WithMarket(domain.BondDAI, SimMarket{
		BondPrice:    decimal.NewFromInt(400),
		Discount:     decimal.RequireFromString("0.05"),
		DebtRatio:    decimal.NewFromInt(12_340_000),
		VestingTerm:  1000,
		MaxBondPrice: decimal.NewFromInt(100),
	}))

	q, err := c.CalcBondDetails(context.Background(), domain.BondDAI, decimal.NewFromInt(800))
	require.NoError(t, err)
	assert.True(t, q.BondQuote.Equal(decimal.NewFromInt(2)))
	assert.True(t, q.BondDiscount.Equal(decimal.RequireFromString("0.05")))
	assert.Equal(t, uint64(1000), q.VestingBlock)

	_, err = c.CalcBondDetails(context.Background(), "unknown", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, domain.ErrUnknownAsset)
}

func TestSimulateClient_ApproveThenBond(t *testing.T) {
	c := NewSimulateClient(alice, 100, 1, WithFunding(decimal.NewFromInt(1000)))
	ctx := context.Background()

	req := domain.BondRequest{
		Asset:     domain.BondDAI,
		Quantity:  "480",
		Slippage:  decimal.RequireFromString("0.5"),
		Recipient: alice,
		ChainID:   1,
	}

	_, err := c.Bond(ctx, req)
	require.ErrorIs(t, err, ErrInsufficientAllowance)

	receipt, err := c.Approve(ctx, domain.ApprovalRequest{Asset: domain.BondDAI, ChainID: 1})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(receipt.TxHash, "0x"))

	pos, err := c.CalculateUserBondDetails(ctx, alice, domain.BondDAI)
	require.NoError(t, err)
	assert.True(t, pos.Allowance.IsPositive())
	assert.False(t, pos.InterestDue.IsPositive())

	receipt, err = c.Bond(ctx, req)
	require.NoError(t, err)
	assert.NotEmpty(t, receipt.TxHash)

	pos, err = c.CalculateUserBondDetails(ctx, alice, domain.BondDAI)
	require.NoError(t, err)
	assert.True(t, pos.Balance.Equal(decimal.NewFromInt(520)))
	assert.True(t, pos.InterestDue.Equal(decimal.NewFromInt(1)), pos.InterestDue.String())

	c.Mine(33_000)
	pos, err = c.CalculateUserBondDetails(ctx, alice, domain.BondDAI)
	require.NoError(t, err)
	assert.True(t, pos.PendingPayout.Equal(decimal.NewFromInt(1)))
	assert.True(t, pos.InterestDue.IsZero())
}

func TestSimulateClient_BondToRecipient(t *testing.T) {
	c := NewSimulateClient(alice, 100, 1)
	ctx := context.Background()

	_, err := c.Approve(ctx, domain.ApprovalRequest{Asset: domain.BondFRAX})
	require.NoError(t, err)

	_, err = c.Bond(ctx, domain.BondRequest{Asset: domain.BondFRAX, Quantity: "482", Recipient: bob})
	require.NoError(t, err)

	own, err := c.CalculateUserBondDetails(ctx, alice, domain.BondFRAX)
	require.NoError(t, err)
	assert.True(t, own.InterestDue.IsZero())

	theirs, err := c.CalculateUserBondDetails(ctx, bob, domain.BondFRAX)
	require.NoError(t, err)
	assert.True(t, theirs.InterestDue.Equal(decimal.NewFromInt(1)))
}

func TestSimulateClient_BondErrors(t *testing.T) {
	tests := []struct {
		name string
		req  domain.BondRequest
		want error
	}{
		{
			name: "balance",
			req:  domain.BondRequest{Asset: domain.BondDAI, Quantity: "5000", Recipient: alice},
			want: ErrInsufficientBalance,
		},
		{
			name: "max payout",
			req:  domain.BondRequest{Asset: domain.BondETH, Quantity: "900", Recipient: alice},
			want: ErrMaxPayoutExceeded,
		},
		{
			name: "unknown asset",
			req:  domain.BondRequest{Asset: "doge", Quantity: "1", Recipient: alice},
			want: domain.ErrUnknownAsset,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewSimulateClient(alice, 100, 1, WithFunding(decimal.NewFromInt(1000)))
			for _, asset := range []domain.BondAssetID{domain.BondDAI, domain.BondETH} {
				_, err := c.Approve(context.Background(), domain.ApprovalRequest{Asset: asset})
				require.NoError(t, err)
			}

			_, err := c.Bond(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSimulateClient_Disconnected(t *testing.T) {
	c := NewSimulateClient("", 100, 1)
	assert.False(t, c.Connected())

	_, err := c.Approve(context.Background(), domain.ApprovalRequest{Asset: domain.BondDAI})
	require.Error(t, err)

	c.SwitchAccount(bob)
	assert.True(t, c.Connected())
	assert.Equal(t, bob, c.Address())
}

func TestSimulateClient_ContextCanceled(t *testing.T) {
	c := NewSimulateClient(alice, 100, 1, WithLatency(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.BlockNumber(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
