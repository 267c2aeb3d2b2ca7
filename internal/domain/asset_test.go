package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBondAssetID_Units(t *testing.T) {
	tests := []struct {
		asset    BondAssetID
		expected string
	}{
		{BondOHMDAILP, "LP"},
		{BondOHMFRAXLP, "LP"},
		{BondDAI, "DAI"},
		{BondETH, "wETH"},
		{BondFRAX, "FRAX"},
		{BondAssetID("lusd"), "FRAX"},
	}

	for _, tt := range tests {
		t.Run(tt.asset.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.asset.Units())
		})
	}
}

func TestNewPendingKey(t *testing.T) {
	assert.Equal(t, PendingKey("bond_dai"), NewPendingKey(ActionBond, BondDAI))
	assert.Equal(t, PendingKey("approve_ohm_dai_lp"), NewPendingKey(ActionApprove, BondOHMDAILP))
	assert.Equal(t, "Approve", ActionApprove.Label())
	assert.Equal(t, "Bond", ActionBond.Label())
}

func TestBondQuoteState_HasExistingBond(t *testing.T) {
	assert.False(t, BondQuoteState{}.HasExistingBond())
	assert.True(t, BondQuoteState{InterestDue: decimal.NewFromInt(5)}.HasExistingBond())
	assert.True(t, BondQuoteState{PendingPayout: decimal.RequireFromString("0.1")}.HasExistingBond())
}
