package domain

import "github.com/shopspring/decimal"

// BondQuoteState is the per-asset bond state kept by the state store.
// Missing values are zero, never absent.
type BondQuoteState struct {
	Asset        BondAssetID     `json:"asset"`
	Quantity     decimal.Decimal `json:"quantity"`
	BondQuote    decimal.Decimal `json:"bond_quote"`
	MaxBondPrice decimal.Decimal `json:"max_bond_price"`
	BondDiscount decimal.Decimal `json:"bond_discount"`
	// DebtRatio is the raw contract value, display is DebtRatio / 10_000_000.
	DebtRatio decimal.Decimal `json:"debt_ratio"`
	// VestingBlock is the vesting term in blocks.
	VestingBlock  uint64          `json:"vesting_block"`
	InterestDue   decimal.Decimal `json:"interest_due"`
	PendingPayout decimal.Decimal `json:"pending_payout"`
	Balance       decimal.Decimal `json:"balance"`
	Allowance     decimal.Decimal `json:"allowance"`
}

// HasExistingBond reports whether bonding again would reset vesting or forfeit rewards.
func (s BondQuoteState) HasExistingBond() bool {
	return s.InterestDue.IsPositive() || s.PendingPayout.IsPositive()
}

// QuoteUpdate carries asset-level values computed for a quantity.
type QuoteUpdate struct {
	Quantity     decimal.Decimal
	BondQuote    decimal.Decimal
	MaxBondPrice decimal.Decimal
	BondDiscount decimal.Decimal
	DebtRatio    decimal.Decimal
	VestingBlock uint64
}

// PositionUpdate carries user-level values for an address.
type PositionUpdate struct {
	InterestDue   decimal.Decimal
	PendingPayout decimal.Decimal
	Balance       decimal.Decimal
	Allowance     decimal.Decimal
}

// ApplyQuote merges an asset-level update into the state.
func (s *BondQuoteState) ApplyQuote(u QuoteUpdate) {
	s.Quantity = u.Quantity
	s.BondQuote = u.BondQuote
	s.MaxBondPrice = u.MaxBondPrice
	s.BondDiscount = u.BondDiscount
	s.DebtRatio = u.DebtRatio
	s.VestingBlock = u.VestingBlock
}

// ApplyPosition merges a user-level update into the state.
func (s *BondQuoteState) ApplyPosition(u PositionUpdate) {
	s.InterestDue = u.InterestDue
	s.PendingPayout = u.PendingPayout
	s.Balance = u.Balance
	s.Allowance = u.Allowance
}
