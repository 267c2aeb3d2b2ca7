package domain

import "github.com/shopspring/decimal"

// BondRequest is handed to the submitter to sign and broadcast a bond purchase.
type BondRequest struct {
	Asset BondAssetID
	// Quantity is the decimal string of the validated amount, e.g. "10".
	Quantity  string
	Slippage  decimal.Decimal
	Recipient string
	ChainID   uint64
}

// ApprovalRequest asks the submitter to grant the bond contract an allowance.
type ApprovalRequest struct {
	Asset   BondAssetID
	ChainID uint64
}

// Receipt is what the submitter reports back for a broadcast transaction.
type Receipt struct {
	TxHash string
}
