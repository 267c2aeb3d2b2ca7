package bonding

import (
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/bondi/internal/domain"
)

// HasAllowance reports whether the protocol may already spend the asset.
// Callers normalise unparsable values to zero beforehand.
func HasAllowance(allowance decimal.Decimal) bool {
	return allowance.IsPositive()
}

// NextAction is the action the purchase button performs for the state:
// approve until an allowance exists, bond afterwards.
func NextAction(state domain.BondQuoteState) domain.Action {
	if HasAllowance(state.Allowance) {
		return domain.ActionBond
	}
	return domain.ActionApprove
}
