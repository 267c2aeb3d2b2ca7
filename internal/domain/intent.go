package domain

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// UserIntent is what the user typed into the purchase form.
type UserIntent struct {
	// RecipientAddress defaults to the connected address, may be overridden.
	RecipientAddress string
	// Quantity is the raw amount as entered, it may not be a number.
	Quantity string
	Slippage decimal.Decimal
}

// NewUserIntent returns the default intent for a connected address.
func NewUserIntent(address string, slippage decimal.Decimal) UserIntent {
	return UserIntent{
		RecipientAddress: address,
		Quantity:         "0",
		Slippage:         slippage,
	}
}

// ParseQuantity validates the raw quantity and returns it as a positive decimal.
func ParseQuantity(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, NewValidationError("quantity", ErrQuantityInvalid)
	}

	q, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, NewValidationError("quantity", ErrQuantityInvalid)
	}
	if !q.IsPositive() {
		return decimal.Zero, NewValidationError("quantity", ErrQuantityNotPositive)
	}

	return q, nil
}

// QuantityOrZero is the quantity used for quoting: invalid input quotes as zero.
func (i UserIntent) QuantityOrZero() decimal.Decimal {
	q, err := decimal.NewFromString(strings.TrimSpace(i.Quantity))
	if err != nil || q.IsNegative() {
		return decimal.Zero
	}
	return q
}

// Recipient resolves the payout address, falling back to the connected one.
func (i UserIntent) Recipient(connected string) (string, error) {
	addr := strings.TrimSpace(i.RecipientAddress)
	if addr == "" {
		addr = connected
	}
	if !common.IsHexAddress(addr) {
		return "", NewValidationError("recipient", ErrInvalidRecipient)
	}
	return common.HexToAddress(addr).Hex(), nil
}

// RecipientDiffers reports whether the payout goes to a foreign address.
func (i UserIntent) RecipientDiffers(connected string) bool {
	if i.RecipientAddress == "" {
		return false
	}
	return !strings.EqualFold(i.RecipientAddress, connected)
}

// SetMax fills the quantity with the whole balance. A zero balance is ignored.
func (i *UserIntent) SetMax(balance decimal.Decimal) {
	if !balance.IsPositive() {
		return
	}
	i.Quantity = balance.String()
}
