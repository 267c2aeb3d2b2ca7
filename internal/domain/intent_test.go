package domain

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		expected    decimal.Decimal
		expectedErr error
	}{
		{name: "integer", raw: "10", expected: decimal.NewFromInt(10)},
		{name: "fraction", raw: " 0.5 ", expected: decimal.RequireFromString("0.5")},
		{name: "zero", raw: "0", expectedErr: ErrQuantityNotPositive},
		{name: "negative", raw: "-3", expectedErr: ErrQuantityNotPositive},
		{name: "nan", raw: "NaN", expectedErr: ErrQuantityInvalid},
		{name: "garbage", raw: "ten", expectedErr: ErrQuantityInvalid},
		{name: "empty", raw: "", expectedErr: ErrQuantityInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ParseQuantity(tt.raw)
			if tt.expectedErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.expectedErr))

				var vErr *ValidationError
				require.ErrorAs(t, err, &vErr)
				assert.Equal(t, "quantity", vErr.Field)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(q), "expected %s, got %s", tt.expected, q)
		})
	}
}

func TestUserIntent_Recipient(t *testing.T) {
	connected := "0x00000000000000000000000000000000000000aa"

	t.Run("falls back to connected address", func(t *testing.T) {
		addr, err := UserIntent{}.Recipient(connected)
		require.NoError(t, err)
		assert.Equal(t, common.HexToAddress(connected).Hex(), addr)
	})

	t.Run("override wins", func(t *testing.T) {
		intent := UserIntent{RecipientAddress: "0x00000000000000000000000000000000000000bb"}
		addr, err := intent.Recipient(connected)
		require.NoError(t, err)
		assert.Equal(t, common.HexToAddress(intent.RecipientAddress).Hex(), addr)
		assert.True(t, intent.RecipientDiffers(connected))
	})

	t.Run("invalid address", func(t *testing.T) {
		_, err := UserIntent{RecipientAddress: "not-an-address"}.Recipient(connected)
		assert.ErrorIs(t, err, ErrInvalidRecipient)
	})
}

func TestUserIntent_SetMax(t *testing.T) {
	intent := NewUserIntent("0x00000000000000000000000000000000000000aa", decimal.NewFromFloat(0.5))

	intent.SetMax(decimal.Zero)
	assert.Equal(t, "0", intent.Quantity)

	intent.SetMax(decimal.RequireFromString("12.5"))
	assert.Equal(t, "12.5", intent.Quantity)
	assert.True(t, decimal.RequireFromString("12.5").Equal(intent.QuantityOrZero()))
}

func TestUserIntent_QuantityOrZero(t *testing.T) {
	assert.True(t, UserIntent{Quantity: "NaN"}.QuantityOrZero().IsZero())
	assert.True(t, UserIntent{Quantity: "-1"}.QuantityOrZero().IsZero())
	assert.True(t, decimal.NewFromInt(7).Equal(UserIntent{Quantity: "7"}.QuantityOrZero()))
}
