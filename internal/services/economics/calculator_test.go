package economics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCalculator_VestingPeriod(t *testing.T) {
	c := NewCalculator(DefaultBlockRateSeconds)

	t.Run("zero term yields zero duration", func(t *testing.T) {
		v := c.VestingPeriod(1000, 0)
		assert.Equal(t, uint64(0), v.Blocks)
		assert.Equal(t, time.Duration(0), v.Duration)
		assert.Equal(t, "0 days", v.Label)
	})

	t.Run("five days of blocks", func(t *testing.T) {
		// 33_000 blocks * 13.14s = 433_620s ~ 5.02 days
		v := c.VestingPeriod(13_000_000, 33_000)
		assert.Equal(t, uint64(33_000), v.Blocks)
		assert.Equal(t, 433_620*time.Second, v.Duration)
		assert.Equal(t, "5 days", v.Label)
	})

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, c.VestingPeriod(42, 6_575), c.VestingPeriod(42, 6_575))
	})

	t.Run("one day", func(t *testing.T) {
		v := NewCalculator(1).VestingPeriod(0, secondsPerDay)
		assert.Equal(t, "1 day", v.Label)
	})
}

func TestNewCalculator_FallsBackToDefaultRate(t *testing.T) {
	assert.True(t, decimal.NewFromFloat(DefaultBlockRateSeconds).Equal(NewCalculator(0).blockRate))
	assert.True(t, decimal.NewFromFloat(DefaultBlockRateSeconds).Equal(NewCalculator(-2).blockRate))
}

func TestSecondsUntilBlock_ClampsBackwards(t *testing.T) {
	c := NewCalculator(2)
	assert.True(t, c.SecondsUntilBlock(10, 5).IsZero())
	assert.True(t, decimal.NewFromInt(10).Equal(c.SecondsUntilBlock(5, 10)))
}

func TestDebtRatioDisplay(t *testing.T) {
	tests := []struct {
		name     string
		raw      decimal.Decimal
		expected string
	}{
		{name: "typical ratio", raw: decimal.NewFromInt(12_340_000), expected: "1.23"},
		{name: "rounds half up", raw: decimal.NewFromInt(12_350_000), expected: "1.24"},
		{name: "zero", raw: decimal.Zero, expected: "0"},
		{name: "negative clamps", raw: decimal.NewFromInt(-5), expected: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DebtRatioDisplay(tt.raw).String())
		})
	}
}

func TestDiscountDisplay(t *testing.T) {
	assert.Equal(t, "4.56", DiscountDisplay(decimal.RequireFromString("0.0456")).String())
	assert.Equal(t, "12.35", DiscountDisplay(decimal.RequireFromString("0.123456")).String())
	assert.Equal(t, "0", DiscountDisplay(decimal.RequireFromString("-0.015")).String())
	assert.Equal(t, "0", DiscountDisplay(decimal.Zero).String())
}

func TestPrettifySeconds(t *testing.T) {
	assert.Equal(t, "0 days", PrettifySeconds(0, ResolutionDay))
	assert.Equal(t, "2 days", PrettifySeconds(2*secondsPerDay+7200, ResolutionDay))
	assert.Equal(t, "1 day, 2 hrs, 1 min", PrettifySeconds(secondsPerDay+2*3600+60, ""))
	assert.Equal(t, "3 hrs", PrettifySeconds(3*3600, ""))
	assert.Equal(t, "", PrettifySeconds(-10, ""))
}
