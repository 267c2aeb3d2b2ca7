// Package economics derives display values of a bond from raw chain state.
package economics

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DefaultBlockRateSeconds is the average block time of the bonding chain.
	DefaultBlockRateSeconds = 13.14

	// ResolutionDay collapses a duration to whole days.
	ResolutionDay = "day"

	displayPlaces = 2
	secondsPerDay = 24 * 60 * 60
)

var (
	debtRatioScale = decimal.NewFromInt(10_000_000)
	percentScale   = decimal.NewFromInt(100)
)

// Vesting is the time left until a bond fully vests.
type Vesting struct {
	Blocks   uint64
	Duration time.Duration
	Label    string
}

// Calculator is pure and safe for concurrent use.
type Calculator struct {
	blockRate decimal.Decimal
}

// NewCalculator creates a calculator for the given average seconds per block.
// A non-positive rate falls back to DefaultBlockRateSeconds.
func NewCalculator(blockRateSeconds float64) *Calculator {
	if blockRateSeconds <= 0 {
		blockRateSeconds = DefaultBlockRateSeconds
	}
	return &Calculator{blockRate: decimal.NewFromFloat(blockRateSeconds)}
}

// VestingPeriod converts a vesting term counted from currentBlock into a day-resolution duration.
func (c *Calculator) VestingPeriod(currentBlock, vestingTerm uint64) Vesting {
	vestingBlock := currentBlock + vestingTerm
	var remaining uint64
	if vestingBlock > currentBlock {
		remaining = vestingBlock - currentBlock
	}

	seconds := c.SecondsUntilBlock(currentBlock, currentBlock+remaining)
	return Vesting{
		Blocks:   remaining,
		Duration: time.Duration(seconds.Mul(decimal.NewFromInt(int64(time.Second))).IntPart()),
		Label:    PrettifySeconds(seconds.IntPart(), ResolutionDay),
	}
}

// SecondsUntilBlock returns the expected seconds between two blocks, never negative.
func (c *Calculator) SecondsUntilBlock(startBlock, endBlock uint64) decimal.Decimal {
	if endBlock <= startBlock {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(endBlock - startBlock)).Mul(c.blockRate)
}

// DebtRatioDisplay scales the raw debt ratio to a percentage with two places.
func DebtRatioDisplay(raw decimal.Decimal) decimal.Decimal {
	if raw.IsNegative() {
		return decimal.Zero
	}
	return raw.Div(debtRatioScale).Round(displayPlaces)
}

// DiscountDisplay turns a discount fraction into a percentage with two places.
// A negative fraction shows as zero.
func DiscountDisplay(fraction decimal.Decimal) decimal.Decimal {
	if fraction.IsNegative() {
		return decimal.Zero
	}
	return fraction.Mul(percentScale).Round(displayPlaces)
}

// PrettifySeconds renders seconds as "d days, h hrs, m mins". With ResolutionDay
// only whole days are rendered, "0 days" included.
func PrettifySeconds(seconds int64, resolution string) string {
	if seconds < 0 {
		seconds = 0
	}

	d := seconds / secondsPerDay
	h := (seconds % secondsPerDay) / 3600
	m := (seconds % 3600) / 60

	if resolution == ResolutionDay {
		return plural(d, "day", "days")
	}

	parts := make([]string, 0, 3)
	if d > 0 {
		parts = append(parts, plural(d, "day", "days"))
	}
	if h > 0 {
		parts = append(parts, plural(h, "hr", "hrs"))
	}
	if m > 0 {
		parts = append(parts, plural(m, "min", "mins"))
	}
	return strings.Join(parts, ", ")
}

func plural(n int64, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
