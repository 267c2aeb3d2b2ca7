// Package domain defines core data structures used throughout the bond workflow.
package domain

import "strings"

// BondAssetID identifies one bondable asset.
type BondAssetID string

// Known bond assets.
const (
	BondDAI       BondAssetID = "dai"
	BondETH       BondAssetID = "eth"
	BondFRAX      BondAssetID = "frax"
	BondOHMDAILP  BondAssetID = "ohm_dai_lp"
	BondOHMFRAXLP BondAssetID = "ohm_frax_lp"
)

// String returns the string representation.
func (a BondAssetID) String() string {
	return string(a)
}

// IsLP reports whether the asset is a liquidity-pool token.
func (a BondAssetID) IsLP() bool {
	return strings.Contains(string(a), "_lp")
}

// Units returns the display unit of the asset balance.
func (a BondAssetID) Units() string {
	switch {
	case a.IsLP():
		return "LP"
	case a == BondDAI:
		return "DAI"
	case a == BondETH:
		return "wETH"
	default:
		return "FRAX"
	}
}
