package domain

import (
	"fmt"
	"strings"
)

// AssetPair identifies a tradable pair. Quote is the borrowed/settlement
// mint, Base is the asset bought on one venue and sold on another.
type AssetPair struct {
	Base  string // mint address (base58)
	Quote string // mint address (base58)
}

// String returns "base/quote" using full mint addresses.
func (p AssetPair) String() string {
	return p.Base + "/" + p.Quote
}

// ParseAssetPair parses a "base/quote" pair string.
func ParseAssetPair(s string) (AssetPair, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return AssetPair{}, fmt.Errorf("invalid asset pair %q: want base/quote", s)
	}
	return AssetPair{Base: parts[0], Quote: parts[1]}, nil
}

// Opportunity is a price divergence detected within one scan cycle.
// It is ephemeral: produced by the scanner and consumed (or dropped)
// within the same cycle.
type Opportunity struct {
	AssetID          string    // borrowed mint (same as Pair.Quote)
	Pair             AssetPair //
	Amount           uint64    // candidate principal in base units of AssetID
	ExpectedProfit   uint64    // gross expected profit in base units of AssetID
	BuyVenue         string
	SellVenue        string
	BuyPrice         float64 // quote units per base unit on the buy venue
	SellPrice        float64 // quote units per base unit on the sell venue
	ProfitabilityBps int64   // floor((sell-buy)/buy * 10000)
	GasEstimate      uint64  // estimated execution cost in base units
	DetectedAt       int64   // Unix timestamp in milliseconds
}
