package domain

// VenueQuote is one observed venue price for a pair, recorded by the
// scanner for later analysis.
type VenueQuote struct {
	Venue      string
	BaseMint   string
	QuoteMint  string
	Price      float64 // quote units per base unit
	Amount     uint64  // probe amount the price was quoted for
	ObservedAt int64   // Unix timestamp in milliseconds
}
