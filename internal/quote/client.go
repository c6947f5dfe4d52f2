// Package quote defines the venue quote-provider contract. The core treats
// every venue identically through this interface; venue-specific request
// shaping lives in the HTTP client configuration.
package quote

import (
	"context"

	"github.com/ailover379/solana-flash-loan-bot/internal/solana"
)

// Quote is one executable price for swapping InAmount of InputMint into
// OutAmount of OutputMint on a single venue.
type Quote struct {
	Venue      string
	InputMint  string
	OutputMint string
	InAmount   uint64
	OutAmount  uint64
	// Price is output units per input unit.
	Price float64
	// Route is the venue's opaque route descriptor, echoed back on Swap.
	Route []byte
	// FetchedAt is the Unix timestamp in milliseconds the quote was taken.
	FetchedAt int64
}

// Client fetches prices and executable swap instructions from one venue.
type Client interface {
	// Name identifies the venue.
	Name() string

	// ProgramID is the on-chain program this venue's swaps execute through.
	ProgramID() string

	// Quote returns an executable price for swapping amount of inputMint
	// into outputMint.
	Quote(ctx context.Context, inputMint, outputMint string, amount uint64) (*Quote, error)

	// Swap converts a previously fetched quote into the venue instruction
	// to include in the execution unit.
	Swap(ctx context.Context, q *Quote) (*solana.Instruction, error)
}
