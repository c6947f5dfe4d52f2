// Package stub provides a deterministic in-memory venue for tests and
// dry-run mode.
package stub

import (
	"context"
	"fmt"
	"sync"

	"github.com/ailover379/solana-flash-loan-bot/internal/quote"
	"github.com/ailover379/solana-flash-loan-bot/internal/solana"
)

type pairKey struct {
	input  string
	output string
}

// Client is a stub quote.Client backed by a fixed price table.
type Client struct {
	name      string
	programID string

	mu     sync.Mutex
	prices map[pairKey]float64 // output units per input unit
	err    error               // returned by Quote when set
	calls  int
}

// NewClient creates a stub venue.
func NewClient(name, programID string) *Client {
	return &Client{
		name:      name,
		programID: programID,
		prices:    make(map[pairKey]float64),
	}
}

// Compile-time interface check.
var _ quote.Client = (*Client)(nil)

// SetPrice sets the price (output units per input unit) for a direction.
func (c *Client) SetPrice(inputMint, outputMint string, price float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prices[pairKey{input: inputMint, output: outputMint}] = price
}

// SetError makes subsequent Quote calls fail with err (nil clears it).
func (c *Client) SetError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

// Calls returns the number of Quote calls served, including failures.
func (c *Client) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Name identifies the venue.
func (c *Client) Name() string { return c.name }

// ProgramID is the stub venue's program identity.
func (c *Client) ProgramID() string { return c.programID }

// Quote returns a quote from the fixed price table.
func (c *Client) Quote(_ context.Context, inputMint, outputMint string, amount uint64) (*quote.Quote, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	price, ok := c.prices[pairKey{input: inputMint, output: outputMint}]
	if !ok {
		return nil, fmt.Errorf("stub venue %s: no price for %s -> %s", c.name, inputMint, outputMint)
	}
	out := uint64(float64(amount) * price)
	if out == 0 {
		return nil, fmt.Errorf("stub venue %s: zero output", c.name)
	}
	return &quote.Quote{
		Venue:      c.name,
		InputMint:  inputMint,
		OutputMint: outputMint,
		InAmount:   amount,
		OutAmount:  out,
		Price:      price,
	}, nil
}

// Swap returns a synthetic instruction targeting the stub's program.
func (c *Client) Swap(_ context.Context, q *quote.Quote) (*solana.Instruction, error) {
	return &solana.Instruction{
		ProgramID: c.programID,
		Data:      []byte{0x01},
	}, nil
}
