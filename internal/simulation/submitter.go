// Package simulation provides a dry-run submitter that settles built
// transactions against the in-process ledger instead of a cluster. The
// control loop, builder and stats run exactly as in live mode; only the
// submission boundary is swapped.
package simulation

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/mr-tron/base58"

	"github.com/ailover379/solana-flash-loan-bot/internal/flashloan"
	"github.com/ailover379/solana-flash-loan-bot/internal/solana"
	"github.com/ailover379/solana-flash-loan-bot/internal/txbuilder"
)

// ErrMalformedSequence is returned when a built transaction does not end
// with a settlement instruction for the configured program.
var ErrMalformedSequence = errors.New("sequence does not terminate in a settlement instruction")

// Options configures a Submitter.
type Options struct {
	Engine *flashloan.Engine
	// ProgramID is the flash-loan program the terminal instruction must call.
	ProgramID string
	// Borrower is the account that receives the loan and runs the legs.
	Borrower string
	Logger   *log.Logger
}

// Submitter executes built transactions through the settlement engine.
// The venue legs are replayed as execution steps priced from the
// opportunity's observed quotes.
type Submitter struct {
	engine    *flashloan.Engine
	programID string
	borrower  string
	logger    *log.Logger
	seq       atomic.Uint64
}

// NewSubmitter creates a dry-run Submitter.
func NewSubmitter(opts Options) *Submitter {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Submitter{
		engine:    opts.Engine,
		programID: opts.ProgramID,
		borrower:  opts.Borrower,
		logger:    logger,
	}
}

// Submit settles tx against the ledger. Engine rejections map to a revert
// result, mirroring how an on-chain failure surfaces from a cluster; only a
// malformed sequence is a submission error.
func (s *Submitter) Submit(ctx context.Context, tx *txbuilder.BuiltTransaction) (*solana.SubmitResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(tx.Instructions) == 0 || tx.Instructions[len(tx.Instructions)-1].ProgramID != s.programID {
		return nil, ErrMalformedSequence
	}

	steps, err := s.legSteps(tx)
	if err != nil {
		return nil, err
	}

	opp := tx.Opportunity
	signature := s.signature(opp.AssetID, opp.Amount)

	receipt, err := s.engine.BorrowAndSettle(opp.AssetID, s.borrower, opp.Amount, opp.ExpectedProfit, steps)
	if err != nil {
		s.logger.Printf("simulation: %s reverted: %v", signature, err)
		return &solana.SubmitResult{Signature: signature, RevertReason: err.Error()}, nil
	}

	s.logger.Printf("simulation: %s settled: fee=%d surplus=%d reserve=%d",
		signature, receipt.FeePaid, receipt.Surplus, receipt.ReserveAfter)
	return &solana.SubmitResult{Signature: signature, RealizedProfit: receipt.Surplus}, nil
}

// legSteps rebuilds the buy and sell legs as ledger mutations. Each venue
// instruction in the sequence becomes one step priced from the opportunity.
func (s *Submitter) legSteps(tx *txbuilder.BuiltTransaction) ([]flashloan.ExecutionStep, error) {
	opp := tx.Opportunity
	var venuePrograms []string
	for _, ix := range tx.Instructions[:len(tx.Instructions)-1] {
		switch ix.ProgramID {
		case txbuilder.ComputeBudgetProgramID, txbuilder.AssociatedTokenProgramID, txbuilder.SystemProgramID:
			continue
		}
		venuePrograms = append(venuePrograms, ix.ProgramID)
	}
	if len(venuePrograms) != 2 {
		return nil, fmt.Errorf("%w: %d venue instructions", ErrMalformedSequence, len(venuePrograms))
	}
	if opp.BuyPrice <= 0 || opp.SellPrice <= 0 {
		return nil, fmt.Errorf("%w: non-positive leg price", ErrMalformedSequence)
	}

	borrower := s.borrower
	asset := opp.AssetID
	base := opp.Pair.Base
	baseQty := uint64(float64(opp.Amount) / opp.BuyPrice)
	proceeds := uint64(float64(baseQty) * opp.SellPrice)

	buy := flashloan.ExecutionStep{
		ProgramID: venuePrograms[0],
		Apply: func(b *flashloan.Balances) error {
			if err := b.Debit(borrower, asset, opp.Amount); err != nil {
				return err
			}
			return b.Credit(borrower, base, baseQty)
		},
	}
	sell := flashloan.ExecutionStep{
		ProgramID: venuePrograms[1],
		Apply: func(b *flashloan.Balances) error {
			if err := b.Debit(borrower, base, baseQty); err != nil {
				return err
			}
			return b.Credit(borrower, asset, proceeds)
		},
	}
	return []flashloan.ExecutionStep{buy, sell}, nil
}

// signature produces a deterministic, unique pseudo-signature so attempts
// recorded in dry-run mode remain distinguishable.
func (s *Submitter) signature(asset string, amount uint64) string {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], s.seq.Add(1))
	binary.LittleEndian.PutUint64(buf[8:], amount)
	sum := sha256.Sum256(append([]byte(asset), buf[:]...))
	full := sha256.Sum256(sum[:])
	return base58.Encode(append(sum[:], full[:32]...))
}
