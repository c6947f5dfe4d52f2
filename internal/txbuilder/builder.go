// Package txbuilder assembles the ordered instruction sequence for one
// settlement attempt. Ordering is load-bearing: the borrow_and_settle call
// must be the terminal instruction so the on-chain engine measures balances
// only after both venue legs have executed.
package txbuilder

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ailover379/solana-flash-loan-bot/internal/domain"
	"github.com/ailover379/solana-flash-loan-bot/internal/flashloan"
	"github.com/ailover379/solana-flash-loan-bot/internal/quote"
	"github.com/ailover379/solana-flash-loan-bot/internal/solana"
)

// Well-known program identifiers.
const (
	SystemProgramID          = "11111111111111111111111111111111"
	TokenProgramID           = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	AssociatedTokenProgramID = "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL"
	ComputeBudgetProgramID   = "ComputeBudget111111111111111111111111111111"
)

// Builder errors.
var (
	ErrTransactionTooLarge     = errors.New("serialized transaction exceeds size limit")
	ErrNoArbitrageInstructions = errors.New("no venue instruction could be built for a leg")
	ErrInvalidSwapInstruction  = errors.New("venue swap response cannot be decoded")
)

// BuiltTransaction is the assembled, ordered instruction sequence for one
// settlement attempt, ready for signing and submission.
type BuiltTransaction struct {
	Opportunity  domain.Opportunity
	Instructions []solana.Instruction
	// ProfitAccount is the beneficiary token account whose balance delta
	// measures realized profit.
	ProfitAccount string
	Size          int
}

// Options configures a Builder.
type Options struct {
	// ProgramID is the deployed flash-loan program.
	ProgramID string
	// Wallet is the bot's signing address.
	Wallet string
	// Beneficiary is the pool's surplus recipient.
	Beneficiary string
	// Venues maps venue name to its quote client.
	Venues map[string]quote.Client
	// ComputeUnitLimit and ComputeUnitPriceMicroLamports shape the
	// resource-budget directives at the head of every sequence.
	ComputeUnitLimit              uint32
	ComputeUnitPriceMicroLamports uint64
	// MaxTransactionSize overrides the packet limit; zero uses the default.
	MaxTransactionSize int
}

// Builder assembles settlement transactions.
type Builder struct {
	programID        string
	wallet           string
	beneficiary      string
	venues           map[string]quote.Client
	computeUnitLimit uint32
	computeUnitPrice uint64
	maxTxSize        int
}

// New creates a Builder.
func New(opts Options) *Builder {
	maxTxSize := opts.MaxTransactionSize
	if maxTxSize == 0 {
		maxTxSize = solana.MaxTransactionSize
	}
	computeUnitLimit := opts.ComputeUnitLimit
	if computeUnitLimit == 0 {
		computeUnitLimit = 400_000
	}
	return &Builder{
		programID:        opts.ProgramID,
		wallet:           opts.Wallet,
		beneficiary:      opts.Beneficiary,
		venues:           opts.Venues,
		computeUnitLimit: computeUnitLimit,
		computeUnitPrice: opts.ComputeUnitPriceMicroLamports,
		maxTxSize:        maxTxSize,
	}
}

// Build assembles the fixed-order sequence for opp:
// compute budget, token-account creation, buy leg, sell leg, settlement.
func (b *Builder) Build(ctx context.Context, opp domain.Opportunity) (*BuiltTransaction, error) {
	buyIx, err := b.legInstruction(ctx, opp.BuyVenue, opp.Pair.Quote, opp.Pair.Base, opp.Amount)
	if err != nil {
		return nil, fmt.Errorf("buy leg on %s: %w", opp.BuyVenue, err)
	}

	baseQty := uint64(float64(opp.Amount) / opp.BuyPrice)
	if baseQty == 0 {
		return nil, fmt.Errorf("buy leg on %s: %w", opp.BuyVenue, ErrNoArbitrageInstructions)
	}
	sellIx, err := b.legInstruction(ctx, opp.SellVenue, opp.Pair.Base, opp.Pair.Quote, baseQty)
	if err != nil {
		return nil, fmt.Errorf("sell leg on %s: %w", opp.SellVenue, err)
	}

	settleIx, err := b.BorrowAndSettleInstruction(opp.AssetID, opp.Amount, opp.ExpectedProfit)
	if err != nil {
		return nil, err
	}

	walletAsset, err := AssociatedTokenAddress(b.wallet, opp.AssetID)
	if err != nil {
		return nil, err
	}
	walletBase, err := AssociatedTokenAddress(b.wallet, opp.Pair.Base)
	if err != nil {
		return nil, err
	}
	beneficiaryAsset, err := AssociatedTokenAddress(b.beneficiary, opp.AssetID)
	if err != nil {
		return nil, err
	}

	instructions := []solana.Instruction{
		setComputeUnitLimit(b.computeUnitLimit),
	}
	if b.computeUnitPrice > 0 {
		instructions = append(instructions, setComputeUnitPrice(b.computeUnitPrice))
	}
	instructions = append(instructions,
		createTokenAccountIdempotent(b.wallet, b.wallet, opp.AssetID, walletAsset),
		createTokenAccountIdempotent(b.wallet, b.wallet, opp.Pair.Base, walletBase),
		createTokenAccountIdempotent(b.wallet, b.beneficiary, opp.AssetID, beneficiaryAsset),
		*buyIx,
		*sellIx,
		*settleIx,
	)

	size, err := solana.TransactionSize(b.wallet, instructions)
	if err != nil {
		return nil, fmt.Errorf("compute transaction size: %w", err)
	}
	if size > b.maxTxSize {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrTransactionTooLarge, size, b.maxTxSize)
	}

	return &BuiltTransaction{
		Opportunity:   opp,
		Instructions:  instructions,
		ProfitAccount: beneficiaryAsset,
		Size:          size,
	}, nil
}

// legInstruction fetches a fresh quote and swap instruction for one leg.
func (b *Builder) legInstruction(ctx context.Context, venueName, inputMint, outputMint string, amount uint64) (*solana.Instruction, error) {
	venue, ok := b.venues[venueName]
	if !ok {
		return nil, fmt.Errorf("%w: venue %q not configured", ErrNoArbitrageInstructions, venueName)
	}
	q, err := venue.Quote(ctx, inputMint, outputMint, amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoArbitrageInstructions, err)
	}
	ix, err := venue.Swap(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSwapInstruction, err)
	}
	if ix == nil || ix.ProgramID == "" {
		return nil, ErrInvalidSwapInstruction
	}
	return ix, nil
}

// BorrowAndSettleInstruction encodes the terminal settlement call. The
// remaining instructions of the unit are its execution steps on chain.
func (b *Builder) BorrowAndSettleInstruction(asset string, amount, expectedProfit uint64) (*solana.Instruction, error) {
	poolAddr, err := flashloan.DerivePoolAddress(flashloan.PoolSeed, asset, b.programID)
	if err != nil {
		return nil, err
	}
	reserveAddr, err := flashloan.DerivePoolAddress(flashloan.VaultSeed, asset, b.programID)
	if err != nil {
		return nil, err
	}
	walletAsset, err := AssociatedTokenAddress(b.wallet, asset)
	if err != nil {
		return nil, err
	}
	beneficiaryAsset, err := AssociatedTokenAddress(b.beneficiary, asset)
	if err != nil {
		return nil, err
	}

	data := make([]byte, 8, 24)
	copy(data, anchorDiscriminator("borrow_and_settle"))
	data = binary.LittleEndian.AppendUint64(data, amount)
	data = binary.LittleEndian.AppendUint64(data, expectedProfit)

	return &solana.Instruction{
		ProgramID: b.programID,
		Accounts: []solana.AccountMeta{
			{Pubkey: poolAddr, IsWritable: true},
			{Pubkey: reserveAddr, IsWritable: true},
			{Pubkey: walletAsset, IsWritable: true},
			{Pubkey: beneficiaryAsset, IsWritable: true},
			{Pubkey: b.wallet, IsSigner: true, IsWritable: true},
			{Pubkey: TokenProgramID},
		},
		Data: data,
	}, nil
}

// anchorDiscriminator derives the 8-byte instruction discriminator.
func anchorDiscriminator(name string) []byte {
	sum := sha256.Sum256([]byte("global:" + name))
	return sum[:8]
}

// AssociatedTokenAddress derives the associated token account of owner for mint.
func AssociatedTokenAddress(owner, mint string) (string, error) {
	ownerRaw, err := solana.DecodePubkey(owner)
	if err != nil {
		return "", err
	}
	tokenProgramRaw, err := solana.DecodePubkey(TokenProgramID)
	if err != nil {
		return "", err
	}
	mintRaw, err := solana.DecodePubkey(mint)
	if err != nil {
		return "", err
	}
	addr, _, err := solana.FindProgramAddress([][]byte{ownerRaw, tokenProgramRaw, mintRaw}, AssociatedTokenProgramID)
	return addr, err
}

// setComputeUnitLimit builds the compute-budget limit directive.
func setComputeUnitLimit(units uint32) solana.Instruction {
	data := make([]byte, 1, 5)
	data[0] = 0x02
	data = binary.LittleEndian.AppendUint32(data, units)
	return solana.Instruction{ProgramID: ComputeBudgetProgramID, Data: data}
}

// setComputeUnitPrice builds the compute-budget priority-fee directive.
func setComputeUnitPrice(microLamports uint64) solana.Instruction {
	data := make([]byte, 1, 9)
	data[0] = 0x03
	data = binary.LittleEndian.AppendUint64(data, microLamports)
	return solana.Instruction{ProgramID: ComputeBudgetProgramID, Data: data}
}

// createTokenAccountIdempotent builds the create-idempotent associated
// token account instruction.
func createTokenAccountIdempotent(payer, owner, mint, ata string) solana.Instruction {
	return solana.Instruction{
		ProgramID: AssociatedTokenProgramID,
		Accounts: []solana.AccountMeta{
			{Pubkey: payer, IsSigner: true, IsWritable: true},
			{Pubkey: ata, IsWritable: true},
			{Pubkey: owner},
			{Pubkey: mint},
			{Pubkey: SystemProgramID},
			{Pubkey: TokenProgramID},
		},
		Data: []byte{0x01}, // CreateIdempotent
	}
}
