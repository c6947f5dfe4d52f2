package flashloan

import (
	"fmt"
	"log"

	"github.com/ailover379/solana-flash-loan-bot/internal/domain"
	"github.com/ailover379/solana-flash-loan-bot/internal/solana"
)

// Protocol constants.
const (
	// MaxFeeBps caps the pool fee at 10%.
	MaxFeeBps = 1000
	// MaxLoanShareBps caps a single loan at 80% of the reserve.
	MaxLoanShareBps = 8000
	// BpsDenominator converts basis points to a fraction.
	BpsDenominator = 10000

	// PoolSeed and VaultSeed are the domain tags for deterministic
	// derivation of the pool and reserve addresses.
	PoolSeed  = "flash_pool"
	VaultSeed = "pool_vault"
)

// ExecutionStep is one venue call performed while the loan is outstanding.
// ProgramID must be on the engine's venue allow-list; Apply mutates the
// scratch balances of the enclosing execution unit.
type ExecutionStep struct {
	ProgramID string
	Apply     func(b *Balances) error
}

// Receipt summarizes a committed settlement.
type Receipt struct {
	Amount        uint64
	FeePaid       uint64
	Repayment     uint64 // amount + fee returned to the reserve
	Surplus       uint64 // paid to the pool beneficiary
	ReserveBefore uint64
	ReserveAfter  uint64
}

// Config configures the settlement engine.
type Config struct {
	// ProgramID is the deployed flash-loan program identity used for
	// pool and reserve address derivation.
	ProgramID string
	// AllowedVenuePrograms is the fixed set of venue program identifiers
	// trusted to receive loaned funds during execution steps.
	AllowedVenuePrograms []string
	// ProfitTolerance is subtracted from the caller-declared expected
	// profit before the surplus check, absorbing venue slippage.
	ProfitTolerance uint64
	Logger          *log.Logger
}

// Engine implements the atomic borrow -> use -> repay -> distribute protocol
// over a Ledger. Every operation either commits in full or leaves the ledger
// untouched.
type Engine struct {
	ledger          *Ledger
	programID       string
	allowedPrograms map[string]struct{}
	profitTolerance uint64
	logger          *log.Logger
}

// NewEngine creates a settlement engine over ledger.
func NewEngine(ledger *Ledger, cfg Config) *Engine {
	allowed := make(map[string]struct{}, len(cfg.AllowedVenuePrograms))
	for _, p := range cfg.AllowedVenuePrograms {
		allowed[p] = struct{}{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		ledger:          ledger,
		programID:       cfg.ProgramID,
		allowedPrograms: allowed,
		profitTolerance: cfg.ProfitTolerance,
		logger:          logger,
	}
}

// PoolAddress derives the deterministic pool address for asset.
func (e *Engine) PoolAddress(asset string) (string, error) {
	return DerivePoolAddress(PoolSeed, asset, e.programID)
}

// ReserveAddress derives the deterministic reserve account for asset.
func (e *Engine) ReserveAddress(asset string) (string, error) {
	return DerivePoolAddress(VaultSeed, asset, e.programID)
}

// DerivePoolAddress derives the program address for (tag, asset mint).
func DerivePoolAddress(tag, asset, programID string) (string, error) {
	mint, err := solana.DecodePubkey(asset)
	if err != nil {
		return "", err
	}
	addr, _, err := solana.FindProgramAddress([][]byte{[]byte(tag), mint}, programID)
	return addr, err
}

// InitializePool creates the pool for asset. Fails if one already exists,
// if feeBps exceeds MaxFeeBps, or if beneficiary is unset.
func (e *Engine) InitializePool(asset, authority, beneficiary string, feeBps uint64) (*domain.Pool, error) {
	if feeBps > MaxFeeBps {
		return nil, ErrInvalidFee
	}
	if beneficiary == "" || beneficiary == solana.ZeroAddress {
		return nil, ErrInvalidBeneficiary
	}
	poolAddr, err := e.PoolAddress(asset)
	if err != nil {
		return nil, fmt.Errorf("derive pool address: %w", err)
	}
	reserveAddr, err := e.ReserveAddress(asset)
	if err != nil {
		return nil, fmt.Errorf("derive reserve address: %w", err)
	}

	e.ledger.mu.Lock()
	defer e.ledger.mu.Unlock()

	if _, exists := e.ledger.pools[asset]; exists {
		return nil, ErrPoolAlreadyInitialized
	}
	pool := &domain.Pool{
		AssetID:        asset,
		PoolAddress:    poolAddr,
		ReserveAccount: reserveAddr,
		Authority:      authority,
		Beneficiary:    beneficiary,
		FeeBps:         feeBps,
	}
	e.ledger.pools[asset] = pool
	e.logger.Printf("pool initialized: asset=%s pool=%s fee_bps=%d", asset, poolAddr, feeBps)

	poolCopy := *pool
	return &poolCopy, nil
}

// BorrowAndSettle executes the core atomic operation: lend amount from the
// reserve to borrower, run the supplied execution steps, verify repayment of
// amount plus fee, and pay any surplus to the pool beneficiary. On any error
// every balance mutation performed inside the call is discarded.
func (e *Engine) BorrowAndSettle(asset, borrower string, amount, expectedProfit uint64, steps []ExecutionStep) (*Receipt, error) {
	e.ledger.mu.Lock()
	defer e.ledger.mu.Unlock()

	pool, ok := e.ledger.pools[asset]
	if !ok {
		return nil, ErrPoolNotFound
	}
	if pool.IsPaused {
		return nil, ErrPoolPaused
	}
	if amount == 0 {
		return nil, ErrInvalidAmount
	}

	reserveBefore := e.ledger.balances.Balance(pool.ReserveAccount, asset)
	maxLoan, err := mulDiv(reserveBefore, MaxLoanShareBps, BpsDenominator)
	if err != nil {
		return nil, err
	}
	if amount > maxLoan {
		return nil, ErrAmountTooLarge
	}
	if reserveBefore < amount {
		return nil, ErrInsufficientLiquidity
	}

	// Every step's program must be allow-listed before any step runs.
	for _, step := range steps {
		if _, ok := e.allowedPrograms[step.ProgramID]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrInvalidDexProgram, step.ProgramID)
		}
	}

	// The execution unit: all mutations below land on a scratch copy and
	// are committed only after every invariant check passes.
	scratch := e.ledger.balances.clone()

	if err := scratch.Transfer(pool.ReserveAccount, borrower, asset, amount); err != nil {
		return nil, err
	}

	for i, step := range steps {
		if err := step.Apply(scratch); err != nil {
			return nil, fmt.Errorf("%w: step %d (%s): %v", ErrArbitrageExecutionFailed, i, step.ProgramID, err)
		}
	}

	fee, err := mulDiv(amount, pool.FeeBps, BpsDenominator)
	if err != nil {
		return nil, err
	}
	required, err := checkedAdd(amount, fee)
	if err != nil {
		return nil, err
	}

	balance := scratch.Balance(borrower, asset)
	if balance < required {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientRepayment, balance, required)
	}

	if err := scratch.Transfer(borrower, pool.ReserveAccount, asset, required); err != nil {
		return nil, err
	}
	surplus := balance - required
	minProfit := uint64(0)
	if expectedProfit > e.profitTolerance {
		minProfit = expectedProfit - e.profitTolerance
	}
	if surplus < minProfit {
		return nil, fmt.Errorf("%w: surplus %d, expected at least %d", ErrInsufficientProfit, surplus, minProfit)
	}
	if surplus > 0 {
		if err := scratch.Transfer(borrower, pool.Beneficiary, asset, surplus); err != nil {
			return nil, err
		}
	}

	accrued, err := checkedAdd(pool.AccruedFees, fee)
	if err != nil {
		return nil, err
	}

	// Commit.
	e.ledger.balances = scratch
	pool.AccruedFees = accrued

	return &Receipt{
		Amount:        amount,
		FeePaid:       fee,
		Repayment:     required,
		Surplus:       surplus,
		ReserveBefore: reserveBefore,
		ReserveAfter:  e.ledger.balances.Balance(pool.ReserveAccount, asset),
	}, nil
}

// UpdateBeneficiary changes the surplus recipient. Authority only.
func (e *Engine) UpdateBeneficiary(asset, signer, newBeneficiary string) error {
	if newBeneficiary == "" || newBeneficiary == solana.ZeroAddress {
		return ErrInvalidBeneficiary
	}

	e.ledger.mu.Lock()
	defer e.ledger.mu.Unlock()

	pool, ok := e.ledger.pools[asset]
	if !ok {
		return ErrPoolNotFound
	}
	if signer != pool.Authority {
		return ErrUnauthorized
	}
	pool.Beneficiary = newBeneficiary
	return nil
}

// WithdrawFees moves amount of accrued fee revenue out of the reserve to
// recipient. Authority only; amount must not exceed accrued fees.
func (e *Engine) WithdrawFees(asset, signer, recipient string, amount uint64) error {
	e.ledger.mu.Lock()
	defer e.ledger.mu.Unlock()

	pool, ok := e.ledger.pools[asset]
	if !ok {
		return ErrPoolNotFound
	}
	if signer != pool.Authority {
		return ErrUnauthorized
	}
	if amount > pool.AccruedFees {
		return ErrInsufficientFees
	}

	scratch := e.ledger.balances.clone()
	if err := scratch.Transfer(pool.ReserveAccount, recipient, asset, amount); err != nil {
		return err
	}
	e.ledger.balances = scratch
	pool.AccruedFees -= amount
	return nil
}

// SetPauseState toggles the pause flag. Authority only. A paused pool
// rejects BorrowAndSettle but still accepts authority operations.
func (e *Engine) SetPauseState(asset, signer string, paused bool) error {
	e.ledger.mu.Lock()
	defer e.ledger.mu.Unlock()

	pool, ok := e.ledger.pools[asset]
	if !ok {
		return ErrPoolNotFound
	}
	if signer != pool.Authority {
		return ErrUnauthorized
	}
	pool.IsPaused = paused
	return nil
}
