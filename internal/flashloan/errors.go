package flashloan

import "errors"

// Validation errors: rejected before any balance mutation.
var (
	ErrPoolAlreadyInitialized = errors.New("pool already initialized for asset")
	ErrPoolNotFound           = errors.New("pool not initialized for asset")
	ErrInvalidFee             = errors.New("fee exceeds maximum allowed basis points")
	ErrInvalidBeneficiary     = errors.New("beneficiary must not be the zero address")
	ErrPoolPaused             = errors.New("pool is paused")
	ErrInvalidAmount          = errors.New("loan amount must be greater than zero")
	ErrUnauthorized           = errors.New("signer is not the pool authority")
	ErrInsufficientFees       = errors.New("withdrawal exceeds accrued fees")
)

// Settlement errors: the entire execution unit is discarded, the reserve
// balance is provably unchanged.
var (
	ErrAmountTooLarge           = errors.New("loan amount exceeds maximum share of reserve")
	ErrInsufficientLiquidity    = errors.New("reserve balance below requested amount")
	ErrInvalidDexProgram        = errors.New("execution step targets a program outside the venue allow-list")
	ErrArbitrageExecutionFailed = errors.New("execution step failed")
	ErrMathOverflow             = errors.New("arithmetic overflow computing repayment")
	ErrInsufficientRepayment    = errors.New("borrower balance below required repayment")
	ErrInsufficientProfit       = errors.New("surplus below declared expected profit")
	ErrInsufficientBalance      = errors.New("insufficient balance")
)
