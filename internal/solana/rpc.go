package solana

import "context"

// ZeroAddress is the all-zero public key, used as the unset sentinel.
const ZeroAddress = "11111111111111111111111111111111"

// RPCClient defines the Solana RPC HTTP interface the bot depends on.
type RPCClient interface {
	// GetLatestBlockhash returns the most recent blockhash.
	GetLatestBlockhash(ctx context.Context) (string, error)

	// SendTransaction submits a signed, base64-encoded transaction and
	// returns its signature.
	SendTransaction(ctx context.Context, txBase64 string) (string, error)

	// SimulateTransaction runs a signed transaction against the current
	// bank state without submitting it.
	SimulateTransaction(ctx context.Context, txBase64 string) (*SimulationResult, error)

	// GetBalance returns the lamport balance of pubkey.
	GetBalance(ctx context.Context, pubkey string) (uint64, error)

	// GetTokenAccountBalance returns the raw token amount held by a
	// token account.
	GetTokenAccountBalance(ctx context.Context, pubkey string) (uint64, error)

	// GetSignatureStatuses returns confirmation status for each signature;
	// entries are nil for unknown signatures.
	GetSignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error)

	// GetSlot returns the current slot.
	GetSlot(ctx context.Context) (int64, error)

	// GetHealth reports whether the RPC node is healthy.
	GetHealth(ctx context.Context) error
}

// SimulationResult is the outcome of simulateTransaction.
type SimulationResult struct {
	Err           interface{}
	Logs          []string
	UnitsConsumed uint64
}

// SignatureStatus is one entry from getSignatureStatuses.
type SignatureStatus struct {
	Slot               int64
	Confirmations      *int64
	ConfirmationStatus string // "processed" | "confirmed" | "finalized"
	Err                interface{}
}
