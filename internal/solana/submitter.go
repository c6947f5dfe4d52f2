package solana

import (
	"context"
	"fmt"
	"log"
	"time"
)

// SubmitOptions tunes one submission.
type SubmitOptions struct {
	// ProfitAccount, when set, is the token account whose balance delta
	// across the transaction is reported as RealizedProfit.
	ProfitAccount string
}

// SubmitResult is the classified outcome of one submitted execution unit.
type SubmitResult struct {
	Signature string
	// RevertReason is empty when the transaction committed successfully;
	// otherwise it carries the cluster error and the whole unit was
	// rolled back on chain.
	RevertReason   string
	RealizedProfit uint64
}

// Submitter signs, sends, and awaits commitment of instruction sequences.
// At most one submission per bot instance is in flight at a time; the
// scheduler enforces that discipline.
type Submitter struct {
	rpc            RPCClient
	ws             WSClient // optional; polling is the fallback
	signer         *Keypair
	confirmTimeout time.Duration
	pollInterval   time.Duration
	logger         *log.Logger
}

// SubmitterOptions configures a Submitter.
type SubmitterOptions struct {
	RPC            RPCClient
	WS             WSClient
	Signer         *Keypair
	ConfirmTimeout time.Duration
	PollInterval   time.Duration
	Logger         *log.Logger
}

// NewSubmitter creates a Submitter.
func NewSubmitter(opts SubmitterOptions) *Submitter {
	confirmTimeout := opts.ConfirmTimeout
	if confirmTimeout == 0 {
		confirmTimeout = 60 * time.Second
	}
	pollInterval := opts.PollInterval
	if pollInterval == 0 {
		pollInterval = 2 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Submitter{
		rpc:            opts.RPC,
		ws:             opts.WS,
		signer:         opts.Signer,
		confirmTimeout: confirmTimeout,
		pollInterval:   pollInterval,
		logger:         logger,
	}
}

// Signer returns the submitter's signing address.
func (s *Submitter) Signer() string {
	return s.signer.Pubkey()
}

// Submit signs and sends instructions as one transaction and blocks until
// the cluster confirms or rejects it, or the confirmation deadline passes.
// A returned error means the outcome is unknown or the send failed; a
// non-empty RevertReason means the unit executed and was fully rolled back.
func (s *Submitter) Submit(ctx context.Context, instructions []Instruction, opts SubmitOptions) (*SubmitResult, error) {
	var balanceBefore uint64
	measureProfit := opts.ProfitAccount != ""
	if measureProfit {
		before, err := s.rpc.GetTokenAccountBalance(ctx, opts.ProfitAccount)
		if err != nil {
			// Account may not exist until the transaction creates it.
			before = 0
		}
		balanceBefore = before
	}

	blockhash, err := s.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("get blockhash: %w", err)
	}

	tx, err := NewTransaction(s.signer, blockhash, instructions)
	if err != nil {
		return nil, fmt.Errorf("build transaction: %w", err)
	}
	if tx.Size() > MaxTransactionSize {
		return nil, fmt.Errorf("transaction size %d exceeds %d bytes", tx.Size(), MaxTransactionSize)
	}

	signature, err := s.rpc.SendTransaction(ctx, tx.Base64())
	if err != nil {
		return nil, fmt.Errorf("send transaction: %w", err)
	}
	s.logger.Printf("submitted transaction %s", signature)

	confirmCtx, cancel := context.WithTimeout(ctx, s.confirmTimeout)
	defer cancel()

	res, err := s.awaitCommitment(confirmCtx, signature)
	if err != nil {
		return nil, fmt.Errorf("await commitment of %s: %w", signature, err)
	}

	result := &SubmitResult{Signature: signature}
	if res.Err != nil {
		result.RevertReason = fmt.Sprint(res.Err)
		return result, nil
	}

	if measureProfit {
		after, err := s.rpc.GetTokenAccountBalance(ctx, opts.ProfitAccount)
		if err == nil && after > balanceBefore {
			result.RealizedProfit = after - balanceBefore
		}
	}
	return result, nil
}

// awaitCommitment waits for the signature via WebSocket when available,
// falling back to status polling.
func (s *Submitter) awaitCommitment(ctx context.Context, signature string) (*SignatureResult, error) {
	if s.ws != nil {
		ch, err := s.ws.SubscribeSignature(ctx, signature)
		if err == nil {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case res, ok := <-ch:
				if ok {
					return &res, nil
				}
				// Connection lost; fall through to polling.
			}
		} else {
			s.logger.Printf("signature subscription failed, polling instead: %v", err)
		}
	}
	return s.pollCommitment(ctx, signature)
}

func (s *Submitter) pollCommitment(ctx context.Context, signature string) (*SignatureResult, error) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			statuses, err := s.rpc.GetSignatureStatuses(ctx, []string{signature})
			if err != nil {
				continue
			}
			if len(statuses) == 0 || statuses[0] == nil {
				continue
			}
			st := statuses[0]
			if st.ConfirmationStatus == "confirmed" || st.ConfirmationStatus == "finalized" {
				return &SignatureResult{Slot: st.Slot, Err: st.Err}, nil
			}
		}
	}
}
