package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ailover379/solana-flash-loan-bot/internal/domain"
	"github.com/ailover379/solana-flash-loan-bot/internal/quote"
	"github.com/ailover379/solana-flash-loan-bot/internal/quote/stub"
	"github.com/ailover379/solana-flash-loan-bot/internal/scanner"
	"github.com/ailover379/solana-flash-loan-bot/internal/selector"
	"github.com/ailover379/solana-flash-loan-bot/internal/solana"
	"github.com/ailover379/solana-flash-loan-bot/internal/stats"
	"github.com/ailover379/solana-flash-loan-bot/internal/storage/memory"
	"github.com/ailover379/solana-flash-loan-bot/internal/txbuilder"
)

// Valid base58 identities; the builder decodes them when compiling
// instructions and deriving token accounts.
const (
	testBase     = "So11111111111111111111111111111111111111112"
	testQuote    = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	testProgram  = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
	testVenueIDA = "whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc"
	testVenueIDB = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
)

var testPair = domain.AssetPair{Base: testBase, Quote: testQuote}

// fakeSubmitter implements Submitter with scripted results.
type fakeSubmitter struct {
	result *solana.SubmitResult
	err    error
	calls  int
}

func (f *fakeSubmitter) Submit(_ context.Context, _ *txbuilder.BuiltTransaction) (*solana.SubmitResult, error) {
	f.calls++
	return f.result, f.err
}

// failingHealth always reports the node as unhealthy.
type failingHealth struct{}

func (failingHealth) GetHealth(_ context.Context) error {
	return errors.New("node unhealthy")
}

// newTestRunner builds a Runner over stub venues with a ~100 bps spread.
func newTestRunner(t *testing.T, submitter Submitter, health Health) (*Runner, *stats.Tracker, *memory.AttemptStore) {
	t.Helper()

	alpha := stub.NewClient("alpha", testVenueIDA)
	alpha.SetPrice(testQuote, testBase, 0.00101)
	alpha.SetPrice(testBase, testQuote, 1/0.00101)
	beta := stub.NewClient("beta", testVenueIDB)
	beta.SetPrice(testQuote, testBase, 0.00100)
	beta.SetPrice(testBase, testQuote, 1/0.00100)

	wallet, err := solana.NewKeypair()
	if err != nil {
		t.Fatalf("NewKeypair failed: %v", err)
	}
	beneficiary, err := solana.NewKeypair()
	if err != nil {
		t.Fatalf("NewKeypair failed: %v", err)
	}

	scan := scanner.New(scanner.Options{
		Venues:              []quote.Client{alpha, beta},
		Cache:               scanner.NewPriceCache(time.Millisecond, 16),
		ProbeAmount:         1_000_000,
		MinProfitabilityBps: 10,
	})
	sel := selector.New(selector.Policy{}, nil)
	builder := txbuilder.New(txbuilder.Options{
		ProgramID:   testProgram,
		Wallet:      wallet.Pubkey(),
		Beneficiary: beneficiary.Pubkey(),
		Venues:      map[string]quote.Client{"alpha": alpha, "beta": beta},
	})

	tracker := stats.NewTracker()
	attempts := memory.NewAttemptStore()

	runner := NewRunner(Options{
		Scanner:   scan,
		Selector:  sel,
		Builder:   builder,
		Submitter: submitter,
		Health:    health,
		Stats:     tracker,
		Attempts:  attempts,
		Pairs:     []domain.AssetPair{testPair},
		Backoff: BackoffConfig{
			Base:                   2 * time.Second,
			Cap:                    5 * time.Minute,
			Cooldown:               10 * time.Minute,
			MaxConsecutiveFailures: 5,
		},
	})
	return runner, tracker, attempts
}

// recordSleeps swaps the runner's sleep for one that records durations and
// cancels the run after limit sleeps.
func recordSleeps(runner *Runner, cancel context.CancelFunc, limit int) *[]time.Duration {
	var sleeps []time.Duration
	runner.sleep = func(ctx context.Context, d time.Duration) bool {
		sleeps = append(sleeps, d)
		if len(sleeps) >= limit {
			cancel()
			return false
		}
		return true
	}
	return &sleeps
}

func TestRunner_SuccessfulCycle(t *testing.T) {
	submitter := &fakeSubmitter{result: &solana.SubmitResult{Signature: "sig1", RealizedProfit: 900}}
	runner, tracker, attempts := newTestRunner(t, submitter, nil)

	ctx, cancel := context.WithCancel(context.Background())
	recordSleeps(runner, cancel, 1)

	if err := runner.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if submitter.calls != 1 {
		t.Fatalf("Submitter calls: got %d, want 1", submitter.calls)
	}

	snap := tracker.Get()
	if snap.Successful != 1 || snap.Failed != 0 {
		t.Errorf("Successful/Failed: got %d/%d, want 1/0", snap.Successful, snap.Failed)
	}
	if snap.CumulativeProfit != 900 {
		t.Errorf("CumulativeProfit: got %d, want 900", snap.CumulativeProfit)
	}
	if snap.CumulativeVolume != 1_000_000 {
		t.Errorf("CumulativeVolume: got %d, want 1000000", snap.CumulativeVolume)
	}

	recorded, err := attempts.GetByTimeRange(context.Background(), 0, time.Now().UnixMilli())
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(recorded) != 1 {
		t.Fatalf("Recorded attempts: got %d, want 1", len(recorded))
	}
	a := recorded[0]
	if a.Outcome != domain.OutcomeSuccess {
		t.Errorf("Outcome: got %s, want %s", a.Outcome, domain.OutcomeSuccess)
	}
	if a.Signature != "sig1" || a.RealizedProfit != 900 {
		t.Errorf("Attempt fields: signature %s profit %d", a.Signature, a.RealizedProfit)
	}
	if a.AttemptID == "" {
		t.Error("AttemptID must be set")
	}
}

func TestRunner_RevertedSubmission(t *testing.T) {
	submitter := &fakeSubmitter{result: &solana.SubmitResult{Signature: "sig2", RevertReason: "insufficient repayment"}}
	runner, tracker, attempts := newTestRunner(t, submitter, nil)

	ctx, cancel := context.WithCancel(context.Background())
	recordSleeps(runner, cancel, 1)

	if err := runner.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	snap := tracker.Get()
	if snap.Failed != 1 {
		t.Errorf("Failed: got %d, want 1", snap.Failed)
	}
	// A submitted transaction that reverted is a transaction failure,
	// never a cycle error.
	if snap.ErrorCount != 0 {
		t.Errorf("ErrorCount: got %d, want 0", snap.ErrorCount)
	}

	recorded, _ := attempts.GetByTimeRange(context.Background(), 0, time.Now().UnixMilli())
	if len(recorded) != 1 {
		t.Fatalf("Recorded attempts: got %d, want 1", len(recorded))
	}
	if recorded[0].Outcome != domain.OutcomeReverted {
		t.Errorf("Outcome: got %s, want %s", recorded[0].Outcome, domain.OutcomeReverted)
	}
	if recorded[0].Reason != "insufficient repayment" {
		t.Errorf("Reason: got %q", recorded[0].Reason)
	}
}

func TestRunner_SubmissionFailure(t *testing.T) {
	submitter := &fakeSubmitter{err: errors.New("send transaction: connection refused")}
	runner, tracker, attempts := newTestRunner(t, submitter, nil)

	ctx, cancel := context.WithCancel(context.Background())
	recordSleeps(runner, cancel, 1)

	if err := runner.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if snap := tracker.Get(); snap.Failed != 1 || snap.ErrorCount != 0 {
		t.Errorf("Failed/ErrorCount: got %d/%d, want 1/0", snap.Failed, snap.ErrorCount)
	}

	recorded, _ := attempts.GetByTimeRange(context.Background(), 0, time.Now().UnixMilli())
	if len(recorded) != 1 {
		t.Fatalf("Recorded attempts: got %d, want 1", len(recorded))
	}
	if recorded[0].Outcome != domain.OutcomeSubmissionFailed {
		t.Errorf("Outcome: got %s, want %s", recorded[0].Outcome, domain.OutcomeSubmissionFailed)
	}
	if recorded[0].Signature != "" {
		t.Errorf("Signature must be empty on submission failure, got %q", recorded[0].Signature)
	}
}

// Five consecutive failures trip the circuit breaker: the runner sleeps the
// cooldown instead of the exponential backoff and resets the streak.
func TestRunner_CircuitBreaker(t *testing.T) {
	runner, tracker, _ := newTestRunner(t, &fakeSubmitter{}, failingHealth{})

	ctx, cancel := context.WithCancel(context.Background())
	sleeps := recordSleeps(runner, cancel, 7)

	if err := runner.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []time.Duration{
		4 * time.Second,  // failure 1
		8 * time.Second,  // failure 2
		16 * time.Second, // failure 3
		32 * time.Second, // failure 4
		10 * time.Minute, // failure 5 trips the breaker
		4 * time.Second,  // streak reset, failure 1 again
		8 * time.Second,
	}
	if len(*sleeps) != len(want) {
		t.Fatalf("Sleep count: got %d, want %d (%v)", len(*sleeps), len(want), *sleeps)
	}
	for i, d := range want {
		if (*sleeps)[i] != d {
			t.Errorf("Sleep %d: got %s, want %s", i, (*sleeps)[i], d)
		}
	}

	// Health failures never reach submission.
	if snap := tracker.Get(); snap.TotalTransactions != 0 {
		t.Errorf("TotalTransactions: got %d, want 0", snap.TotalTransactions)
	}
}

func TestRunner_NoCandidateIdles(t *testing.T) {
	submitter := &fakeSubmitter{result: &solana.SubmitResult{Signature: "sig"}}
	runner, tracker, _ := newTestRunner(t, submitter, nil)

	// Equal prices on both venues: no spread, nothing to submit.
	alpha := stub.NewClient("alpha", testVenueIDA)
	alpha.SetPrice(testQuote, testBase, 0.001)
	beta := stub.NewClient("beta", testVenueIDB)
	beta.SetPrice(testQuote, testBase, 0.001)
	runner.scanner = scanner.New(scanner.Options{
		Venues:              []quote.Client{alpha, beta},
		Cache:               scanner.NewPriceCache(time.Millisecond, 16),
		ProbeAmount:         1_000_000,
		MinProfitabilityBps: 10,
	})

	ctx, cancel := context.WithCancel(context.Background())
	recordSleeps(runner, cancel, 2)

	if err := runner.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if submitter.calls != 0 {
		t.Errorf("Submitter calls: got %d, want 0", submitter.calls)
	}
	snap := tracker.Get()
	if snap.TotalTransactions != 0 || snap.ErrorCount != 0 {
		t.Errorf("Idle cycles must not book transactions or errors: %+v", snap)
	}
}
