// Package scheduler drives the bot's control loop: health-check, scan,
// select, build, submit, await commitment, update stats, sleep. One cycle
// runs at a time; cycle N+1 never starts before cycle N's submission is
// resolved.
package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/ailover379/solana-flash-loan-bot/internal/domain"
	"github.com/ailover379/solana-flash-loan-bot/internal/scanner"
	"github.com/ailover379/solana-flash-loan-bot/internal/selector"
	"github.com/ailover379/solana-flash-loan-bot/internal/solana"
	"github.com/ailover379/solana-flash-loan-bot/internal/stats"
	"github.com/ailover379/solana-flash-loan-bot/internal/storage"
	"github.com/ailover379/solana-flash-loan-bot/internal/txbuilder"
)

// Submitter sends a built sequence as one execution unit and blocks until
// it resolves. Implementations: the cluster submitter wrapping
// solana.Submitter, and simulation.Submitter against the in-process ledger.
type Submitter interface {
	Submit(ctx context.Context, tx *txbuilder.BuiltTransaction) (*solana.SubmitResult, error)
}

// clusterSubmitter adapts solana.Submitter to the Submitter interface.
type clusterSubmitter struct {
	inner *solana.Submitter
}

// NewClusterSubmitter wraps a solana.Submitter for use by the Runner.
func NewClusterSubmitter(s *solana.Submitter) Submitter {
	return clusterSubmitter{inner: s}
}

func (c clusterSubmitter) Submit(ctx context.Context, tx *txbuilder.BuiltTransaction) (*solana.SubmitResult, error) {
	return c.inner.Submit(ctx, tx.Instructions, solana.SubmitOptions{ProfitAccount: tx.ProfitAccount})
}

// Health reports node liveness before a cycle scans.
type Health interface {
	GetHealth(ctx context.Context) error
}

// BackoffConfig shapes the failure backoff and circuit breaker.
type BackoffConfig struct {
	Base time.Duration
	Cap  time.Duration
	// Cooldown is the fixed sleep applied once MaxConsecutiveFailures is
	// reached; the failure counter resets afterwards.
	Cooldown               time.Duration
	MaxConsecutiveFailures int
}

// Options configures a Runner.
type Options struct {
	Scanner   *scanner.Scanner
	Selector  *selector.Selector
	Builder   *txbuilder.Builder
	Submitter Submitter
	Health    Health // optional
	Stats     *stats.Tracker
	Attempts  storage.AttemptStore // optional
	Pairs     []domain.AssetPair
	// Interval is the sleep between successful or idle cycles.
	Interval time.Duration
	// SubmitTimeout bounds build-to-commitment of one attempt.
	SubmitTimeout time.Duration
	Backoff       BackoffConfig
	Logger        *log.Logger
}

// Runner is the single sequential control loop of one bot instance.
type Runner struct {
	scanner   *scanner.Scanner
	selector  *selector.Selector
	builder   *txbuilder.Builder
	submitter Submitter
	health    Health
	stats     *stats.Tracker
	attempts  storage.AttemptStore
	pairs     []domain.AssetPair

	interval      time.Duration
	submitTimeout time.Duration
	backoff       BackoffConfig
	logger        *log.Logger

	// sleep is swapped out by tests.
	sleep func(ctx context.Context, d time.Duration) bool
}

// NewRunner creates a Runner.
func NewRunner(opts Options) *Runner {
	interval := opts.Interval
	if interval == 0 {
		interval = 5 * time.Second
	}
	submitTimeout := opts.SubmitTimeout
	if submitTimeout == 0 {
		submitTimeout = 90 * time.Second
	}
	backoff := opts.Backoff
	if backoff.Base == 0 {
		backoff.Base = 2 * time.Second
	}
	if backoff.Cap == 0 {
		backoff.Cap = 5 * time.Minute
	}
	if backoff.Cooldown == 0 {
		backoff.Cooldown = 10 * time.Minute
	}
	if backoff.MaxConsecutiveFailures == 0 {
		backoff.MaxConsecutiveFailures = 5
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		scanner:       opts.Scanner,
		selector:      opts.Selector,
		builder:       opts.Builder,
		submitter:     opts.Submitter,
		health:        opts.Health,
		stats:         opts.Stats,
		attempts:      opts.Attempts,
		pairs:         opts.Pairs,
		interval:      interval,
		submitTimeout: submitTimeout,
		backoff:       backoff,
		logger:        logger,
		sleep:         sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

// Run executes cycles until ctx is cancelled. Cancellation is cooperative:
// it is observed at cycle boundaries only, never mid-submission.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Printf("scheduler started: %d pairs, interval %s", len(r.pairs), r.interval)

	for {
		if ctx.Err() != nil {
			break
		}

		submitted, err := r.cycle(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			if !submitted {
				r.stats.RecordCycleError()
			}
			r.logger.Printf("cycle failed: %v", err)

			failures := r.stats.ConsecutiveFailures()
			if failures >= r.backoff.MaxConsecutiveFailures {
				r.logger.Printf("circuit breaker: %d consecutive failures, cooling down %s", failures, r.backoff.Cooldown)
				if !r.sleep(ctx, r.backoff.Cooldown) {
					break
				}
				r.stats.ResetConsecutiveFailures()
				continue
			}
			if !r.sleep(ctx, Backoff(r.backoff.Base, r.backoff.Cap, failures)) {
				break
			}
			continue
		}

		if !r.sleep(ctx, r.interval) {
			break
		}
	}

	snap := r.stats.Get()
	final, _ := json.Marshal(snap)
	r.logger.Printf("scheduler stopped, final stats: %s", final)
	return nil
}

// cycle runs one scan-to-settlement pass. The submitted flag reports
// whether a transaction was sent, so failures are booked either as cycle
// errors or as failed transactions, never both.
func (r *Runner) cycle(ctx context.Context) (submitted bool, err error) {
	if r.health != nil {
		if err := r.health.GetHealth(ctx); err != nil {
			return false, err
		}
	}

	opportunities := r.scanner.Scan(ctx, r.pairs)
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	candidate, ok := r.selector.Select(opportunities, r.stats.Get())
	if !ok {
		return false, nil
	}
	r.logger.Printf("candidate: %s buy %s sell %s spread %d bps, expected profit %d",
		candidate.Pair, candidate.BuyVenue, candidate.SellVenue, candidate.ProfitabilityBps, candidate.ExpectedProfit)

	built, err := r.builder.Build(ctx, *candidate)
	if err != nil {
		return false, err
	}

	submitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.submitTimeout)
	defer cancel()

	attempt := &domain.ExecutionAttempt{
		AttemptID:   uuid.NewString(),
		Opportunity: built.Opportunity,
	}

	result, err := r.submitter.Submit(submitCtx, built)
	attempt.Timestamp = time.Now().UnixMilli()

	switch {
	case err != nil:
		attempt.Outcome = domain.OutcomeSubmissionFailed
		attempt.Reason = err.Error()
		r.stats.RecordFailure()
	case result.RevertReason != "":
		attempt.Outcome = domain.OutcomeReverted
		attempt.Reason = result.RevertReason
		attempt.Signature = result.Signature
		r.stats.RecordFailure()
	default:
		attempt.Outcome = domain.OutcomeSuccess
		attempt.Signature = result.Signature
		attempt.RealizedProfit = result.RealizedProfit
		r.stats.RecordSuccess(result.RealizedProfit, built.Opportunity.Amount)
		r.logger.Printf("settled %s: profit %d", result.Signature, result.RealizedProfit)
	}

	r.recordAttempt(ctx, attempt)

	if attempt.Outcome != domain.OutcomeSuccess {
		return true, errors.New(attempt.Reason)
	}
	return true, nil
}

// recordAttempt persists the attempt; storage failures are logged, not fatal.
func (r *Runner) recordAttempt(ctx context.Context, attempt *domain.ExecutionAttempt) {
	if r.attempts == nil {
		return
	}
	if err := r.attempts.Insert(context.WithoutCancel(ctx), attempt); err != nil {
		r.logger.Printf("record attempt %s: %v", attempt.AttemptID, err)
	}
}
