package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ailover379/solana-flash-loan-bot/internal/domain"
	"github.com/ailover379/solana-flash-loan-bot/internal/storage"
)

// AttemptStore implements storage.AttemptStore using PostgreSQL.
type AttemptStore struct {
	pool *Pool
}

// NewAttemptStore creates a new AttemptStore.
func NewAttemptStore(pool *Pool) *AttemptStore {
	return &AttemptStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AttemptStore = (*AttemptStore)(nil)

const attemptColumns = `
	attempt_id, asset_id, base_mint, quote_mint, amount, expected_profit,
	buy_venue, sell_venue, buy_price, sell_price, profitability_bps,
	gas_estimate, detected_at, outcome, reason, signature, realized_profit, timestamp
`

// Insert adds a new attempt. Returns ErrDuplicateKey if attempt_id exists.
func (s *AttemptStore) Insert(ctx context.Context, a *domain.ExecutionAttempt) error {
	if a == nil || a.AttemptID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO execution_attempts (` + attemptColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	opp := a.Opportunity
	_, err := s.pool.Exec(ctx, query,
		a.AttemptID,
		opp.AssetID,
		opp.Pair.Base,
		opp.Pair.Quote,
		opp.Amount,
		opp.ExpectedProfit,
		opp.BuyVenue,
		opp.SellVenue,
		opp.BuyPrice,
		opp.SellPrice,
		opp.ProfitabilityBps,
		opp.GasEstimate,
		opp.DetectedAt,
		string(a.Outcome),
		a.Reason,
		a.Signature,
		a.RealizedProfit,
		a.Timestamp,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

// GetByID retrieves an attempt by its ID. Returns ErrNotFound if not exists.
func (s *AttemptStore) GetByID(ctx context.Context, attemptID string) (*domain.ExecutionAttempt, error) {
	query := `
		SELECT ` + attemptColumns + `
		FROM execution_attempts
		WHERE attempt_id = $1
	`

	row := s.pool.QueryRow(ctx, query, attemptID)
	a, err := scanAttempt(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get attempt by id: %w", err)
	}
	return a, nil
}

// GetByTimeRange retrieves attempts within [start, end] (inclusive), ordered
// by timestamp ASC.
func (s *AttemptStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.ExecutionAttempt, error) {
	query := `
		SELECT ` + attemptColumns + `
		FROM execution_attempts
		WHERE timestamp >= $1 AND timestamp <= $2
		ORDER BY timestamp ASC, attempt_id ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("get attempts by time range: %w", err)
	}
	defer rows.Close()

	var attempts []*domain.ExecutionAttempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attempt row: %w", err)
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempt rows: %w", err)
	}

	return attempts, nil
}

// CountSince returns the number of attempts recorded at or after since.
func (s *AttemptStore) CountSince(ctx context.Context, since int64) (uint64, error) {
	query := `SELECT COUNT(*) FROM execution_attempts WHERE timestamp >= $1`

	var count uint64
	if err := s.pool.QueryRow(ctx, query, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("count attempts since: %w", err)
	}
	return count, nil
}

// VolumeSince returns the summed principal of successful attempts recorded
// at or after since.
func (s *AttemptStore) VolumeSince(ctx context.Context, since int64) (uint64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)::BIGINT
		FROM execution_attempts
		WHERE timestamp >= $1 AND outcome = $2
	`

	var volume uint64
	if err := s.pool.QueryRow(ctx, query, since, string(domain.OutcomeSuccess)).Scan(&volume); err != nil {
		return 0, fmt.Errorf("volume since: %w", err)
	}
	return volume, nil
}

// scanAttempt scans one row into an ExecutionAttempt.
func scanAttempt(row pgx.Row) (*domain.ExecutionAttempt, error) {
	var (
		a       domain.ExecutionAttempt
		outcome string
	)
	err := row.Scan(
		&a.AttemptID,
		&a.Opportunity.AssetID,
		&a.Opportunity.Pair.Base,
		&a.Opportunity.Pair.Quote,
		&a.Opportunity.Amount,
		&a.Opportunity.ExpectedProfit,
		&a.Opportunity.BuyVenue,
		&a.Opportunity.SellVenue,
		&a.Opportunity.BuyPrice,
		&a.Opportunity.SellPrice,
		&a.Opportunity.ProfitabilityBps,
		&a.Opportunity.GasEstimate,
		&a.Opportunity.DetectedAt,
		&outcome,
		&a.Reason,
		&a.Signature,
		&a.RealizedProfit,
		&a.Timestamp,
	)
	if err != nil {
		return nil, err
	}
	a.Outcome = domain.AttemptOutcome(outcome)
	return &a, nil
}
