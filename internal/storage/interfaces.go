package storage

import (
	"context"

	"github.com/ailover379/solana-flash-loan-bot/internal/domain"
)

// AttemptStore provides access to execution_attempts storage.
type AttemptStore interface {
	// Insert adds a new attempt. Returns ErrDuplicateKey if attempt_id exists.
	Insert(ctx context.Context, a *domain.ExecutionAttempt) error

	// GetByID retrieves an attempt by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, attemptID string) (*domain.ExecutionAttempt, error)

	// GetByTimeRange retrieves attempts within [start, end] (inclusive,
	// milliseconds), ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.ExecutionAttempt, error)

	// CountSince returns the number of attempts recorded at or after since.
	CountSince(ctx context.Context, since int64) (uint64, error)

	// VolumeSince returns the summed principal of successful attempts
	// recorded at or after since.
	VolumeSince(ctx context.Context, since int64) (uint64, error)
}

// QuoteStore provides access to venue_quotes storage.
type QuoteStore interface {
	// InsertBulk adds multiple observed quotes.
	InsertBulk(ctx context.Context, quotes []*domain.VenueQuote) error

	// GetByPair retrieves quotes for a pair within [start, end] (inclusive,
	// milliseconds), ordered by observed_at ASC.
	GetByPair(ctx context.Context, baseMint, quoteMint string, start, end int64) ([]*domain.VenueQuote, error)
}
