package clickhouse

import (
	"context"
	"fmt"

	"github.com/ailover379/solana-flash-loan-bot/internal/domain"
	"github.com/ailover379/solana-flash-loan-bot/internal/storage"
)

// QuoteStore implements storage.QuoteStore using ClickHouse. Observed venue
// quotes are an append-only timeseries; the scanner writes one batch per
// scan cycle.
type QuoteStore struct {
	conn *Conn
}

// NewQuoteStore creates a new QuoteStore.
func NewQuoteStore(conn *Conn) *QuoteStore {
	return &QuoteStore{conn: conn}
}

// Compile-time interface check.
var _ storage.QuoteStore = (*QuoteStore)(nil)

// InsertBulk adds multiple observed quotes as one batch.
func (s *QuoteStore) InsertBulk(ctx context.Context, quotes []*domain.VenueQuote) error {
	if len(quotes) == 0 {
		return nil
	}

	for _, q := range quotes {
		if q == nil || q.Venue == "" || q.BaseMint == "" || q.QuoteMint == "" {
			return storage.ErrInvalidInput
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO venue_quotes (
			venue, base_mint, quote_mint, price, amount, observed_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, q := range quotes {
		err = batch.Append(
			q.Venue, q.BaseMint, q.QuoteMint,
			q.Price, q.Amount, uint64(q.ObservedAt),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByPair retrieves quotes for a pair within [start, end] (inclusive),
// ordered by observed_at ASC.
func (s *QuoteStore) GetByPair(ctx context.Context, baseMint, quoteMint string, start, end int64) ([]*domain.VenueQuote, error) {
	query := `
		SELECT venue, base_mint, quote_mint, price, amount, observed_at
		FROM venue_quotes
		WHERE base_mint = ? AND quote_mint = ? AND observed_at >= ? AND observed_at <= ?
		ORDER BY observed_at ASC, venue ASC
	`

	rows, err := s.conn.Query(ctx, query, baseMint, quoteMint, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query quotes by pair: %w", err)
	}
	defer rows.Close()

	var quotes []*domain.VenueQuote
	for rows.Next() {
		var (
			q          domain.VenueQuote
			observedAt uint64
		)
		err := rows.Scan(
			&q.Venue, &q.BaseMint, &q.QuoteMint,
			&q.Price, &q.Amount, &observedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan quote row: %w", err)
		}
		q.ObservedAt = int64(observedAt)
		quotes = append(quotes, &q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quote rows: %w", err)
	}

	return quotes, nil
}
