package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/ailover379/solana-flash-loan-bot/internal/domain"
	"github.com/ailover379/solana-flash-loan-bot/internal/storage"
)

// QuoteStore is an in-memory implementation of storage.QuoteStore.
type QuoteStore struct {
	mu   sync.RWMutex
	data []*domain.VenueQuote
}

// NewQuoteStore creates a new in-memory quote store.
func NewQuoteStore() *QuoteStore {
	return &QuoteStore{}
}

// InsertBulk adds multiple observed quotes.
func (s *QuoteStore) InsertBulk(_ context.Context, quotes []*domain.VenueQuote) error {
	if len(quotes) == 0 {
		return nil
	}

	for _, q := range quotes {
		if q == nil || q.Venue == "" || q.BaseMint == "" || q.QuoteMint == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, q := range quotes {
		copy := *q
		s.data = append(s.data, &copy)
	}
	return nil
}

// GetByPair retrieves quotes for a pair within [start, end] (inclusive),
// ordered by observed_at ASC.
func (s *QuoteStore) GetByPair(_ context.Context, baseMint, quoteMint string, start, end int64) ([]*domain.VenueQuote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.VenueQuote
	for _, q := range s.data {
		if q.BaseMint == baseMint && q.QuoteMint == quoteMint && q.ObservedAt >= start && q.ObservedAt <= end {
			copy := *q
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].ObservedAt != result[j].ObservedAt {
			return result[i].ObservedAt < result[j].ObservedAt
		}
		return result[i].Venue < result[j].Venue
	})

	return result, nil
}

var _ storage.QuoteStore = (*QuoteStore)(nil)
