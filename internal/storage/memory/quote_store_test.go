package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/ailover379/solana-flash-loan-bot/internal/domain"
	"github.com/ailover379/solana-flash-loan-bot/internal/storage"
)

func venueQuote(venue string, observedAt int64) *domain.VenueQuote {
	return &domain.VenueQuote{
		Venue:      venue,
		BaseMint:   "base",
		QuoteMint:  "quote",
		Price:      0.001,
		Amount:     1_000_000,
		ObservedAt: observedAt,
	}
}

func TestQuoteStore_InsertBulk(t *testing.T) {
	ctx := context.Background()
	s := NewQuoteStore()

	if err := s.InsertBulk(ctx, nil); err != nil {
		t.Fatalf("Empty insert must be a no-op: %v", err)
	}
	if err := s.InsertBulk(ctx, []*domain.VenueQuote{{Venue: "alpha"}}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}

	quotes := []*domain.VenueQuote{venueQuote("alpha", 100), venueQuote("beta", 100)}
	if err := s.InsertBulk(ctx, quotes); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := s.GetByPair(ctx, "base", "quote", 0, 200)
	if err != nil {
		t.Fatalf("GetByPair failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Count: got %d, want 2", len(got))
	}

	// Equal timestamps order by venue.
	if got[0].Venue != "alpha" || got[1].Venue != "beta" {
		t.Errorf("Order: got %s, %s", got[0].Venue, got[1].Venue)
	}
}

func TestQuoteStore_GetByPairFilters(t *testing.T) {
	ctx := context.Background()
	s := NewQuoteStore()

	other := venueQuote("alpha", 150)
	other.BaseMint = "otherbase"
	s.InsertBulk(ctx, []*domain.VenueQuote{
		venueQuote("alpha", 100),
		venueQuote("alpha", 200),
		venueQuote("alpha", 300),
		other,
	})

	got, err := s.GetByPair(ctx, "base", "quote", 150, 250)
	if err != nil {
		t.Fatalf("GetByPair failed: %v", err)
	}
	if len(got) != 1 || got[0].ObservedAt != 200 {
		t.Errorf("Got %d quotes, want the single quote at 200", len(got))
	}
}
