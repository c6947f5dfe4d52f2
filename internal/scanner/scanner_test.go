package scanner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ailover379/solana-flash-loan-bot/internal/domain"
	"github.com/ailover379/solana-flash-loan-bot/internal/quote"
	"github.com/ailover379/solana-flash-loan-bot/internal/quote/stub"
	"github.com/ailover379/solana-flash-loan-bot/internal/storage/memory"
)

var testPair = domain.AssetPair{Base: "baseMint", Quote: "quoteMint"}

// newTestVenues returns two stub venues with a ~100 bps spread: alpha
// delivers more base per borrowed unit, so it is the cheaper buy side.
func newTestVenues() (*stub.Client, *stub.Client) {
	alpha := stub.NewClient("alpha", "ProgramAlpha")
	alpha.SetPrice(testPair.Quote, testPair.Base, 0.00101)

	beta := stub.NewClient("beta", "ProgramBeta")
	beta.SetPrice(testPair.Quote, testPair.Base, 0.00100)

	return alpha, beta
}

func newTestScanner(venues []quote.Client, minBps int64) *Scanner {
	return New(Options{
		Venues:              venues,
		Cache:               NewPriceCache(time.Minute, 16),
		ProbeAmount:         1_000_000,
		MinProfitabilityBps: minBps,
		GasEstimate:         5_000,
	})
}

func TestScanner_DetectsSpread(t *testing.T) {
	alpha, beta := newTestVenues()
	s := newTestScanner([]quote.Client{alpha, beta}, 50)

	opps := s.Scan(context.Background(), []domain.AssetPair{testPair})
	if len(opps) != 1 {
		t.Fatalf("Expected 1 opportunity, got %d", len(opps))
	}

	opp := opps[0]
	if opp.BuyVenue != "alpha" || opp.SellVenue != "beta" {
		t.Errorf("Venues: buy %s sell %s, want buy alpha sell beta", opp.BuyVenue, opp.SellVenue)
	}
	if opp.AssetID != testPair.Quote {
		t.Errorf("AssetID: got %s, want %s", opp.AssetID, testPair.Quote)
	}
	if opp.Amount != 1_000_000 {
		t.Errorf("Amount: got %d, want 1000000", opp.Amount)
	}
	// 0.00101/0.00100 is a spread of about 100 bps.
	if opp.ProfitabilityBps < 95 || opp.ProfitabilityBps > 100 {
		t.Errorf("ProfitabilityBps: got %d, want ~100", opp.ProfitabilityBps)
	}
	if opp.ExpectedProfit == 0 {
		t.Error("ExpectedProfit must be positive")
	}
	if opp.BuyPrice >= opp.SellPrice {
		t.Errorf("BuyPrice %f must be below SellPrice %f", opp.BuyPrice, opp.SellPrice)
	}
	if opp.GasEstimate != 5_000 {
		t.Errorf("GasEstimate: got %d, want 5000", opp.GasEstimate)
	}
}

func TestScanner_BelowThreshold(t *testing.T) {
	alpha, beta := newTestVenues()
	s := newTestScanner([]quote.Client{alpha, beta}, 200)

	if opps := s.Scan(context.Background(), []domain.AssetPair{testPair}); len(opps) != 0 {
		t.Errorf("Expected no opportunities below threshold, got %d", len(opps))
	}
}

func TestScanner_VenueFailureIsNotFatal(t *testing.T) {
	alpha, beta := newTestVenues()
	beta.SetError(errors.New("venue down"))
	s := newTestScanner([]quote.Client{alpha, beta}, 50)

	// A single surviving venue cannot form a spread.
	if opps := s.Scan(context.Background(), []domain.AssetPair{testPair}); len(opps) != 0 {
		t.Errorf("Expected no opportunities with one venue down, got %d", len(opps))
	}
}

func TestScanner_ServesFromCache(t *testing.T) {
	alpha, beta := newTestVenues()
	s := newTestScanner([]quote.Client{alpha, beta}, 50)

	pairs := []domain.AssetPair{testPair}
	s.Scan(context.Background(), pairs)
	s.Scan(context.Background(), pairs)

	if alpha.Calls() != 1 || beta.Calls() != 1 {
		t.Errorf("Expected one venue call each with a warm cache, got alpha=%d beta=%d",
			alpha.Calls(), beta.Calls())
	}
}

func TestScanner_RecordsObservedQuotes(t *testing.T) {
	alpha, beta := newTestVenues()
	store := memory.NewQuoteStore()

	s := New(Options{
		Venues:              []quote.Client{alpha, beta},
		Cache:               NewPriceCache(time.Minute, 16),
		QuoteStore:          store,
		ProbeAmount:         1_000_000,
		MinProfitabilityBps: 50,
	})
	s.Scan(context.Background(), []domain.AssetPair{testPair})

	quotes, err := store.GetByPair(context.Background(), testPair.Base, testPair.Quote, 0, time.Now().UnixMilli())
	if err != nil {
		t.Fatalf("GetByPair failed: %v", err)
	}
	if len(quotes) != 2 {
		t.Fatalf("Expected 2 recorded quotes, got %d", len(quotes))
	}
	for _, q := range quotes {
		if q.Price <= 0 {
			t.Errorf("Recorded price must be positive, got %f", q.Price)
		}
		if q.Amount != 1_000_000 {
			t.Errorf("Recorded amount: got %d, want 1000000", q.Amount)
		}
	}
}
