// Package scanner discovers price divergence between venues. Each scan
// cycle fans out quote queries per pair, picks the cheapest venue as the
// buy side and the dearest as the sell side, and emits opportunities whose
// spread clears the configured minimum.
package scanner

import (
	"context"
	"log"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ailover379/solana-flash-loan-bot/internal/domain"
	"github.com/ailover379/solana-flash-loan-bot/internal/quote"
	"github.com/ailover379/solana-flash-loan-bot/internal/storage"
)

// Options configures a Scanner.
type Options struct {
	Venues []quote.Client
	Cache  *PriceCache
	// QuoteStore, when set, records every observed venue price.
	QuoteStore storage.QuoteStore
	// ProbeAmount is the candidate principal each pair is quoted for,
	// in base units of the borrowed mint.
	ProbeAmount uint64
	// MinProfitabilityBps discards spreads below this threshold.
	MinProfitabilityBps int64
	// GasEstimate is attached to every emitted opportunity.
	GasEstimate uint64
	// MaxInFlight bounds concurrent venue queries per pair.
	MaxInFlight int
	// QuoteTimeout is the per-venue query deadline.
	QuoteTimeout time.Duration
	Logger       *log.Logger
}

// Scanner produces opportunities from venue quotes.
type Scanner struct {
	venues              []quote.Client
	cache               *PriceCache
	quoteStore          storage.QuoteStore
	probeAmount         uint64
	minProfitabilityBps int64
	gasEstimate         uint64
	maxInFlight         int
	quoteTimeout        time.Duration
	logger              *log.Logger
	now                 func() time.Time
}

// New creates a Scanner.
func New(opts Options) *Scanner {
	maxInFlight := opts.MaxInFlight
	if maxInFlight <= 0 {
		maxInFlight = 4
	}
	quoteTimeout := opts.QuoteTimeout
	if quoteTimeout == 0 {
		quoteTimeout = 5 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Scanner{
		venues:              opts.Venues,
		cache:               opts.Cache,
		quoteStore:          opts.QuoteStore,
		probeAmount:         opts.ProbeAmount,
		minProfitabilityBps: opts.MinProfitabilityBps,
		gasEstimate:         opts.GasEstimate,
		maxInFlight:         maxInFlight,
		quoteTimeout:        quoteTimeout,
		logger:              logger,
		now:                 time.Now,
	}
}

// venuePrice is one venue's observed cost for a pair.
type venuePrice struct {
	venue string
	// price is quote units paid per base unit.
	price  float64
	cached bool
}

// Scan queries every venue for every pair and returns the opportunities
// whose profitability clears the minimum. A failing venue only drops that
// venue from the pair; it never fails the scan.
func (s *Scanner) Scan(ctx context.Context, pairs []domain.AssetPair) []domain.Opportunity {
	var opportunities []domain.Opportunity
	for _, pair := range pairs {
		if ctx.Err() != nil {
			break
		}
		prices := s.scanPair(ctx, pair)
		if opp, ok := s.toOpportunity(pair, prices); ok {
			opportunities = append(opportunities, opp)
		}
	}
	return opportunities
}

// scanPair collects per-venue prices for one pair, serving from the cache
// where fresh and writing new observations back from this goroutine only.
func (s *Scanner) scanPair(ctx context.Context, pair domain.AssetPair) []venuePrice {
	results := make([]*venuePrice, len(s.venues))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxInFlight)
	for i, venue := range s.venues {
		if price, ok := s.cache.Get(venue.Name(), pair.String()); ok {
			results[i] = &venuePrice{venue: venue.Name(), price: price, cached: true}
			continue
		}
		g.Go(func() error {
			qctx, cancel := context.WithTimeout(gctx, s.quoteTimeout)
			defer cancel()

			q, err := venue.Quote(qctx, pair.Quote, pair.Base, s.probeAmount)
			if err != nil {
				s.logger.Printf("scan %s: venue %s failed: %v", pair, venue.Name(), err)
				return nil
			}
			if q.Price <= 0 {
				return nil
			}
			// Quote converts quote mint to base mint, so the cost per
			// base unit is the inverse of the venue's output rate.
			results[i] = &venuePrice{venue: venue.Name(), price: 1 / q.Price}
			return nil
		})
	}
	g.Wait()

	prices := make([]venuePrice, 0, len(results))
	var observed []*domain.VenueQuote
	nowMs := s.now().UnixMilli()
	for _, r := range results {
		if r == nil {
			continue
		}
		prices = append(prices, *r)
		if !r.cached {
			s.cache.Put(r.venue, pair.String(), r.price)
			observed = append(observed, &domain.VenueQuote{
				Venue:      r.venue,
				BaseMint:   pair.Base,
				QuoteMint:  pair.Quote,
				Price:      r.price,
				Amount:     s.probeAmount,
				ObservedAt: nowMs,
			})
		}
	}

	if s.quoteStore != nil && len(observed) > 0 {
		if err := s.quoteStore.InsertBulk(ctx, observed); err != nil {
			s.logger.Printf("scan %s: record quotes: %v", pair, err)
		}
	}
	return prices
}

// toOpportunity reduces a pair's venue prices to at most one opportunity.
func (s *Scanner) toOpportunity(pair domain.AssetPair, prices []venuePrice) (domain.Opportunity, bool) {
	if len(prices) < 2 {
		return domain.Opportunity{}, false
	}

	sort.Slice(prices, func(i, j int) bool { return prices[i].price < prices[j].price })
	buy, sell := prices[0], prices[len(prices)-1]
	if buy.venue == sell.venue || buy.price <= 0 {
		return domain.Opportunity{}, false
	}

	profitabilityBps := int64(math.Floor((sell.price - buy.price) / buy.price * 10000))
	if profitabilityBps < s.minProfitabilityBps {
		return domain.Opportunity{}, false
	}

	expectedProfit := uint64(float64(s.probeAmount) * (sell.price - buy.price) / buy.price)

	return domain.Opportunity{
		AssetID:          pair.Quote,
		Pair:             pair,
		Amount:           s.probeAmount,
		ExpectedProfit:   expectedProfit,
		BuyVenue:         buy.venue,
		SellVenue:        sell.venue,
		BuyPrice:         buy.price,
		SellPrice:        sell.price,
		ProfitabilityBps: profitabilityBps,
		GasEstimate:      s.gasEstimate,
		DetectedAt:       s.now().UnixMilli(),
	}, true
}
