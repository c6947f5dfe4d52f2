// Package selector reduces a scan cycle's opportunities to at most one
// candidate, applying the configured risk and profitability policy.
package selector

import (
	"log"

	"github.com/ailover379/solana-flash-loan-bot/internal/domain"
	"github.com/ailover379/solana-flash-loan-bot/internal/stats"
)

// Policy is the risk/profitability filter applied to every opportunity.
type Policy struct {
	// MinProfit is the minimum absolute expected profit, in base units.
	MinProfit uint64
	// MinProfitabilityBps is the minimum spread in basis points.
	MinProfitabilityBps int64
	// MaxPositionSize caps the candidate principal.
	MaxPositionSize uint64
	// DailyTxCap limits transactions per UTC day; zero disables the cap.
	DailyTxCap uint64
	// DailyVolumeCap limits summed principal per UTC day; zero disables it.
	DailyVolumeCap uint64
}

// Selector picks one opportunity per cycle.
type Selector struct {
	policy Policy
	logger *log.Logger
}

// New creates a Selector.
func New(policy Policy, logger *log.Logger) *Selector {
	if logger == nil {
		logger = log.Default()
	}
	return &Selector{policy: policy, logger: logger}
}

// Select filters opportunities by policy and returns the survivor with the
// greatest expected profit, breaking ties by lower gas estimate. The stats
// snapshot supplies the daily cap state.
func (s *Selector) Select(opportunities []domain.Opportunity, snap stats.Snapshot) (*domain.Opportunity, bool) {
	var best *domain.Opportunity
	for i := range opportunities {
		opp := &opportunities[i]
		if !s.admit(opp, snap) {
			continue
		}
		if best == nil ||
			opp.ExpectedProfit > best.ExpectedProfit ||
			(opp.ExpectedProfit == best.ExpectedProfit && opp.GasEstimate < best.GasEstimate) {
			best = opp
		}
	}
	if best == nil {
		return nil, false
	}
	result := *best
	return &result, true
}

func (s *Selector) admit(opp *domain.Opportunity, snap stats.Snapshot) bool {
	p := s.policy
	switch {
	case opp.ExpectedProfit < p.MinProfit:
		return false
	case opp.ProfitabilityBps < p.MinProfitabilityBps:
		return false
	case p.MaxPositionSize > 0 && opp.Amount > p.MaxPositionSize:
		return false
	case p.DailyTxCap > 0 && snap.DailyTransactions >= p.DailyTxCap:
		s.logger.Printf("selector: daily transaction cap %d exhausted", p.DailyTxCap)
		return false
	case p.DailyVolumeCap > 0 && snap.DailyVolume+opp.Amount > p.DailyVolumeCap:
		s.logger.Printf("selector: daily volume cap %d exhausted", p.DailyVolumeCap)
		return false
	}
	return true
}
