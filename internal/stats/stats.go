// Package stats tracks process-wide execution counters. The tracker is
// owned by the scheduler; everyone else sees read-only snapshots.
package stats

import (
	"sync"
	"time"
)

// Snapshot is a read-only view of the tracker, safe to serialize.
type Snapshot struct {
	TotalTransactions   uint64 `json:"total_transactions"`
	Successful          uint64 `json:"successful_transactions"`
	Failed              uint64 `json:"failed_transactions"`
	CumulativeProfit    uint64 `json:"cumulative_profit"`
	CumulativeVolume    uint64 `json:"cumulative_volume"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
	ErrorCount          uint64 `json:"error_count"`
	LastTransactionAt   int64  `json:"last_transaction_at,omitempty"` // unix ms
	DailyTransactions   uint64 `json:"daily_transactions"`
	DailyVolume         uint64 `json:"daily_volume"`
	StartedAt           int64  `json:"started_at"` // unix ms
}

// Tracker accumulates counters for the lifetime of the process. Daily
// counters roll over at UTC midnight.
type Tracker struct {
	mu       sync.Mutex
	snap     Snapshot
	dayStart time.Time
	now      func() time.Time
}

// NewTracker creates a Tracker. Counters reset only at process start.
func NewTracker() *Tracker {
	return newTracker(time.Now)
}

func newTracker(now func() time.Time) *Tracker {
	t := &Tracker{now: now}
	start := now()
	t.snap.StartedAt = start.UnixMilli()
	t.dayStart = start.UTC().Truncate(24 * time.Hour)
	return t
}

// rollDayLocked resets daily counters when the UTC day changed.
func (t *Tracker) rollDayLocked() {
	day := t.now().UTC().Truncate(24 * time.Hour)
	if day.After(t.dayStart) {
		t.dayStart = day
		t.snap.DailyTransactions = 0
		t.snap.DailyVolume = 0
	}
}

// RecordSuccess records a committed settlement with its realized profit and
// principal volume, and resets the consecutive-failure counter.
func (t *Tracker) RecordSuccess(profit, volume uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rollDayLocked()
	t.snap.TotalTransactions++
	t.snap.Successful++
	t.snap.CumulativeProfit += profit
	t.snap.CumulativeVolume += volume
	t.snap.DailyTransactions++
	t.snap.DailyVolume += volume
	t.snap.ConsecutiveFailures = 0
	t.snap.LastTransactionAt = t.now().UnixMilli()
}

// RecordFailure records a submitted transaction that reverted or whose
// submission failed.
func (t *Tracker) RecordFailure() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rollDayLocked()
	t.snap.TotalTransactions++
	t.snap.Failed++
	t.snap.DailyTransactions++
	t.snap.ConsecutiveFailures++
	t.snap.LastTransactionAt = t.now().UnixMilli()
}

// RecordCycleError records a cycle-level error that never reached
// submission (scan, build, or health failures).
func (t *Tracker) RecordCycleError() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.ErrorCount++
	t.snap.ConsecutiveFailures++
}

// ResetConsecutiveFailures zeroes the failure streak. Used by the
// scheduler's circuit breaker after its cooldown sleep.
func (t *Tracker) ResetConsecutiveFailures() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.ConsecutiveFailures = 0
}

// ConsecutiveFailures returns the current failure streak.
func (t *Tracker) ConsecutiveFailures() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snap.ConsecutiveFailures
}

// Get returns a copy of the current counters.
func (t *Tracker) Get() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rollDayLocked()
	return t.snap
}
