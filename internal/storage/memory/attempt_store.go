package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/ailover379/solana-flash-loan-bot/internal/domain"
	"github.com/ailover379/solana-flash-loan-bot/internal/storage"
)

// AttemptStore is an in-memory implementation of storage.AttemptStore.
type AttemptStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ExecutionAttempt // keyed by attempt_id
}

// NewAttemptStore creates a new in-memory attempt store.
func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		data: make(map[string]*domain.ExecutionAttempt),
	}
}

// Insert adds a new attempt. Returns ErrDuplicateKey if attempt_id exists.
func (s *AttemptStore) Insert(_ context.Context, a *domain.ExecutionAttempt) error {
	if a == nil || a.AttemptID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[a.AttemptID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *a
	s.data[a.AttemptID] = &copy
	return nil
}

// GetByID retrieves an attempt by its ID. Returns ErrNotFound if not exists.
func (s *AttemptStore) GetByID(_ context.Context, attemptID string) (*domain.ExecutionAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.data[attemptID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *a
	return &copy, nil
}

// GetByTimeRange retrieves attempts within [start, end] (inclusive), ordered
// by timestamp ASC.
func (s *AttemptStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.ExecutionAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ExecutionAttempt
	for _, a := range s.data {
		if a.Timestamp >= start && a.Timestamp <= end {
			copy := *a
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Timestamp != result[j].Timestamp {
			return result[i].Timestamp < result[j].Timestamp
		}
		return result[i].AttemptID < result[j].AttemptID
	})

	return result, nil
}

// CountSince returns the number of attempts recorded at or after since.
func (s *AttemptStore) CountSince(_ context.Context, since int64) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count uint64
	for _, a := range s.data {
		if a.Timestamp >= since {
			count++
		}
	}
	return count, nil
}

// VolumeSince returns the summed principal of successful attempts recorded
// at or after since.
func (s *AttemptStore) VolumeSince(_ context.Context, since int64) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var volume uint64
	for _, a := range s.data {
		if a.Timestamp >= since && a.Outcome == domain.OutcomeSuccess {
			volume += a.Opportunity.Amount
		}
	}
	return volume, nil
}

var _ storage.AttemptStore = (*AttemptStore)(nil)
