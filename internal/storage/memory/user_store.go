// Package memory provides in-memory store implementations for tests and
// the --use-memory mode.
package memory

import (
	"context"
	"sort"
	"sync"

	"solana-copy-engine/internal/domain"
	"solana-copy-engine/internal/storage"
)

// UserStore is an in-memory implementation of storage.UserStore. All
// mutations run under one mutex, which gives the same per-user increment
// serialization the SQL row update provides.
type UserStore struct {
	mu   sync.RWMutex
	data map[string]*domain.UserRecord
}

// NewUserStore creates a new in-memory user store.
func NewUserStore() *UserStore {
	return &UserStore{data: make(map[string]*domain.UserRecord)}
}

// Compile-time interface check.
var _ storage.UserStore = (*UserStore)(nil)

// Insert adds a new user. Returns ErrDuplicateKey if user_id exists.
func (s *UserStore) Insert(_ context.Context, u *domain.UserRecord) error {
	if u == nil || u.UserID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[u.UserID]; exists {
		return storage.ErrDuplicateKey
	}

	rec := *u
	if rec.QuotaLimit == 0 {
		rec.QuotaLimit = domain.DefaultQuotaLimit
	}
	s.data[u.UserID] = &rec
	return nil
}

// GetByID retrieves a user by id. Returns ErrNotFound if not exists.
func (s *UserStore) GetByID(_ context.Context, userID string) (*domain.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, exists := s.data[userID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	rec := *u
	return &rec, nil
}

// GetUsage reads the user's current usage count and quota limit.
func (s *UserStore) GetUsage(_ context.Context, userID string) (uint64, uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, exists := s.data[userID]
	if !exists {
		return 0, 0, storage.ErrNotFound
	}
	return u.UsageCount, u.QuotaLimit, nil
}

// IncrementUsage atomically adds 1 to the user's usage count.
func (s *UserStore) IncrementUsage(_ context.Context, userID string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, exists := s.data[userID]
	if !exists {
		return 0, storage.ErrNotFound
	}
	u.UsageCount++
	return u.UsageCount, nil
}

// SetTargetAddress updates the wallet this user copies.
func (s *UserStore) SetTargetAddress(_ context.Context, userID, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, exists := s.data[userID]
	if !exists {
		return storage.ErrNotFound
	}
	u.TargetAddress = address
	return nil
}

// CopyResultStore is an in-memory implementation of storage.CopyResultStore.
type CopyResultStore struct {
	mu   sync.RWMutex
	data []*domain.CopyResult
}

// NewCopyResultStore creates a new in-memory result store.
func NewCopyResultStore() *CopyResultStore {
	return &CopyResultStore{}
}

// Compile-time interface check.
var _ storage.CopyResultStore = (*CopyResultStore)(nil)

// Insert records one dispatch outcome.
func (s *CopyResultStore) Insert(_ context.Context, r *domain.CopyResult) error {
	if r == nil || r.UserID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := *r
	s.data = append(s.data, &rec)
	return nil
}

// GetByUser retrieves all results for a user, newest first.
func (s *CopyResultStore) GetByUser(_ context.Context, userID string) ([]*domain.CopyResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.CopyResult
	for _, r := range s.data {
		if r.UserID == userID {
			rec := *r
			out = append(out, &rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DispatchedAtMs > out[j].DispatchedAtMs
	})
	return out, nil
}
