package storage

import (
	"context"

	"solana-copy-engine/internal/domain"
)

// UserStore provides access to subscribed-user records and their usage
// ledger. Increment is the only mutation the engine performs and it must be
// atomic per user: two concurrent successful dispatches for the same user
// may never lose an increment.
type UserStore interface {
	// Insert adds a new user. Returns ErrDuplicateKey if user_id exists.
	Insert(ctx context.Context, u *domain.UserRecord) error

	// GetByID retrieves a user by id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, userID string) (*domain.UserRecord, error)

	// GetUsage reads the user's current usage count and quota limit.
	GetUsage(ctx context.Context, userID string) (usage, limit uint64, err error)

	// IncrementUsage atomically adds 1 to the user's usage count and
	// returns the new value. Usage is monotonic: it is never decremented
	// through this interface.
	IncrementUsage(ctx context.Context, userID string) (uint64, error)

	// SetTargetAddress updates the wallet this user copies.
	SetTargetAddress(ctx context.Context, userID, address string) error
}

// CopyResultStore archives the consequences of dispatched copy trades.
// Observed trade events themselves are never persisted.
type CopyResultStore interface {
	// Insert records one dispatch outcome.
	Insert(ctx context.Context, r *domain.CopyResult) error

	// GetByUser retrieves all results for a user, newest first.
	GetByUser(ctx context.Context, userID string) ([]*domain.CopyResult, error)
}
